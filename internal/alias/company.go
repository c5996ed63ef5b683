package alias

import "strings"

// CompanyConfig is the single source of truth for company canonicalization:
// exact reporting-source ids and free-text name fragments per canonical token.
type CompanyConfig struct {
	SourceIDs map[string]string   `yaml:"source_ids,omitempty"`
	Fragments map[string][]string `yaml:"fragments,omitempty"`
}

type companyIndex struct {
	bySourceID map[string]string
	// fragment (normalized) -> canonical token, longest fragments first
	fragments []companyFragment
	tokens    map[string]string
}

type companyFragment struct {
	text  string
	token string
}

func buildCompanyIndex(cfg CompanyConfig) companyIndex {
	idx := companyIndex{
		bySourceID: map[string]string{},
		tokens:     map[string]string{},
	}
	for id, token := range cfg.SourceIDs {
		idx.bySourceID[strings.TrimSpace(id)] = token
	}
	for token, fragments := range cfg.Fragments {
		idx.tokens[Normalize(token)] = token
		for _, f := range fragments {
			nf := Normalize(f)
			if nf == "" {
				continue
			}
			idx.fragments = append(idx.fragments, companyFragment{text: nf, token: token})
		}
	}
	// longer fragments first so "פלסר" cannot shadow "פלסר מסייעת"
	for i := 1; i < len(idx.fragments); i++ {
		for j := i; j > 0 && len(idx.fragments[j].text) > len(idx.fragments[j-1].text); j-- {
			idx.fragments[j], idx.fragments[j-1] = idx.fragments[j-1], idx.fragments[j]
		}
	}
	return idx
}

// InferCompany resolves a company from, in order: the exact source id table,
// configured name fragments inside the hint, and finally the hint's last
// token. Empty string means nothing matched and the caller applies the
// Unknown sentinel.
func (r *Resolver) InferCompany(hintText, sourceID string) string {
	if token, ok := r.companies.bySourceID[strings.TrimSpace(sourceID)]; ok {
		return token
	}
	hint := Normalize(hintText)
	if hint == "" {
		return ""
	}
	for _, f := range r.companies.fragments {
		if strings.Contains(hint, f.text) {
			return f.token
		}
	}
	fields := strings.Fields(hint)
	if len(fields) > 0 {
		last := fields[len(fields)-1]
		if token, ok := r.companies.tokens[last]; ok {
			return token
		}
		for _, f := range r.companies.fragments {
			if f.text == last {
				return f.token
			}
		}
	}
	return ""
}

// CanonicalCompany maps free text (a payload "company" field value) onto a
// canonical token, using the same alias data as InferCompany.
func (r *Resolver) CanonicalCompany(text string) string {
	t := Normalize(text)
	if t == "" {
		return ""
	}
	if token, ok := r.companies.tokens[t]; ok {
		return token
	}
	for _, f := range r.companies.fragments {
		if strings.Contains(t, f.text) {
			return f.token
		}
	}
	return ""
}
