package alias

import (
	"strings"

	"github.com/eitanrom/plada-backend/internal/pkg/logger"
)

// Families with fixed meaning across every form revision. Reports that cannot
// resolve these cannot be normalized at all.
const (
	FamilyTankID    = "tank_id"
	FamilyTimestamp = "timestamp"
	FamilyCompany   = "company"
)

var requiredFamilies = []string{FamilyTankID, FamilyTimestamp}

// Match is a resolved field label.
type Match struct {
	Family string
	Item   string
}

// FieldKey is the canonical field name stored on normalized responses.
func (m Match) FieldKey() string { return m.Family + ":" + m.Item }

// SplitFieldKey is the inverse of Match.FieldKey.
func SplitFieldKey(key string) (family, item string) {
	if i := strings.Index(key, ":"); i >= 0 {
		return key[:i], key[i+1:]
	}
	return key, ""
}

// Resolver maps raw field labels to canonical (family, item) pairs and company
// hints to canonical company tokens. It is immutable once built; reload means
// building a new one.
type Resolver struct {
	rules     []compiledRule
	companies companyIndex
	log       *logger.Logger
}

func NewResolver(cfg Config, baseLog *logger.Logger) (*Resolver, error) {
	rules, err := compileRules(cfg.Rules)
	if err != nil {
		return nil, err
	}
	return &Resolver{
		rules:     rules,
		companies: buildCompanyIndex(cfg.Companies),
		log:       baseLog.With("component", "AliasResolver"),
	}, nil
}

// ResolveHeader returns the first matching rule for a raw label, or nil when
// nothing matches. Wildcard captures that look like bare numeric codes are
// rejected: those are unit identifiers, not items.
func (r *Resolver) ResolveHeader(rawLabel string) *Match {
	label := Normalize(rawLabel)
	if label == "" {
		return nil
	}
	for _, rule := range r.rules {
		if rule.wildcard {
			groups := rule.re.FindStringSubmatch(label)
			if groups == nil {
				continue
			}
			item := strings.TrimSpace(strings.Trim(groups[1], "[]"))
			if item == "" || looksLikeNumericCode(item) {
				continue
			}
			return &Match{Family: rule.family, Item: item}
		}
		if rule.re.MatchString(label) {
			return &Match{Family: rule.family, Item: rule.item}
		}
	}
	return nil
}

// MissingRequired resolves every label and reports which required families
// (unit identifier, timestamp) are still unaccounted for. An empty result
// means the minimum schema is present.
func (r *Resolver) MissingRequired(labels []string) []string {
	found := map[string]bool{}
	for _, label := range labels {
		if m := r.ResolveHeader(label); m != nil {
			found[m.Family] = true
		}
	}
	var missing []string
	for _, family := range requiredFamilies {
		if !found[family] {
			missing = append(missing, family)
		}
	}
	return missing
}
