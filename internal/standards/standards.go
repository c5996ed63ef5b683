package standards

import (
	"strings"

	"github.com/eitanrom/plada-backend/internal/alias"
)

// Missing-value policies per family. assume_standard treats an unreported
// item as meeting its numeric standard (ammo-style counts); assume_zero
// treats it as simply unchecked, never as a synthetic gap.
const (
	PolicyAssumeStandard = "assume_standard"
	PolicyAssumeZero     = "assume_zero"
)

// SectionGeneral is the bucket for fields whose family and item resolve to no
// configured section.
const SectionGeneral = "General"

// AssetItem is one configured company-level equipment item.
type AssetItem struct {
	Name             string   `yaml:"name"`
	Section          string   `yaml:"section"`
	Group            string   `yaml:"group,omitempty"`
	IsCritical       bool     `yaml:"is_critical,omitempty"`
	StandardQuantity float64  `yaml:"standard_quantity,omitempty"`
	Aliases          []string `yaml:"aliases,omitempty"`
}

// Standards is the loaded reference document. It is immutable for the process
// lifetime; a reload constructs and swaps in a whole new value.
type Standards struct {
	ActiveCompanies    []string           `yaml:"active_companies"`
	CompanyLabels      map[string]string  `yaml:"company_labels,omitempty"`
	CriticalGapPenalty float64            `yaml:"critical_gap_penalty"`
	CriticalPenaltyCap float64            `yaml:"critical_penalty_cap,omitempty"`
	GapTokens          []string           `yaml:"gap_tokens"`
	CriticalItems      []string           `yaml:"critical_items,omitempty"`
	TankItemStandards  map[string]float64 `yaml:"tank_item_standards,omitempty"`
	Sections           map[string]string  `yaml:"sections,omitempty"`
	MissingValuePolicy map[string]string  `yaml:"missing_value_policy,omitempty"`
	CompanyAssetItems  []AssetItem        `yaml:"company_asset_items,omitempty"`

	criticalSet    map[string]bool
	activeSet      map[string]bool
	sectionByItem  map[string]string
	itemsByGroup   map[string][]AssetItem
	gapTokensLower []string
}

func (s *Standards) index() {
	s.criticalSet = make(map[string]bool, len(s.CriticalItems))
	for _, item := range s.CriticalItems {
		s.criticalSet[alias.Normalize(item)] = true
	}
	s.activeSet = make(map[string]bool, len(s.ActiveCompanies))
	for _, c := range s.ActiveCompanies {
		s.activeSet[strings.ToLower(c)] = true
	}
	s.sectionByItem = make(map[string]string, len(s.CompanyAssetItems))
	s.itemsByGroup = map[string][]AssetItem{}
	for _, item := range s.CompanyAssetItems {
		if item.Group != "" {
			s.itemsByGroup[item.Group] = append(s.itemsByGroup[item.Group], item)
		}
		key := alias.Normalize(item.Name)
		if key != "" && item.Section != "" {
			s.sectionByItem[key] = item.Section
		}
		for _, a := range item.Aliases {
			if na := alias.Normalize(a); na != "" && item.Section != "" {
				s.sectionByItem[na] = item.Section
			}
		}
		if item.IsCritical {
			s.criticalSet[key] = true
		}
	}
	s.gapTokensLower = make([]string, 0, len(s.GapTokens))
	for _, t := range s.GapTokens {
		if lt := strings.ToLower(strings.TrimSpace(t)); lt != "" {
			s.gapTokensLower = append(s.gapTokensLower, lt)
		}
	}
}

func (s *Standards) IsActiveCompany(token string) bool {
	return s.activeSet[strings.ToLower(token)]
}

func (s *Standards) Label(token string) string {
	if label, ok := s.CompanyLabels[token]; ok {
		return label
	}
	return token
}

func (s *Standards) IsCritical(item string) bool {
	return s.criticalSet[alias.Normalize(item)]
}

// SectionFor buckets a resolved field: explicit family mapping first, then the
// asset-item table by item name, then General.
func (s *Standards) SectionFor(family, item string) string {
	if section, ok := s.Sections[family]; ok {
		return section
	}
	if section, ok := s.sectionByItem[alias.Normalize(item)]; ok {
		return section
	}
	return SectionGeneral
}

func (s *Standards) PolicyFor(family string) string {
	if p, ok := s.MissingValuePolicy[family]; ok {
		return p
	}
	return PolicyAssumeZero
}

func (s *Standards) StandardQuantity(item string) float64 {
	if q, ok := s.TankItemStandards[item]; ok {
		return q
	}
	key := alias.Normalize(item)
	for name, q := range s.TankItemStandards {
		if alias.Normalize(name) == key {
			return q
		}
	}
	return 0
}

// ItemsForFamily returns the configured asset items whose group tag matches
// the alias family, used when a missing-value policy needs the expected item
// set.
func (s *Standards) ItemsForFamily(family string) []AssetItem {
	return s.itemsByGroup[family]
}

// GapTokensLower exposes the configured gap vocabulary, lowercased, for the
// metrics classifier.
func (s *Standards) GapTokensLower() []string {
	return s.gapTokensLower
}

func (s *Standards) PenaltyCap() float64 {
	if s.CriticalPenaltyCap > 0 {
		return s.CriticalPenaltyCap
	}
	return 60
}
