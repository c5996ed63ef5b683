package standards

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and validates the standards document. Any problem here is fatal
// at startup: running with an undefined critical-item list or penalty weight
// would silently change every displayed score.
func Load(path string) (*Standards, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read standards: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Standards, error) {
	var s Standards
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse standards: %w", err)
	}
	if len(s.ActiveCompanies) == 0 {
		return nil, fmt.Errorf("standards: active_companies is empty")
	}
	if s.CriticalGapPenalty <= 0 {
		return nil, fmt.Errorf("standards: critical_gap_penalty must be positive, got %v", s.CriticalGapPenalty)
	}
	if len(s.GapTokens) == 0 {
		return nil, fmt.Errorf("standards: gap_tokens is empty")
	}
	for family, policy := range s.MissingValuePolicy {
		if policy != PolicyAssumeStandard && policy != PolicyAssumeZero {
			return nil, fmt.Errorf("standards: unknown missing_value_policy %q for family %q", policy, family)
		}
	}
	s.index()
	return &s, nil
}
