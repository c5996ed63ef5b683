package alias

import (
	"fmt"
	"regexp"
	"strings"
)

// RuleConfig is one entry of the externally authored alias table. Order in the
// file is matching priority: the first rule that matches a label wins.
type RuleConfig struct {
	Family        string `yaml:"family"`
	Pattern       string `yaml:"pattern"`
	Item          string `yaml:"item,omitempty"`
	AllowTrailing bool   `yaml:"allow_trailing,omitempty"`
}

type compiledRule struct {
	family   string
	item     string
	wildcard bool
	re       *regexp.Regexp
}

const wildcardToken = "*"

func compileRules(rules []RuleConfig) ([]compiledRule, error) {
	out := make([]compiledRule, 0, len(rules))
	for i, rc := range rules {
		family := strings.TrimSpace(rc.Family)
		if family == "" {
			return nil, fmt.Errorf("alias rule %d: empty family", i)
		}
		pattern := Normalize(rc.Pattern)
		if pattern == "" {
			return nil, fmt.Errorf("alias rule %d (%s): empty pattern", i, family)
		}
		if strings.Count(pattern, wildcardToken) > 1 {
			return nil, fmt.Errorf("alias rule %d (%s): more than one wildcard", i, family)
		}

		cr := compiledRule{family: family, item: Normalize(rc.Item)}
		if cr.item == "" {
			cr.item = pattern
		}

		expr := regexp.QuoteMeta(pattern)
		if strings.Contains(pattern, wildcardToken) {
			cr.wildcard = true
			expr = strings.Replace(expr, regexp.QuoteMeta(wildcardToken), `(.+?)`, 1)
		}
		expr = "^" + expr
		if rc.AllowTrailing {
			expr += `(?:\s.*)?`
		}
		expr += "$"

		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("alias rule %d (%s): %w", i, family, err)
		}
		cr.re = re
		out = append(out, cr)
	}
	return out, nil
}
