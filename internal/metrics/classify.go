package metrics

import "strings"

// Classifier decides whether a reported field value is a gap. Every
// aggregation in this package goes through the same instance, so a value can
// never count as a gap in one rollup and not in another.
type Classifier struct {
	tokens []string
}

func NewClassifier(gapTokensLower []string) *Classifier {
	tokens := make([]string, 0, len(gapTokensLower))
	for _, t := range gapTokensLower {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return &Classifier{tokens: tokens}
}

// IsGap reports whether value contains any configured missing/worn/faulty
// token, case-insensitively. Empty values are not gaps.
func (c *Classifier) IsGap(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return false
	}
	for _, t := range c.tokens {
		if strings.Contains(v, t) {
			return true
		}
	}
	return false
}
