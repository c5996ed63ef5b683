package metrics

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/eitanrom/plada-backend/internal/alias"
	"github.com/eitanrom/plada-backend/internal/pkg/dbctx"
)

const (
	defaultSearchLimit  = 20
	maxMatchedPerRecord = 5
)

// SearchMatch is one matched field on one record.
type SearchMatch struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// SearchResult is one normalized response that matched the query.
type SearchResult struct {
	EventID    string        `json:"event_id"`
	TankID     string        `json:"tank_id"`
	CompanyKey string        `json:"company_key"`
	WeekID     string        `json:"week_id"`
	Matches    []SearchMatch `json:"matches,omitempty"`
}

// Search runs a free-text match over tank ids, company keys, and resolved
// field names/values within a bounded week/company window.
func (e *Engine) Search(ctx context.Context, query, weekID, companyKey string, limit int) ([]SearchResult, error) {
	q := alias.Normalize(query)
	if q == "" {
		return []SearchResult{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = defaultSearchLimit
	}

	weekID, err := e.resolveWeek(ctx, weekID)
	if err != nil {
		return nil, err
	}
	rows, err := e.normalized.List(dbctx.Context{Ctx: ctx}, weekID, companyKey)
	if err != nil {
		return nil, err
	}

	results := []SearchResult{}
	for _, row := range rows {
		if len(results) >= limit {
			break
		}
		res := SearchResult{
			EventID:    row.EventID,
			TankID:     row.TankID,
			CompanyKey: row.CompanyKey,
			WeekID:     row.WeekID,
		}
		direct := strings.Contains(alias.Normalize(row.TankID), q) ||
			strings.Contains(alias.Normalize(row.CompanyKey), q)

		var fields map[string]string
		if err := json.Unmarshal(row.Fields, &fields); err == nil {
			keys := make([]string, 0, len(fields))
			for k := range fields {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, key := range keys {
				if len(res.Matches) >= maxMatchedPerRecord {
					break
				}
				_, item := alias.SplitFieldKey(key)
				if strings.Contains(alias.Normalize(item), q) ||
					strings.Contains(alias.Normalize(fields[key]), q) {
					res.Matches = append(res.Matches, SearchMatch{Field: item, Value: fields[key]})
				}
			}
		}

		if direct || len(res.Matches) > 0 {
			results = append(results, res)
		}
	}
	return results, nil
}
