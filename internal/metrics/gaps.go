package metrics

import (
	"context"
	"fmt"
	"sort"
	"time"

	pkgerrors "github.com/eitanrom/plada-backend/internal/pkg/errors"
)

const (
	GroupBySection = "section"
	GroupByCompany = "company"
	GroupByItem    = "item"
)

// GapBucket is one row of the gap rollup.
type GapBucket struct {
	Key          string  `json:"key"`
	Label        string  `json:"label,omitempty"`
	CheckedItems int     `json:"checked_items"`
	Gaps         int     `json:"gaps"`
	CriticalGaps int     `json:"critical_gaps"`
	GapRate      float64 `json:"gap_rate"`
}

// GapsView groups every open gap in the window by section, company, or item.
type GapsView struct {
	WeekID     string      `json:"week_id"`
	CompanyKey string      `json:"company_key,omitempty"`
	GroupBy    string      `json:"group_by"`
	Buckets    []GapBucket `json:"buckets"`
	ComputedAt time.Time   `json:"computed_at"`
}

func (e *Engine) Gaps(ctx context.Context, weekID, companyKey, groupBy string) (*GapsView, error) {
	switch groupBy {
	case "":
		groupBy = GroupBySection
	case GroupBySection, GroupByCompany, GroupByItem:
	default:
		return nil, fmt.Errorf("%w: unknown group_by %q", pkgerrors.ErrInvalidArgument, groupBy)
	}

	weekID, err := e.resolveWeek(ctx, weekID)
	if err != nil {
		return nil, err
	}
	tanks, err := e.loadTankWeeks(ctx, weekID, companyKey)
	if err != nil {
		return nil, err
	}

	buckets := map[string]*GapBucket{}
	for _, tw := range tanks {
		for _, f := range tw.Fields {
			var key, label string
			switch groupBy {
			case GroupBySection:
				key = f.Section
			case GroupByCompany:
				key = tw.CompanyKey
				label = e.stds.Label(tw.CompanyKey)
			case GroupByItem:
				key = f.Item
			}
			b, ok := buckets[key]
			if !ok {
				b = &GapBucket{Key: key, Label: label}
				buckets[key] = b
			}
			b.CheckedItems++
			if f.Gap {
				b.Gaps++
				if f.Critical {
					b.CriticalGaps++
				}
			}
		}
	}

	view := &GapsView{
		WeekID:     weekID,
		CompanyKey: companyKey,
		GroupBy:    groupBy,
		ComputedAt: time.Now().UTC(),
	}
	for _, b := range buckets {
		b.GapRate = GapRate(b.CheckedItems, b.Gaps)
		view.Buckets = append(view.Buckets, *b)
	}
	// worst first: critical gaps, then total gaps
	sort.Slice(view.Buckets, func(i, j int) bool {
		if view.Buckets[i].CriticalGaps != view.Buckets[j].CriticalGaps {
			return view.Buckets[i].CriticalGaps > view.Buckets[j].CriticalGaps
		}
		if view.Buckets[i].Gaps != view.Buckets[j].Gaps {
			return view.Buckets[i].Gaps > view.Buckets[j].Gaps
		}
		return view.Buckets[i].Key < view.Buckets[j].Key
	})
	return view, nil
}
