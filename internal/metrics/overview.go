package metrics

import (
	"context"
	"sort"
	"time"

	"github.com/eitanrom/plada-backend/internal/domain/reports"
)

// CompanyOverview is one company's row in the weekly overview.
type CompanyOverview struct {
	CompanyKey   string   `json:"company_key"`
	Label        string   `json:"label"`
	Reports      int      `json:"reports"`
	Tanks        int      `json:"tanks"`
	CheckedItems int      `json:"checked_items"`
	Gaps         int      `json:"gaps"`
	CriticalGaps int      `json:"critical_gaps"`
	GapRate      float64  `json:"gap_rate"`
	Readiness    *float64 `json:"readiness"`
}

// OverviewView answers "what is broken and where" for one week.
type OverviewView struct {
	WeekID       string            `json:"week_id"`
	CompanyKey   string            `json:"company_key,omitempty"`
	Reports      int               `json:"reports"`
	Tanks        int               `json:"tanks"`
	CheckedItems int               `json:"checked_items"`
	Gaps         int               `json:"gaps"`
	CriticalGaps int               `json:"critical_gaps"`
	GapRate      float64           `json:"gap_rate"`
	Readiness    *float64          `json:"readiness"`
	Companies    []CompanyOverview `json:"companies,omitempty"`
	ComputedAt   time.Time         `json:"computed_at"`
}

// Overview serves the weekly overview, from snapshot when available. Empty
// week defaults to the latest known week.
func (e *Engine) Overview(ctx context.Context, weekID, companyKey string) (*OverviewView, error) {
	weekID, err := e.resolveWeek(ctx, weekID)
	if err != nil {
		return nil, err
	}
	if weekID == "" {
		return &OverviewView{ComputedAt: time.Now().UTC()}, nil
	}

	scope := reports.SnapshotScopeOverview
	dims := map[string]string{"week_id": weekID}
	if companyKey != "" {
		scope = reports.SnapshotScopeCompany
		dims["company_key"] = companyKey
	}

	var view OverviewView
	if e.snapshotRead(ctx, scope, dims, &view) {
		return &view, nil
	}

	computed, err := e.computeOverview(ctx, weekID, companyKey)
	if err != nil {
		return nil, err
	}
	e.snapshotWrite(ctx, scope, dims, computed)
	return computed, nil
}

func (e *Engine) computeOverview(ctx context.Context, weekID, companyKey string) (*OverviewView, error) {
	tanks, err := e.loadTankWeeks(ctx, weekID, companyKey)
	if err != nil {
		return nil, err
	}

	view := &OverviewView{
		WeekID:     weekID,
		CompanyKey: companyKey,
		ComputedAt: time.Now().UTC(),
	}

	perCompany := map[string]*CompanyOverview{}
	for _, tw := range tanks {
		view.Reports += tw.Reports
		view.Tanks++

		co, ok := perCompany[tw.CompanyKey]
		if !ok {
			co = &CompanyOverview{
				CompanyKey: tw.CompanyKey,
				Label:      e.stds.Label(tw.CompanyKey),
			}
			perCompany[tw.CompanyKey] = co
		}
		co.Reports += tw.Reports
		co.Tanks++

		for _, f := range tw.Fields {
			view.CheckedItems++
			co.CheckedItems++
			if f.Gap {
				view.Gaps++
				co.Gaps++
				if f.Critical {
					view.CriticalGaps++
					co.CriticalGaps++
				}
			}
		}
	}

	penalty := e.stds.CriticalGapPenalty
	penaltyCap := e.stds.PenaltyCap()
	view.GapRate = GapRate(view.CheckedItems, view.Gaps)
	view.Readiness = Readiness(view.CheckedItems, view.Gaps, view.CriticalGaps, penalty, penaltyCap)

	for _, co := range perCompany {
		co.GapRate = GapRate(co.CheckedItems, co.Gaps)
		co.Readiness = Readiness(co.CheckedItems, co.Gaps, co.CriticalGaps, penalty, penaltyCap)
		view.Companies = append(view.Companies, *co)
	}
	sort.Slice(view.Companies, func(i, j int) bool {
		return view.Companies[i].CompanyKey < view.Companies[j].CompanyKey
	})
	return view, nil
}
