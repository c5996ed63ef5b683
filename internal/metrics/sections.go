package metrics

import (
	"context"
	"sort"
	"time"

	"github.com/eitanrom/plada-backend/internal/domain/reports"
)

// SectionMetrics is the company x section cell for one week.
type SectionMetrics struct {
	Section      string   `json:"section"`
	Reports      int      `json:"reports"`
	Tanks        int      `json:"tanks"`
	CheckedItems int      `json:"checked_items"`
	Gaps         int      `json:"gaps"`
	CriticalGaps int      `json:"critical_gaps"`
	GapRate      float64  `json:"gap_rate"`
	Readiness    *float64 `json:"readiness"`
}

// CompanySectionsView is the per-section drill-down for one company.
type CompanySectionsView struct {
	WeekID     string           `json:"week_id"`
	CompanyKey string           `json:"company_key"`
	Label      string           `json:"label"`
	Sections   []SectionMetrics `json:"sections"`
	ComputedAt time.Time        `json:"computed_at"`
}

// CompanySections serves the section drill-down, lazily snapshotted on first
// read after an ingest.
func (e *Engine) CompanySections(ctx context.Context, companyKey, weekID string) (*CompanySectionsView, error) {
	weekID, err := e.resolveWeek(ctx, weekID)
	if err != nil {
		return nil, err
	}

	dims := map[string]string{"week_id": weekID, "company_key": companyKey}
	var view CompanySectionsView
	if e.snapshotRead(ctx, reports.SnapshotScopeSection, dims, &view) {
		return &view, nil
	}

	computed, err := e.computeCompanySections(ctx, companyKey, weekID)
	if err != nil {
		return nil, err
	}
	e.snapshotWrite(ctx, reports.SnapshotScopeSection, dims, computed)
	return computed, nil
}

func (e *Engine) computeCompanySections(ctx context.Context, companyKey, weekID string) (*CompanySectionsView, error) {
	tanks, err := e.loadTankWeeks(ctx, weekID, companyKey)
	if err != nil {
		return nil, err
	}

	view := &CompanySectionsView{
		WeekID:     weekID,
		CompanyKey: companyKey,
		Label:      e.stds.Label(companyKey),
		ComputedAt: time.Now().UTC(),
	}

	bySection := map[string]*SectionMetrics{}
	tanksPerSection := map[string]map[string]bool{}
	for _, tw := range tanks {
		touched := map[string]bool{}
		for _, f := range tw.Fields {
			sm, ok := bySection[f.Section]
			if !ok {
				sm = &SectionMetrics{Section: f.Section}
				bySection[f.Section] = sm
				tanksPerSection[f.Section] = map[string]bool{}
			}
			sm.CheckedItems++
			if f.Gap {
				sm.Gaps++
				if f.Critical {
					sm.CriticalGaps++
				}
			}
			if !tanksPerSection[f.Section][tw.TankID] {
				tanksPerSection[f.Section][tw.TankID] = true
				sm.Tanks++
			}
			if !touched[f.Section] {
				touched[f.Section] = true
				sm.Reports += tw.Reports
			}
		}
	}

	penalty := e.stds.CriticalGapPenalty
	penaltyCap := e.stds.PenaltyCap()
	for _, sm := range bySection {
		sm.GapRate = GapRate(sm.CheckedItems, sm.Gaps)
		sm.Readiness = Readiness(sm.CheckedItems, sm.Gaps, sm.CriticalGaps, penalty, penaltyCap)
		view.Sections = append(view.Sections, *sm)
	}
	sort.Slice(view.Sections, func(i, j int) bool {
		return view.Sections[i].Section < view.Sections[j].Section
	})
	return view, nil
}
