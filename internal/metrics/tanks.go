package metrics

import (
	"context"
	"sort"
	"time"

	"github.com/eitanrom/plada-backend/internal/domain/reports"
)

// maxGapItems caps the per-tank drill-down list.
const maxGapItems = 10

// GapItem is one open gap on a tank.
type GapItem struct {
	Item     string `json:"item"`
	Section  string `json:"section"`
	Value    string `json:"value"`
	Critical bool   `json:"critical"`
}

// TankMetrics is one tank's state within a week.
type TankMetrics struct {
	TankID       string    `json:"tank_id"`
	CompanyKey   string    `json:"company_key"`
	Reports      int       `json:"reports"`
	CheckedItems int       `json:"checked_items"`
	Gaps         int       `json:"gaps"`
	CriticalGaps int       `json:"critical_gaps"`
	GapRate      float64   `json:"gap_rate"`
	Readiness    *float64  `json:"readiness"`
	GapItems     []GapItem `json:"gap_items,omitempty"`
}

// CompanyTanksView is the per-tank drill-down for one company.
type CompanyTanksView struct {
	WeekID     string        `json:"week_id"`
	CompanyKey string        `json:"company_key"`
	Label      string        `json:"label"`
	Tanks      []TankMetrics `json:"tanks"`
	ComputedAt time.Time     `json:"computed_at"`
}

// CompanyTanks serves per-tank metrics for one company, lazily snapshotted.
func (e *Engine) CompanyTanks(ctx context.Context, companyKey, weekID string) (*CompanyTanksView, error) {
	weekID, err := e.resolveWeek(ctx, weekID)
	if err != nil {
		return nil, err
	}

	dims := map[string]string{"week_id": weekID, "company_key": companyKey}
	var view CompanyTanksView
	if e.snapshotRead(ctx, reports.SnapshotScopeTank, dims, &view) {
		return &view, nil
	}

	computed, err := e.computeCompanyTanks(ctx, companyKey, weekID)
	if err != nil {
		return nil, err
	}
	e.snapshotWrite(ctx, reports.SnapshotScopeTank, dims, computed)
	return computed, nil
}

func (e *Engine) computeCompanyTanks(ctx context.Context, companyKey, weekID string) (*CompanyTanksView, error) {
	tanks, err := e.loadTankWeeks(ctx, weekID, companyKey)
	if err != nil {
		return nil, err
	}

	view := &CompanyTanksView{
		WeekID:     weekID,
		CompanyKey: companyKey,
		Label:      e.stds.Label(companyKey),
		ComputedAt: time.Now().UTC(),
	}

	penalty := e.stds.CriticalGapPenalty
	penaltyCap := e.stds.PenaltyCap()
	for _, tw := range tanks {
		tm := TankMetrics{
			TankID:     tw.TankID,
			CompanyKey: tw.CompanyKey,
			Reports:    tw.Reports,
		}
		for _, f := range tw.Fields {
			tm.CheckedItems++
			if !f.Gap {
				continue
			}
			tm.Gaps++
			if f.Critical {
				tm.CriticalGaps++
			}
			tm.GapItems = append(tm.GapItems, GapItem{
				Item:     f.Item,
				Section:  f.Section,
				Value:    f.Value,
				Critical: f.Critical,
			})
		}
		// critical gaps first, then by item name, capped for the drill-down
		sort.Slice(tm.GapItems, func(i, j int) bool {
			if tm.GapItems[i].Critical != tm.GapItems[j].Critical {
				return tm.GapItems[i].Critical
			}
			return tm.GapItems[i].Item < tm.GapItems[j].Item
		})
		if len(tm.GapItems) > maxGapItems {
			tm.GapItems = tm.GapItems[:maxGapItems]
		}
		tm.GapRate = GapRate(tm.CheckedItems, tm.Gaps)
		tm.Readiness = Readiness(tm.CheckedItems, tm.Gaps, tm.CriticalGaps, penalty, penaltyCap)
		view.Tanks = append(view.Tanks, tm)
	}
	return view, nil
}
