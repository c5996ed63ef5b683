package metrics

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/eitanrom/plada-backend/internal/pkg/dbctx"
	pkgerrors "github.com/eitanrom/plada-backend/internal/pkg/errors"
)

const (
	TrendReadiness    = "readiness"
	TrendCriticalGaps = "critical_gaps"
	TrendReports      = "reports"
)

const defaultTrendWindow = 8

// TrendPoint is one week's value of the requested metric. Delta is against
// the previous point, nil when either side has no data.
type TrendPoint struct {
	WeekID string   `json:"week_id"`
	Value  *float64 `json:"value"`
	Delta  *float64 `json:"delta"`
}

// TrendView is a week-ordered series (oldest first) over the most recent
// window of known weeks.
type TrendView struct {
	Metric     string       `json:"metric"`
	CompanyKey string       `json:"company_key,omitempty"`
	Points     []TrendPoint `json:"points"`
}

// Trends recomputes the metric for each week in the window. No incremental
// state: full recomputation per week keeps the series consistent with every
// other view by construction.
func (e *Engine) Trends(ctx context.Context, metric string, windowWeeks int, companyKey string) (*TrendView, error) {
	switch metric {
	case TrendReadiness, TrendCriticalGaps, TrendReports:
	default:
		return nil, fmt.Errorf("%w: unknown trend metric %q", pkgerrors.ErrInvalidArgument, metric)
	}
	if windowWeeks <= 0 {
		windowWeeks = defaultTrendWindow
	}

	weeks, err := e.normalized.ListWeeks(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, err
	}
	if len(weeks) > windowWeeks {
		weeks = weeks[:windowWeeks]
	}
	// ListWeeks is newest first; the series reads oldest first.
	ordered := make([]string, len(weeks))
	for i, w := range weeks {
		ordered[len(weeks)-1-i] = w
	}

	points := make([]TrendPoint, len(ordered))
	g, gctx := errgroup.WithContext(ctx)
	for i, weekID := range ordered {
		g.Go(func() error {
			overview, err := e.computeOverview(gctx, weekID, companyKey)
			if err != nil {
				return err
			}
			points[i] = TrendPoint{WeekID: weekID, Value: trendValue(metric, overview)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := 1; i < len(points); i++ {
		points[i].Delta = Delta(points[i].Value, points[i-1].Value)
	}

	return &TrendView{Metric: metric, CompanyKey: companyKey, Points: points}, nil
}

func trendValue(metric string, overview *OverviewView) *float64 {
	switch metric {
	case TrendReadiness:
		return overview.Readiness
	case TrendCriticalGaps:
		if overview.CheckedItems == 0 {
			return nil
		}
		v := float64(overview.CriticalGaps)
		return &v
	case TrendReports:
		v := float64(overview.Reports)
		return &v
	}
	return nil
}
