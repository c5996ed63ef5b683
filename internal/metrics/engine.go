package metrics

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/eitanrom/plada-backend/internal/alias"
	"github.com/eitanrom/plada-backend/internal/data/repos"
	"github.com/eitanrom/plada-backend/internal/pkg/dbctx"
	"github.com/eitanrom/plada-backend/internal/pkg/logger"
	"github.com/eitanrom/plada-backend/internal/standards"
)

// SnapshotCache is an optional hot cache in front of the snapshot table
// (Redis in production). Best effort: a miss or error just means recompute.
type SnapshotCache interface {
	Get(ctx context.Context, scope string, dims map[string]string) ([]byte, bool)
	Put(ctx context.Context, scope string, dims map[string]string, payload []byte)
	Delete(ctx context.Context, scope string, dims map[string]string)
}

// Engine computes every aggregated view from normalized responses. All
// computations are pure functions of the normalized set, so a snapshot is
// only ever an optimization: with caching disabled every answer is identical.
type Engine struct {
	normalized repos.NormalizedResponseRepo
	snapshots  repos.MetricSnapshotRepo
	cache      SnapshotCache
	resolver   *alias.Resolver
	stds       *standards.Standards
	classifier *Classifier
	log        *logger.Logger

	// DisableSnapshots forces recomputation on every read. Used by tests to
	// prove cache transparency; never set in production wiring.
	DisableSnapshots bool
}

func NewEngine(
	normalized repos.NormalizedResponseRepo,
	snapshots repos.MetricSnapshotRepo,
	cache SnapshotCache,
	resolver *alias.Resolver,
	stds *standards.Standards,
	baseLog *logger.Logger,
) *Engine {
	return &Engine{
		normalized: normalized,
		snapshots:  snapshots,
		cache:      cache,
		resolver:   resolver,
		stds:       stds,
		classifier: NewClassifier(stds.GapTokensLower()),
		log:        baseLog.With("service", "MetricsEngine"),
	}
}

// fieldObs is one resolved field on one tank in one week, after
// last-write-wins dedup.
type fieldObs struct {
	Family   string
	Item     string
	Section  string
	Value    string
	Gap      bool
	Critical bool
	Assumed  bool
}

// tankWeek is the merged state of one tank within one week.
type tankWeek struct {
	TankID     string
	CompanyKey string
	Reports    int
	Fields     []fieldObs
}

// loadTankWeeks merges the normalized responses for a week (optionally scoped
// to one company) into per-tank field states. Responses arrive ordered most
// recent first, so the first value seen for a field key is the latest one and
// wins; earlier submissions of the same field in the same week are shadowed.
func (e *Engine) loadTankWeeks(ctx context.Context, weekID, companyKey string) ([]*tankWeek, error) {
	rows, err := e.normalized.List(dbctx.Context{Ctx: ctx}, weekID, companyKey)
	if err != nil {
		return nil, err
	}

	byTank := map[string]*tankWeek{}
	order := []string{}
	seen := map[string]map[string]bool{}

	for _, row := range rows {
		tw, ok := byTank[row.TankID]
		if !ok {
			tw = &tankWeek{TankID: row.TankID, CompanyKey: row.CompanyKey}
			byTank[row.TankID] = tw
			order = append(order, row.TankID)
			seen[row.TankID] = map[string]bool{}
		}
		tw.Reports++

		var fields map[string]string
		if err := json.Unmarshal(row.Fields, &fields); err != nil {
			e.log.Warn("skipping malformed fields payload", "event_id", row.EventID, "error", err)
			continue
		}
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if seen[row.TankID][key] {
				continue
			}
			seen[row.TankID][key] = true
			family, item := alias.SplitFieldKey(key)
			value := fields[key]
			tw.Fields = append(tw.Fields, fieldObs{
				Family:   family,
				Item:     item,
				Section:  e.stds.SectionFor(family, item),
				Value:    value,
				Gap:      e.classifier.IsGap(value),
				Critical: e.stds.IsCritical(item),
			})
		}
	}

	for _, tw := range byTank {
		e.applyMissingValuePolicy(tw)
	}

	out := make([]*tankWeek, 0, len(byTank))
	for _, id := range order {
		out = append(out, byTank[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TankID < out[j].TankID })
	return out, nil
}

// applyMissingValuePolicy adds assumed-standard observations for families
// configured with assume_standard: expected items that were not reported count
// as checked and met. assume_zero families get nothing, absence stays
// absence.
func (e *Engine) applyMissingValuePolicy(tw *tankWeek) {
	byFamily := map[string]map[string]bool{}
	for _, f := range tw.Fields {
		if byFamily[f.Family] == nil {
			byFamily[f.Family] = map[string]bool{}
		}
		byFamily[f.Family][alias.Normalize(f.Item)] = true
	}
	for family, policy := range e.stds.MissingValuePolicy {
		if policy != standards.PolicyAssumeStandard {
			continue
		}
		for _, item := range e.stds.ItemsForFamily(family) {
			key := alias.Normalize(item.Name)
			if byFamily[family][key] {
				continue
			}
			tw.Fields = append(tw.Fields, fieldObs{
				Family:   family,
				Item:     item.Name,
				Section:  e.stds.SectionFor(family, item.Name),
				Value:    "",
				Gap:      false,
				Critical: item.IsCritical || e.stds.IsCritical(item.Name),
				Assumed:  true,
			})
		}
	}
}

// resolveWeek defaults an empty week to the latest known one. Empty result
// with no data at all is allowed.
func (e *Engine) resolveWeek(ctx context.Context, weekID string) (string, error) {
	if weekID != "" {
		return weekID, nil
	}
	weeks, err := e.normalized.ListWeeks(dbctx.Context{Ctx: ctx})
	if err != nil {
		return "", err
	}
	if len(weeks) == 0 {
		return "", nil
	}
	return weeks[0], nil
}
