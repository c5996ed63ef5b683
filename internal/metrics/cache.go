package metrics

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/eitanrom/plada-backend/internal/domain/reports"
	"github.com/eitanrom/plada-backend/internal/pkg/dbctx"
)

// snapshotRead tries the hot cache, then the snapshot table. A hit fills out
// and returns true. Concurrent misses recompute redundantly but converge on
// the same value, so there is no locking here.
func (e *Engine) snapshotRead(ctx context.Context, scope string, dims map[string]string, out interface{}) bool {
	if e.DisableSnapshots {
		return false
	}
	if e.cache != nil {
		if payload, ok := e.cache.Get(ctx, scope, dims); ok {
			if err := json.Unmarshal(payload, out); err == nil {
				return true
			}
		}
	}
	snapshot, err := e.snapshots.Get(dbctx.Context{Ctx: ctx}, scope, dims)
	if err != nil {
		e.log.Warn("snapshot read failed, recomputing", "scope", scope, "error", err)
		return false
	}
	if snapshot == nil {
		return false
	}
	if err := json.Unmarshal(snapshot.Values, out); err != nil {
		e.log.Warn("snapshot payload malformed, recomputing", "scope", scope, "error", err)
		return false
	}
	if e.cache != nil {
		e.cache.Put(ctx, scope, dims, snapshot.Values)
	}
	return true
}

// snapshotWrite stores a freshly computed view under (scope, dims). Write
// failures are logged, not surfaced: snapshots are an optimization, never a
// correctness dependency.
func (e *Engine) snapshotWrite(ctx context.Context, scope string, dims map[string]string, value interface{}) {
	if e.DisableSnapshots {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		e.log.Error("failed to marshal snapshot", "scope", scope, "error", err)
		return
	}
	dimsJSON, _ := json.Marshal(dims)
	err = e.snapshots.Upsert(dbctx.Context{Ctx: ctx}, &reports.MetricSnapshot{
		Scope:      scope,
		DimKey:     reports.DimensionKey(dims),
		Dimensions: datatypes.JSON(dimsJSON),
		Values:     datatypes.JSON(payload),
		ComputedAt: time.Now().UTC(),
	})
	if err != nil {
		e.log.Warn("snapshot write failed", "scope", scope, "error", err)
	}
	if e.cache != nil {
		e.cache.Put(ctx, scope, dims, payload)
	}
}

// RefreshAfterIngest eagerly recomputes the overview snapshots affected by a
// newly ingested report. Tank and section drill-downs stay lazy: their
// snapshots for the affected (week, company) are invalidated here and rebuilt
// on the next read.
func (e *Engine) RefreshAfterIngest(ctx context.Context, weekID, companyKey string) error {
	overview, err := e.computeOverview(ctx, weekID, "")
	if err != nil {
		return err
	}
	e.snapshotWrite(ctx, reports.SnapshotScopeOverview, map[string]string{"week_id": weekID}, overview)

	if companyKey != "" {
		companyView, err := e.computeOverview(ctx, weekID, companyKey)
		if err != nil {
			return err
		}
		dims := map[string]string{"week_id": weekID, "company_key": companyKey}
		e.snapshotWrite(ctx, reports.SnapshotScopeCompany, dims, companyView)
		e.snapshotInvalidate(ctx, reports.SnapshotScopeTank, dims)
		e.snapshotInvalidate(ctx, reports.SnapshotScopeSection, dims)
	}
	return nil
}

// snapshotInvalidate drops the stored snapshot and its hot-cache entry for
// (scope, dims). Failures are logged only: a surviving stale row is replaced
// by the next successful invalidation or overwritten on recompute.
func (e *Engine) snapshotInvalidate(ctx context.Context, scope string, dims map[string]string) {
	if err := e.snapshots.Delete(dbctx.Context{Ctx: ctx}, scope, dims); err != nil {
		e.log.Warn("snapshot invalidation failed", "scope", scope, "error", err)
	}
	if e.cache != nil {
		e.cache.Delete(ctx, scope, dims)
	}
}
