package reports

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/eitanrom/plada-backend/internal/domain/reports"
	"github.com/eitanrom/plada-backend/internal/pkg/dbctx"
	"github.com/eitanrom/plada-backend/internal/pkg/logger"
)

type MetricSnapshotRepo interface {
	// Upsert replaces the entire value set for (scope, dim_key). Snapshots are
	// never partially updated.
	Upsert(dbc dbctx.Context, snapshot *types.MetricSnapshot) error
	Get(dbc dbctx.Context, scope string, dims map[string]string) (*types.MetricSnapshot, error)
	// Delete removes the single snapshot addressed by (scope, dims) so the
	// next read recomputes it. Deleting a snapshot that does not exist is
	// not an error.
	Delete(dbc dbctx.Context, scope string, dims map[string]string) error
	DeleteByScope(dbc dbctx.Context, scope string) error
}

type metricSnapshotRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMetricSnapshotRepo(db *gorm.DB, baseLog *logger.Logger) MetricSnapshotRepo {
	return &metricSnapshotRepo{
		db:  db,
		log: baseLog.With("repo", "MetricSnapshotRepo"),
	}
}

func (r *metricSnapshotRepo) Upsert(dbc dbctx.Context, snapshot *types.MetricSnapshot) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if snapshot == nil || snapshot.Scope == "" {
		return nil
	}
	if snapshot.ID == uuid.Nil {
		snapshot.ID = uuid.New()
	}
	if snapshot.ComputedAt.IsZero() {
		snapshot.ComputedAt = time.Now().UTC()
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "scope"}, {Name: "dim_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"dimensions", "snapshot_values", "computed_at", "updated_at",
			}),
		}).
		Create(snapshot).Error
}

func (r *metricSnapshotRepo) Get(dbc dbctx.Context, scope string, dims map[string]string) (*types.MetricSnapshot, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if scope == "" {
		return nil, nil
	}
	var snapshot types.MetricSnapshot
	err := transaction.WithContext(dbc.Ctx).
		Where("scope = ? AND dim_key = ?", scope, types.DimensionKey(dims)).
		Limit(1).
		Find(&snapshot).Error
	if err != nil {
		return nil, err
	}
	if snapshot.ID == uuid.Nil {
		return nil, nil
	}
	return &snapshot, nil
}

func (r *metricSnapshotRepo) Delete(dbc dbctx.Context, scope string, dims map[string]string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if scope == "" {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("scope = ? AND dim_key = ?", scope, types.DimensionKey(dims)).
		Delete(&types.MetricSnapshot{}).Error
}

func (r *metricSnapshotRepo) DeleteByScope(dbc dbctx.Context, scope string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if scope == "" {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("scope = ?", scope).
		Delete(&types.MetricSnapshot{}).Error
}
