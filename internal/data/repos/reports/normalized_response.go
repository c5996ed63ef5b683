package reports

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/eitanrom/plada-backend/internal/domain/reports"
	"github.com/eitanrom/plada-backend/internal/pkg/dbctx"
	"github.com/eitanrom/plada-backend/internal/pkg/logger"
)

type NormalizedResponseRepo interface {
	// Upsert replaces the normalized row for the same event_id, supporting
	// reparse-after-failure without ever duplicating an event.
	Upsert(dbc dbctx.Context, response *types.NormalizedResponse) error
	GetByEventID(dbc dbctx.Context, eventID string) (*types.NormalizedResponse, error)
	// List filters by exact week and case-insensitive company; empty filters
	// match everything. Ordered most recent received_at first, ties broken
	// by event_id so the ordering is stable across reads.
	List(dbc dbctx.Context, weekID string, companyKey string) ([]*types.NormalizedResponse, error)
	ListWeeks(dbc dbctx.Context) ([]string, error)
	DeleteByEventID(dbc dbctx.Context, eventID string) error
}

type normalizedResponseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNormalizedResponseRepo(db *gorm.DB, baseLog *logger.Logger) NormalizedResponseRepo {
	return &normalizedResponseRepo{
		db:  db,
		log: baseLog.With("repo", "NormalizedResponseRepo"),
	}
}

func (r *normalizedResponseRepo) Upsert(dbc dbctx.Context, response *types.NormalizedResponse) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if response == nil || response.EventID == "" {
		return nil
	}
	if response.ID == uuid.Nil {
		response.ID = uuid.New()
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "event_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"source_id", "company_key", "tank_id", "week_id",
				"received_at", "fields", "unmapped_fields", "updated_at",
			}),
		}).
		Create(response).Error
}

func (r *normalizedResponseRepo) GetByEventID(dbc dbctx.Context, eventID string) (*types.NormalizedResponse, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if eventID == "" {
		return nil, nil
	}
	var response types.NormalizedResponse
	err := transaction.WithContext(dbc.Ctx).
		Where("event_id = ?", eventID).
		Limit(1).
		Find(&response).Error
	if err != nil {
		return nil, err
	}
	if response.ID == uuid.Nil {
		return nil, nil
	}
	return &response, nil
}

func (r *normalizedResponseRepo) List(dbc dbctx.Context, weekID string, companyKey string) ([]*types.NormalizedResponse, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Model(&types.NormalizedResponse{})
	if weekID != "" {
		q = q.Where("week_id = ?", weekID)
	}
	if companyKey != "" {
		q = q.Where("LOWER(company_key) = ?", strings.ToLower(companyKey))
	}
	var out []*types.NormalizedResponse
	if err := q.Order("received_at DESC, event_id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *normalizedResponseRepo) ListWeeks(dbc dbctx.Context) ([]string, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var weeks []string
	err := transaction.WithContext(dbc.Ctx).
		Model(&types.NormalizedResponse{}).
		Distinct("week_id").
		Order("week_id DESC").
		Pluck("week_id", &weeks).Error
	if err != nil {
		return nil, err
	}
	return weeks, nil
}

func (r *normalizedResponseRepo) DeleteByEventID(dbc dbctx.Context, eventID string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if eventID == "" {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("event_id = ?", eventID).
		Delete(&types.NormalizedResponse{}).Error
}
