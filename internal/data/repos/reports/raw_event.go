package reports

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/eitanrom/plada-backend/internal/domain/reports"
	"github.com/eitanrom/plada-backend/internal/pkg/dbctx"
	"github.com/eitanrom/plada-backend/internal/pkg/logger"
)

type RawEventRepo interface {
	// InsertIfAbsent is the idempotency boundary: the row is written only when
	// no row with the same event_id exists. Returns whether a row was created.
	InsertIfAbsent(dbc dbctx.Context, event *types.RawEvent) (bool, error)
	GetByID(dbc dbctx.Context, eventID string) (*types.RawEvent, error)
	UpdateStatus(dbc dbctx.Context, eventID string, status string, errorDetail string) error
	ListByStatus(dbc dbctx.Context, status string, limit int) ([]*types.RawEvent, error)
}

type rawEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRawEventRepo(db *gorm.DB, baseLog *logger.Logger) RawEventRepo {
	return &rawEventRepo{
		db:  db,
		log: baseLog.With("repo", "RawEventRepo"),
	}
}

func (r *rawEventRepo) InsertIfAbsent(dbc dbctx.Context, event *types.RawEvent) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if event == nil || event.EventID == "" {
		return false, nil
	}
	res := transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(event)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *rawEventRepo) GetByID(dbc dbctx.Context, eventID string) (*types.RawEvent, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if eventID == "" {
		return nil, nil
	}
	var event types.RawEvent
	err := transaction.WithContext(dbc.Ctx).
		Where("event_id = ?", eventID).
		Limit(1).
		Find(&event).Error
	if err != nil {
		return nil, err
	}
	if event.EventID == "" {
		return nil, nil
	}
	return &event, nil
}

func (r *rawEventRepo) UpdateStatus(dbc dbctx.Context, eventID string, status string, errorDetail string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if eventID == "" || status == "" {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.RawEvent{}).
		Where("event_id = ?", eventID).
		Updates(map[string]interface{}{
			"status":       status,
			"error_detail": errorDetail,
		}).Error
}

func (r *rawEventRepo) ListByStatus(dbc dbctx.Context, status string, limit int) ([]*types.RawEvent, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.RawEvent
	q := transaction.WithContext(dbc.Ctx).
		Where("status = ?", status).
		Order("received_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
