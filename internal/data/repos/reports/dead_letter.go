package reports

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/eitanrom/plada-backend/internal/domain/reports"
	"github.com/eitanrom/plada-backend/internal/pkg/dbctx"
	"github.com/eitanrom/plada-backend/internal/pkg/logger"
)

type DeadLetterRepo interface {
	Insert(dbc dbctx.Context, eventID, sourceID string, payload datatypes.JSON, errorDetail string) (*types.DeadLetter, error)
	List(dbc dbctx.Context, limit int) ([]*types.DeadLetter, error)
	ListByEventID(dbc dbctx.Context, eventID string) ([]*types.DeadLetter, error)
}

type deadLetterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDeadLetterRepo(db *gorm.DB, baseLog *logger.Logger) DeadLetterRepo {
	return &deadLetterRepo{
		db:  db,
		log: baseLog.With("repo", "DeadLetterRepo"),
	}
}

func (r *deadLetterRepo) Insert(dbc dbctx.Context, eventID, sourceID string, payload datatypes.JSON, errorDetail string) (*types.DeadLetter, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	row := &types.DeadLetter{
		ID:          uuid.New(),
		EventID:     eventID,
		SourceID:    sourceID,
		Payload:     payload,
		ErrorDetail: errorDetail,
		CreatedAt:   time.Now().UTC(),
	}
	if err := transaction.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *deadLetterRepo) List(dbc dbctx.Context, limit int) ([]*types.DeadLetter, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.DeadLetter
	q := transaction.WithContext(dbc.Ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *deadLetterRepo) ListByEventID(dbc dbctx.Context, eventID string) ([]*types.DeadLetter, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.DeadLetter
	if eventID == "" {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("event_id = ?", eventID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
