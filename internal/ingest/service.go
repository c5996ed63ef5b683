package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/eitanrom/plada-backend/internal/data/repos"
	"github.com/eitanrom/plada-backend/internal/domain/reports"
	"github.com/eitanrom/plada-backend/internal/pkg/dbctx"
	pkgerrors "github.com/eitanrom/plada-backend/internal/pkg/errors"
	"github.com/eitanrom/plada-backend/internal/pkg/logger"
)

// SnapshotRefresher is notified after every successful ingestion so eager
// snapshots for the affected (week, company) can be recomputed.
type SnapshotRefresher interface {
	RefreshAfterIngest(ctx context.Context, weekID, companyKey string) error
}

// Input is one RawEvent-shaped submission from the transport layer.
type Input struct {
	EventID       string                 `json:"event_id,omitempty"`
	SchemaVersion string                 `json:"schema_version"`
	SourceID      string                 `json:"source_id,omitempty"`
	ReceivedAt    *time.Time             `json:"received_at,omitempty"`
	Payload       map[string]interface{} `json:"payload"`
}

// Result reports what happened to one submission.
type Result struct {
	EventID        string   `json:"event_id"`
	Created        bool     `json:"created"`
	WeekID         string   `json:"week_id,omitempty"`
	CompanyKey     string   `json:"company_key,omitempty"`
	UnmappedFields []string `json:"unmapped_fields,omitempty"`
}

// Service is the single entry point for accepting one report event. It owns
// the processed/invalid/failed decision and always leaves an audit trail
// before surfacing a failure.
type Service struct {
	rawEvents   repos.RawEventRepo
	normalized  repos.NormalizedResponseRepo
	deadLetters repos.DeadLetterRepo
	parser      *Parser
	refresher   SnapshotRefresher
	log         *logger.Logger
}

func NewService(
	rawEvents repos.RawEventRepo,
	normalized repos.NormalizedResponseRepo,
	deadLetters repos.DeadLetterRepo,
	parser *Parser,
	refresher SnapshotRefresher,
	baseLog *logger.Logger,
) *Service {
	return &Service{
		rawEvents:   rawEvents,
		normalized:  normalized,
		deadLetters: deadLetters,
		parser:      parser,
		refresher:   refresher,
		log:         baseLog.With("service", "IngestService"),
	}
}

func (s *Service) Ingest(ctx context.Context, input Input) (*Result, error) {
	if input.SchemaVersion == "" {
		input.SchemaVersion = "1"
	}
	receivedAt := time.Now().UTC()
	if input.ReceivedAt != nil && !input.ReceivedAt.IsZero() {
		receivedAt = input.ReceivedAt.UTC()
	}

	payloadJSON, err := json.Marshal(input.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	payloadHash := hashHex(payloadJSON)
	eventID := input.EventID
	if eventID == "" {
		eventID = DeriveEventID(input.SchemaVersion, input.SourceID, payloadHash)
	}

	dbc := dbctx.Context{Ctx: ctx}
	event := &reports.RawEvent{
		EventID:       eventID,
		SchemaVersion: input.SchemaVersion,
		SourceID:      input.SourceID,
		ReceivedAt:    receivedAt,
		Payload:       datatypes.JSON(payloadJSON),
		PayloadHash:   payloadHash,
		Status:        reports.RawEventStatusIngested,
	}

	created, err := s.rawEvents.InsertIfAbsent(dbc, event)
	if err != nil {
		return nil, fmt.Errorf("insert raw event: %w", err)
	}

	if !created {
		existing, err := s.normalized.GetByEventID(dbc, eventID)
		if err != nil {
			return nil, fmt.Errorf("load normalized response: %w", err)
		}
		if existing != nil {
			// True duplicate: raw and normalized both present, nothing to do.
			return &Result{
				EventID:    eventID,
				Created:    false,
				WeekID:     existing.WeekID,
				CompanyKey: existing.CompanyKey,
			}, nil
		}
		// Recovery path: the raw event exists but normalization never
		// materialized (prior parse failure or a corrective delete). Reparse
		// from the stored payload.
		stored, err := s.rawEvents.GetByID(dbc, eventID)
		if err != nil {
			return nil, fmt.Errorf("load raw event: %w", err)
		}
		if stored != nil {
			event = stored
		}
	}

	response, parseErr := s.parser.Parse(event)
	if parseErr != nil {
		return nil, s.recordFailure(dbc, event, parseErr)
	}

	if err := s.normalized.Upsert(dbc, response); err != nil {
		return nil, fmt.Errorf("persist normalized response: %w", err)
	}
	if err := s.rawEvents.UpdateStatus(dbc, eventID, reports.RawEventStatusProcessed, ""); err != nil {
		return nil, fmt.Errorf("mark raw event processed: %w", err)
	}

	if s.refresher != nil {
		if err := s.refresher.RefreshAfterIngest(ctx, response.WeekID, response.CompanyKey); err != nil {
			// Snapshot staleness self-heals on the next ingest or read.
			s.log.Warn("snapshot refresh failed after ingest",
				"event_id", eventID, "week_id", response.WeekID, "company", response.CompanyKey, "error", err)
		}
	}

	var unmapped []string
	if len(response.UnmappedFields) > 0 {
		_ = json.Unmarshal(response.UnmappedFields, &unmapped)
	}
	return &Result{
		EventID:        eventID,
		Created:        created,
		WeekID:         response.WeekID,
		CompanyKey:     response.CompanyKey,
		UnmappedFields: unmapped,
	}, nil
}

// recordFailure transitions the raw event, writes the dead letter, and hands
// the original error back to the caller. No failure is silent.
func (s *Service) recordFailure(dbc dbctx.Context, event *reports.RawEvent, cause error) error {
	status := reports.RawEventStatusFailed
	if _, ok := pkgerrors.AsValidation(cause); ok {
		status = reports.RawEventStatusInvalid
	}
	if err := s.rawEvents.UpdateStatus(dbc, event.EventID, status, cause.Error()); err != nil {
		s.log.Error("failed to mark raw event", "event_id", event.EventID, "status", status, "error", err)
	}
	if _, err := s.deadLetters.Insert(dbc, event.EventID, event.SourceID, event.Payload, cause.Error()); err != nil {
		s.log.Error("failed to write dead letter", "event_id", event.EventID, "error", err)
	}
	return cause
}

// DeriveEventID builds the deterministic event id for an unsupplied one.
func DeriveEventID(schemaVersion, sourceID, payloadHash string) string {
	return hashHex([]byte(schemaVersion + "|" + sourceID + "|" + payloadHash))
}

func hashHex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
