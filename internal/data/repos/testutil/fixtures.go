package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/eitanrom/plada-backend/internal/domain/reports"
)

func SeedRawEvent(tb testing.TB, ctx context.Context, tx *gorm.DB, payload string) *reports.RawEvent {
	tb.Helper()
	sum := sha256.Sum256([]byte(payload))
	hash := hex.EncodeToString(sum[:])
	e := &reports.RawEvent{
		EventID:       "evt-" + hash[:16],
		SchemaVersion: "1",
		SourceID:      "test-form",
		ReceivedAt:    time.Now().UTC(),
		Payload:       datatypes.JSON([]byte(payload)),
		PayloadHash:   hash,
		Status:        reports.RawEventStatusIngested,
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed raw event: %v", err)
	}
	return e
}

func SeedNormalized(tb testing.TB, ctx context.Context, tx *gorm.DB, eventID, company, tank, week string, receivedAt time.Time) *reports.NormalizedResponse {
	tb.Helper()
	n := &reports.NormalizedResponse{
		ID:             uuid.New(),
		EventID:        eventID,
		SourceID:       "test-form",
		CompanyKey:     company,
		TankID:         tank,
		WeekID:         week,
		ReceivedAt:     receivedAt,
		Fields:         datatypes.JSON([]byte(`{}`)),
		UnmappedFields: datatypes.JSON([]byte(`[]`)),
	}
	if err := tx.WithContext(ctx).Create(n).Error; err != nil {
		tb.Fatalf("seed normalized response: %v", err)
	}
	return n
}
