package reports

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RawEventStatusIngested  = "ingested"
	RawEventStatusProcessed = "processed"
	RawEventStatusInvalid   = "invalid"
	RawEventStatusFailed    = "failed"
)

// RawEvent is the immutable audit record of one submitted report. EventID is
// derived from (schema_version, source_id, payload_hash) when the caller does
// not supply one, so byte-identical resubmissions collapse onto one row.
type RawEvent struct {
	EventID       string         `gorm:"column:event_id;primaryKey" json:"event_id"`
	SchemaVersion string         `gorm:"column:schema_version;not null" json:"schema_version"`
	SourceID      string         `gorm:"column:source_id;index" json:"source_id,omitempty"`
	ReceivedAt    time.Time      `gorm:"column:received_at;not null;index" json:"received_at"`
	Payload       datatypes.JSON `gorm:"column:payload" json:"payload"`
	PayloadHash   string         `gorm:"column:payload_hash;not null;index" json:"payload_hash"`
	Status        string         `gorm:"column:status;not null;index" json:"status"`
	ErrorDetail   string         `gorm:"column:error_detail" json:"error_detail,omitempty"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
}

func (RawEvent) TableName() string { return "raw_event" }
