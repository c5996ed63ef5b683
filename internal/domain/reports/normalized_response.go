package reports

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CompanyUnknown is the sentinel token used when no company alias matched.
const CompanyUnknown = "Unknown"

// NormalizedResponse is the parsed, canonical form of a RawEvent: one row per
// successfully processed event, replaced in place if the event is reparsed.
type NormalizedResponse struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	EventID        string         `gorm:"column:event_id;not null;uniqueIndex" json:"event_id"`
	SourceID       string         `gorm:"column:source_id;index" json:"source_id,omitempty"`
	CompanyKey     string         `gorm:"column:company_key;not null;index" json:"company_key"`
	TankID         string         `gorm:"column:tank_id;not null;index" json:"tank_id"`
	WeekID         string         `gorm:"column:week_id;not null;index" json:"week_id"`
	ReceivedAt     time.Time      `gorm:"column:received_at;not null;index" json:"received_at"`
	Fields         datatypes.JSON `gorm:"column:fields" json:"fields"`
	UnmappedFields datatypes.JSON `gorm:"column:unmapped_fields" json:"unmapped_fields,omitempty"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`
}

func (NormalizedResponse) TableName() string { return "normalized_response" }
