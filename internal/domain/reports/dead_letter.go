package reports

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DeadLetter is the append-only audit record for an event that failed
// validation or processing. Rows are never updated or deleted.
type DeadLetter struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	EventID     string         `gorm:"column:event_id;index" json:"event_id"`
	SourceID    string         `gorm:"column:source_id;index" json:"source_id,omitempty"`
	Payload     datatypes.JSON `gorm:"column:payload" json:"payload"`
	ErrorDetail string         `gorm:"column:error_detail;not null" json:"error_detail"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
}

func (DeadLetter) TableName() string { return "dead_letter" }
