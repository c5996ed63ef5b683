package reports

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	SnapshotScopeOverview = "overview"
	SnapshotScopeCompany  = "company"
	SnapshotScopeTank     = "tank"
	SnapshotScopeSection  = "section"
)

// MetricSnapshot is a cached aggregation keyed by (scope, dimensions). Absence
// means "not computed yet", never "zero metrics".
type MetricSnapshot struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Scope      string         `gorm:"column:scope;not null;uniqueIndex:idx_snapshot_scope_dim,priority:1" json:"scope"`
	DimKey     string         `gorm:"column:dim_key;not null;uniqueIndex:idx_snapshot_scope_dim,priority:2" json:"dim_key"`
	Dimensions datatypes.JSON `gorm:"column:dimensions" json:"dimensions"`
	Values     datatypes.JSON `gorm:"column:snapshot_values" json:"values"`
	ComputedAt time.Time      `gorm:"column:computed_at;not null" json:"computed_at"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
}

func (MetricSnapshot) TableName() string { return "metric_snapshot" }

// DimensionKey serializes a dimension map canonically: pairs sorted by key and
// joined with '&', so the same dimensions always address the same row.
func DimensionKey(dims map[string]string) string {
	if len(dims) == 0 {
		return ""
	}
	keys := make([]string, 0, len(dims))
	for k := range dims {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+dims[k])
	}
	return strings.Join(parts, "&")
}
