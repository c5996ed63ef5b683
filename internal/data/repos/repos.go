package repos

import (
	"gorm.io/gorm"

	"github.com/eitanrom/plada-backend/internal/data/repos/reports"
	"github.com/eitanrom/plada-backend/internal/pkg/logger"
)

type RawEventRepo = reports.RawEventRepo
type NormalizedResponseRepo = reports.NormalizedResponseRepo
type MetricSnapshotRepo = reports.MetricSnapshotRepo
type DeadLetterRepo = reports.DeadLetterRepo

func NewRawEventRepo(db *gorm.DB, baseLog *logger.Logger) RawEventRepo {
	return reports.NewRawEventRepo(db, baseLog)
}

func NewNormalizedResponseRepo(db *gorm.DB, baseLog *logger.Logger) NormalizedResponseRepo {
	return reports.NewNormalizedResponseRepo(db, baseLog)
}

func NewMetricSnapshotRepo(db *gorm.DB, baseLog *logger.Logger) MetricSnapshotRepo {
	return reports.NewMetricSnapshotRepo(db, baseLog)
}

func NewDeadLetterRepo(db *gorm.DB, baseLog *logger.Logger) DeadLetterRepo {
	return reports.NewDeadLetterRepo(db, baseLog)
}
