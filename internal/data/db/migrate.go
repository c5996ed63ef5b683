package db

import (
	"gorm.io/gorm"

	"github.com/eitanrom/plada-backend/internal/domain/reports"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&reports.RawEvent{},
		&reports.NormalizedResponse{},
		&reports.MetricSnapshot{},
		&reports.DeadLetter{},
	)
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}
