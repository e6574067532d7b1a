package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lessonloop/scenario-backend/internal/logger"
	"github.com/lessonloop/scenario-backend/internal/types"
	"github.com/lessonloop/scenario-backend/internal/utils"
)

// Service owns the gorm connection backing the summary and review stores.
// Postgres when POSTGRES_HOST is set, otherwise a local sqlite file.
type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewService(log *logger.Logger) (*Service, error) {
	serviceLog := log.With("service", "DBService")

	host := utils.GetEnv("POSTGRES_HOST", "", log)
	if host == "" {
		path := utils.GetEnv("SQLITE_PATH", "scenario.db", log)
		serviceLog.Info("Connecting to sqlite...", "path", path)
		db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
		if err != nil {
			serviceLog.Error("Failed to open sqlite", "error", err)
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return &Service{db: db, log: serviceLog}, nil
	}

	port := utils.GetEnv("POSTGRES_PORT", "5432", log)
	user := utils.GetEnv("POSTGRES_USER", "postgres", log)
	password := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	name := utils.GetEnv("POSTGRES_NAME", "scenario", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)
	serviceLog.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return &Service{db: db, log: serviceLog}, nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	if err := s.db.AutoMigrate(
		&types.SessionRecord{},
		&types.ReviewItem{},
	); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}

func (s *Service) DB() *gorm.DB { return s.db }
