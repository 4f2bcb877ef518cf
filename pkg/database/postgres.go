package database

import (
	"log"

	"github.com/atelierfoto/session-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Session{},
		&models.SessionDetail{},
		&models.SessionPhotographer{},
		&models.SessionPayment{},
		&models.SessionStatusHistory{},
		&models.Room{},
		&models.CatalogItem{},
		&models.User{},
		&models.Role{},
		&models.Permission{},
	); err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}

	// One assignment per (session, photographer).
	db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_session_photographer
		ON session_photographers (session_id, photographer_id)
	`)

	return db
}
