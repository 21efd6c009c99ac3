package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"bantay_tracker/internal/models"
)

var (
	// DB is the globally accessible database handle
	DB *gorm.DB
)

// InitDB initializes the database connection using environment variables
// and applies the migrations and conditional indexes the engine relies on.
func InitDB() {
	// 1) Load .env (if present)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found – relying on env vars")
	}

	// Load environment variables (with defaults)
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postgres")
	password := getEnv("DB_PASSWORD", "password")
	dbname := getEnv("DB_NAME", "bantay")
	sslmode := getEnv("DB_SSLMODE", "disable")
	timezone := getEnv("DB_TIMEZONE", "Asia/Manila")

	// Build Data Source Name
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		host, user, password, dbname, port, sslmode, timezone,
	)

	// Open GORM connection
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Fisherfolk{},
		&models.Boat{},
		&models.Tracker{},
		&models.DeviceToken{},
		&models.Position{},
		&models.MunicipalityBoundary{},
		&models.BoundaryCrossing{},
		&models.ViolationNotification{},
		&models.ViolationAuditLog{},
		&models.TrackerStatusEvent{},
	)
	if err != nil {
		log.Fatalf("auto-migration failed: %v", err)
	}

	// Uniqueness the engine's atomic check-and-set operations depend on:
	// at most one open pending crossing per (entity, destination), and at
	// most one violation per (entity, route, local calendar day) so the
	// per-day cooldown holds under concurrent materialization attempts.
	db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_crossing_open_unique
		ON boundary_crossings (entity_key, to_municipality)
		WHERE status = 'open' AND deleted_at IS NULL`)
	db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_violation_route_day
		ON violation_notifications (entity_key, from_municipality, to_municipality, violation_day)
		WHERE deleted_at IS NULL`)

	// Assign to global
	DB = db
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return defaultValue
}

// GetDB returns the initialized DB handle
func GetDB() *gorm.DB {
	return DB
}
