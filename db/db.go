package db

import (
	"fmt"
	"log"
	"os"

	"lab-loan-backend/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func ConnectDB() *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	if err := Migrate(conn); err != nil {
		log.Fatal("Failed to migrate models: ", err)
	}
	log.Println("Database connected")
	return conn
}

// requestCounter is the persistent sequence behind loan request numbers.
// One row, locked inside the submission transaction.
type requestCounter struct {
	ID    int   `gorm:"primaryKey"`
	Value int64 `gorm:"not null"`
}

func (requestCounter) TableName() string { return "loan_request_counters" }

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Laboratory{},
		&models.Equipment{},
		&models.LoanRequest{},
		&models.PasswordResetRequest{},
		&models.AuditLog{},
		&requestCounter{},
	); err != nil {
		return err
	}

	// At most one pending reset request per user.
	if err := db.Exec(`
	  CREATE UNIQUE INDEX IF NOT EXISTS password_reset_one_pending_per_user
	  ON password_reset_requests (user_id)
	  WHERE status = 'pending';
	`).Error; err != nil {
		return err
	}

	// Seed the request-number sequence.
	var n int64
	if err := db.Model(&requestCounter{}).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		if err := db.Create(&requestCounter{ID: 1, Value: 0}).Error; err != nil {
			return err
		}
	}
	return nil
}
