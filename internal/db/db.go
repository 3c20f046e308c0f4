package db

import (
	"errors"
	"log"
	"time"

	"noteify/internal/config"
	"noteify/internal/models"
	"noteify/internal/utils"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Init connects to PostgreSQL, migrates the schema and seeds the admin account.
func Init(cfg *config.Config) *gorm.DB {
	gdb, err := Open(postgres.Open(cfg.DatabaseURL))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Database connection established")

	sqlDB, err := gdb.DB()
	if err != nil {
		log.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(gdb); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed")

	if err := SeedAdmin(gdb, cfg); err != nil {
		log.Printf("Failed to seed admin user: %v", err)
	}
	return gdb
}

// Open opens a gorm connection for the given dialector.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{})
}

// Migrate creates or updates the tables for every model.
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&models.User{},
		&models.Note{},
		&models.ForumPost{},
		&models.ForumComment{},
	)
}

// SeedAdmin creates the administrator account once. It does nothing when an
// admin already exists or when no admin password is configured.
func SeedAdmin(gdb *gorm.DB, cfg *config.Config) error {
	var count int64
	if err := gdb.Model(&models.User{}).
		Where("role = ? OR username = ?", models.RoleAdmin, cfg.AdminUsername).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Admin user already exists, skipping")
		return nil
	}
	if cfg.AdminPassword == "" {
		return errors.New("ADMIN_PASSWORD is not set")
	}

	hash, err := utils.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	admin := models.User{
		Username: cfg.AdminUsername,
		Email:    cfg.AdminEmail,
		FullName: "Administrator",
		Course:   "Admin",
		Password: hash,
		Role:     models.RoleAdmin,
		Status:   models.UserStatusActive,
	}
	if err := gdb.Create(&admin).Error; err != nil {
		return err
	}
	log.Printf("Admin user %q created", admin.Username)
	return nil
}
