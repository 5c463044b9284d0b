package database

import (
	"fmt"

	"github.com/xby-111/bill/internal/config"
	"github.com/xby-111/bill/internal/models"

	"gorm.io/gorm"
)

// AutoMigrate creates the tables the given deployment profile needs.
func AutoMigrate(db *gorm.DB, profile string) error {
	var tables []any
	switch profile {
	case config.ProfileMinimal:
		tables = []any{&models.Expense{}}
	default:
		tables = []any{
			&models.User{},
			&models.Bill{},
			&models.RevokedToken{},
		}
	}
	if err := db.AutoMigrate(tables...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
