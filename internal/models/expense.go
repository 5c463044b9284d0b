package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a row of the unauthenticated family expense book.
type Expense struct {
	ID        uint            `gorm:"primaryKey"`
	Date      time.Time       `gorm:"index;not null"`
	Receiver  string          `gorm:"size:100;not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Project   string          `gorm:"size:100;not null"`
	Type      string          `gorm:"size:50;not null"`
	PayMethod string          `gorm:"size:50;not null"`
	Note      string          `gorm:"size:1000"`
	CreatedAt time.Time
}
