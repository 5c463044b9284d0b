package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// 账单类型
const (
	KindIncome  = "income"
	KindExpense = "expense"
)

// Bill 表示一笔收入或支出记录，归属于唯一的用户
// 日期统一按 UTC 存储，便于按月份区间查询
type Bill struct {
	ID            uint                `gorm:"primaryKey"`
	UserID        uint                `gorm:"index;not null"`
	Amount        decimal.Decimal     `gorm:"type:decimal(12,2);not null"`
	BillType      string              `gorm:"size:16;index;not null"` // income / expense
	Category      string              `gorm:"size:50;index;not null"`
	Date          time.Time           `gorm:"index;not null"`
	Note          *string             `gorm:"size:1000"`
	Worker        *string             `gorm:"size:100;index"`
	DurationHours *float64
	HourlyRate    decimal.NullDecimal `gorm:"type:decimal(12,2)"`
	PayMethod     *string             `gorm:"size:50"`
	CreatedAt     time.Time
	UpdatedAt     *time.Time `gorm:"autoUpdateTime:false"` // 首次修改前为空
}
