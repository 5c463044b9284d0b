package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/xby-111/bill/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StatisticsService computes owner-scoped aggregates. It never writes.
type StatisticsService struct {
	db *gorm.DB
}

func NewStatisticsService(db *gorm.DB) *StatisticsService {
	return &StatisticsService{db: db}
}

// MonthlySummary 月度收支汇总
type MonthlySummary struct {
	Month        string
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	NetAmount    decimal.Decimal
}

// CategoryStat 分类汇总；Percentage 为占总额的百分比，保留两位小数
type CategoryStat struct {
	Category   string
	Amount     decimal.Decimal
	Percentage decimal.Decimal
}

// WorkerStat 按工人汇总的工时、金额和笔数
type WorkerStat struct {
	Worker      string
	TotalHours  float64
	TotalAmount decimal.Decimal
	BillCount   int64
}

// 聚合查询的扫描目标
type monthlyRow struct {
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
}

type categoryRow struct {
	Category string
	Amount   decimal.Decimal
}

type workerRow struct {
	Worker      string
	TotalHours  float64
	TotalAmount decimal.Decimal
	BillCount   int64
}

var hundred = decimal.NewFromInt(100)

// ownerMonth scopes a query to one owner and, when month is set, one month.
func ownerMonth(ownerID uint, month string) (func(*gorm.DB) *gorm.DB, error) {
	c, err := Filter{Month: month}.compile()
	if err != nil {
		return nil, err
	}
	where := c.scope(billColumns)
	return func(db *gorm.DB) *gorm.DB {
		return where(db.Model(&models.Bill{}).Where("user_id = ?", ownerID))
	}, nil
}

// Monthly sums income and expense of one month. A month without bills
// yields zeros.
func (s *StatisticsService) Monthly(ctx context.Context, ownerID uint, month string) (*MonthlySummary, error) {
	if strings.TrimSpace(month) == "" {
		return nil, invalidf("month is required. Use YYYY-MM")
	}
	scope, err := ownerMonth(ownerID, month)
	if err != nil {
		return nil, err
	}

	var row monthlyRow
	if err := s.db.WithContext(ctx).
		Scopes(scope).
		Select("COALESCE(SUM(CASE WHEN bill_type = ? THEN amount ELSE 0 END), 0) AS total_income, "+
			"COALESCE(SUM(CASE WHEN bill_type = ? THEN amount ELSE 0 END), 0) AS total_expense",
			models.KindIncome, models.KindExpense).
		Scan(&row).Error; err != nil {
		return nil, fmt.Errorf("monthly statistics: %w", err)
	}

	income := row.TotalIncome.Round(2)
	expense := row.TotalExpense.Round(2)
	return &MonthlySummary{
		Month:        strings.TrimSpace(month),
		TotalIncome:  income,
		TotalExpense: expense,
		NetAmount:    income.Sub(expense),
	}, nil
}

// Categories groups amounts by exact category value and reports each
// group's share of the grand total, largest first.
func (s *StatisticsService) Categories(ctx context.Context, ownerID uint, month string) ([]CategoryStat, error) {
	scope, err := ownerMonth(ownerID, month)
	if err != nil {
		return nil, err
	}

	var rows []categoryRow
	if err := s.db.WithContext(ctx).
		Scopes(scope).
		Select("category, COALESCE(SUM(amount), 0) AS amount").
		Group("category").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("category statistics: %w", err)
	}

	total := decimal.Zero
	stats := make([]CategoryStat, 0, len(rows))
	for _, r := range rows {
		amount := r.Amount.Round(2)
		total = total.Add(amount)
		stats = append(stats, CategoryStat{Category: r.Category, Amount: amount})
	}
	for i := range stats {
		// 总额为 0 时占比记为 0，避免除零
		if total.IsPositive() {
			stats[i].Percentage = stats[i].Amount.Div(total).Mul(hundred).Round(2)
		}
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if c := stats[i].Amount.Cmp(stats[j].Amount); c != 0 {
			return c > 0
		}
		return stats[i].Category < stats[j].Category
	})
	return stats, nil
}

// Workers aggregates bills that name a worker, largest total amount first.
// Missing hours count as zero.
func (s *StatisticsService) Workers(ctx context.Context, ownerID uint, month string) ([]WorkerStat, error) {
	scope, err := ownerMonth(ownerID, month)
	if err != nil {
		return nil, err
	}

	var rows []workerRow
	if err := s.db.WithContext(ctx).
		Scopes(scope).
		Select("worker, " +
			"COALESCE(SUM(COALESCE(duration_hours, 0)), 0) AS total_hours, " +
			"COALESCE(SUM(amount), 0) AS total_amount, " +
			"COUNT(id) AS bill_count").
		Where("worker IS NOT NULL AND worker <> ''").
		Group("worker").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("worker statistics: %w", err)
	}

	stats := make([]WorkerStat, 0, len(rows))
	for _, r := range rows {
		stats = append(stats, WorkerStat{
			Worker:      r.Worker,
			TotalHours:  math.Round(r.TotalHours*100) / 100,
			TotalAmount: r.TotalAmount.Round(2),
			BillCount:   r.BillCount,
		})
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if c := stats[i].TotalAmount.Cmp(stats[j].TotalAmount); c != 0 {
			return c > 0
		}
		return stats[i].Worker < stats[j].Worker
	})
	return stats, nil
}
