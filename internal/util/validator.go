package util

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

// MaxAmount 金额上限（不含），与 decimal(12,2) 列保持余量
var MaxAmount = decimal.NewFromInt(10000000)

// ValidateAmount 验证金额（必须为正数、不超过上限、最多两位小数）
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be positive, got %s", amount)
	}
	if amount.GreaterThanOrEqual(MaxAmount) { // 限制最大金额为1千万
		return fmt.Errorf("amount too large, got %s", amount)
	}
	return ValidateCents(amount)
}

// ValidateCents 金额精确到分，"1.500" 这类尾随零允许
func ValidateCents(amount decimal.Decimal) error {
	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("amount has more than 2 decimal places, got %s", amount)
	}
	return nil
}

// ValidateDate 验证日期格式（必须为 YYYY-MM-DD）
func ValidateDate(dateStr string) error {
	_, err := ParseDate(dateStr)
	return err
}

// ParseDate parses a YYYY-MM-DD calendar date as UTC midnight.
func ParseDate(dateStr string) (time.Time, error) {
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	t, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %w", err)
	}
	return t, nil
}

var dateTimeLayouts = []string{
	time.RFC3339,          // 2025-12-03T00:00:00+08:00
	"2006-01-02T15:04:05", // 2025-12-03T00:00:00
	"2006-01-02 15:04:05", // 2025-12-03 00:00:00
	DateLayout,            // 2025-12-03
}

// ParseDateTime accepts a date or a timestamp. The wall clock is kept and
// stored as UTC: "2024-03-01T00:30:00+08:00" becomes 2024-03-01 00:30 UTC,
// so the bill stays in the month and day the user wrote.
func ParseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(),
				t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC3339", s)
}

// ParseMonth parses a YYYY-MM month specifier into the half-open UTC range
// [first day of month, first day of next month).
func ParseMonth(month string) (start, end time.Time, err error) {
	t, err := time.Parse(MonthLayout, month)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month %q: use YYYY-MM", month)
	}
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0), nil
}

// ValidateCategory 验证分类（不能为空且长度合理）
func ValidateCategory(category string) error {
	if strings.TrimSpace(category) == "" {
		return fmt.Errorf("category is empty")
	}
	return ValidateLength("category", category, 50)
}

// ValidateLength 按字符（而非字节）计算长度
func ValidateLength(field, value string, max int) error {
	if n := utf8.RuneCountInString(value); n > max {
		return fmt.Errorf("%s too long (max %d characters)", field, max)
	}
	return nil
}
