package util

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// TestValidateAmount_Positive 测试正数金额
func TestValidateAmount_Positive(t *testing.T) {
	testCases := []string{"0.01", "1", "100.5", "9999999.99"}

	for _, s := range testCases {
		if err := ValidateAmount(decimal.RequireFromString(s)); err != nil {
			t.Errorf("ValidateAmount(%s) error = %v, want nil", s, err)
		}
	}
}

// TestValidateAmount_NotPositive 测试零和负数金额（异常）
func TestValidateAmount_NotPositive(t *testing.T) {
	testCases := []string{"0", "-0.01", "-100", "-9999.99"}

	for _, s := range testCases {
		if err := ValidateAmount(decimal.RequireFromString(s)); err == nil {
			t.Errorf("ValidateAmount(%s) error = nil, want error", s)
		}
	}
}

// TestValidateAmount_TooLarge 测试金额过大（异常）
func TestValidateAmount_TooLarge(t *testing.T) {
	if err := ValidateAmount(decimal.NewFromInt(100000000)); err == nil {
		t.Error("ValidateAmount(100000000) error = nil, want error")
	}
}

// TestValidateAmount_Cents 最多两位小数（异常）
func TestValidateAmount_Cents(t *testing.T) {
	for _, s := range []string{"0.10", "1.500", "12.340000"} {
		if err := ValidateAmount(decimal.RequireFromString(s)); err != nil {
			t.Errorf("ValidateAmount(%s) error = %v, want nil", s, err)
		}
	}
	for _, s := range []string{"0.001", "1.005", "99.999"} {
		if err := ValidateAmount(decimal.RequireFromString(s)); err == nil {
			t.Errorf("ValidateAmount(%s) error = nil, want error", s)
		}
	}
	if err := ValidateCents(decimal.RequireFromString("120.255")); err == nil {
		t.Error("ValidateCents(120.255) error = nil, want error")
	}
}

// TestValidateDate_Valid 测试有效日期
func TestValidateDate_Valid(t *testing.T) {
	testCases := []string{
		"2024-01-01",
		"2024-02-29",
		"2025-06-15",
	}

	for _, date := range testCases {
		if err := ValidateDate(date); err != nil {
			t.Errorf("ValidateDate(%q) error = %v, want nil", date, err)
		}
	}
}

// TestValidateDate_InvalidFormat 测试无效格式（异常）
func TestValidateDate_InvalidFormat(t *testing.T) {
	testCases := []string{
		"",
		"2024/01/01",
		"01-01-2024",
		"2024-1-1",
		"not-a-date",
		"2024-13-01", // 月份错误
		"2024-01-32", // 日期错误
		"2023-02-29", // 非闰年
	}

	for _, date := range testCases {
		if err := ValidateDate(date); err == nil {
			t.Errorf("ValidateDate(%q) error = nil, want error", date)
		}
	}
}

func TestParseDateTime(t *testing.T) {
	testCases := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-03-01T10:30:00", time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)},
		{"2024-03-01 10:30:00", time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)},
		// 带时区偏移时保留用户填写的日期和时间
		{"2024-03-01T10:30:00+08:00", time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)},
		{"2024-03-01T00:30:00+08:00", time.Date(2024, 3, 1, 0, 30, 0, 0, time.UTC)},
		{"2024-02-29T23:30:00-05:00", time.Date(2024, 2, 29, 23, 30, 0, 0, time.UTC)},
	}

	for _, tc := range testCases {
		got, err := ParseDateTime(tc.in)
		if err != nil {
			t.Fatalf("ParseDateTime(%q) error = %v", tc.in, err)
		}
		if !got.Equal(tc.want) || got.Location() != time.UTC {
			t.Errorf("ParseDateTime(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}

	if _, err := ParseDateTime("yesterday"); err == nil {
		t.Error("ParseDateTime(\"yesterday\") error = nil, want error")
	}
}

func TestParseMonth(t *testing.T) {
	start, end, err := ParseMonth("2024-12")
	if err != nil {
		t.Fatalf("ParseMonth error = %v", err)
	}
	if !start.Equal(time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", start)
	}
	if !end.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %v, want first day of next year", end)
	}

	for _, bad := range []string{"", "2024", "2024-13", "2024/03", "24-03", "2024-03-01"} {
		if _, _, err := ParseMonth(bad); err == nil {
			t.Errorf("ParseMonth(%q) error = nil, want error", bad)
		}
	}
}

// TestValidateCategory_Valid 测试有效分类
func TestValidateCategory_Valid(t *testing.T) {
	testCases := []string{"餐饮", "交通", "人工", "材料", "工资"}

	for _, category := range testCases {
		if err := ValidateCategory(category); err != nil {
			t.Errorf("ValidateCategory(%q) error = %v, want nil", category, err)
		}
	}
}

// TestValidateCategory_Empty 测试空分类（异常）
func TestValidateCategory_Empty(t *testing.T) {
	for _, category := range []string{"", "   "} {
		if err := ValidateCategory(category); err == nil {
			t.Errorf("ValidateCategory(%q) error = nil, want error", category)
		}
	}
}

// TestValidateLength_CountsRunes 中文按字符计数
func TestValidateLength_CountsRunes(t *testing.T) {
	if err := ValidateLength("note", strings.Repeat("备", 1000), 1000); err != nil {
		t.Errorf("1000 runes should pass, got %v", err)
	}
	if err := ValidateLength("note", strings.Repeat("备", 1001), 1000); err == nil {
		t.Error("1001 runes should fail")
	}
}
