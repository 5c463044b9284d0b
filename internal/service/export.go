package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/xby-111/bill/internal/models"

	"github.com/xuri/excelize/v2"
)

// CSVHeader is the fixed column order of every export.
var CSVHeader = []string{"日期时间", "类型", "分类", "金额", "工人", "时长(小时)", "时薪(元/小时)", "支付方式", "备注"}

// UTF-8 BOM（让 Excel 正确识别中文）
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const (
	exportTimeLayout = "2006-01-02 15:04:05"
	xlsxSheet        = "账单明细"
)

// ExportService renders an owner's bills as downloadable files.
type ExportService struct {
	bills *BillService
}

func NewExportService(bills *BillService) *ExportService {
	return &ExportService{bills: bills}
}

func kindLabel(kind string) string {
	if kind == models.KindIncome {
		return "收入"
	}
	return "支出"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// exportRow renders b in CSVHeader order; missing fields become "".
func exportRow(b models.Bill) []string {
	hours := ""
	if b.DurationHours != nil {
		hours = strconv.FormatFloat(*b.DurationHours, 'f', -1, 64)
	}
	rate := ""
	if b.HourlyRate.Valid {
		rate = b.HourlyRate.Decimal.StringFixed(2)
	}
	return []string{
		b.Date.UTC().Format(exportTimeLayout),
		kindLabel(b.BillType),
		b.Category,
		b.Amount.StringFixed(2),
		deref(b.Worker),
		hours,
		rate,
		deref(b.PayMethod),
		deref(b.Note),
	}
}

// CSV returns the owner's bills (optionally one month) as BOM-prefixed CSV.
func (s *ExportService) CSV(ctx context.Context, ownerID uint, month string) ([]byte, error) {
	bills, err := s.bills.ListAll(ctx, ownerID, month)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write(utf8BOM)
	w := csv.NewWriter(&buf)
	if err := w.Write(CSVHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, b := range bills {
		if err := w.Write(exportRow(b)); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", b.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// XLSX returns the same rows as CSV in a single-sheet workbook.
func (s *ExportService) XLSX(ctx context.Context, ownerID uint, month string) ([]byte, error) {
	bills, err := s.bills.ListAll(ctx, ownerID, month)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", toCells(CSVHeader)); err != nil {
		return nil, fmt.Errorf("write xlsx header: %w", err)
	}
	for i, b := range bills {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(xlsxSheet, cell, toCells(exportRow(b))); err != nil {
			return nil, fmt.Errorf("write xlsx row %d: %w", b.ID, err)
		}
	}

	// 设置列宽
	_ = f.SetColWidth(xlsxSheet, "A", "A", 20)
	_ = f.SetColWidth(xlsxSheet, "B", "H", 12)
	_ = f.SetColWidth(xlsxSheet, "I", "I", 30)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func toCells(row []string) *[]any {
	cells := make([]any, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return &cells
}

// ExportFilename names a download: bills_<month>.<ext> or bills_all.<ext>.
func ExportFilename(month, ext string) string {
	month = strings.TrimSpace(month)
	if month == "" {
		month = "all"
	}
	return fmt.Sprintf("bills_%s.%s", month, ext)
}
