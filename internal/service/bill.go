package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xby-111/bill/internal/models"
	"github.com/xby-111/bill/internal/util"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 文本字段长度上限（按字符计）
const (
	maxCategoryLen  = 50
	maxNoteLen      = 1000
	maxWorkerLen    = 100
	maxPayMethodLen = 50
)

// BillService implements owner-scoped bill CRUD and the list/filter engine.
type BillService struct {
	db          *gorm.DB
	pageSize    int
	exportLimit int
	now         func() time.Time
}

func NewBillService(db *gorm.DB, pageSize, exportLimit int) *BillService {
	return &BillService{
		db:          db,
		pageSize:    pageSize,
		exportLimit: exportLimit,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// BillInput is the payload of a new bill.
type BillInput struct {
	Amount        decimal.Decimal  `json:"amount"`
	BillType      string           `json:"bill_type"`
	Category      string           `json:"category"`
	Date          string           `json:"date"`
	Note          *string          `json:"note"`
	Worker        *string          `json:"worker"`
	DurationHours *float64         `json:"duration_hours"`
	PayMethod     *string          `json:"pay_method"`
	HourlyRate    *decimal.Decimal `json:"hourly_rate"`
}

// BillPatch lists the fields of a partial update; nil means "leave as is".
type BillPatch struct {
	Amount        *decimal.Decimal `json:"amount"`
	BillType      *string          `json:"bill_type"`
	Category      *string          `json:"category"`
	Date          *string          `json:"date"`
	Note          *string          `json:"note"`
	Worker        *string          `json:"worker"`
	DurationHours *float64         `json:"duration_hours"`
	PayMethod     *string          `json:"pay_method"`
	HourlyRate    *decimal.Decimal `json:"hourly_rate"`
}

// Empty reports whether the patch changes nothing.
func (p BillPatch) Empty() bool {
	return p.Amount == nil && p.BillType == nil && p.Category == nil && p.Date == nil &&
		p.Note == nil && p.Worker == nil && p.DurationHours == nil &&
		p.PayMethod == nil && p.HourlyRate == nil
}

func checkAmount(amount decimal.Decimal) error {
	if err := util.ValidateAmount(amount); err != nil {
		return invalidf("Amount must be a positive number below %s with at most 2 decimal places", util.MaxAmount)
	}
	return nil
}

func checkKind(kind string) error {
	if kind != models.KindIncome && kind != models.KindExpense {
		return invalidf("bill_type must be income or expense")
	}
	return nil
}

func checkCategory(category string) (string, error) {
	category = strings.TrimSpace(category)
	if err := util.ValidateCategory(category); err != nil {
		return "", invalidf("Invalid category: %v", err)
	}
	return category, nil
}

func checkDate(s string) (time.Time, error) {
	t, err := util.ParseDateTime(s)
	if err != nil {
		return time.Time{}, invalidf("Invalid date format. Use YYYY-MM-DD")
	}
	return t, nil
}

// optionalText trims s and maps blank to nil.
func optionalText(field string, s *string, max int) (*string, error) {
	if s == nil {
		return nil, nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil, nil
	}
	if err := util.ValidateLength(field, v, max); err != nil {
		return nil, invalidf("%v", err)
	}
	return &v, nil
}

func checkHours(h *float64) error {
	if h != nil && *h < 0 {
		return invalidf("duration_hours must not be negative")
	}
	return nil
}

func checkRate(r *decimal.Decimal) error {
	if r != nil && r.IsNegative() {
		return invalidf("hourly_rate must not be negative")
	}
	if r != nil && util.ValidateCents(*r) != nil {
		return invalidf("hourly_rate must have at most 2 decimal places")
	}
	return nil
}

func nullDecimal(r *decimal.Decimal) decimal.NullDecimal {
	if r == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *r, Valid: true}
}

// Create validates in and stores it as a new bill owned by ownerID.
func (s *BillService) Create(ctx context.Context, ownerID uint, in BillInput) (*models.Bill, error) {
	if err := checkAmount(in.Amount); err != nil {
		return nil, err
	}
	if err := checkKind(in.BillType); err != nil {
		return nil, err
	}
	category, err := checkCategory(in.Category)
	if err != nil {
		return nil, err
	}
	date, err := checkDate(in.Date)
	if err != nil {
		return nil, err
	}
	note, err := optionalText("note", in.Note, maxNoteLen)
	if err != nil {
		return nil, err
	}
	worker, err := optionalText("worker", in.Worker, maxWorkerLen)
	if err != nil {
		return nil, err
	}
	payMethod, err := optionalText("pay_method", in.PayMethod, maxPayMethodLen)
	if err != nil {
		return nil, err
	}
	if err := checkHours(in.DurationHours); err != nil {
		return nil, err
	}
	if err := checkRate(in.HourlyRate); err != nil {
		return nil, err
	}

	bill := models.Bill{
		UserID:        ownerID,
		Amount:        in.Amount,
		BillType:      in.BillType,
		Category:      category,
		Date:          date,
		Note:          note,
		Worker:        worker,
		DurationHours: in.DurationHours,
		HourlyRate:    nullDecimal(in.HourlyRate),
		PayMethod:     payMethod,
	}
	if err := s.db.WithContext(ctx).Create(&bill).Error; err != nil {
		return nil, fmt.Errorf("create bill: %w", err)
	}
	return &bill, nil
}

// List returns the owner's bills matching f, newest first.
func (s *BillService) List(ctx context.Context, ownerID uint, f Filter) ([]models.Bill, error) {
	scope, err := f.query(billColumns, s.pageSize, s.exportLimit)
	if err != nil {
		return nil, err
	}

	bills := make([]models.Bill, 0)
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Scopes(scope).
		Find(&bills).Error; err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	return bills, nil
}

// ListAll returns every bill of the owner (optionally one month), up to the
// export limit, in list order.
func (s *BillService) ListAll(ctx context.Context, ownerID uint, month string) ([]models.Bill, error) {
	return s.List(ctx, ownerID, Filter{Month: month, Limit: s.exportLimit})
}

// Get returns one bill; bills of other owners are reported as not found.
func (s *BillService) Get(ctx context.Context, ownerID, id uint) (*models.Bill, error) {
	var bill models.Bill
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&bill).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBillNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get bill %d: %w", id, err)
	}
	return &bill, nil
}

// Update applies the supplied fields of p and leaves the others unchanged.
func (s *BillService) Update(ctx context.Context, ownerID, id uint, p BillPatch) (*models.Bill, error) {
	// 先校验再查库，避免无效请求触发写操作
	if p.Amount != nil {
		if err := checkAmount(*p.Amount); err != nil {
			return nil, err
		}
	}
	if p.BillType != nil {
		if err := checkKind(*p.BillType); err != nil {
			return nil, err
		}
	}
	var (
		category string
		date     time.Time
		err      error
	)
	if p.Category != nil {
		if category, err = checkCategory(*p.Category); err != nil {
			return nil, err
		}
	}
	if p.Date != nil {
		if date, err = checkDate(*p.Date); err != nil {
			return nil, err
		}
	}
	note, err := optionalText("note", p.Note, maxNoteLen)
	if err != nil {
		return nil, err
	}
	worker, err := optionalText("worker", p.Worker, maxWorkerLen)
	if err != nil {
		return nil, err
	}
	payMethod, err := optionalText("pay_method", p.PayMethod, maxPayMethodLen)
	if err != nil {
		return nil, err
	}
	if err := checkHours(p.DurationHours); err != nil {
		return nil, err
	}
	if err := checkRate(p.HourlyRate); err != nil {
		return nil, err
	}

	bill, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if p.Empty() {
		return bill, nil
	}

	if p.Amount != nil {
		bill.Amount = *p.Amount
	}
	if p.BillType != nil {
		bill.BillType = *p.BillType
	}
	if p.Category != nil {
		bill.Category = category
	}
	if p.Date != nil {
		bill.Date = date
	}
	if p.Note != nil {
		bill.Note = note
	}
	if p.Worker != nil {
		bill.Worker = worker
	}
	if p.DurationHours != nil {
		bill.DurationHours = p.DurationHours
	}
	if p.PayMethod != nil {
		bill.PayMethod = payMethod
	}
	if p.HourlyRate != nil {
		bill.HourlyRate = nullDecimal(p.HourlyRate)
	}
	now := s.now()
	bill.UpdatedAt = &now

	if err := s.db.WithContext(ctx).Save(bill).Error; err != nil {
		return nil, fmt.Errorf("update bill %d: %w", id, err)
	}
	return bill, nil
}

// Delete removes one bill of the owner.
func (s *BillService) Delete(ctx context.Context, ownerID, id uint) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&models.Bill{})
	if res.Error != nil {
		return fmt.Errorf("delete bill %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrBillNotFound
	}
	return nil
}
