package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xby-111/bill/internal/models"
	"github.com/xby-111/bill/internal/util"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 家庭记账本字段长度上限
const (
	maxReceiverLen = 100
	maxProjectLen  = 100
	maxTypeLen     = 50
)

// ExpenseService backs the unauthenticated family expense book.
type ExpenseService struct {
	db       *gorm.DB
	pageSize int
	maxLimit int
}

func NewExpenseService(db *gorm.DB, pageSize, maxLimit int) *ExpenseService {
	return &ExpenseService{db: db, pageSize: pageSize, maxLimit: maxLimit}
}

// ExpenseInput is the payload of a new expense. Every field but Note is
// required.
type ExpenseInput struct {
	Date      string           `json:"date"`
	Receiver  string           `json:"receiver"`
	Amount    *decimal.Decimal `json:"amount"`
	Project   string           `json:"project"`
	Type      string           `json:"type"`
	PayMethod string           `json:"pay_method"`
	Note      string           `json:"note"`
}

func (in ExpenseInput) missing() []string {
	var names []string
	for _, f := range []struct {
		name  string
		empty bool
	}{
		{"date", strings.TrimSpace(in.Date) == ""},
		{"receiver", strings.TrimSpace(in.Receiver) == ""},
		{"amount", in.Amount == nil},
		{"project", strings.TrimSpace(in.Project) == ""},
		{"type", strings.TrimSpace(in.Type) == ""},
		{"pay_method", strings.TrimSpace(in.PayMethod) == ""},
	} {
		if f.empty {
			names = append(names, f.name)
		}
	}
	return names
}

func requiredText(field, s string, max int) (string, error) {
	v, err := optionalText(field, &s, max)
	if err != nil {
		return "", err
	}
	return *v, nil
}

// Create validates in and stores a new expense.
func (s *ExpenseService) Create(ctx context.Context, in ExpenseInput) (*models.Expense, error) {
	if names := in.missing(); len(names) > 0 {
		return nil, invalidf("Missing required fields: %s", strings.Join(names, ", "))
	}
	if err := checkAmount(*in.Amount); err != nil {
		return nil, err
	}
	// 家庭记账本只记日期，不接受时间戳
	date, err := util.ParseDate(strings.TrimSpace(in.Date))
	if err != nil {
		return nil, invalidf("Invalid date format. Use YYYY-MM-DD")
	}

	e := models.Expense{Date: date, Amount: *in.Amount}
	if e.Receiver, err = requiredText("receiver", in.Receiver, maxReceiverLen); err != nil {
		return nil, err
	}
	if e.Project, err = requiredText("project", in.Project, maxProjectLen); err != nil {
		return nil, err
	}
	if e.Type, err = requiredText("type", in.Type, maxTypeLen); err != nil {
		return nil, err
	}
	if e.PayMethod, err = requiredText("pay_method", in.PayMethod, maxPayMethodLen); err != nil {
		return nil, err
	}
	note, err := optionalText("note", &in.Note, maxNoteLen)
	if err != nil {
		return nil, err
	}
	if note != nil {
		e.Note = *note
	}

	if err := s.db.WithContext(ctx).Create(&e).Error; err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}
	return &e, nil
}

// List returns expenses matching f, newest first.
func (s *ExpenseService) List(ctx context.Context, f Filter) ([]models.Expense, error) {
	scope, err := f.query(expenseColumns, s.pageSize, s.maxLimit)
	if err != nil {
		return nil, err
	}
	expenses := make([]models.Expense, 0)
	if err := s.db.WithContext(ctx).Scopes(scope).Find(&expenses).Error; err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}
