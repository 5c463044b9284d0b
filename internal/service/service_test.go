package service

import (
	"context"
	"testing"
	"time"

	"github.com/xby-111/bill/internal/config"
	"github.com/xby-111/bill/internal/models"
	"github.com/xby-111/bill/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

const (
	owner = uint(1)
	other = uint(2)
)

// ledgerSuite gives every test a fresh store with the full-profile tables.
type ledgerSuite struct {
	suite.Suite
	ctx   context.Context
	db    *gorm.DB
	bills *BillService
	stats *StatisticsService
}

func (s *ledgerSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutil.NewDB(s.T(), config.ProfileFull)
	s.bills = NewBillService(s.db, 100, 10000)
	s.stats = NewStatisticsService(s.db)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T {
	return &v
}

// addBill creates a bill or fails the test.
func (s *ledgerSuite) addBill(ownerID uint, amount, kind, category, date string, opts ...func(*BillInput)) *models.Bill {
	in := BillInput{Amount: dec(amount), BillType: kind, Category: category, Date: date}
	for _, o := range opts {
		o(&in)
	}
	b, err := s.bills.Create(s.ctx, ownerID, in)
	s.Require().NoError(err)
	return b
}

func withWorker(name string, hours float64) func(*BillInput) {
	return func(in *BillInput) {
		in.Worker = ptr(name)
		in.DurationHours = ptr(hours)
	}
}

func requireKind(t *testing.T, want Kind, err error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, want, KindOf(err), "unexpected error %v", err)
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}
