package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type StatisticsSuite struct {
	ledgerSuite
}

func TestStatistics(t *testing.T) {
	suite.Run(t, new(StatisticsSuite))
}

func (s *StatisticsSuite) TestMonthlyScenario() {
	s.addBill(owner, "100", "income", "salary", "2024-03-01")
	s.addBill(owner, "40", "expense", "food", "2024-03-02")
	// 其他月份和其他用户不计入
	s.addBill(owner, "7", "expense", "food", "2024-04-01")
	s.addBill(other, "500", "income", "salary", "2024-03-01")

	m, err := s.stats.Monthly(s.ctx, owner, "2024-03")
	s.Require().NoError(err)
	s.Equal("2024-03", m.Month)
	s.True(m.TotalIncome.Equal(dec("100")), "income %s", m.TotalIncome)
	s.True(m.TotalExpense.Equal(dec("40")), "expense %s", m.TotalExpense)
	s.True(m.NetAmount.Equal(dec("60")), "net %s", m.NetAmount)
}

func (s *StatisticsSuite) TestMonthlyMatchesFilteredList() {
	for _, b := range []struct{ amount, kind, date string }{
		{"12.34", "income", "2024-05-01"},
		{"0.66", "income", "2024-05-31T22:00:00"},
		{"3.10", "expense", "2024-05-15"},
		{"8.05", "expense", "2024-05-20"},
		{"99", "expense", "2024-06-01"},
	} {
		s.addBill(owner, b.amount, b.kind, "misc", b.date)
	}

	list, err := s.bills.List(s.ctx, owner, Filter{Month: "2024-05"})
	s.Require().NoError(err)
	income, expense := decimal.Zero, decimal.Zero
	for _, b := range list {
		if b.BillType == "income" {
			income = income.Add(b.Amount)
		} else {
			expense = expense.Add(b.Amount)
		}
	}

	m, err := s.stats.Monthly(s.ctx, owner, "2024-05")
	s.Require().NoError(err)
	s.True(m.TotalIncome.Equal(income.Round(2)), "%s != %s", m.TotalIncome, income)
	s.True(m.TotalExpense.Equal(expense.Round(2)), "%s != %s", m.TotalExpense, expense)
	s.True(m.NetAmount.Equal(dec("1.85")), "net %s", m.NetAmount)
}

func (s *StatisticsSuite) TestMonthlyEmptyMonthIsZero() {
	m, err := s.stats.Monthly(s.ctx, owner, "1999-01")
	s.Require().NoError(err)
	s.True(m.TotalIncome.IsZero())
	s.True(m.TotalExpense.IsZero())
	s.True(m.NetAmount.IsZero())
}

func (s *StatisticsSuite) TestMonthlyRequiresValidMonth() {
	_, err := s.stats.Monthly(s.ctx, owner, "")
	requireKind(s.T(), KindInvalid, err)
	_, err = s.stats.Monthly(s.ctx, owner, "2024-3")
	requireKind(s.T(), KindInvalid, err)
}

func (s *StatisticsSuite) TestCategoriesPercentagesSumTo100() {
	s.addBill(owner, "10", "expense", "food", "2024-03-01")
	s.addBill(owner, "10", "expense", "rent", "2024-03-02")
	s.addBill(owner, "10", "expense", "travel", "2024-03-03")
	s.addBill(owner, "5", "expense", "food", "2024-03-04")

	stats, err := s.stats.Categories(s.ctx, owner, "2024-03")
	s.Require().NoError(err)
	s.Require().Len(stats, 3)

	s.Equal("food", stats[0].Category)
	s.True(stats[0].Amount.Equal(dec("15")))
	s.True(stats[0].Percentage.Equal(dec("42.86")), "got %s", stats[0].Percentage)
	// 金额相同时按分类名排序
	s.Equal("rent", stats[1].Category)
	s.Equal("travel", stats[2].Category)

	sum := decimal.Zero
	for _, st := range stats {
		sum = sum.Add(st.Percentage)
	}
	s.True(sum.Sub(dec("100")).Abs().LessThanOrEqual(dec("0.05")), "percentages sum to %s", sum)
}

func (s *StatisticsSuite) TestCategoriesGroupByExactString() {
	s.addBill(owner, "1", "expense", "Food", "2024-03-01")
	s.addBill(owner, "2", "expense", "food", "2024-03-01")

	stats, err := s.stats.Categories(s.ctx, owner, "")
	s.Require().NoError(err)
	s.Require().Len(stats, 2)
	s.Equal("food", stats[0].Category)
	s.Equal("Food", stats[1].Category)
}

func (s *StatisticsSuite) TestCategoriesEmpty() {
	stats, err := s.stats.Categories(s.ctx, owner, "2024-03")
	s.Require().NoError(err)
	s.NotNil(stats)
	s.Empty(stats)
}

func (s *StatisticsSuite) TestWorkers() {
	s.addBill(owner, "200", "expense", "cleaning", "2024-03-01", withWorker("Wang", 2))
	s.addBill(owner, "150", "expense", "cleaning", "2024-03-08", withWorker("Wang", 1.5))
	s.addBill(owner, "300", "expense", "repair", "2024-03-09", func(in *BillInput) { in.Worker = ptr("Zhao") })
	s.addBill(owner, "80", "expense", "cleaning", "2024-03-10", withWorker("wang", 1))
	s.addBill(owner, "50", "expense", "food", "2024-03-11", func(in *BillInput) { in.Worker = ptr("  ") })
	s.addBill(owner, "60", "expense", "food", "2024-03-12")

	stats, err := s.stats.Workers(s.ctx, owner, "2024-03")
	s.Require().NoError(err)
	s.Require().Len(stats, 3)

	s.Equal("Wang", stats[0].Worker)
	s.Equal(3.5, stats[0].TotalHours)
	s.True(stats[0].TotalAmount.Equal(dec("350")))
	s.Equal(int64(2), stats[0].BillCount)

	// 没有时长的记为 0
	s.Equal("Zhao", stats[1].Worker)
	s.Equal(0.0, stats[1].TotalHours)
	s.Equal(int64(1), stats[1].BillCount)

	// 大小写不同视为不同工人
	s.Equal("wang", stats[2].Worker)
}

func (s *StatisticsSuite) TestStatisticsRejectBadMonth() {
	_, err := s.stats.Categories(s.ctx, owner, "2024/03")
	requireKind(s.T(), KindInvalid, err)
	_, err = s.stats.Workers(s.ctx, owner, "x")
	requireKind(s.T(), KindInvalid, err)
}
