package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type monthlyResp struct {
	Month        string  `json:"month"`
	TotalIncome  float64 `json:"total_income"`
	TotalExpense float64 `json:"total_expense"`
	NetAmount    float64 `json:"net_amount"`
}

type categoryResp struct {
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

type workerResp struct {
	Worker      string  `json:"worker"`
	TotalHours  float64 `json:"total_hours"`
	TotalAmount float64 `json:"total_amount"`
	BillCount   int64   `json:"bill_count"`
}

// MonthlyStats 月度收支，month 必填
func (h *BillHandler) MonthlyStats(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	m, err := h.stats.Monthly(c.Request.Context(), user.ID, c.Query("month"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, monthlyResp{
		Month:        m.Month,
		TotalIncome:  m.TotalIncome.InexactFloat64(),
		TotalExpense: m.TotalExpense.InexactFloat64(),
		NetAmount:    m.NetAmount.InexactFloat64(),
	})
}

func (h *BillHandler) CategoryStats(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := h.stats.Categories(c.Request.Context(), user.ID, c.Query("month"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	out := make([]categoryResp, 0, len(stats))
	for _, s := range stats {
		out = append(out, categoryResp{
			Category:   s.Category,
			Amount:     s.Amount.InexactFloat64(),
			Percentage: s.Percentage.InexactFloat64(),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *BillHandler) WorkerStats(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := h.stats.Workers(c.Request.Context(), user.ID, c.Query("month"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	out := make([]workerResp, 0, len(stats))
	for _, s := range stats {
		out = append(out, workerResp{
			Worker:      s.Worker,
			TotalHours:  s.TotalHours,
			TotalAmount: s.TotalAmount.InexactFloat64(),
			BillCount:   s.BillCount,
		})
	}
	c.JSON(http.StatusOK, out)
}
