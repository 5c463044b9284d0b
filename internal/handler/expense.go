package handler

import (
	"log/slog"
	"net/http"

	"github.com/xby-111/bill/internal/models"
	"github.com/xby-111/bill/internal/service"
	"github.com/xby-111/bill/internal/util"

	"github.com/gin-gonic/gin"
)

// ExpenseHandler serves the family expense book of the minimal profile. It
// has no authentication and no ownership.
type ExpenseHandler struct {
	expenses *service.ExpenseService
	log      *slog.Logger
}

func NewExpenseHandler(expenses *service.ExpenseService, log *slog.Logger) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses, log: log}
}

type expenseResp struct {
	ID        uint    `json:"id"`
	Date      string  `json:"date"`
	Receiver  string  `json:"receiver"`
	Amount    float64 `json:"amount"`
	Project   string  `json:"project"`
	Type      string  `json:"type"`
	PayMethod string  `json:"pay_method"`
	Note      string  `json:"note"`
}

func toExpenseResp(e models.Expense) expenseResp {
	return expenseResp{
		ID:        e.ID,
		Date:      e.Date.UTC().Format(util.DateLayout),
		Receiver:  e.Receiver,
		Amount:    e.Amount.InexactFloat64(),
		Project:   e.Project,
		Type:      e.Type,
		PayMethod: e.PayMethod,
		Note:      e.Note,
	}
}

func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	var f service.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		badRequest(c, "skip and limit must be integers")
		return
	}

	expenses, err := h.expenses.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	out := make([]expenseResp, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseResp(e))
	}
	c.JSON(http.StatusOK, out)
}

func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	var req service.ExpenseInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON body")
		return
	}

	e, err := h.expenses.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.log.InfoContext(c.Request.Context(), "expense created", "expense_id", e.ID)
	c.JSON(http.StatusCreated, gin.H{"ok": true, "id": e.ID})
}
