package handler

import (
	"log/slog"
	"net/http"

	"github.com/xby-111/bill/internal/service"

	"github.com/gin-gonic/gin"
)

// BillHandler 负责账单增删改查和统计接口
type BillHandler struct {
	bills *service.BillService
	stats *service.StatisticsService
	log   *slog.Logger
}

func NewBillHandler(bills *service.BillService, stats *service.StatisticsService, log *slog.Logger) *BillHandler {
	return &BillHandler{bills: bills, stats: stats, log: log}
}

// ---------- 记一笔 ----------

func (h *BillHandler) CreateBill(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req service.BillInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	bill, err := h.bills.Create(c.Request.Context(), user.ID, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toBillResp(bill))
}

// ---------- 列表 ----------

func (h *BillHandler) ListBills(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var f service.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		badRequest(c, "skip and limit must be integers")
		return
	}

	bills, err := h.bills.List(c.Request.Context(), user.ID, f)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toBillResps(bills))
}

// ---------- 单条 ----------

func (h *BillHandler) GetBill(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	bill, err := h.bills.Get(c.Request.Context(), user.ID, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toBillResp(bill))
}

// UpdateBill 只修改请求体中出现的字段
func (h *BillHandler) UpdateBill(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req service.BillPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	bill, err := h.bills.Update(c.Request.Context(), user.ID, id, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toBillResp(bill))
}

func (h *BillHandler) DeleteBill(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.bills.Delete(c.Request.Context(), user.ID, id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "账单删除成功"})
}
