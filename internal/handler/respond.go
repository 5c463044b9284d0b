package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/xby-111/bill/internal/middleware"
	"github.com/xby-111/bill/internal/models"
	"github.com/xby-111/bill/internal/service"
	"github.com/xby-111/bill/internal/util"

	"github.com/gin-gonic/gin"
)

// respondError 把 service 错误映射为 HTTP 状态码和业务码；内部错误只记日志
func respondError(c *gin.Context, log *slog.Logger, err error) {
	switch service.KindOf(err) {
	case service.KindInvalid, service.KindConflict:
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
	case service.KindUnauthorized:
		c.Header("WWW-Authenticate", "Bearer")
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, err.Error())
	case service.KindNotFound:
		util.Error(c, http.StatusNotFound, util.CodeNotFound, err.Error())
	default:
		log.ErrorContext(c.Request.Context(), "request failed",
			"error", err,
			"path", c.Request.URL.Path,
			"request_id", middleware.RequestID(c))
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Internal server error")
	}
}

func badRequest(c *gin.Context, msg string) {
	util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, msg)
}

// currentUser 取出 AuthMiddleware 放入的用户；缺失时直接返回 401
func currentUser(c *gin.Context) (*models.User, bool) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.Header("WWW-Authenticate", "Bearer")
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "Not authenticated")
		return nil, false
	}
	return user, true
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "Invalid bill id")
		return 0, false
	}
	return uint(id), true
}

// ---------- 响应结构 ----------

type userResp struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResp(u *models.User) userResp {
	return userResp{ID: u.ID, Username: u.Username, Email: u.Email, CreatedAt: u.CreatedAt}
}

type billResp struct {
	ID            uint       `json:"id"`
	UserID        uint       `json:"user_id"`
	Amount        float64    `json:"amount"`
	BillType      string     `json:"bill_type"`
	Category      string     `json:"category"`
	Date          time.Time  `json:"date"`
	Note          *string    `json:"note"`
	Worker        *string    `json:"worker"`
	DurationHours *float64   `json:"duration_hours"`
	PayMethod     *string    `json:"pay_method"`
	HourlyRate    *float64   `json:"hourly_rate"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at"`
}

func toBillResp(b *models.Bill) billResp {
	r := billResp{
		ID:            b.ID,
		UserID:        b.UserID,
		Amount:        b.Amount.InexactFloat64(),
		BillType:      b.BillType,
		Category:      b.Category,
		Date:          b.Date.UTC(),
		Note:          b.Note,
		Worker:        b.Worker,
		DurationHours: b.DurationHours,
		PayMethod:     b.PayMethod,
		CreatedAt:     b.CreatedAt.UTC(),
		UpdatedAt:     b.UpdatedAt,
	}
	if b.HourlyRate.Valid {
		rate := b.HourlyRate.Decimal.InexactFloat64()
		r.HourlyRate = &rate
	}
	return r
}

func toBillResps(bills []models.Bill) []billResp {
	out := make([]billResp, 0, len(bills))
	for i := range bills {
		out = append(out, toBillResp(&bills[i]))
	}
	return out
}
