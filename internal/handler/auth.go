package handler

import (
	"log/slog"
	"net/http"

	"github.com/xby-111/bill/internal/middleware"
	"github.com/xby-111/bill/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler 负责注册/登录/注销相关接口
type AuthHandler struct {
	auth *service.AuthService
	log  *slog.Logger
}

func NewAuthHandler(auth *service.AuthService, log *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

// ---------- 注册 ----------

func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.log.InfoContext(c.Request.Context(), "user registered", "user", user.Username)
	c.JSON(http.StatusOK, toUserResp(user))
}

// ---------- 登录 ----------

type loginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username and password are required")
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Username, req.Password, c.ClientIP())
	if err != nil {
		if service.KindOf(err) == service.KindUnauthorized {
			h.log.WarnContext(c.Request.Context(), "login failed", "user", req.Username, "client_ip", c.ClientIP())
		}
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

// ---------- 注销 ----------

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), middleware.CurrentClaims(c)); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "已退出登录"})
}
