package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ChangePasswordReq 修改密码请求
type ChangePasswordReq struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ChangePassword 修改当前用户密码；已签发的 token 仍在有效期内可用
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req ChangePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "old_password and new_password are required")
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), user, req.OldPassword, req.NewPassword); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "密码修改成功，请使用新密码重新登录"})
}
