package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/xby-111/bill/internal/service"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ExportHandler struct {
	export *service.ExportService
	log    *slog.Logger
}

func NewExportHandler(export *service.ExportService, log *slog.Logger) *ExportHandler {
	return &ExportHandler{export: export, log: log}
}

func attachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

// ExportCSV 导出账单为 CSV（带 BOM），可按 month 过滤
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	month := c.Query("month")

	data, err := h.export.CSV(c.Request.Context(), user.ID, month)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	attachment(c, service.ExportFilename(month, "csv"), "text/csv; charset=utf-8", data)
}

// ExportXLSX 导出账单为 XLSX
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	month := c.Query("month")

	data, err := h.export.XLSX(c.Request.Context(), user.ID, month)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	attachment(c, service.ExportFilename(month, "xlsx"), xlsxContentType, data)
}
