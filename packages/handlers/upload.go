package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"droneanalytics/packages/apperrors"
	"droneanalytics/packages/auth"
	"droneanalytics/packages/excel"
	"droneanalytics/packages/metrics"
)

const uploadField = "excel_file"

// Парсинг и загрузка файла в базу одной партией
func (h *handler) uploadFiles(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Config.Server.MaxUploadBytes)

	file, err := c.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(c, apperrors.ErrInvalidFile.WithCause(err).WithDetails(map[string]any{"limit_bytes": tooLarge.Limit}))
			return
		}
		h.respondError(c, apperrors.ErrInvalidFile.WithCause(err).WithDetails(map[string]any{"field": uploadField}))
		return
	}

	if !strings.EqualFold(filepath.Ext(file.Filename), ".xlsx") {
		h.respondError(c, apperrors.ErrInvalidFile.WithDetails(map[string]any{"expected": ".xlsx"}))
		return
	}

	uploaded, err := file.Open()
	if err != nil {
		h.respondError(c, apperrors.ErrInvalidFile.WithCause(err))
		return
	}
	defer uploaded.Close()

	rows, err := excel.Read(uploaded)
	if err != nil {
		h.respondError(c, err)
		return
	}

	user, _ := auth.GetUsername(c)
	h.Logger.Info("Processing upload",
		zap.String("file", file.Filename),
		zap.String("user", user),
		zap.Int("rows", len(rows)),
	)

	batch := h.Pipeline.Run(c.Request.Context(), rows)

	batchID, inserted, err := h.Store.InsertBatch(c.Request.Context(), batch.Records)
	if err != nil {
		h.respondError(c, err)
		return
	}
	metrics.UploadBatchSize.Observe(float64(inserted))

	c.JSON(http.StatusOK, gin.H{
		"total_rows":     batch.Total,
		"inserted_count": inserted,
		"skipped_count":  len(batch.Skipped),
		"batch_id":       batchID,
	})
}
