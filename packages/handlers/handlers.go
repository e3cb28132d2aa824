package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"droneanalytics/packages/apperrors"
	"droneanalytics/packages/auth"
	"droneanalytics/packages/config"
	"droneanalytics/packages/flights"
	"droneanalytics/packages/metrics"
)

// FlightStore - хранилище записей о полетах
type FlightStore interface {
	InsertBatch(ctx context.Context, records []flights.Record) (batchID string, inserted int, err error)
	Find(ctx context.Context, filter flights.Filter) ([]flights.Record, error)
	Regions(ctx context.Context) ([]string, error)
	Heatmap(ctx context.Context, region string) ([]flights.HeatPoint, error)
}

// RegionsGeo отдает геометрию регионов в виде готового JSON
type RegionsGeo interface {
	RegionsJSON(ctx context.Context) ([]byte, error)
}

type Dependencies struct {
	Store    FlightStore
	Pipeline *flights.Pipeline
	// Может быть nil, если регионы не загружены
	Geo    RegionsGeo
	Auth   *auth.Middleware
	Config *config.Config
	Logger *zap.Logger
}

type handler struct {
	Dependencies
	uploadLimiter *ipRateLimiter
}

func RegisterRoutes(r *gin.Engine, deps Dependencies) {
	h := &handler{
		Dependencies:  deps,
		uploadLimiter: newIPRateLimiter(deps.Config.Server.UploadRate, deps.Config.Server.UploadBurst),
	}

	r.Use(requestLogger(deps.Logger), requestMetrics(), deps.Auth.JWTAuth())

	r.GET("/ping", healthCheck)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	r.GET("/flights", h.getReport)
	r.GET("/flights/list", h.getFlightList)
	r.GET("/regions", h.getRegionList)
	r.GET("/regions/geo", h.getRegionsGeo)
	r.GET("/heatmap", h.getHeatmapData)

	r.POST("/upload",
		h.uploadLimiter.middleware(),
		deps.Auth.RequireRealmRole(deps.Config.Auth.AdminRole),
		h.uploadFiles,
	)
}

// Проверка доступности сервера
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// Список регионов вылета и посадки, встречающихся в данных
func (h *handler) getRegionList(c *gin.Context) {
	regions, err := h.Store.Regions(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	type regionResponse struct {
		Region string `json:"region"`
	}
	out := make([]regionResponse, len(regions))
	for i, name := range regions {
		out[i] = regionResponse{Region: name}
	}
	c.JSON(http.StatusOK, out)
}

// Запрос для тепловой карты полетов
func (h *handler) getHeatmapData(c *gin.Context) {
	region := strings.TrimSpace(c.Query("region"))
	if region == "" {
		h.respondError(c, apperrors.ErrInvalidRequest.WithDetails(map[string]any{"region": "required"}))
		return
	}

	points, err := h.Store.Heatmap(c.Request.Context(), region)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, points)
}

// Геометрия всех регионов в GeoJSON
func (h *handler) getRegionsGeo(c *gin.Context) {
	if h.Geo == nil {
		h.respondError(c, apperrors.ErrRegionsUnavailable)
		return
	}

	data, err := h.Geo.RegionsJSON(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// respondError отдает AppError клиенту; неизвестные ошибки превращаются в 500
func (h *handler) respondError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	if appErr.StatusCode >= http.StatusInternalServerError {
		h.Logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		h.Logger.Debug("Request rejected", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.AbortWithStatusJSON(appErr.StatusCode, appErr.Body())
}
