package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"droneanalytics/packages/apperrors"
	"droneanalytics/packages/flights"
	"droneanalytics/packages/parsing/datetime"
	"droneanalytics/packages/stats"
)

type flightsQuery struct {
	From            string `form:"from"`
	To              string `form:"to"`
	Region          string `form:"region"`
	FlagFullDataset bool   `form:"flag_full_dataset"`
	Count           int    `form:"count" binding:"omitempty,min=1,max=100"`
}

// parseFilter читает фильтр отчета из query-параметров
func parseFilter(c *gin.Context) (flights.Filter, int, error) {
	var q flightsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return flights.Filter{}, 0, apperrors.ErrInvalidRequest.WithCause(err)
	}

	filter := flights.Filter{
		Region:     strings.TrimSpace(q.Region),
		IncludeAll: q.FlagFullDataset,
	}

	for _, bound := range []struct {
		name  string
		value string
		dst   **datetime.Date
	}{
		{"from", q.From, &filter.From},
		{"to", q.To, &filter.To},
	} {
		if bound.value == "" {
			continue
		}
		d, err := datetime.ParseISODate(bound.value)
		if err != nil {
			return flights.Filter{}, 0, apperrors.ErrInvalidRequest.
				WithCause(err).
				WithDetails(map[string]any{bound.name: "expected YYYY-MM-DD"})
		}
		*bound.dst = &d
	}

	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return flights.Filter{}, 0, apperrors.ErrInvalidRequest.WithDetails(map[string]any{"from": "must not be after to"})
	}

	return filter, q.Count, nil
}

// Статистика по полетам за период
func (h *handler) getReport(c *gin.Context) {
	filter, topN, err := parseFilter(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if topN == 0 {
		topN = h.Config.Stats.TopN
	}

	records, err := h.Store.Find(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	report := stats.Aggregate(records, filter, stats.Options{
		TopN:        topN,
		MaxDuration: h.Config.Parsing.MaxDuration,
	})
	c.JSON(http.StatusOK, report)
}

// Записи о полетах для таблицы; пустые значения заменены на "Не заполнено"
func (h *handler) getFlightList(c *gin.Context) {
	filter, _, err := parseFilter(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	records, err := h.Store.Find(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, flights.NewViews(filter.Apply(records), h.Config.Parsing.MaxDuration))
}
