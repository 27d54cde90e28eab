package handlers

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/oneboxhq/onebox-backend/internal/api/response"
	"github.com/oneboxhq/onebox-backend/internal/store"
)

// StatsHandler handles aggregation HTTP requests
type StatsHandler struct {
	store  store.EmailStore
	logger *slog.Logger
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(emailStore store.EmailStore, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{store: emailStore, logger: logger}
}

// Stats handles GET /api/stats. It returns document counts bucketed by
// label, account and folder across the whole index.
func (h *StatsHandler) Stats(c echo.Context) error {
	stats, err := h.store.Stats(c.Request().Context())
	if err != nil {
		h.logger.Error("stats aggregation failed", slog.Any("error", err))
		return response.InternalError(c, "failed to aggregate stats")
	}

	return response.Success(c, stats)
}

// FilteredStats handles GET /api/stats/filtered. The same q, account,
// folder and label filters as the email search scope the label buckets.
func (h *StatsHandler) FilteredStats(c echo.Context) error {
	query := store.SearchQuery{
		Text:    c.QueryParam("q"),
		Account: c.QueryParam("account"),
		Folder:  c.QueryParam("folder"),
		Label:   c.QueryParam("label"),
	}

	stats, err := h.store.FilteredStats(c.Request().Context(), query)
	if err != nil {
		h.logger.Error("filtered stats aggregation failed", slog.Any("error", err))
		return response.InternalError(c, "failed to aggregate stats")
	}

	return response.Success(c, stats)
}
