package handlers

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/oneboxhq/onebox-backend/internal/api/response"
	apperrors "github.com/oneboxhq/onebox-backend/internal/errors"
	"github.com/oneboxhq/onebox-backend/internal/store"
)

// EmailHandler handles email search and lookup HTTP requests
type EmailHandler struct {
	store  store.EmailStore
	logger *slog.Logger
}

// NewEmailHandler creates a new EmailHandler
func NewEmailHandler(emailStore store.EmailStore, logger *slog.Logger) *EmailHandler {
	return &EmailHandler{store: emailStore, logger: logger}
}

// List handles GET /api/emails
//
// Query parameters: q (free text, "*" matches everything), account,
// folder, label, limit. All filters are optional and combine with AND.
func (h *EmailHandler) List(c echo.Context) error {
	query := store.SearchQuery{
		Text:    c.QueryParam("q"),
		Account: c.QueryParam("account"),
		Folder:  c.QueryParam("folder"),
		Label:   c.QueryParam("label"),
	}

	if l := c.QueryParam("limit"); l != "" {
		limit, err := strconv.Atoi(l)
		if err != nil || limit <= 0 {
			return response.BadRequest(c, "limit must be a positive integer")
		}
		query.Limit = limit
	}

	emails, err := h.store.Search(c.Request().Context(), query)
	if err != nil {
		h.logger.Error("email search failed", slog.Any("error", err))
		return response.InternalError(c, "failed to search emails")
	}

	limit := query.Limit
	if limit == 0 {
		limit = store.DefaultSearchLimit
	}
	return response.List(c, emails, len(emails), limit)
}

// Get handles GET /api/emails/:id
func (h *EmailHandler) Get(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return response.BadRequest(c, "email ID is required")
	}

	email, err := h.store.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return response.Error(c, apperrors.NewAppError(apperrors.ErrEmailNotFound, "email not found", apperrors.CodeNotFound))
		}
		h.logger.Error("email lookup failed", slog.String("id", id), slog.Any("error", err))
		return response.InternalError(c, "failed to get email")
	}

	return response.Success(c, email)
}
