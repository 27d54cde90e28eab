package handlers

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/oneboxhq/onebox-backend/internal/api/response"
	"github.com/oneboxhq/onebox-backend/internal/imap"
	"github.com/oneboxhq/onebox-backend/internal/store"
)

// SessionStatusProvider reports the state of the running mailbox
// sessions. Satisfied by the IMAP orchestrator.
type SessionStatusProvider interface {
	Statuses() []imap.SessionStatus
}

// AccountHandler handles account and folder HTTP requests
type AccountHandler struct {
	sessions SessionStatusProvider
	store    store.EmailStore
	logger   *slog.Logger
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(sessions SessionStatusProvider, emailStore store.EmailStore, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{sessions: sessions, store: emailStore, logger: logger}
}

// List handles GET /api/accounts. It reports each configured account
// with its session state, never its credentials.
func (h *AccountHandler) List(c echo.Context) error {
	return response.Success(c, h.sessions.Statuses())
}

// Folders handles GET /api/folders. Folder names come from the index,
// bucketed with document counts.
func (h *AccountHandler) Folders(c echo.Context) error {
	folders, err := h.store.Folders(c.Request().Context())
	if err != nil {
		h.logger.Error("folder aggregation failed", slog.Any("error", err))
		return response.InternalError(c, "failed to list folders")
	}

	return response.Success(c, folders)
}
