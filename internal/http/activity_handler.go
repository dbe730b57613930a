package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/or-admin/internal/application"
)

type activityLog interface {
	List(ctx context.Context, severity application.ActivitySeverity) []application.ActivityEntry
	Clear(ctx context.Context)
}

type ActivityHandler struct {
	log       activityLog
	responder responder
	logger    *slog.Logger
}

func NewActivityHandler(log activityLog, logger *slog.Logger) *ActivityHandler {
	base := defaultLogger(logger)
	return &ActivityHandler{log: log, responder: newResponder(base), logger: base}
}

func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.log == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	severity := application.ActivitySeverity(strings.TrimSpace(r.URL.Query().Get("severity")))
	switch severity {
	case "", application.ActivitySeverityInfo, application.ActivitySeverityWarning, application.ActivitySeverityError:
	default:
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSeverity)
		return
	}

	entries := h.log.List(r.Context(), severity)
	items := make([]activityDTO, 0, len(entries))
	for _, entry := range entries {
		items = append(items, toActivityDTO(entry))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, activityListResponse{Activities: items})
}

func (h *ActivityHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.log == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.log.Clear(r.Context())
	handlerLogger(r.Context(), h.logger, "ActivityHandler", "Clear").InfoContext(r.Context(), "activity log cleared")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type activityDTO struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	User      string    `json:"user"`
	Target    string    `json:"target,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Details   string    `json:"details,omitempty"`
	Severity  string    `json:"severity"`
}

func toActivityDTO(e application.ActivityEntry) activityDTO {
	return activityDTO{
		ID:        e.ID,
		Action:    e.Action,
		User:      e.User,
		Target:    e.Target,
		Timestamp: e.Timestamp.UTC(),
		Details:   e.Details,
		Severity:  string(e.Severity),
	}
}

type activityListResponse struct {
	Activities []activityDTO `json:"activities"`
}
