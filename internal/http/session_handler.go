package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/or-admin/internal/application"
)

const warningPingInterval = 15 * time.Second

type sessionService interface {
	InitializeSession(ctx context.Context, user application.SessionUser) (application.Session, error)
	Continue(ctx context.Context) error
	TerminateSession(ctx context.Context, id string) error
	ClearSession(ctx context.Context) error
	CurrentSession() (application.Session, bool)
	Sessions() []application.Session
	Warning() application.SessionWarning
	SetSessionTimeout(ctx context.Context, timeout time.Duration) error
	SessionTimeout() time.Duration
	WarningThreshold() time.Duration
}

type warningSource interface {
	SubscribeWarnings(buffer int) (<-chan application.SessionWarning, func())
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type SessionHandler struct {
	service   sessionService
	warnings  warningSource
	responder responder
	logger    *slog.Logger
}

func NewSessionHandler(service sessionService, warnings warningSource, logger *slog.Logger) *SessionHandler {
	base := defaultLogger(logger)
	return &SessionHandler{service: service, warnings: warnings, responder: newResponder(base), logger: base}
}

func (h *SessionHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SessionHandler", operation, attrs...)
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode session request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if req.IPAddress == "" {
		req.IPAddress = clientIP(r)
	}
	if req.DeviceInfo == "" {
		req.DeviceInfo = r.UserAgent()
	}

	logger := h.log(r.Context(), "Create", "user_id", req.UserID)
	session, err := h.service.InitializeSession(r.Context(), req.toUser())
	if err != nil {
		logger.ErrorContext(r.Context(), "session start failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("session_id", session.ID).InfoContext(r.Context(), "session started")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, sessionResponse{Session: toSessionDTO(session)})
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roster := h.service.Sessions()
	items := make([]sessionDTO, 0, len(roster))
	for _, session := range roster {
		items = append(items, toSessionDTO(session))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, sessionListResponse{Sessions: items})
}

func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	session, ok := h.service.CurrentSession()
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, errNoCurrentSession)
		return
	}

	warning := toWarningDTO(h.service.Warning())
	h.responder.writeJSON(r.Context(), w, http.StatusOK, currentSessionResponse{
		Session: toSessionDTO(session),
		Warning: &warning,
	})
}

func (h *SessionHandler) Touch(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if _, ok := h.service.CurrentSession(); !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, errNoCurrentSession)
		return
	}

	logger := h.log(r.Context(), "Touch")
	if err := h.service.Continue(r.Context()); err != nil {
		logger.ErrorContext(r.Context(), "activity refresh failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	session, _ := h.service.CurrentSession()
	warning := toWarningDTO(h.service.Warning())
	h.responder.writeJSON(r.Context(), w, http.StatusOK, currentSessionResponse{
		Session: toSessionDTO(session),
		Warning: &warning,
	})
}

func (h *SessionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if err := h.service.ClearSession(r.Context()); err != nil {
		h.log(r.Context(), "Clear", "error_kind", application.ErrorKind(err)).ErrorContext(r.Context(), "session clear failed", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *SessionHandler) Terminate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := routeID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSessionID)
		return
	}

	logger := h.log(r.Context(), "Terminate", "session_id", id)
	if err := h.service.TerminateSession(r.Context(), id); err != nil {
		logger.ErrorContext(r.Context(), "session termination failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	logger.InfoContext(r.Context(), "session terminate requested")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *SessionHandler) GetTimeout(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, timeoutResponse{
		TimeoutMinutes:   int(h.service.SessionTimeout() / time.Minute),
		WarningThreshold: int(h.service.WarningThreshold() / time.Second),
	})
}

func (h *SessionHandler) UpdateTimeout(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req timeoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "UpdateTimeout", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode timeout request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "UpdateTimeout", "timeout_minutes", req.TimeoutMinutes)
	if err := h.service.SetSessionTimeout(r.Context(), time.Duration(req.TimeoutMinutes)*time.Minute); err != nil {
		logger.ErrorContext(r.Context(), "timeout update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "session timeout updated")
	h.GetTimeout(w, r)
}

// Warnings upgrades to a websocket and streams expiry warnings until the
// client disconnects.
func (h *SessionHandler) Warnings(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil || h.warnings == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "Warnings")
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.ErrorContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events, unsubscribe := h.warnings.SubscribeWarnings(4)
	defer unsubscribe()

	if err := conn.WriteJSON(toWarningDTO(h.service.Warning())); err != nil {
		return
	}

	ticker := time.NewTicker(warningPingInterval)
	defer ticker.Stop()

	done := make(chan struct{})
	go drainClient(conn, done)

	for {
		select {
		case warning, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(toWarningDTO(warning)); err != nil {
				logger.InfoContext(r.Context(), "warning stream closed", "error", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}

// drainClient discards inbound frames so control messages are processed,
// closing done once the peer goes away.
func drainClient(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

type sessionRequest struct {
	UserID     string `json:"user_id"`
	UserName   string `json:"user_name"`
	Role       string `json:"role"`
	IPAddress  string `json:"ip_address"`
	DeviceInfo string `json:"device_info"`
}

func (r sessionRequest) toUser() application.SessionUser {
	return application.SessionUser{
		ID:         r.UserID,
		Name:       r.UserName,
		Role:       r.Role,
		IPAddress:  r.IPAddress,
		DeviceInfo: r.DeviceInfo,
	}
}

type sessionDTO struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	UserName     string    `json:"user_name"`
	UserRole     string    `json:"user_role"`
	StartTime    time.Time `json:"start_time"`
	LastActivity time.Time `json:"last_activity"`
	IPAddress    string    `json:"ip_address"`
	DeviceInfo   string    `json:"device_info"`
	Status       string    `json:"status"`
}

func toSessionDTO(s application.Session) sessionDTO {
	return sessionDTO{
		ID:           s.ID,
		UserID:       s.UserID,
		UserName:     s.UserName,
		UserRole:     s.UserRole,
		StartTime:    s.StartTime.UTC(),
		LastActivity: s.LastActivity.UTC(),
		IPAddress:    s.IPAddress,
		DeviceInfo:   s.DeviceInfo,
		Status:       string(s.Status),
	}
}

type warningDTO struct {
	SessionID        string `json:"session_id,omitempty"`
	Visible          bool   `json:"visible"`
	SecondsRemaining int    `json:"seconds_remaining"`
}

func toWarningDTO(w application.SessionWarning) warningDTO {
	return warningDTO{SessionID: w.SessionID, Visible: w.Visible, SecondsRemaining: w.SecondsRemaining()}
}

type sessionResponse struct {
	Session sessionDTO `json:"session"`
}

type currentSessionResponse struct {
	Session sessionDTO  `json:"session"`
	Warning *warningDTO `json:"warning,omitempty"`
}

type sessionListResponse struct {
	Sessions []sessionDTO `json:"sessions"`
}

type timeoutRequest struct {
	TimeoutMinutes int `json:"timeout_minutes"`
}

type timeoutResponse struct {
	TimeoutMinutes   int `json:"timeout_minutes"`
	WarningThreshold int `json:"warning_threshold_seconds"`
}
