package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/or-admin/internal/application"
)

type surgeryService interface {
	ScheduleSurgery(ctx context.Context, input application.SurgeryInput) (application.Surgery, error)
	UpdateSurgery(ctx context.Context, id string, patch application.SurgeryPatch) (application.Surgery, error)
	CancelSurgery(ctx context.Context, id, reason string) (application.Surgery, error)
	StartSurgery(ctx context.Context, id string) (application.Surgery, error)
	CompleteSurgery(ctx context.Context, id string) (application.Surgery, error)
	GetSurgery(ctx context.Context, id string) (application.Surgery, error)
	ListSurgeries(ctx context.Context, filter application.SurgeryFilter) ([]application.Surgery, error)
}

type SurgeryHandler struct {
	service   surgeryService
	responder responder
	logger    *slog.Logger
}

func NewSurgeryHandler(service surgeryService, logger *slog.Logger) *SurgeryHandler {
	base := defaultLogger(logger)
	return &SurgeryHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SurgeryHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SurgeryHandler", operation, attrs...)
}

func (h *SurgeryHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	filter := application.SurgeryFilter{
		Date:   strings.TrimSpace(query.Get("date")),
		Room:   strings.TrimSpace(query.Get("room")),
		Status: application.SurgeryStatus(strings.TrimSpace(query.Get("status"))),
	}

	surgeries, err := h.service.ListSurgeries(r.Context(), filter)
	if err != nil {
		h.log(r.Context(), "List", "error_kind", application.ErrorKind(err)).ErrorContext(r.Context(), "surgery listing failed", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	items := make([]surgeryDTO, 0, len(surgeries))
	for _, surgery := range surgeries {
		items = append(items, toSurgeryDTO(surgery))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, surgeryListResponse{Surgeries: items})
}

func (h *SurgeryHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req surgeryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode surgery request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "operating_room", req.OperatingRoom, "scheduled_date", req.ScheduledDate)

	surgery, err := h.service.ScheduleSurgery(r.Context(), req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "surgery scheduling failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("surgery_id", surgery.ID).InfoContext(r.Context(), "surgery scheduled")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, surgeryResponse{Surgery: toSurgeryDTO(surgery)})
}

func (h *SurgeryHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := routeID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSurgeryID)
		return
	}

	surgery, err := h.service.GetSurgery(r.Context(), id)
	if err != nil {
		h.log(r.Context(), "Get", "surgery_id", id, "error_kind", application.ErrorKind(err)).ErrorContext(r.Context(), "surgery lookup failed", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, surgeryResponse{Surgery: toSurgeryDTO(surgery)})
}

func (h *SurgeryHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := routeID(r)
	if !ok {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing surgery id for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSurgeryID)
		return
	}

	var req surgeryPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "surgery_id", id, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode surgery update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "surgery_id", id)

	surgery, err := h.service.UpdateSurgery(r.Context(), id, req.toPatch())
	if err != nil {
		logger.ErrorContext(r.Context(), "surgery update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "surgery updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, surgeryResponse{Surgery: toSurgeryDTO(surgery)})
}

func (h *SurgeryHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Start", func(ctx context.Context, id string) (application.Surgery, error) {
		return h.service.StartSurgery(ctx, id)
	})
}

func (h *SurgeryHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Complete", func(ctx context.Context, id string) (application.Surgery, error) {
		return h.service.CompleteSurgery(ctx, id)
	})
}

func (h *SurgeryHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			h.log(r.Context(), "Cancel", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode cancel request", "error", err)
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
			return
		}
	}
	h.transition(w, r, "Cancel", func(ctx context.Context, id string) (application.Surgery, error) {
		return h.service.CancelSurgery(ctx, id, req.Reason)
	})
}

func (h *SurgeryHandler) transition(w http.ResponseWriter, r *http.Request, operation string, apply func(context.Context, string) (application.Surgery, error)) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := routeID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSurgeryID)
		return
	}

	logger := h.log(r.Context(), operation, "surgery_id", id)
	surgery, err := apply(r.Context(), id)
	if err != nil {
		logger.ErrorContext(r.Context(), "surgery transition failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "surgery transitioned", "status", surgery.Status)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, surgeryResponse{Surgery: toSurgeryDTO(surgery)})
}

type surgeryRequest struct {
	PatientID             string   `json:"patient_id"`
	SurgeryTypeID         string   `json:"surgery_type_id"`
	ScheduledDate         string   `json:"scheduled_date"`
	StartTime             string   `json:"start_time"`
	EndTime               string   `json:"end_time"`
	OperatingRoom         string   `json:"operating_room"`
	Surgeons              []string `json:"surgeons"`
	Nurses                []string `json:"nurses"`
	Anesthesiologist      string   `json:"anesthesiologist"`
	Notes                 string   `json:"notes"`
	MaterialRequests      []string `json:"material_requests"`
	SterilizationRequests []string `json:"sterilization_requests"`
}

func (r surgeryRequest) toInput() application.SurgeryInput {
	return application.SurgeryInput{
		PatientID:             r.PatientID,
		SurgeryTypeID:         r.SurgeryTypeID,
		ScheduledDate:         r.ScheduledDate,
		StartTime:             r.StartTime,
		EndTime:               r.EndTime,
		OperatingRoom:         r.OperatingRoom,
		Surgeons:              r.Surgeons,
		Nurses:                r.Nurses,
		Anesthesiologist:      r.Anesthesiologist,
		Notes:                 r.Notes,
		MaterialRequests:      r.MaterialRequests,
		SterilizationRequests: r.SterilizationRequests,
	}
}

// surgeryPatchRequest leaves absent fields nil so they stay unchanged.
type surgeryPatchRequest struct {
	PatientID             *string   `json:"patient_id"`
	SurgeryTypeID         *string   `json:"surgery_type_id"`
	ScheduledDate         *string   `json:"scheduled_date"`
	StartTime             *string   `json:"start_time"`
	EndTime               *string   `json:"end_time"`
	OperatingRoom         *string   `json:"operating_room"`
	Surgeons              *[]string `json:"surgeons"`
	Nurses                *[]string `json:"nurses"`
	Anesthesiologist      *string   `json:"anesthesiologist"`
	Notes                 *string   `json:"notes"`
	MaterialRequests      *[]string `json:"material_requests"`
	SterilizationRequests *[]string `json:"sterilization_requests"`
}

func (r surgeryPatchRequest) toPatch() application.SurgeryPatch {
	return application.SurgeryPatch{
		PatientID:             r.PatientID,
		SurgeryTypeID:         r.SurgeryTypeID,
		ScheduledDate:         r.ScheduledDate,
		StartTime:             r.StartTime,
		EndTime:               r.EndTime,
		OperatingRoom:         r.OperatingRoom,
		Surgeons:              r.Surgeons,
		Nurses:                r.Nurses,
		Anesthesiologist:      r.Anesthesiologist,
		Notes:                 r.Notes,
		MaterialRequests:      r.MaterialRequests,
		SterilizationRequests: r.SterilizationRequests,
	}
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type surgeryDTO struct {
	ID                    string    `json:"id"`
	PatientID             string    `json:"patient_id"`
	SurgeryTypeID         string    `json:"surgery_type_id"`
	ScheduledDate         string    `json:"scheduled_date"`
	StartTime             string    `json:"start_time"`
	EndTime               string    `json:"end_time"`
	OperatingRoom         string    `json:"operating_room"`
	Status                string    `json:"status"`
	Surgeons              []string  `json:"surgeons"`
	Nurses                []string  `json:"nurses"`
	Anesthesiologist      string    `json:"anesthesiologist"`
	Notes                 string    `json:"notes,omitempty"`
	CancellationReason    string    `json:"cancellation_reason,omitempty"`
	MaterialRequests      []string  `json:"material_requests,omitempty"`
	SterilizationRequests []string  `json:"sterilization_requests,omitempty"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func toSurgeryDTO(s application.Surgery) surgeryDTO {
	return surgeryDTO{
		ID:                    s.ID,
		PatientID:             s.PatientID,
		SurgeryTypeID:         s.SurgeryTypeID,
		ScheduledDate:         s.ScheduledDate,
		StartTime:             s.StartTime,
		EndTime:               s.EndTime,
		OperatingRoom:         s.OperatingRoom,
		Status:                string(s.Status),
		Surgeons:              emptyIfNil(s.Surgeons),
		Nurses:                emptyIfNil(s.Nurses),
		Anesthesiologist:      s.Anesthesiologist,
		Notes:                 s.Notes,
		CancellationReason:    s.CancellationReason,
		MaterialRequests:      s.MaterialRequests,
		SterilizationRequests: s.SterilizationRequests,
		UpdatedAt:             s.UpdatedAt.UTC(),
	}
}

type surgeryResponse struct {
	Surgery surgeryDTO `json:"surgery"`
}

type surgeryListResponse struct {
	Surgeries []surgeryDTO `json:"surgeries"`
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
