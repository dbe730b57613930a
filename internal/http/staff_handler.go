package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/or-admin/internal/application"
)

type staffService interface {
	AddStaffMember(ctx context.Context, input application.StaffInput) (application.StaffMember, error)
	UpdateStaffMember(ctx context.Context, id string, input application.StaffInput) (application.StaffMember, error)
	DeleteStaffMember(ctx context.Context, id string) error
	ListStaff(ctx context.Context, role application.StaffRole) ([]application.StaffMember, error)
}

type StaffHandler struct {
	service   staffService
	responder responder
	logger    *slog.Logger
}

func NewStaffHandler(service staffService, logger *slog.Logger) *StaffHandler {
	base := defaultLogger(logger)
	return &StaffHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *StaffHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "StaffHandler", operation, attrs...)
}

func (h *StaffHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	role := application.StaffRole(r.URL.Query().Get("role"))
	staff, err := h.service.ListStaff(r.Context(), role)
	if err != nil {
		h.log(r.Context(), "List", "role", role, "error_kind", application.ErrorKind(err)).ErrorContext(r.Context(), "staff listing failed", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	items := make([]staffMemberDTO, 0, len(staff))
	for _, m := range staff {
		items = append(items, toStaffMemberDTO(m))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, staffListResponse{Staff: items})
}

func (h *StaffHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req staffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode staff request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "role", req.Role)
	member, err := h.service.AddStaffMember(r.Context(), req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "staff registration failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("staff_id", member.ID).InfoContext(r.Context(), "staff member registered")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, staffMemberResponse{Staff: toStaffMemberDTO(member)})
}

func (h *StaffHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := routeID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidStaffID)
		return
	}

	var req staffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "staff_id", id, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode staff update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "staff_id", id)
	member, err := h.service.UpdateStaffMember(r.Context(), id, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "staff update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "staff member updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, staffMemberResponse{Staff: toStaffMemberDTO(member)})
}

func (h *StaffHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := routeID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidStaffID)
		return
	}

	logger := h.log(r.Context(), "Delete", "staff_id", id)
	if err := h.service.DeleteStaffMember(r.Context(), id); err != nil {
		logger.ErrorContext(r.Context(), "staff deletion failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "staff member deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type staffRequest struct {
	Name           string `json:"name"`
	Role           string `json:"role"`
	Specialization string `json:"specialization"`
	Department     string `json:"department"`
	Status         string `json:"status"`
}

func (r staffRequest) toInput() application.StaffInput {
	return application.StaffInput{
		Name:           r.Name,
		Role:           application.StaffRole(r.Role),
		Specialization: r.Specialization,
		Department:     r.Department,
		Status:         application.StaffStatus(r.Status),
	}
}

type staffMemberDTO struct {
	ID string `json:"id"`
	staffRequest
}

func toStaffMemberDTO(m application.StaffMember) staffMemberDTO {
	return staffMemberDTO{
		ID: m.ID,
		staffRequest: staffRequest{
			Name:           m.Name,
			Role:           string(m.Role),
			Specialization: m.Specialization,
			Department:     m.Department,
			Status:         string(m.Status),
		},
	}
}

type staffMemberResponse struct {
	Staff staffMemberDTO `json:"staff"`
}

type staffListResponse struct {
	Staff []staffMemberDTO `json:"staff"`
}
