package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/or-admin/internal/application"
)

type surgeryTypeService interface {
	AddSurgeryType(ctx context.Context, input application.SurgeryTypeInput) (application.SurgeryType, error)
	UpdateSurgeryType(ctx context.Context, id string, input application.SurgeryTypeInput) (application.SurgeryType, error)
	DeleteSurgeryType(ctx context.Context, id string) error
	ListSurgeryTypes(ctx context.Context) ([]application.SurgeryType, error)
}

type SurgeryTypeHandler struct {
	service   surgeryTypeService
	responder responder
	logger    *slog.Logger
}

func NewSurgeryTypeHandler(service surgeryTypeService, logger *slog.Logger) *SurgeryTypeHandler {
	base := defaultLogger(logger)
	return &SurgeryTypeHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SurgeryTypeHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SurgeryTypeHandler", operation, attrs...)
}

func (h *SurgeryTypeHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	types, err := h.service.ListSurgeryTypes(r.Context())
	if err != nil {
		h.log(r.Context(), "List", "error_kind", application.ErrorKind(err)).ErrorContext(r.Context(), "surgery type listing failed", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	items := make([]surgeryTypeDTO, 0, len(types))
	for _, st := range types {
		items = append(items, toSurgeryTypeDTO(st))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, surgeryTypeListResponse{SurgeryTypes: items})
}

func (h *SurgeryTypeHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req surgeryTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode surgery type request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "name", req.Name)
	st, err := h.service.AddSurgeryType(r.Context(), req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "surgery type creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("surgery_type_id", st.ID).InfoContext(r.Context(), "surgery type created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, surgeryTypeResponse{SurgeryType: toSurgeryTypeDTO(st)})
}

func (h *SurgeryTypeHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := routeID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTypeID)
		return
	}

	var req surgeryTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "surgery_type_id", id, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode surgery type update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "surgery_type_id", id)
	st, err := h.service.UpdateSurgeryType(r.Context(), id, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "surgery type update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "surgery type updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, surgeryTypeResponse{SurgeryType: toSurgeryTypeDTO(st)})
}

func (h *SurgeryTypeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := routeID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTypeID)
		return
	}

	logger := h.log(r.Context(), "Delete", "surgery_type_id", id)
	if err := h.service.DeleteSurgeryType(r.Context(), id); err != nil {
		logger.ErrorContext(r.Context(), "surgery type deletion failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "surgery type deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type staffDTO struct {
	Surgeons          int `json:"surgeons"`
	Nurses            int `json:"nurses"`
	Anesthesiologists int `json:"anesthesiologists"`
}

type surgeryTypeRequest struct {
	Name                      string   `json:"name"`
	Description               string   `json:"description"`
	EstimatedDuration         int      `json:"estimated_duration"`
	RequiredEquipment         []string `json:"required_equipment"`
	RequiredStaff             staffDTO `json:"required_staff"`
	PreOpRequirements         []string `json:"pre_op_requirements"`
	PostOpRequirements        []string `json:"post_op_requirements"`
	SterilizationRequirements []string `json:"sterilization_requirements"`
}

func (r surgeryTypeRequest) toInput() application.SurgeryTypeInput {
	return application.SurgeryTypeInput{
		Name:              r.Name,
		Description:       r.Description,
		EstimatedDuration: r.EstimatedDuration,
		RequiredEquipment: r.RequiredEquipment,
		RequiredStaff: application.StaffRequirements{
			Surgeons:          r.RequiredStaff.Surgeons,
			Nurses:            r.RequiredStaff.Nurses,
			Anesthesiologists: r.RequiredStaff.Anesthesiologists,
		},
		PreOpRequirements:         r.PreOpRequirements,
		PostOpRequirements:        r.PostOpRequirements,
		SterilizationRequirements: r.SterilizationRequirements,
	}
}

type surgeryTypeDTO struct {
	ID string `json:"id"`
	surgeryTypeRequest
}

func toSurgeryTypeDTO(st application.SurgeryType) surgeryTypeDTO {
	return surgeryTypeDTO{
		ID: st.ID,
		surgeryTypeRequest: surgeryTypeRequest{
			Name:              st.Name,
			Description:       st.Description,
			EstimatedDuration: st.EstimatedDuration,
			RequiredEquipment: emptyIfNil(st.RequiredEquipment),
			RequiredStaff: staffDTO{
				Surgeons:          st.RequiredStaff.Surgeons,
				Nurses:            st.RequiredStaff.Nurses,
				Anesthesiologists: st.RequiredStaff.Anesthesiologists,
			},
			PreOpRequirements:         emptyIfNil(st.PreOpRequirements),
			PostOpRequirements:        emptyIfNil(st.PostOpRequirements),
			SterilizationRequirements: emptyIfNil(st.SterilizationRequirements),
		},
	}
}

type surgeryTypeResponse struct {
	SurgeryType surgeryTypeDTO `json:"surgery_type"`
}

type surgeryTypeListResponse struct {
	SurgeryTypes []surgeryTypeDTO `json:"surgery_types"`
}
