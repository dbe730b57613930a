package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/or-admin/internal/application"
)

type patientService interface {
	AddPatient(ctx context.Context, input application.PatientInput) (application.Patient, error)
	UpdatePatient(ctx context.Context, id string, input application.PatientInput) (application.Patient, error)
	DeletePatient(ctx context.Context, id string) error
	GetPatient(ctx context.Context, id string) (application.Patient, error)
	ListPatients(ctx context.Context) ([]application.Patient, error)
}

type PatientHandler struct {
	service   patientService
	responder responder
	logger    *slog.Logger
}

func NewPatientHandler(service patientService, logger *slog.Logger) *PatientHandler {
	base := defaultLogger(logger)
	return &PatientHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *PatientHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "PatientHandler", operation, attrs...)
}

func (h *PatientHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	patients, err := h.service.ListPatients(r.Context())
	if err != nil {
		h.log(r.Context(), "List", "error_kind", application.ErrorKind(err)).ErrorContext(r.Context(), "patient listing failed", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	items := make([]patientDTO, 0, len(patients))
	for _, p := range patients {
		items = append(items, toPatientDTO(p))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, patientListResponse{Patients: items})
}

func (h *PatientHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := routeID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPatientID)
		return
	}

	patient, err := h.service.GetPatient(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, patientResponse{Patient: toPatientDTO(patient)})
}

func (h *PatientHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req patientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode patient request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "mrn", req.MRN)
	patient, err := h.service.AddPatient(r.Context(), req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "patient registration failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("patient_id", patient.ID).InfoContext(r.Context(), "patient registered")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, patientResponse{Patient: toPatientDTO(patient)})
}

func (h *PatientHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := routeID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPatientID)
		return
	}

	var req patientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "patient_id", id, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode patient update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "patient_id", id)
	patient, err := h.service.UpdatePatient(r.Context(), id, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "patient update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "patient updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, patientResponse{Patient: toPatientDTO(patient)})
}

func (h *PatientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := routeID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPatientID)
		return
	}

	logger := h.log(r.Context(), "Delete", "patient_id", id)
	if err := h.service.DeletePatient(r.Context(), id); err != nil {
		logger.ErrorContext(r.Context(), "patient deletion failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "patient deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type patientRequest struct {
	MRN           string `json:"mrn"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	DateOfBirth   string `json:"date_of_birth"`
	Gender        string `json:"gender"`
	ContactNumber string `json:"contact_number"`
	Status        string `json:"status"`
}

func (r patientRequest) toInput() application.PatientInput {
	return application.PatientInput{
		MRN:           r.MRN,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		DateOfBirth:   r.DateOfBirth,
		Gender:        r.Gender,
		ContactNumber: r.ContactNumber,
		Status:        application.PatientStatus(r.Status),
	}
}

type patientDTO struct {
	ID string `json:"id"`
	patientRequest
}

func toPatientDTO(p application.Patient) patientDTO {
	return patientDTO{
		ID: p.ID,
		patientRequest: patientRequest{
			MRN:           p.MRN,
			FirstName:     p.FirstName,
			LastName:      p.LastName,
			DateOfBirth:   p.DateOfBirth,
			Gender:        p.Gender,
			ContactNumber: p.ContactNumber,
			Status:        string(p.Status),
		},
	}
}

type patientResponse struct {
	Patient patientDTO `json:"patient"`
}

type patientListResponse struct {
	Patients []patientDTO `json:"patients"`
}
