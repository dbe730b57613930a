package http

import (
	"net/http"
	"testing"
)

func TestPatientHandlers(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t, nil)

	rec := h.do(t, http.MethodPost, "/patients", map[string]any{
		"mrn":           "MRN001",
		"first_name":    "Hanako",
		"last_name":     "Yamada",
		"date_of_birth": "1980-01-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeJSON[patientResponse](t, rec)
	if created.Patient.Status != "active" || created.Patient.MRN != "MRN001" {
		t.Fatalf("unexpected patient: %+v", created.Patient)
	}
	id := created.Patient.ID

	rec = h.do(t, http.MethodPost, "/patients", map[string]any{"mrn": "MRN001", "first_name": "Taro", "last_name": "Abe"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for duplicate MRN, got %d", rec.Code)
	}
	if body := decodeJSON[errorResponse](t, rec); body.Errors["mrn"] != "このカルテ番号は既に登録されています。" {
		t.Fatalf("expected localized MRN error, got %+v", body.Errors)
	}

	// With a registered patient, surgeries must reference it.
	rec = h.do(t, http.MethodPost, "/surgeries", surgeryBody("OR-1", "09:00", "10:00"))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown patient, got %d: %s", rec.Code, rec.Body.String())
	}
	body := surgeryBody("OR-1", "09:00", "10:00")
	body["patient_id"] = id
	if rec := h.do(t, http.MethodPost, "/surgeries", body); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = h.do(t, http.MethodPut, "/patients/"+id, map[string]any{"mrn": "MRN001", "first_name": "Hanako", "last_name": "Suzuki", "status": "scheduled"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	got := decodeJSON[patientResponse](t, h.do(t, http.MethodGet, "/patients/"+id, nil))
	if got.Patient.LastName != "Suzuki" || got.Patient.Status != "scheduled" {
		t.Fatalf("unexpected patient after update: %+v", got.Patient)
	}

	list := decodeJSON[patientListResponse](t, h.do(t, http.MethodGet, "/patients", nil))
	if len(list.Patients) != 1 {
		t.Fatalf("expected one patient, got %+v", list.Patients)
	}

	if rec := h.do(t, http.MethodDelete, "/patients/"+id, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec := h.do(t, http.MethodGet, "/patients/"+id, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestStaffHandlers(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t, nil)

	for _, member := range []map[string]any{
		{"name": "Dr. Sato", "role": "surgeon"},
		{"name": "Nurse Ito", "role": "nurse"},
		{"name": "Dr. Kato", "role": "anesthesiologist"},
	} {
		if rec := h.do(t, http.MethodPost, "/staff", member); rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	}
	if rec := h.do(t, http.MethodPost, "/staff", map[string]any{"name": "Dr. Who", "role": "time-lord"}); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown role, got %d", rec.Code)
	}

	nurses := decodeJSON[staffListResponse](t, h.do(t, http.MethodGet, "/staff?role=nurse", nil))
	if len(nurses.Staff) != 1 || nurses.Staff[0].Name != "Nurse Ito" {
		t.Fatalf("unexpected nurse listing: %+v", nurses.Staff)
	}
	if rec := h.do(t, http.MethodGet, "/staff?role=janitor", nil); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for invalid role filter, got %d", rec.Code)
	}

	if rec := h.do(t, http.MethodPost, "/surgeries", surgeryBody("OR-1", "09:00", "10:00")); rec.Code != http.StatusCreated {
		t.Fatalf("registered staff must be accepted, got %d: %s", rec.Code, rec.Body.String())
	}

	body := surgeryBody("OR-1", "10:00", "11:00")
	body["surgeons"] = []string{"Dr. Unknown"}
	rec := h.do(t, http.MethodPost, "/surgeries", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unregistered surgeon, got %d", rec.Code)
	}
	if resp := decodeJSON[errorResponse](t, rec); resp.Errors["surgeons"] != "執刀医は勤務中の登録スタッフから指定してください。" {
		t.Fatalf("expected localized staff error, got %+v", resp.Errors)
	}

	ito := nurses.Staff[0].ID
	if rec := h.do(t, http.MethodPut, "/staff/"+ito, map[string]any{"name": "Nurse Ito", "role": "nurse", "status": "on-leave"}); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := h.do(t, http.MethodDelete, "/staff/"+ito, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}
