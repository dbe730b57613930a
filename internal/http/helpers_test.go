package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/or-admin/internal/application"
	"github.com/example/or-admin/internal/testfixtures"
)

var referenceTime = testfixtures.ReferenceTime()

type apiHarness struct {
	handler    http.Handler
	clock      *testfixtures.Clock
	surgeries  *application.SurgeryService
	tracker    *application.SessionTracker
	activities *application.ActivityLog
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAPIHarness(t *testing.T, warnings warningSource) apiHarness {
	t.Helper()
	logger := discardLogger()
	factory := testfixtures.NewServiceFactory(testfixtures.WithIDGenerator(testfixtures.NewIDGenerator("surgery")))
	clock := factory.Clock
	activities := factory.Activities

	surgeries := factory.NewSurgeryService(testfixtures.SurgeryServiceDeps{Logger: logger})
	tracker := application.NewSessionTracker(nil, application.SessionTrackerConfig{
		Activities:  activities,
		IDGenerator: testfixtures.NewIDGenerator("session").NextFunc(),
		Now:         clock.NowFunc(),
		Logger:      logger,
	})

	handler := NewRouter(RouterConfig{
		Surgeries:    NewSurgeryHandler(surgeries, logger),
		SurgeryTypes: NewSurgeryTypeHandler(surgeries, logger),
		Patients:     NewPatientHandler(surgeries, logger),
		Staff:        NewStaffHandler(surgeries, logger),
		Sessions:     NewSessionHandler(tracker, warnings, logger),
		Activities:   NewActivityHandler(activities, logger),
		Middleware:   []func(http.Handler) http.Handler{RequestLogger(logger), WithActor},
	})

	return apiHarness{handler: handler, clock: clock, surgeries: surgeries, tracker: tracker, activities: activities}
}

func (h apiHarness) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func surgeryBody(room, start, end string) map[string]any {
	return map[string]any{
		"patient_id":       "patient-1",
		"surgery_type_id":  "type-appendectomy",
		"scheduled_date":   "2024-03-05",
		"start_time":       start,
		"end_time":         end,
		"operating_room":   room,
		"surgeons":         []string{"Dr. Sato"},
		"nurses":           []string{"Nurse Ito"},
		"anesthesiologist": "Dr. Kato",
	}
}
