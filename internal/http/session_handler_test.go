package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/or-admin/internal/application"
)

type warningFeed struct {
	ch chan application.SessionWarning
}

func (f *warningFeed) SubscribeWarnings(int) (<-chan application.SessionWarning, func()) {
	return f.ch, func() {}
}

func TestSessionHandlers(t *testing.T) {
	t.Parallel()

	t.Run("start, inspect and continue the current session", func(t *testing.T) {
		t.Parallel()
		h := newAPIHarness(t, nil)

		if rec := h.do(t, http.MethodGet, "/sessions/current", nil); rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404 without a session, got %d", rec.Code)
		}

		rec := h.do(t, http.MethodPost, "/sessions", map[string]string{"user_id": "user-7", "user_name": "Nurse Tanaka", "role": "nurse"})
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		started := decodeJSON[sessionResponse](t, rec)
		if started.Session.Status != "active" || started.Session.IPAddress == "" {
			t.Fatalf("unexpected session: %+v", started.Session)
		}

		h.clock.Advance(28*time.Minute + 31*time.Second)
		current := decodeJSON[currentSessionResponse](t, h.do(t, http.MethodGet, "/sessions/current", nil))
		if current.Warning == nil || !current.Warning.Visible || current.Warning.SecondsRemaining != 89 {
			t.Fatalf("expected visible warning with 89s remaining, got %+v", current.Warning)
		}

		rec = h.do(t, http.MethodPost, "/sessions/current/activity", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		touched := decodeJSON[currentSessionResponse](t, rec)
		if touched.Warning.Visible {
			t.Fatalf("continuing must hide the warning, got %+v", touched.Warning)
		}
		if !touched.Session.LastActivity.Equal(referenceTime.Add(28*time.Minute + 31*time.Second)) {
			t.Fatalf("unexpected last activity %v", touched.Session.LastActivity)
		}
	})

	t.Run("rejects a session without user id", func(t *testing.T) {
		t.Parallel()
		h := newAPIHarness(t, nil)

		rec := h.do(t, http.MethodPost, "/sessions", map[string]string{"user_name": "anonymous"})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		if got := decodeJSON[errorResponse](t, rec).Errors["user_id"]; got != "ユーザー ID は必須です。" {
			t.Fatalf("unexpected message %q", got)
		}
	})

	t.Run("terminate and clear", func(t *testing.T) {
		t.Parallel()
		h := newAPIHarness(t, nil)

		h.do(t, http.MethodPost, "/sessions", map[string]string{"user_id": "user-1"})
		h.do(t, http.MethodPost, "/sessions", map[string]string{"user_id": "user-2"})

		if rec := h.do(t, http.MethodDelete, "/sessions/session-1", nil); rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if rec := h.do(t, http.MethodDelete, "/sessions/unknown", nil); rec.Code != http.StatusNoContent {
			t.Fatalf("terminating an unknown session is a no-op, got %d", rec.Code)
		}

		roster := decodeJSON[sessionListResponse](t, h.do(t, http.MethodGet, "/sessions", nil))
		if len(roster.Sessions) != 2 || roster.Sessions[0].Status != "terminated" || roster.Sessions[1].Status != "active" {
			t.Fatalf("unexpected roster: %+v", roster.Sessions)
		}

		if rec := h.do(t, http.MethodDelete, "/sessions/current", nil); rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if rec := h.do(t, http.MethodGet, "/sessions/current", nil); rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404 after clear, got %d", rec.Code)
		}
	})

	t.Run("session timeout settings", func(t *testing.T) {
		t.Parallel()
		h := newAPIHarness(t, nil)

		got := decodeJSON[timeoutResponse](t, h.do(t, http.MethodGet, "/settings/session-timeout", nil))
		if got.TimeoutMinutes != 30 || got.WarningThreshold != 120 {
			t.Fatalf("unexpected defaults: %+v", got)
		}

		rec := h.do(t, http.MethodPut, "/settings/session-timeout", map[string]int{"timeout_minutes": 15})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got := decodeJSON[timeoutResponse](t, rec); got.TimeoutMinutes != 15 {
			t.Fatalf("expected 15 minutes, got %+v", got)
		}

		if rec := h.do(t, http.MethodPut, "/settings/session-timeout", map[string]int{"timeout_minutes": 0}); rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}

		rec = h.do(t, http.MethodPut, "/settings/session-timeout", map[string]int{"timeout_minutes": 2})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422 for a timeout not longer than the warning, got %d", rec.Code)
		}
		if body := decodeJSON[errorResponse](t, rec); body.Errors["timeout"] != "タイムアウトは警告表示時間より長くしてください。" {
			t.Fatalf("unexpected errors %+v", body.Errors)
		}
	})
}

func TestSessionWarningsStream(t *testing.T) {
	t.Parallel()

	feed := &warningFeed{ch: make(chan application.SessionWarning, 1)}
	h := newAPIHarness(t, feed)
	server := httptest.NewServer(h.handler)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/sessions/current/warnings"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var initial warningDTO
	if err := conn.ReadJSON(&initial); err != nil {
		t.Fatalf("read initial warning: %v", err)
	}
	if initial.Visible {
		t.Fatalf("expected hidden warning without a session, got %+v", initial)
	}

	feed.ch <- application.SessionWarning{SessionID: "session-9", Visible: true, Remaining: 42 * time.Second}

	var pushed warningDTO
	if err := conn.ReadJSON(&pushed); err != nil {
		t.Fatalf("read pushed warning: %v", err)
	}
	if !pushed.Visible || pushed.SessionID != "session-9" || pushed.SecondsRemaining != 42 {
		t.Fatalf("unexpected pushed warning: %+v", pushed)
	}
}

func TestActivityHandlers(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t, nil)
	h.do(t, http.MethodPost, "/surgeries", surgeryBody("OR-1", "09:00", "10:00"), actorHeader, "Dr. Sato")
	h.do(t, http.MethodPost, "/surgeries", surgeryBody("OR-1", "09:30", "10:30"), actorHeader, "Dr. Sato")

	all := decodeJSON[activityListResponse](t, h.do(t, http.MethodGet, "/activities", nil))
	if len(all.Activities) != 2 {
		t.Fatalf("expected 2 activities, got %+v", all.Activities)
	}
	if all.Activities[0].Action != "Surgery Scheduling Rejected" || all.Activities[1].User != "Dr. Sato" {
		t.Fatalf("unexpected activities: %+v", all.Activities)
	}

	warnings := decodeJSON[activityListResponse](t, h.do(t, http.MethodGet, "/activities?severity=warning", nil))
	if len(warnings.Activities) != 1 {
		t.Fatalf("expected one warning entry, got %+v", warnings.Activities)
	}

	if rec := h.do(t, http.MethodGet, "/activities?severity=fatal", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown severity, got %d", rec.Code)
	}

	if rec := h.do(t, http.MethodDelete, "/activities", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := decodeJSON[activityListResponse](t, h.do(t, http.MethodGet, "/activities", nil)); len(got.Activities) != 0 {
		t.Fatalf("expected empty log, got %+v", got.Activities)
	}
}
