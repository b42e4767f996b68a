package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"budget/internal/ledger"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusCreated).
		BodyHTML([]byte("<p>ok</p>")).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if w.Body.String() != "<p>ok</p>" {
		t.Errorf("Body = %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestHTMXResponseBuilder_LedgerChanged(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerLedgerChanged(ledger.ChangeAdded, 3).
		Refresh().
		Write(w)

	trigger := w.Header().Get("HX-Trigger")
	for _, part := range []string{`"ledger:changed"`, `"change":"expense_added"`, `"records":3`} {
		if !strings.Contains(trigger, part) {
			t.Errorf("HX-Trigger missing %q: %s", part, trigger)
		}
	}
	if w.Header().Get("HX-Refresh") != "true" {
		t.Error("HX-Refresh not set")
	}
}

func TestHTMXResponseBuilder_NoTriggers(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().Write(w)

	if _, ok := w.Header()["Hx-Trigger"]; ok {
		t.Error("HX-Trigger should not be set without triggers")
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name   string
		build  func(string) *HTMXResponseBuilder
		status int
	}{
		{"bad request", BadRequestError, http.StatusBadRequest},
		{"unprocessable", UnprocessableEntityError, http.StatusUnprocessableEntity},
		{"not found", NotFoundError, http.StatusNotFound},
		{"internal", InternalServerError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.build(`<script>alert("x")</script>`).Write(w)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			body := w.Body.String()
			if strings.Contains(body, "<script>") {
				t.Errorf("message not escaped: %s", body)
			}
			if !strings.Contains(body, "&lt;script&gt;") {
				t.Errorf("escaped message missing: %s", body)
			}
			if w.Header().Get("HX-Retarget") != "#messages" {
				t.Errorf("HX-Retarget = %q", w.Header().Get("HX-Retarget"))
			}
		})
	}
}
