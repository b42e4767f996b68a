package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"budget/internal/chart"
	"budget/internal/core"
	"budget/internal/ledger"
	"budget/internal/log"
)

const (
	msgInvalidExpense = "Please enter valid expense details."
	msgUnknownRecord  = "That expense no longer exists."
	msgInternal       = "Something went wrong, please retry."
	msgBadRequest     = "Invalid request format."
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleReady reports whether templates are loaded and storage is healthy.
// A failing backend makes the service not ready even though the ledger
// keeps working in memory.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if err := s.store.PersistenceErr(); err != nil {
		checks["storage"] = "failed: " + err.Error()
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["storage"] = "ok"
	}

	checks["rate_limiter"] = map[string]any{"active_clients": s.rateLimiter.activeClients()}
	checks["security"] = s.metrics.snapshot()

	_ = writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	data := pageView{
		Ledger:     s.ledgerView(snap),
		Categories: s.store.Categories().List(),
		Charts:     chart.Build(snap),
	}
	body, err := s.render(r.Context(), "index.html", data)
	if err != nil {
		InternalServerError(msgInternal).Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(body).Write(w)
}

// handleLedgerPartial renders the record list and balance.
func (s *Server) handleLedgerPartial(w http.ResponseWriter, r *http.Request) {
	body, err := s.render(r.Context(), "ledger", s.ledgerView(s.store.Snapshot()))
	if err != nil {
		InternalServerError(msgInternal).Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(body).Write(w)
}

func (s *Server) handleLedgerJSON(w http.ResponseWriter, r *http.Request) {
	_ = writeJSON(w, http.StatusOK, newLedgerResponse(s.store.Snapshot()))
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	_ = writeJSON(w, http.StatusOK, chartPayloads(s.store.Snapshot()))
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	in, err := parseBudgetInput(w, r)
	if err != nil {
		s.respondError(w, r, errBadRequest(err))
		return
	}
	snap := s.store.SetBudget(r.Context(), in.Amount)
	s.respondLedger(w, r, ledger.ChangeBudget, snap, false)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	in, err := parseExpenseInput(w, r)
	if err != nil {
		s.respondError(w, r, errBadRequest(err))
		return
	}
	_, snap, err := s.store.AddExpense(r.Context(), in.Category, in.Value)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondLedger(w, r, ledger.ChangeAdded, snap, false)
}

func (s *Server) handleRemoveExpense(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Remove(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondLedger(w, r, ledger.ChangeRemoved, snap, false)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Reset(r.Context())
	s.respondLedger(w, r, ledger.ChangeReset, snap, true)
}

// respondLedger answers a mutation with the fresh ledger partial (or JSON)
// and the ledger:changed trigger.
func (s *Server) respondLedger(w http.ResponseWriter, r *http.Request, change ledger.Change, snap ledger.Snapshot, refresh bool) {
	if wantsJSON(r) {
		_ = writeJSON(w, http.StatusOK, newLedgerResponse(snap))
		return
	}
	body, err := s.render(r.Context(), "ledger", s.ledgerView(snap))
	if err != nil {
		InternalServerError(msgInternal).Write(w)
		return
	}
	resp := NewHTMXResponse().TriggerLedgerChanged(change, len(snap.Records)).BodyHTML(body)
	if refresh {
		resp.Refresh()
	}
	resp.Write(w)
}

type badRequestError struct{ err error }

func (e badRequestError) Error() string { return e.err.Error() }
func (e badRequestError) Unwrap() error { return e.err }

func errBadRequest(err error) error { return badRequestError{err: err} }

// statusFor maps domain errors to HTTP statuses and user-facing messages.
func statusFor(err error) (int, string) {
	var bre badRequestError
	switch {
	case errors.As(err, &bre):
		return http.StatusBadRequest, msgBadRequest
	case errors.Is(err, core.ErrInvalidInput):
		return http.StatusUnprocessableEntity, msgInvalidExpense
	case errors.Is(err, ledger.ErrNotFound), errors.Is(err, ledger.ErrIndexOutOfRange):
		return http.StatusNotFound, msgUnknownRecord
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	logger := log.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", log.FieldError, err)
	} else {
		logger.InfoContext(r.Context(), "Request rejected", log.FieldStatusCode, status, log.FieldError, err)
	}

	if wantsJSON(r) {
		_ = writeJSON(w, status, map[string]string{"error": msg, "detail": err.Error()})
		return
	}
	ErrorResponse(status, msg).Write(w)
}

// render executes a template into memory so a failure never leaves a
// half-written response.
func (s *Server) render(ctx context.Context, name string, data any) ([]byte, error) {
	if s.templates == nil {
		err := errors.New("templates not loaded")
		log.FromContext(ctx).ErrorContext(ctx, "Template render failed",
			log.FieldOperation, log.OpRender, "template", name, log.FieldError, err)
		return nil, err
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Template render failed",
			log.FieldOperation, log.OpRender, "template", name, log.FieldError, err)
		return nil, err
	}
	return buf.Bytes(), nil
}
