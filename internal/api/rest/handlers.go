package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/MP2EZ/being-sub003/internal/domain/crisis"
	domainErrors "github.com/MP2EZ/being-sub003/internal/domain/errors"
	domainSession "github.com/MP2EZ/being-sub003/internal/domain/session"
	"github.com/MP2EZ/being-sub003/internal/service"
	"github.com/MP2EZ/being-sub003/internal/service/detection"
	"github.com/MP2EZ/being-sub003/internal/service/session"
)

type handler struct {
	engine *service.Engine
	logger *zap.Logger
}

// DetectResponse always carries the verdict. An unavailable verdict comes
// with an error and must not be read as "no crisis".
type DetectResponse struct {
	Verdict crisis.Verdict `json:"verdict"`
	Error   *ErrorBody     `json:"error,omitempty"`
}

type AccessResponse struct {
	*session.AccessResult
	Error *ErrorBody `json:"error,omitempty"`
}

type ExecuteResponse struct {
	*session.ExecuteResult
	ErrorDetail *ErrorBody `json:"error_detail,omitempty"`
}

// SessionView is the public shape of a crisis session.
type SessionView struct {
	ID                  string                    `json:"id"`
	CrisisType          crisis.Type               `json:"crisis_type"`
	Severity            crisis.Severity           `json:"severity"`
	InitialSeverity     crisis.Severity           `json:"initial_severity"`
	State               domainSession.State       `json:"state"`
	CreatedAt           time.Time                 `json:"created_at"`
	ExpiresAt           time.Time                 `json:"expires_at"`
	LastActivity        time.Time                 `json:"last_activity"`
	AutomaticEscalation bool                      `json:"automatic_escalation"`
	OperationsExecuted  int                       `json:"operations_executed"`
	AllowedOperations   []domainSession.Operation `json:"allowed_operations"`
	ResolvedAt          *time.Time                `json:"resolved_at,omitempty"`
	ResolutionReason    string                    `json:"resolution_reason,omitempty"`
}

type resolveRequest struct {
	Reason string `json:"reason"`
}

type healthResponse struct {
	Status         string `json:"status"`
	CrisisEngine   string `json:"crisis_engine"`
	ActiveSessions int    `json:"active_sessions"`
}

func (h *handler) requireEngine(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.engine == nil {
			writeError(w, r, domainErrors.NewFeatureDisabledError("crisis_engine"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", CrisisEngine: "disabled"}
	if h.engine != nil {
		resp.CrisisEngine = "available"
		resp.ActiveSessions = h.engine.ActiveSessions()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) emergencyResources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.EmergencyResources(r.Context(), r.URL.Query().Get("user_id")))
}

func (h *handler) scoreAssessment(w http.ResponseWriter, r *http.Request) {
	var req service.ScoreAssessmentRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.engine.ScoreAssessment(r.Context(), &req)
	if err != nil && result == nil {
		writeError(w, r, err)
		return
	}
	if err != nil {
		// Scored, but detection on the score was unavailable.
		body := errorBody(err)
		writeJSON(w, statusOf(err), struct {
			*detection.Assessment
			Error *ErrorBody `json:"error"`
		}{result, &body})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) detectCrisis(w http.ResponseWriter, r *http.Request) {
	var req detection.Request
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	verdict, err := h.engine.DetectCrisis(r.Context(), &req)
	if err != nil {
		body := errorBody(err)
		writeJSON(w, statusOf(err), DetectResponse{Verdict: verdict, Error: &body})
		return
	}
	writeJSON(w, http.StatusOK, DetectResponse{Verdict: verdict})
}

func (h *handler) createSession(w http.ResponseWriter, r *http.Request) {
	var req service.CreateCrisisAccessRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.engine.CreateCrisisAccess(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.logger.Info("crisis session opened over http",
		zap.String("session_id", result.SessionID),
		zap.String("request_id", middleware.GetReqID(r.Context())))
	writeJSON(w, http.StatusCreated, result)
}

func (h *handler) getSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.engine.CrisisSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	view := SessionView{
		ID:                  s.ID,
		CrisisType:          s.CrisisType,
		Severity:            s.Severity,
		InitialSeverity:     s.InitialSeverity,
		State:               s.State,
		CreatedAt:           s.CreatedAt,
		ExpiresAt:           s.ExpiresAt,
		LastActivity:        s.LastActivity,
		AutomaticEscalation: s.AutomaticEscalation,
		OperationsExecuted:  len(s.Operations),
		AllowedOperations:   []domainSession.Operation{},
		ResolvedAt:          s.ResolvedAt,
		ResolutionReason:    s.ResolutionReason,
	}
	if !s.IsTerminal() {
		view.AllowedOperations = domainSession.DefaultGate.Allowed()
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handler) validateAccess(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.ValidateAccess(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "operation"))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, AccessResponse{AccessResult: result})
	case result == nil:
		writeError(w, r, err)
	default:
		body := errorBody(err)
		writeJSON(w, statusOf(err), AccessResponse{AccessResult: result, Error: &body})
	}
}

func (h *handler) executeOperation(w http.ResponseWriter, r *http.Request) {
	payload, err := readPayload(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.engine.ExecuteCrisisOperation(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "operation"), payload)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, ExecuteResponse{ExecuteResult: result})
	case result == nil:
		writeError(w, r, err)
	default:
		body := errorBody(err)
		writeJSON(w, statusOf(err), ExecuteResponse{ExecuteResult: result, ErrorDetail: &body})
	}
}

func (h *handler) resolveSession(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.engine.ResolveCrisisSession(r.Context(), chi.URLParam(r, "id"), req.Reason); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
