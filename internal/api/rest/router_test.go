package rest

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domainSession "github.com/MP2EZ/being-sub003/internal/domain/session"
	"github.com/MP2EZ/being-sub003/internal/infrastructure/cache"
	"github.com/MP2EZ/being-sub003/internal/infrastructure/directory"
	"github.com/MP2EZ/being-sub003/internal/metrics"
	"github.com/MP2EZ/being-sub003/internal/service"
	"github.com/MP2EZ/being-sub003/internal/service/audit"
	"github.com/MP2EZ/being-sub003/internal/service/detection"
	"github.com/MP2EZ/being-sub003/internal/service/session"
	"github.com/MP2EZ/being-sub003/internal/testutil"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	reg := prometheus.NewRegistry()
	registry, err := metrics.NewRegistry(reg)
	require.NoError(t, err)

	recorder, err := audit.NewRecorder(ctx, audit.DefaultRecorderConfig(), logger, audit.NewMemoryRepository(),
		audit.WithMetrics(registry))
	require.NoError(t, err)
	t.Cleanup(func() { _ = recorder.Close(context.Background()) })

	dir := directory.New(cache.NewMemoryStore(nil), logger, clockwork.NewRealClock(), 0)
	t.Cleanup(dir.Wait)

	manager, err := session.NewManager(session.DefaultConfig(), logger,
		session.WithRecorder(recorder),
		session.WithDirectory(dir),
		session.WithMetrics(registry))
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close(context.Background()) })

	engine, err := service.NewEngine(service.Dependencies{
		Sessions:  manager,
		Detection: detection.NewService(logger, recorder, registry, nil),
		Directory: dir,
	}, logger)
	require.NoError(t, err)

	return NewRouter(engine, Options{Gatherer: reg}, logger)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func createSession(t *testing.T, h http.Handler, severity string) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/v1/crisis/sessions",
		`{"device_id":"device-1","user_id":"user-1","crisis_type":"acute_distress","severity":"`+severity+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var res session.CreateResult
	decode(t, rec, &res)
	require.NotEmpty(t, res.SessionID)
	testutil.AssertTimeWithin(t, res.ExpiresAt, time.Now().Add(domainSession.TTL), 5*time.Second)
	return res.SessionID
}

func TestNilEngineFailsOpen(t *testing.T) {
	h := NewRouter(nil, Options{Gatherer: prometheus.NewRegistry()}, zaptest.NewLogger(t))

	rec := do(t, h, http.MethodGet, "/v1/crisis/resources", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res service.Resources
	decode(t, rec, &res)
	assert.Equal(t, directory.FailOpenResources(), res.Hotlines)
	assert.NotNil(t, res.Contacts)

	rec = do(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"crisis_engine":"disabled"`)

	rec = do(t, h, http.MethodPost, "/v1/crisis/sessions", `{"device_id":"d","crisis_type":"acute_distress","severity":"mild"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var errResp ErrorResponse
	decode(t, rec, &errResp)
	assert.Equal(t, "FEATURE_DISABLED", errResp.Error.Code)
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	h := newTestRouter(t)
	id := createSession(t, h, "severe")

	rec := do(t, h, http.MethodGet, "/v1/crisis/sessions/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view SessionView
	decode(t, rec, &view)
	assert.Equal(t, id, view.ID)
	assert.Equal(t, "active", string(view.State))
	assert.NotEmpty(t, view.AllowedOperations)

	rec = do(t, h, http.MethodPost, "/v1/crisis/sessions/"+id+"/access/crisis_button", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"allowed":true`)

	rec = do(t, h, http.MethodPost, "/v1/crisis/sessions/"+id+"/access/delete_account", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	var denied AccessResponse
	decode(t, rec, &denied)
	assert.False(t, denied.Allowed)
	require.NotNil(t, denied.Error)
	assert.Equal(t, "OPERATION_NOT_ALLOWED", denied.Error.Code)

	rec = do(t, h, http.MethodGet, "/v1/crisis/sessions/"+id+"/access/crisis_button", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/crisis/sessions/"+id+"/operations/emergency_mood_log", `{"rating":3,"note":"rough night"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"success":true`)

	rec = do(t, h, http.MethodPost, "/v1/crisis/sessions/"+id+"/resolve", `{"reason":"feeling safer"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/crisis/sessions/"+id+"/resolve", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/crisis/sessions/"+id+"/operations/view_crisis_plan", "")
	assert.Equal(t, http.StatusGone, rec.Code)
	var failed ExecuteResponse
	decode(t, rec, &failed)
	assert.False(t, failed.Success)
	require.NotNil(t, failed.ErrorDetail)
	assert.Equal(t, "SESSION_RESOLVED", failed.ErrorDetail.Code)
}

func TestExecuteRejectsMalformedPayload(t *testing.T) {
	h := newTestRouter(t)
	id := createSession(t, h, "mild")

	rec := do(t, h, http.MethodPost, "/v1/crisis/sessions/"+id+"/operations/emergency_mood_log", `{"rating":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/crisis/sessions/"+id+"/operations/emergency_mood_log", `{"rating":42}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ExecuteResponse
	decode(t, rec, &resp)
	require.NotNil(t, resp.ErrorDetail)
	assert.Equal(t, "INVALID_REQUEST", resp.ErrorDetail.Code)
	assert.Equal(t, "max", resp.ErrorDetail.Details["Rating"])
}

func TestUnknownSession(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/v1/crisis/sessions/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var errResp ErrorResponse
	decode(t, rec, &errResp)
	assert.Equal(t, "SESSION_NOT_FOUND", errResp.Error.Code)
}

func TestCreateSessionValidation(t *testing.T) {
	h := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "unknown severity", body: `{"device_id":"d","crisis_type":"acute_distress","severity":"extreme"}`},
		{name: "missing device", body: `{"crisis_type":"acute_distress","severity":"mild"}`},
		{name: "unknown field", body: `{"device_id":"d","crisis_type":"acute_distress","severity":"mild","admin":true}`},
		{name: "empty body", body: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/v1/crisis/sessions", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var errResp ErrorResponse
			decode(t, rec, &errResp)
			assert.Equal(t, "INVALID_REQUEST", errResp.Error.Code)
		})
	}
}

func TestDetectCrisis(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/v1/crisis/detect", `{"suicidal_ideation":2,"device_id":"d"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp DetectResponse
	decode(t, rec, &resp)
	assert.True(t, resp.Verdict.Detected)
	assert.Equal(t, "critical", resp.Verdict.Severity.String())
	assert.Nil(t, resp.Error)

	rec = do(t, h, http.MethodPost, "/v1/crisis/detect", `{"suicidal_ideation":7}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	decode(t, rec, &resp)
	assert.True(t, resp.Verdict.Unavailable())
	require.NotNil(t, resp.Error)
	assert.Equal(t, "DETECTION_UNAVAILABLE", resp.Error.Code)
}

func TestScoreAssessment(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/v1/assessments/score", `{"instrument":"anxiety","answers":[3,3,3,3,3,0,0]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result detection.Assessment
	decode(t, rec, &result)
	assert.Equal(t, 15, result.Score.Total)
	assert.True(t, result.Verdict.Detected)

	rec = do(t, h, http.MethodPost, "/v1/assessments/score", `{"instrument":"anxiety","answers":[1,2]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var errResp ErrorResponse
	decode(t, rec, &errResp)
	assert.Equal(t, "INVALID_ANSWER", errResp.Error.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(t)
	createSession(t, h, "moderate")

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "being_sessions_created_total")
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", bytes.NewReader(nil)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":{"code":"INTERNAL_ERROR","message":"An internal error occurred"}}`, rec.Body.String())
}

func TestRateLimit(t *testing.T) {
	h := NewRouter(nil, Options{RequestsPerSecond: 2, Gatherer: prometheus.NewRegistry()}, zaptest.NewLogger(t))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, do(t, h, http.MethodPost, "/v1/crisis/sessions", `{"device_id":"d"}`).Code)
	}
	assert.Equal(t, []int{http.StatusServiceUnavailable, http.StatusServiceUnavailable, http.StatusTooManyRequests}, codes)

	// The same client keeps getting emergency resources once it is throttled.
	for i := 0; i < 5; i++ {
		rec := do(t, h, http.MethodGet, "/v1/crisis/resources", "")
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}
}
