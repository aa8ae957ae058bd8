package detection

import (
	"context"
	"sync"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/MP2EZ/being-sub003/internal/domain/assessment"
	"github.com/MP2EZ/being-sub003/internal/domain/audit"
	"github.com/MP2EZ/being-sub003/internal/domain/crisis"
	"github.com/MP2EZ/being-sub003/internal/domain/errors"
	"github.com/MP2EZ/being-sub003/internal/domain/values"
	"github.com/MP2EZ/being-sub003/internal/metrics"
)

type captureRecorder struct {
	mu      sync.Mutex
	entries []*audit.Entry
}

func (c *captureRecorder) Record(_ context.Context, e *audit.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, e)
}

func (c *captureRecorder) all() []*audit.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*audit.Entry(nil), c.entries...)
}

func intPtr(v int) *int { return &v }

func setup(t *testing.T) (*service, *captureRecorder, *metrics.Registry) {
	t.Helper()
	rec := &captureRecorder{}
	reg, err := metrics.NewRegistry(prometheus.NewRegistry())
	require.NoError(t, err)
	svc := NewService(zaptest.NewLogger(t), rec, reg, clockwork.NewFakeClock()).(*service)
	return svc, rec, reg
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name         string
		req          *Request
		wantDetected bool
		wantSeverity crisis.Severity
		wantType     crisis.Type
	}{
		{
			name:         "no signals",
			req:          &Request{DepressionScore: intPtr(4), AnxietyScore: intPtr(3)},
			wantSeverity: crisis.SeverityNone,
		},
		{
			name:         "severe depression total",
			req:          &Request{DepressionScore: intPtr(22)},
			wantDetected: true,
			wantSeverity: crisis.SeveritySevere,
			wantType:     crisis.TypeSevereDepression,
		},
		{
			name:         "anxiety at threshold",
			req:          &Request{AnxietyScore: intPtr(15)},
			wantDetected: true,
			wantSeverity: crisis.SeveritySevere,
			wantType:     crisis.TypeSevereAnxiety,
		},
		{
			name:         "item nine overrides low total",
			req:          &Request{DepressionScore: intPtr(3), SuicidalIdeation: intPtr(1)},
			wantDetected: true,
			wantSeverity: crisis.SeverityCritical,
			wantType:     crisis.TypeSuicidalIdeation,
		},
		{
			name:         "crisis keywords in text",
			req:          &Request{Text: "I want to die, there is no reason to live"},
			wantDetected: true,
			wantSeverity: crisis.SeverityCritical,
			wantType:     crisis.TypeSuicidalIdeation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, rec, _ := setup(t)
			verdict, err := svc.Detect(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDetected, verdict.Detected)
			assert.Equal(t, tt.wantSeverity, verdict.Severity)
			assert.Equal(t, tt.wantType, verdict.CrisisType)
			assert.Equal(t, crisis.StatusEvaluated, verdict.Status)

			entries := rec.all()
			require.Len(t, entries, 1)
			assert.Equal(t, audit.EventDetectionCompleted, entries[0].Type)
			assert.Equal(t, values.SensitivityClinical, entries[0].Compliance.Sensitivity)
			assert.Equal(t, values.ClinicalRetentionDays, entries[0].Compliance.RetentionDays)
			assert.NoError(t, entries[0].Validate())
		})
	}
}

func TestDetectMalformedInputIsUnavailable(t *testing.T) {
	svc, rec, reg := setup(t)

	verdict, err := svc.Detect(context.Background(), &Request{DepressionScore: intPtr(28)})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDetectionUnavailable)
	assert.True(t, verdict.Unavailable())
	assert.False(t, verdict.Detected)
	assert.Contains(t, verdict.RecommendedActions, crisis.ActionShowCrisisResources)

	entries := rec.all()
	require.Len(t, entries, 1)
	assert.Equal(t, audit.EventDetectionUnavailable, entries[0].Type)
	assert.False(t, entries[0].Success)
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.Detections.WithLabelValues("unavailable", "none")))
}

func TestDetectRecoversFromPanic(t *testing.T) {
	svc, rec, _ := setup(t)
	svc.detect = func(crisis.Input) (crisis.Verdict, error) { panic("rule table corrupted") }

	verdict, err := svc.Detect(context.Background(), &Request{Text: "hello"})
	assert.ErrorIs(t, err, errors.ErrDetectionUnavailable)
	assert.True(t, verdict.Unavailable())
	assert.Len(t, rec.all(), 1)
}

func TestDetectNilRequest(t *testing.T) {
	svc, _, _ := setup(t)
	verdict, err := svc.Detect(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, verdict.Detected)
}

func TestAssessDepression(t *testing.T) {
	svc, rec, _ := setup(t)
	ctx := context.Background()

	t.Run("item nine from answers", func(t *testing.T) {
		answers := []int{0, 0, 0, 0, 0, 0, 0, 0, 2}
		result, err := svc.AssessDepression(ctx, answers, Subject{UserID: "u1"})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Score.Total)
		assert.Equal(t, assessment.BandMinimal, result.Score.Band)
		assert.Equal(t, crisis.SeverityCritical, result.Verdict.Severity)
		assert.InDelta(t, 0.96, result.Verdict.Confidence, 1e-9)
	})

	t.Run("invalid answers are not evaluated", func(t *testing.T) {
		before := len(rec.all())
		_, err := svc.AssessDepression(ctx, []int{0, 1, 2}, Subject{})
		assert.ErrorIs(t, err, errors.ErrInvalidAnswer)
		assert.Len(t, rec.all(), before)
	})
}

func TestAssessAnxiety(t *testing.T) {
	svc, _, _ := setup(t)
	result, err := svc.AssessAnxiety(context.Background(), []int{3, 3, 3, 3, 3, 0, 0}, Subject{})
	require.NoError(t, err)
	assert.Equal(t, 15, result.Score.Total)
	assert.True(t, result.Verdict.Detected)
	assert.Equal(t, crisis.TypeSevereAnxiety, result.Verdict.CrisisType)
}

func TestScoreRecordsAssessment(t *testing.T) {
	svc, rec, _ := setup(t)
	result, err := svc.Score(context.Background(), []int{1, 1, 1, 1, 1, 1, 1}, assessment.InstrumentAnxiety, Subject{DeviceID: "d1"})
	require.NoError(t, err)
	assert.Equal(t, 7, result.Total)
	assert.Equal(t, assessment.BandMild, result.Band)

	entries := rec.all()
	require.Len(t, entries, 1)
	assert.Equal(t, audit.EventAssessmentScored, entries[0].Type)
	assert.Equal(t, "d1", entries[0].DeviceID)

	_, err = svc.Score(context.Background(), []int{4}, assessment.InstrumentAnxiety, Subject{})
	assert.ErrorIs(t, err, errors.ErrInvalidAnswer)
}
