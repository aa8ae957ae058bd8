package detection

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/MP2EZ/being-sub003/internal/domain/assessment"
	"github.com/MP2EZ/being-sub003/internal/domain/audit"
	"github.com/MP2EZ/being-sub003/internal/domain/crisis"
	"github.com/MP2EZ/being-sub003/internal/domain/errors"
	"github.com/MP2EZ/being-sub003/internal/infrastructure/telemetry"
	"github.com/MP2EZ/being-sub003/internal/metrics"
)

// service implements the Service interface
type service struct {
	logger   *zap.Logger
	recorder AuditRecorder
	metrics  *metrics.Registry
	clock    clockwork.Clock
	tracer   trace.Tracer

	detect func(crisis.Input) (crisis.Verdict, error)
}

// NewService creates a new detection service. recorder and registry may be nil.
func NewService(logger *zap.Logger, recorder AuditRecorder, registry *metrics.Registry, clock clockwork.Clock) Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &service{
		logger:   logger.Named("detection"),
		recorder: recorder,
		metrics:  registry,
		clock:    clock,
		tracer:   otel.Tracer("detection.service"),
		detect:   crisis.Detect,
	}
}

func (s *service) Detect(ctx context.Context, req *Request) (crisis.Verdict, error) {
	if req == nil {
		req = &Request{}
	}
	return s.evaluate(ctx, req.input(), req.Subject, "detect_crisis")
}

func (s *service) Score(ctx context.Context, answers []int, instrument assessment.Instrument, subject Subject) (assessment.ScoreResult, error) {
	result, err := assessment.Score(answers, instrument)
	if err != nil {
		return result, err
	}

	s.record(ctx, audit.NewEntryBuilder(audit.EventAssessmentScored, "score_assessment", s.clock.Now()).
		WithSession("", subject.DeviceID, subject.UserID).
		WithMetadata("instrument", string(result.Instrument)).
		WithMetadata("total", result.Total).
		WithMetadata("band", string(result.Band)).
		Build())
	return result, nil
}

func (s *service) AssessDepression(ctx context.Context, answers []int, subject Subject) (*Assessment, error) {
	score, err := assessment.Score(answers, assessment.InstrumentDepression)
	if err != nil {
		return nil, err
	}
	in := crisis.Input{Depression: &score}
	if v, ok := assessment.SuicidalIdeationAnswer(answers, assessment.InstrumentDepression); ok {
		in.SuicidalIdeation = &v
	}
	verdict, err := s.evaluate(ctx, in, subject, "assess_depression")
	return &Assessment{Score: score, Verdict: verdict}, err
}

func (s *service) AssessAnxiety(ctx context.Context, answers []int, subject Subject) (*Assessment, error) {
	score, err := assessment.Score(answers, assessment.InstrumentAnxiety)
	if err != nil {
		return nil, err
	}
	verdict, err := s.evaluate(ctx, crisis.Input{Anxiety: &score}, subject, "assess_anxiety")
	return &Assessment{Score: score, Verdict: verdict}, err
}

// evaluate runs the rules, turning a panic into an unavailable verdict, and
// records exactly one audit entry for the evaluation.
func (s *service) evaluate(ctx context.Context, in crisis.Input, subject Subject, operation string) (verdict crisis.Verdict, err error) {
	ctx, span := s.tracer.Start(ctx, "Detection.evaluate",
		trace.WithAttributes(attribute.String("operation", operation)))
	defer span.End()

	start := s.clock.Now()
	verdict, err = s.safeDetect(in)
	elapsed := s.clock.Since(start)

	eventType := audit.EventDetectionCompleted
	outcome := "evaluated"
	if verdict.Unavailable() {
		eventType = audit.EventDetectionUnavailable
		outcome = "unavailable"
		telemetry.RecordError(span, err)
		s.logger.Warn("crisis detection unavailable",
			append(telemetry.TraceFields(ctx),
				zap.String("operation", operation),
				zap.Error(err))...)
	}
	s.metrics.Detection(outcome, verdict.Severity.String(), elapsed)
	span.SetAttributes(
		attribute.Bool("crisis.detected", verdict.Detected),
		attribute.String("crisis.severity", verdict.Severity.String()))

	reason := ""
	if err != nil {
		reason = errors.CodeOf(err)
	}
	s.record(ctx, audit.NewEntryBuilder(eventType, operation, s.clock.Now()).
		WithSession("", subject.DeviceID, subject.UserID).
		WithSeverity(verdict.Severity.String()).
		WithDuration(elapsed).
		WithOutcome(err == nil, reason).
		WithMetadata("detected", verdict.Detected).
		WithMetadata("crisis_type", string(verdict.CrisisType)).
		WithMetadata("confidence", verdict.Confidence).
		WithMetadata("triggers", verdict.Triggers).
		WithMetadata("status", string(verdict.Status)).
		Build())

	if verdict.Detected {
		s.logger.Info("crisis detected",
			zap.String("operation", operation),
			zap.String("severity", verdict.Severity.String()),
			zap.String("crisis_type", string(verdict.CrisisType)),
			zap.Float64("confidence", verdict.Confidence))
	}
	return verdict, err
}

func (s *service) safeDetect(in crisis.Input) (verdict crisis.Verdict, err error) {
	defer func() {
		if r := recover(); r != nil {
			reason := fmt.Sprintf("detector panic: %v", r)
			verdict = crisis.UnavailableVerdict("internal_error")
			err = errors.NewDetectionUnavailableError(reason)
		}
	}()
	return s.detect(in)
}

func (s *service) record(ctx context.Context, entry *audit.Entry) {
	if s.recorder != nil {
		s.recorder.Record(ctx, entry)
	}
}
