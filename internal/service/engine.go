// Package service wires the crisis engine: session management, detection,
// resources and the audit trail behind one facade.
package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/MP2EZ/being-sub003/internal/domain/assessment"
	domainAudit "github.com/MP2EZ/being-sub003/internal/domain/audit"
	"github.com/MP2EZ/being-sub003/internal/domain/crisis"
	"github.com/MP2EZ/being-sub003/internal/domain/errors"
	domainSession "github.com/MP2EZ/being-sub003/internal/domain/session"
	"github.com/MP2EZ/being-sub003/internal/infrastructure/directory"
	"github.com/MP2EZ/being-sub003/internal/service/detection"
	"github.com/MP2EZ/being-sub003/internal/service/session"
)

// SessionService is what the engine needs from the session manager.
type SessionService interface {
	session.Service
	Active() int
}

// ResourceDirectory serves hotlines and last-known contacts.
type ResourceDirectory interface {
	Hotlines() []directory.Hotline
	Contacts(ctx context.Context, userID string) []directory.Contact
}

// AuditVerifier walks the stored audit chain.
type AuditVerifier interface {
	Verify(ctx context.Context) (*domainAudit.ChainVerificationResult, error)
}

// Dependencies are the engine's collaborators. Sessions and Detection are
// required; the rest are optional.
type Dependencies struct {
	Sessions  SessionService
	Detection detection.Service
	Directory ResourceDirectory
	Verifier  AuditVerifier
}

// Engine is the in-process API of the crisis engine.
type Engine struct {
	sessions  SessionService
	detection detection.Service
	directory ResourceDirectory
	verifier  AuditVerifier
	logger    *zap.Logger
	validate  *validator.Validate
}

type CreateCrisisAccessRequest struct {
	DeviceID   string `json:"device_id" validate:"required,max=128"`
	UserID     string `json:"user_id,omitempty" validate:"omitempty,max=128"`
	CrisisType string `json:"crisis_type" validate:"required"`
	Severity   string `json:"severity" validate:"required,oneof=mild moderate severe critical"`
}

type ScoreAssessmentRequest struct {
	Instrument string `json:"instrument" validate:"required,oneof=depression anxiety"`
	Answers    []int  `json:"answers" validate:"required"`
	UserID     string `json:"user_id,omitempty" validate:"omitempty,max=128"`
	DeviceID   string `json:"device_id,omitempty" validate:"omitempty,max=128"`
}

// Resources is always answerable, even from a nil engine.
type Resources struct {
	Hotlines []directory.Hotline `json:"hotlines"`
	Contacts []directory.Contact `json:"contacts"`
}

func NewEngine(deps Dependencies, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		return nil, errors.NewValidationError("MISSING_LOGGER", "logger is required")
	}
	if deps.Sessions == nil {
		return nil, errors.NewValidationError("MISSING_DEPENDENCY", "session service is required")
	}
	if deps.Detection == nil {
		return nil, errors.NewValidationError("MISSING_DEPENDENCY", "detection service is required")
	}
	return &Engine{
		sessions:  deps.Sessions,
		detection: deps.Detection,
		directory: deps.Directory,
		verifier:  deps.Verifier,
		logger:    logger.Named("engine"),
		validate:  validator.New(),
	}, nil
}

func (e *Engine) CreateCrisisAccess(ctx context.Context, req *CreateCrisisAccessRequest) (*session.CreateResult, error) {
	if req == nil {
		return nil, errors.NewValidationError(errors.CodeInvalidRequest, "request is required")
	}
	if err := e.validate.Struct(req); err != nil {
		return nil, invalid(err)
	}
	severity, err := crisis.ParseSeverity(req.Severity)
	if err != nil {
		return nil, errors.NewValidationError(errors.CodeInvalidRequest, err.Error())
	}
	return e.sessions.Create(ctx, &session.CreateRequest{
		DeviceID:   req.DeviceID,
		UserID:     req.UserID,
		CrisisType: crisis.Type(req.CrisisType),
		Severity:   severity,
	})
}

// ValidateAccess reports the decision in the result; denials also return
// the matching domain error.
func (e *Engine) ValidateAccess(ctx context.Context, sessionID, operation string) (*session.AccessResult, error) {
	return e.sessions.ValidateAccess(ctx, sessionID, domainSession.Operation(operation))
}

func (e *Engine) ExecuteCrisisOperation(ctx context.Context, sessionID, operation string, payload json.RawMessage) (*session.ExecuteResult, error) {
	return e.sessions.Execute(ctx, sessionID, domainSession.Operation(operation), payload)
}

func (e *Engine) ResolveCrisisSession(ctx context.Context, sessionID, reason string) error {
	return e.sessions.Resolve(ctx, sessionID, reason)
}

func (e *Engine) CrisisSession(ctx context.Context, sessionID string) (*domainSession.CrisisSession, error) {
	return e.sessions.Get(ctx, sessionID)
}

// DetectCrisis returns an unavailable verdict together with
// DETECTION_UNAVAILABLE when the input cannot be classified.
func (e *Engine) DetectCrisis(ctx context.Context, req *detection.Request) (crisis.Verdict, error) {
	return e.detection.Detect(ctx, req)
}

// ScoreAssessment scores the answers and runs detection on the result.
func (e *Engine) ScoreAssessment(ctx context.Context, req *ScoreAssessmentRequest) (*detection.Assessment, error) {
	if req == nil {
		return nil, errors.NewValidationError(errors.CodeInvalidRequest, "request is required")
	}
	if err := e.validate.Struct(req); err != nil {
		return nil, invalid(err)
	}
	subject := detection.Subject{UserID: req.UserID, DeviceID: req.DeviceID}
	switch assessment.Instrument(req.Instrument) {
	case assessment.InstrumentDepression:
		return e.detection.AssessDepression(ctx, req.Answers, subject)
	default:
		return e.detection.AssessAnxiety(ctx, req.Answers, subject)
	}
}

// EmergencyResources never fails. Without a directory, or for a nil
// engine, it serves the fail-open hotlines.
func (e *Engine) EmergencyResources(ctx context.Context, userID string) Resources {
	res := Resources{Hotlines: directory.FailOpenResources(), Contacts: []directory.Contact{}}
	if e == nil || e.directory == nil {
		return res
	}
	if hotlines := e.directory.Hotlines(); len(hotlines) > 0 {
		res.Hotlines = hotlines
	}
	if contacts := e.directory.Contacts(ctx, userID); contacts != nil {
		res.Contacts = contacts
	}
	return res
}

// VerifyAuditTrail checks the stored hash chain end to end.
func (e *Engine) VerifyAuditTrail(ctx context.Context) (*domainAudit.ChainVerificationResult, error) {
	if e.verifier == nil {
		return nil, errors.NewFeatureDisabledError("audit_verification")
	}
	return e.verifier.Verify(ctx)
}

// ActiveSessions is used by the health endpoint.
func (e *Engine) ActiveSessions() int {
	return e.sessions.Active()
}

func invalid(err error) error {
	appErr := errors.NewValidationError(errors.CodeInvalidRequest, "request failed validation")
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return appErr.WithCause(err)
	}
	details := make(map[string]interface{}, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = fe.Tag()
	}
	return appErr.WithDetails(details)
}
