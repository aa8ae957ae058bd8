// Package session models time-boxed crisis access sessions and the static
// operation gate that decides what a session may do.
package session

import (
	"time"

	"github.com/MP2EZ/being-sub003/internal/domain/crisis"
	"github.com/MP2EZ/being-sub003/internal/domain/errors"
)

// TTL is the fixed lifetime of a crisis session.
const TTL = 15 * time.Minute

// State of a crisis session. Active is the only non-terminal state.
type State string

const (
	StateActive   State = "active"
	StateResolved State = "resolved"
	StateExpired  State = "expired"
)

// ReasonTimeout is the resolution reason recorded on expiry.
const ReasonTimeout = "timeout"

// OperationRecord is one entry of the append-only operation log.
type OperationRecord struct {
	Operation Operation     `json:"operation"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// CrisisSession is owned by the session manager; nothing else mutates it.
type CrisisSession struct {
	ID       string `json:"id"`
	DeviceID string `json:"device_id"`
	UserID   string `json:"user_id,omitempty"`

	CrisisType      crisis.Type     `json:"crisis_type"`
	Severity        crisis.Severity `json:"severity"`
	InitialSeverity crisis.Severity `json:"initial_severity"`

	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	LastActivity time.Time `json:"last_activity"`

	Operations          []OperationRecord `json:"operations"`
	AutomaticEscalation bool              `json:"automatic_escalation"`

	State            State      `json:"state"`
	ResolvedAt       *time.Time `json:"resolved_at,omitempty"`
	ResolutionReason string     `json:"resolution_reason,omitempty"`
}

// New creates an active session expiring TTL after now.
func New(id, deviceID, userID string, crisisType crisis.Type, severity crisis.Severity, now time.Time) (*CrisisSession, error) {
	if id == "" {
		return nil, errors.NewValidationError(errors.CodeInvalidRequest, "session id is required")
	}
	if deviceID == "" {
		return nil, errors.NewValidationError(errors.CodeInvalidRequest, "device id is required")
	}
	if !crisisType.IsValid() {
		return nil, errors.NewValidationError(errors.CodeInvalidRequest, "crisis type is invalid").
			WithDetails(map[string]interface{}{"crisis_type": string(crisisType)})
	}
	if !severity.IsValid() {
		return nil, errors.NewValidationError(errors.CodeInvalidRequest, "severity is invalid").
			WithDetails(map[string]interface{}{"severity": severity.String()})
	}

	return &CrisisSession{
		ID:                  id,
		DeviceID:            deviceID,
		UserID:              userID,
		CrisisType:          crisisType,
		Severity:            severity,
		InitialSeverity:     severity,
		CreatedAt:           now,
		ExpiresAt:           now.Add(TTL),
		LastActivity:        now,
		Operations:          make([]OperationRecord, 0, 4),
		AutomaticEscalation: severity.RequiresEscalation(),
		State:               StateActive,
	}, nil
}

// IsExpiredAt treats expiry as authoritative the instant now reaches
// ExpiresAt, whether or not the expiry timer has fired.
func (s *CrisisSession) IsExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

func (s *CrisisSession) IsTerminal() bool {
	return s.State != StateActive
}

// ExecutionCount counts successful executions of op.
func (s *CrisisSession) ExecutionCount(op Operation) int {
	n := 0
	for _, r := range s.Operations {
		if r.Operation == op && r.Success {
			n++
		}
	}
	return n
}

func (s *CrisisSession) Touch(now time.Time) {
	s.LastActivity = now
}

func (s *CrisisSession) Record(rec OperationRecord) {
	s.Operations = append(s.Operations, rec)
}

// Escalate promotes the session to critical with automatic escalation. It
// reports whether anything changed; escalation is never undone.
func (s *CrisisSession) Escalate() bool {
	changed := s.Severity != crisis.SeverityCritical || !s.AutomaticEscalation
	s.Severity = crisis.SeverityCritical
	s.AutomaticEscalation = true
	return changed
}

// Terminate moves an active session to a terminal state. It returns false
// when the session had already terminated.
func (s *CrisisSession) Terminate(state State, reason string, now time.Time) bool {
	if s.IsTerminal() || state == StateActive {
		return false
	}
	s.State = state
	s.ResolutionReason = reason
	at := now
	s.ResolvedAt = &at
	return true
}

// Duration is how long the session has been, or was, open.
func (s *CrisisSession) Duration(now time.Time) time.Duration {
	if s.ResolvedAt != nil {
		return s.ResolvedAt.Sub(s.CreatedAt)
	}
	return now.Sub(s.CreatedAt)
}

// Clone returns a deep copy safe to hand outside the manager.
func (s *CrisisSession) Clone() CrisisSession {
	c := *s
	c.Operations = make([]OperationRecord, len(s.Operations))
	copy(c.Operations, s.Operations)
	if s.ResolvedAt != nil {
		at := *s.ResolvedAt
		c.ResolvedAt = &at
	}
	return c
}
