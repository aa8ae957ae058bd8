package session

import (
	"time"

	"github.com/MP2EZ/being-sub003/internal/domain/crisis"
	"github.com/MP2EZ/being-sub003/internal/domain/session"
)

// Config holds manager tunables.
type Config struct {
	Enabled           bool
	GraceWindow       time.Duration // terminated sessions stay readable this long
	SweepInterval     time.Duration
	PerformanceBudget time.Duration // budget for Create and ValidateAccess
}

func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		GraceWindow:       5 * time.Minute,
		SweepInterval:     2 * time.Minute,
		PerformanceBudget: 200 * time.Millisecond,
	}
}

// Emergency protocols attached to a new session.
const (
	ProtocolDisplayResources      = "display_crisis_resources"
	ProtocolNotifyContact         = "notify_emergency_contact"
	ProtocolOfferCrisisLine       = "offer_crisis_line_connection"
	defaultResolutionReason       = "resolved"
	escalationReasonInitial       = "initial_severity"
	escalationReasonImmediateRisk = "immediate_risk"
)

// EmergencyProtocols lists the protocols implied by severity.
func EmergencyProtocols(severity crisis.Severity) []string {
	protocols := []string{ProtocolDisplayResources}
	if severity >= crisis.SeveritySevere {
		protocols = append(protocols, ProtocolNotifyContact)
	}
	if severity == crisis.SeverityCritical {
		protocols = append(protocols, ProtocolOfferCrisisLine)
	}
	return protocols
}

type CreateRequest struct {
	DeviceID   string          `json:"device_id" validate:"required,max=128"`
	UserID     string          `json:"user_id,omitempty" validate:"omitempty,max=128"`
	CrisisType crisis.Type     `json:"crisis_type" validate:"required"`
	Severity   crisis.Severity `json:"severity" validate:"required"`
}

type CreateResult struct {
	SessionID           string              `json:"session_id"`
	AllowedOperations   []session.Operation `json:"allowed_operations"`
	ExpiresAt           time.Time           `json:"expires_at"`
	EmergencyProtocols  []string            `json:"emergency_protocols"`
	AutomaticEscalation bool                `json:"automatic_escalation"`
}

// AccessResult reports an admission decision. Reason is the error code when
// access is denied.
type AccessResult struct {
	Allowed   bool              `json:"allowed"`
	Reason    string            `json:"reason,omitempty"`
	Operation session.Operation `json:"operation"`
	// Remaining executions before the cap; -1 when uncapped.
	Remaining int       `json:"remaining"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

type ExecuteResult struct {
	Success   bool                   `json:"success"`
	Operation session.Operation      `json:"operation"`
	Result    map[string]interface{} `json:"result,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Escalated bool                   `json:"escalated"`
	Severity  crisis.Severity        `json:"severity"`
}

// MoodEntry is the emergency_mood_log payload.
type MoodEntry struct {
	Rating int    `json:"rating" validate:"min=1,max=10"`
	Note   string `json:"note,omitempty" validate:"max=4000"`
}

// SafetyAnswers is the safety_assessment payload.
type SafetyAnswers struct {
	HasThoughts bool  `json:"has_thoughts"`
	HasPlan     bool  `json:"has_plan"`
	HasMeans    bool  `json:"has_means"`
	FeelsSafe   *bool `json:"feels_safe,omitempty"`
}

// ImmediateRisk is a plan together with available means.
func (a SafetyAnswers) ImmediateRisk() bool {
	return a.HasPlan && a.HasMeans
}
