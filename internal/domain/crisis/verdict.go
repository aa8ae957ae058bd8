package crisis

import (
	"fmt"
	"strings"
)

// Severity orders crisis severity. The zero value means no crisis.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityMild
	SeverityModerate
	SeveritySevere
	SeverityCritical
)

var severityNames = map[Severity]string{
	SeverityNone:     "none",
	SeverityMild:     "mild",
	SeverityModerate: "moderate",
	SeveritySevere:   "severe",
	SeverityCritical: "critical",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// IsValid reports whether s is a real crisis severity (not None).
func (s Severity) IsValid() bool {
	return s >= SeverityMild && s <= SeverityCritical
}

// RequiresEscalation is true for severe and critical sessions.
func (s Severity) RequiresEscalation() bool {
	return s >= SeveritySevere
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	parsed, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func ParseSeverity(v string) (Severity, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	for s, name := range severityNames {
		if name == v {
			return s, nil
		}
	}
	return SeverityNone, fmt.Errorf("unknown severity %q", v)
}

// MaxSeverity returns the higher of two severities.
func MaxSeverity(a, b Severity) Severity {
	if a > b {
		return a
	}
	return b
}

// Type classifies what kind of crisis a verdict describes.
type Type string

const (
	TypeNone              Type = ""
	TypeSuicidalIdeation  Type = "suicidal_ideation"
	TypeSevereDepression  Type = "severe_depression"
	TypeSevereAnxiety     Type = "severe_anxiety"
	TypeBehavioralWarning Type = "behavioral_warning"
	TypeAcuteDistress     Type = "acute_distress"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeSuicidalIdeation, TypeSevereDepression, TypeSevereAnxiety,
		TypeBehavioralWarning, TypeAcuteDistress:
		return true
	}
	return false
}

// Status distinguishes "evaluated" from "could not evaluate".
type Status string

const (
	StatusEvaluated   Status = "evaluated"
	StatusUnavailable Status = "unavailable"
)

// Recommended actions
const (
	ActionShowCrisisResources    = "show_crisis_resources"
	ActionOfferCrisisLine        = "offer_crisis_line_connection"
	ActionNotifyEmergencyContact = "notify_emergency_contact"
	ActionStartSafetyPlan        = "start_safety_plan"
	ActionScheduleFollowUp       = "schedule_follow_up"
	ActionMonitor                = "continue_monitoring"
	ActionDetectionUnavailable   = "treat_detection_as_unavailable"
)

// Verdict is produced once per evaluation and never mutated afterwards.
type Verdict struct {
	Detected           bool     `json:"detected"`
	Severity           Severity `json:"severity"`
	CrisisType         Type     `json:"crisis_type,omitempty"`
	Confidence         float64  `json:"confidence"`
	RecommendedActions []string `json:"recommended_actions"`
	Triggers           []string `json:"triggers,omitempty"`
	Status             Status   `json:"status"`
}

// Unavailable reports whether detection could not run. Callers must not
// read Detected=false on an unavailable verdict as "safe".
func (v Verdict) Unavailable() bool {
	return v.Status == StatusUnavailable
}

// UnavailableVerdict is returned when the detector cannot classify its input.
func UnavailableVerdict(reason string) Verdict {
	return Verdict{
		Detected:           false,
		Severity:           SeverityNone,
		Confidence:         0,
		RecommendedActions: []string{ActionDetectionUnavailable, ActionShowCrisisResources},
		Triggers:           []string{"unavailable:" + reason},
		Status:             StatusUnavailable,
	}
}
