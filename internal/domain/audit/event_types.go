package audit

import "github.com/MP2EZ/being-sub003/internal/domain/values"

// EventType represents the category of audit event
type EventType string

// Crisis session events
const (
	EventSessionCreated     EventType = "crisis.session_created"
	EventAccessGranted      EventType = "crisis.access_granted"
	EventAccessDenied       EventType = "crisis.access_denied"
	EventOperationExecuted  EventType = "crisis.operation_executed"
	EventSessionEscalated   EventType = "crisis.session_escalated"
	EventSessionResolved    EventType = "crisis.session_resolved"
	EventSessionExpired     EventType = "crisis.session_expired"
	EventPerformanceBreach  EventType = "crisis.performance_violation"
	EventSessionRestored    EventType = "crisis.session_restored"
	EventFeatureUnavailable EventType = "crisis.feature_unavailable"
)

// Detection events
const (
	EventDetectionCompleted   EventType = "detection.completed"
	EventDetectionUnavailable EventType = "detection.unavailable"
	EventAssessmentScored     EventType = "detection.assessment_scored"
)

func (et EventType) String() string {
	return string(et)
}

// IsTerminal is true for the events that close a session.
func (et EventType) IsTerminal() bool {
	return et == EventSessionResolved || et == EventSessionExpired
}

// IsClinical reports whether the event carries clinical content and so
// needs the seven year retention tier.
func (et EventType) IsClinical() bool {
	switch et {
	case EventSessionCreated, EventSessionEscalated, EventSessionResolved, EventSessionExpired,
		EventDetectionCompleted, EventDetectionUnavailable, EventAssessmentScored,
		EventSessionRestored:
		return true
	}
	return false
}

// DefaultSensitivity returns the sensitivity tier for the event type.
func (et EventType) DefaultSensitivity() values.Sensitivity {
	if et.IsClinical() {
		return values.SensitivityClinical
	}
	return values.SensitivityOperational
}

func (et EventType) IsValid() bool {
	switch et {
	case EventSessionCreated, EventAccessGranted, EventAccessDenied, EventOperationExecuted,
		EventSessionEscalated, EventSessionResolved, EventSessionExpired, EventPerformanceBreach,
		EventSessionRestored, EventFeatureUnavailable,
		EventDetectionCompleted, EventDetectionUnavailable, EventAssessmentScored:
		return true
	}
	return false
}
