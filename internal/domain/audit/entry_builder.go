package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/MP2EZ/being-sub003/internal/domain/values"
)

// EntryBuilder provides a fluent interface for creating audit entries
type EntryBuilder struct {
	entry *Entry
}

// NewEntryBuilder starts an entry of the given type at the given time.
// Retention follows the event type's sensitivity tier.
func NewEntryBuilder(eventType EventType, operation string, at time.Time) *EntryBuilder {
	sensitivity := eventType.DefaultSensitivity()
	return &EntryBuilder{entry: &Entry{
		ID:        uuid.New(),
		Timestamp: at.UTC(),
		Type:      eventType,
		Operation: operation,
		Success:   true,
		Compliance: ComplianceMarkers{
			AuditRequired: true,
			RetentionDays: sensitivity.Retention().Days(),
			Sensitivity:   sensitivity,
		},
		Metadata: make(map[string]interface{}),
	}}
}

func (b *EntryBuilder) WithSession(sessionID, deviceID, userID string) *EntryBuilder {
	b.entry.SessionID = sessionID
	b.entry.DeviceID = deviceID
	b.entry.UserID = userID
	return b
}

func (b *EntryBuilder) WithSeverity(severity string) *EntryBuilder {
	b.entry.Severity = severity
	return b
}

func (b *EntryBuilder) WithDuration(d time.Duration) *EntryBuilder {
	b.entry.DurationMs = d.Milliseconds()
	return b
}

// WithOutcome records success, or failure with a reason.
func (b *EntryBuilder) WithOutcome(success bool, reason string) *EntryBuilder {
	b.entry.Success = success
	b.entry.Reason = reason
	return b
}

func (b *EntryBuilder) WithMetadata(key string, value interface{}) *EntryBuilder {
	b.entry.Metadata[key] = value
	return b
}

// WithSensitivity raises the sensitivity tier. Entries are never
// downgraded below their event type's tier.
func (b *EntryBuilder) WithSensitivity(s values.Sensitivity) *EntryBuilder {
	if s == values.SensitivityClinical || b.entry.Compliance.Sensitivity == values.SensitivityOperational {
		b.entry.Compliance.Sensitivity = s
		b.entry.Compliance.RetentionDays = s.Retention().Days()
	}
	return b
}

// Build returns the entry.
func (b *EntryBuilder) Build() *Entry {
	if len(b.entry.Metadata) == 0 {
		b.entry.Metadata = nil
	}
	return b.entry
}
