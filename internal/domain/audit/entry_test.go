package audit

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MP2EZ/being-sub003/internal/domain/values"
)

var now = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

func buildEntry(eventType EventType) *Entry {
	return NewEntryBuilder(eventType, "crisis_button", now).
		WithSession("session-1", "device-1", "").
		WithSeverity("critical").
		WithDuration(12 * time.Millisecond).
		WithMetadata("escalated", true).
		Build()
}

func TestEntryBuilderRetention(t *testing.T) {
	clinical := buildEntry(EventSessionResolved)
	assert.Equal(t, values.SensitivityClinical, clinical.Compliance.Sensitivity)
	assert.Equal(t, values.ClinicalRetentionDays, clinical.Compliance.RetentionDays)
	assert.True(t, clinical.Compliance.AuditRequired)

	operational := buildEntry(EventAccessDenied)
	assert.Equal(t, values.SensitivityOperational, operational.Compliance.Sensitivity)
	assert.Equal(t, values.OperationalRetentionDays, operational.Compliance.RetentionDays)

	raised := NewEntryBuilder(EventOperationExecuted, "safety_assessment", now).
		WithSensitivity(values.SensitivityClinical).Build()
	assert.Equal(t, values.ClinicalRetentionDays, raised.Compliance.RetentionDays)

	notLowered := NewEntryBuilder(EventSessionCreated, "create", now).
		WithSensitivity(values.SensitivityOperational).Build()
	assert.True(t, notLowered.IsClinical())

	empty := NewEntryBuilder(EventAccessGranted, "view_crisis_plan", now).Build()
	assert.Nil(t, empty.Metadata)
	assert.Equal(t, int64(0), empty.DurationMs)
}

func TestEntryValidate(t *testing.T) {
	e := buildEntry(EventOperationExecuted)
	require.NoError(t, e.Validate())

	bad := *e
	bad.ID = uuid.Nil
	assert.Error(t, bad.Validate())

	bad = *e
	bad.Type = "nonsense"
	assert.Error(t, bad.Validate())

	bad = *e
	bad.Compliance = ComplianceMarkers{RetentionDays: 30, Sensitivity: values.SensitivityClinical}
	assert.Error(t, bad.Validate())
}

func TestChainAndVerify(t *testing.T) {
	var entries []*Entry
	prev := ""
	for i := 0; i < 5; i++ {
		e := buildEntry(EventOperationExecuted)
		require.NoError(t, e.Chain(int64(i+1), prev))
		prev = e.Hash
		entries = append(entries, e)
	}

	result := VerifyChain(entries)
	assert.True(t, result.IsValid)
	assert.Equal(t, 5, result.EntriesVerified)
	assert.Equal(t, int64(1), result.StartSequence)
	assert.Equal(t, int64(5), result.EndSequence)

	assert.Error(t, entries[0].Chain(9, ""), "chained entries are immutable")

	entries[2].Success = false
	result = VerifyChain(entries)
	assert.False(t, result.IsValid)
	require.Len(t, result.Breaks, 1)
	assert.Equal(t, BreakTypeHashMismatch, result.Breaks[0].BreakType)
}

func TestVerifyDetectsGapAndBrokenLink(t *testing.T) {
	a := buildEntry(EventSessionCreated)
	require.NoError(t, a.Chain(1, ""))
	b := buildEntry(EventSessionResolved)
	require.NoError(t, b.Chain(3, "not-a's-hash"))

	result := VerifyChain([]*Entry{b, a})
	assert.False(t, result.IsValid)

	types := map[BreakType]bool{}
	for _, br := range result.Breaks {
		types[br.BreakType] = true
	}
	assert.True(t, types[BreakTypeSequenceGap])
	assert.True(t, types[BreakTypeLinkMismatch])

	assert.True(t, VerifyChain(nil).IsValid)
}

func TestComputeHashCoversSealedMetadata(t *testing.T) {
	e := buildEntry(EventOperationExecuted)
	plain, err := e.ComputeHash("")
	require.NoError(t, err)

	e.SealedMetadata = []byte{1, 2, 3}
	e.Metadata = nil
	sealed, err := e.ComputeHash("")
	require.NoError(t, err)
	assert.NotEqual(t, plain, sealed)
}

func TestEventTypeClassification(t *testing.T) {
	assert.True(t, EventSessionExpired.IsTerminal())
	assert.False(t, EventOperationExecuted.IsTerminal())
	assert.True(t, EventDetectionCompleted.IsClinical())
	assert.False(t, EventAccessDenied.IsClinical())
	assert.False(t, EventType("x").IsValid())
}
