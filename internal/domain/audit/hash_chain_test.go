package audit

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MP2EZ/being-sub003/internal/domain/values"
)

// chainOf builds n chained entries starting at sequence start, anchored on
// anchor.
func chainOf(t *testing.T, n int, start int64, anchor string) []*Entry {
	t.Helper()
	entries := make([]*Entry, 0, n)
	prev := anchor
	for i := 0; i < n; i++ {
		e := NewEntryBuilder(EventOperationExecuted, "emergency_mood_log", now.Add(time.Duration(i)*time.Second)).
			WithSession("session-1", "device-1", "user-1").
			WithMetadata("entry", i+1).
			Build()
		require.NoError(t, e.Chain(start+int64(i), prev))
		prev = e.Hash
		entries = append(entries, e)
	}
	return entries
}

func breakTypes(r *ChainVerificationResult) []BreakType {
	out := make([]BreakType, 0, len(r.Breaks))
	for _, b := range r.Breaks {
		out = append(out, b.BreakType)
	}
	return out
}

func TestVerifyChainTampering(t *testing.T) {
	tests := []struct {
		name   string
		tamper func(entries []*Entry) []*Entry
		want   []BreakType
	}{
		{
			name:   "untouched",
			tamper: func(e []*Entry) []*Entry { return e },
		},
		{
			name: "metadata edited",
			tamper: func(e []*Entry) []*Entry {
				e[3].Metadata["entry"] = 99
				return e
			},
			want: []BreakType{BreakTypeHashMismatch},
		},
		{
			name: "severity rewritten",
			tamper: func(e []*Entry) []*Entry {
				e[1].Severity = "mild"
				return e
			},
			want: []BreakType{BreakTypeHashMismatch},
		},
		{
			name: "user reattributed",
			tamper: func(e []*Entry) []*Entry {
				e[1].UserID = "user-2"
				return e
			},
			want: []BreakType{BreakTypeHashMismatch},
		},
		{
			name: "device reattributed",
			tamper: func(e []*Entry) []*Entry {
				e[4].DeviceID = "device-2"
				return e
			},
			want: []BreakType{BreakTypeHashMismatch},
		},
		{
			name: "sensitivity changed",
			tamper: func(e []*Entry) []*Entry {
				e[2].Compliance.Sensitivity = values.SensitivityPersonal
				return e
			},
			want: []BreakType{BreakTypeHashMismatch},
		},
		{
			name: "audit requirement cleared",
			tamper: func(e []*Entry) []*Entry {
				e[0].Compliance.AuditRequired = false
				return e
			},
			want: []BreakType{BreakTypeHashMismatch},
		},
		{
			name: "entry removed",
			tamper: func(e []*Entry) []*Entry {
				return append(e[:2:2], e[3:]...)
			},
			want: []BreakType{BreakTypeSequenceGap, BreakTypeLinkMismatch},
		},
		{
			name: "entry rehashed after edit",
			tamper: func(e []*Entry) []*Entry {
				e[2].Reason = "edited"
				e[2].Hash = ""
				require.NoError(t, e[2].Chain(e[2].Sequence, e[2].PreviousHash))
				return e
			},
			want: []BreakType{BreakTypeLinkMismatch},
		},
		{
			name: "entry without id",
			tamper: func(e []*Entry) []*Entry {
				e[0].ID = uuid.Nil
				return e
			},
			want: []BreakType{BreakTypeInvalidEntry},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := tt.tamper(chainOf(t, 6, 1, ""))
			result := VerifyChain(entries)
			assert.Equal(t, len(tt.want) == 0, result.IsValid)
			assert.ElementsMatch(t, tt.want, breakTypes(result))
		})
	}
}

func TestVerifyChainOrderIndependent(t *testing.T) {
	entries := chainOf(t, 20, 1, "")
	shuffled := make([]*Entry, len(entries))
	copy(shuffled, entries)
	rand.New(rand.NewSource(7)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	result := VerifyChain(shuffled)
	assert.True(t, result.IsValid)
	assert.Equal(t, 20, result.EntriesVerified)
	assert.Equal(t, int64(1), result.StartSequence)
	assert.Equal(t, int64(20), result.EndSequence)
}

func TestVerifyChainPartialRange(t *testing.T) {
	// A window read from the middle of the trail trusts its first link.
	entries := chainOf(t, 5, 100, fmt.Sprintf("%064x", 42))

	result := VerifyChain(entries)
	assert.True(t, result.IsValid)
	assert.Equal(t, int64(100), result.StartSequence)
	assert.Equal(t, int64(104), result.EndSequence)
}

func TestVerifyChainReportsLocation(t *testing.T) {
	entries := chainOf(t, 4, 1, "")
	entries[2].Success = false

	result := VerifyChain(entries)
	require.Len(t, result.Breaks, 1)
	assert.Equal(t, entries[2].ID.String(), result.Breaks[0].EntryID)
	assert.Equal(t, int64(3), result.Breaks[0].Sequence)
	assert.NotEmpty(t, result.Breaks[0].Description)
}
