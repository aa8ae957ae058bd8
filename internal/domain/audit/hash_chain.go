package audit

import (
	"fmt"
	"sort"
)

// BreakType classifies a detected chain break
type BreakType string

const (
	BreakTypeSequenceGap  BreakType = "sequence_gap"
	BreakTypeHashMismatch BreakType = "hash_mismatch"
	BreakTypeLinkMismatch BreakType = "link_mismatch"
	BreakTypeInvalidEntry BreakType = "invalid_entry"
)

// ChainBreak describes one integrity violation
type ChainBreak struct {
	EntryID     string    `json:"entry_id"`
	Sequence    int64     `json:"sequence"`
	BreakType   BreakType `json:"break_type"`
	Description string    `json:"description"`
}

// ChainVerificationResult summarises a verification run
type ChainVerificationResult struct {
	IsValid         bool          `json:"is_valid"`
	EntriesVerified int           `json:"entries_verified"`
	StartSequence   int64         `json:"start_sequence"`
	EndSequence     int64         `json:"end_sequence"`
	Breaks          []*ChainBreak `json:"breaks,omitempty"`
}

// VerifyChain checks sequence continuity, predecessor links and recomputed
// hashes for a contiguous run of entries. The first entry's PreviousHash is
// trusted as the anchor.
func VerifyChain(entries []*Entry) *ChainVerificationResult {
	result := &ChainVerificationResult{IsValid: true}
	if len(entries) == 0 {
		return result
	}

	sorted := make([]*Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Sequence < sorted[j].Sequence })

	result.StartSequence = sorted[0].Sequence
	result.EndSequence = sorted[len(sorted)-1].Sequence

	addBreak := func(e *Entry, bt BreakType, desc string) {
		result.IsValid = false
		result.Breaks = append(result.Breaks, &ChainBreak{
			EntryID:     e.ID.String(),
			Sequence:    e.Sequence,
			BreakType:   bt,
			Description: desc,
		})
	}

	for i, e := range sorted {
		result.EntriesVerified++

		if err := e.Validate(); err != nil {
			addBreak(e, BreakTypeInvalidEntry, err.Error())
			continue
		}

		if i > 0 {
			prev := sorted[i-1]
			if e.Sequence != prev.Sequence+1 {
				addBreak(e, BreakTypeSequenceGap,
					fmt.Sprintf("expected sequence %d, got %d", prev.Sequence+1, e.Sequence))
			}
			if e.PreviousHash != prev.Hash {
				addBreak(e, BreakTypeLinkMismatch, "previous hash does not match predecessor")
			}
		}

		want, err := e.ComputeHash(e.PreviousHash)
		if err != nil {
			addBreak(e, BreakTypeInvalidEntry, err.Error())
			continue
		}
		if want != e.Hash {
			addBreak(e, BreakTypeHashMismatch, "stored hash does not match entry contents")
		}
	}

	return result
}
