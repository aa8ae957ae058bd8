package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/MP2EZ/being-sub003/internal/domain/audit"
)

const verifyPageSize = 500

// IntegrityChecker walks the stored chain and reports breaks.
type IntegrityChecker struct {
	repo   QueryRepository
	logger *zap.Logger
}

func NewIntegrityChecker(repo QueryRepository, logger *zap.Logger) *IntegrityChecker {
	return &IntegrityChecker{repo: repo, logger: logger}
}

// Verify checks every entry from sequence 1, including the links across
// page boundaries. The first entry must link to the empty genesis hash.
func (c *IntegrityChecker) Verify(ctx context.Context) (*audit.ChainVerificationResult, error) {
	total := &audit.ChainVerificationResult{IsValid: true}
	from := int64(1)
	expectedPrev := ""

	for {
		page, err := c.repo.Range(ctx, from, verifyPageSize)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		if page[0].PreviousHash != expectedPrev {
			total.IsValid = false
			total.Breaks = append(total.Breaks, &audit.ChainBreak{
				EntryID:     page[0].ID.String(),
				Sequence:    page[0].Sequence,
				BreakType:   audit.BreakTypeLinkMismatch,
				Description: "entry does not link to its predecessor",
			})
		}

		result := audit.VerifyChain(page)
		if total.EntriesVerified == 0 {
			total.StartSequence = result.StartSequence
		}
		total.EndSequence = result.EndSequence
		total.EntriesVerified += len(page)
		if !result.IsValid {
			total.IsValid = false
			total.Breaks = append(total.Breaks, result.Breaks...)
		}

		if len(page) < verifyPageSize {
			break
		}
		last := page[len(page)-1]
		from = last.Sequence + 1
		expectedPrev = last.Hash
	}

	if !total.IsValid {
		c.logger.Error("audit chain verification failed",
			zap.Int("breaks", len(total.Breaks)),
			zap.Int64("start_sequence", total.StartSequence),
			zap.Int64("end_sequence", total.EndSequence))
	}
	return total, nil
}
