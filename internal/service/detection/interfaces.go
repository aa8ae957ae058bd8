package detection

import (
	"context"

	"github.com/MP2EZ/being-sub003/internal/domain/assessment"
	"github.com/MP2EZ/being-sub003/internal/domain/audit"
	"github.com/MP2EZ/being-sub003/internal/domain/crisis"
)

// Service defines the crisis detection service interface
type Service interface {
	// Detect evaluates raw scores, free text and behavior flags. An
	// unavailable verdict is returned together with DETECTION_UNAVAILABLE.
	Detect(ctx context.Context, req *Request) (crisis.Verdict, error)
	// Score scores one questionnaire without running detection
	Score(ctx context.Context, answers []int, instrument assessment.Instrument, subject Subject) (assessment.ScoreResult, error)
	// AssessDepression scores depression answers and runs detection, taking
	// the suicidal ideation answer from the answers themselves
	AssessDepression(ctx context.Context, answers []int, subject Subject) (*Assessment, error)
	// AssessAnxiety scores anxiety answers and runs detection
	AssessAnxiety(ctx context.Context, answers []int, subject Subject) (*Assessment, error)
}

// AuditRecorder receives one entry per evaluation.
type AuditRecorder interface {
	Record(ctx context.Context, entry *audit.Entry)
}
