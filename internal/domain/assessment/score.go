package assessment

import (
	"fmt"

	"github.com/MP2EZ/being-sub003/internal/domain/errors"
)

// ScoreResult is the outcome of scoring one questionnaire.
type ScoreResult struct {
	Total      int          `json:"total"`
	Band       SeverityBand `json:"severity_band"`
	Instrument Instrument   `json:"instrument"`
}

// AboveCrisisThreshold reports whether the total alone signals a crisis.
func (r ScoreResult) AboveCrisisThreshold() bool {
	return r.Instrument.IsValid() && r.Total >= r.Instrument.CrisisThreshold()
}

// Score sums the answers and derives the severity band. Any answer outside
// [0,3], a count that does not match the instrument, or an unknown
// instrument fails with INVALID_ANSWER. Inputs are never corrected.
func Score(answers []int, instrument Instrument) (ScoreResult, error) {
	want := instrument.ItemCount()
	if want == 0 {
		return ScoreResult{}, errors.NewInvalidAnswerError(
			fmt.Sprintf("unknown instrument %q", instrument))
	}
	if len(answers) != want {
		return ScoreResult{}, errors.NewInvalidAnswerError(
			fmt.Sprintf("%s instrument requires %d answers, got %d", instrument, want, len(answers))).
			WithDetails(map[string]interface{}{"expected": want, "actual": len(answers)})
	}

	total := 0
	for i, a := range answers {
		if a < MinAnswer || a > MaxAnswer {
			return ScoreResult{}, errors.NewInvalidAnswerError(
				fmt.Sprintf("answer %d is %d, must be within [%d,%d]", i+1, a, MinAnswer, MaxAnswer)).
				WithDetails(map[string]interface{}{"item": i + 1, "value": a})
		}
		total += a
	}

	return ScoreResult{
		Total:      total,
		Band:       BandFor(instrument, total),
		Instrument: instrument,
	}, nil
}

// SuicidalIdeationAnswer returns the answer to the suicidal ideation item of
// a depression answer set. ok is false for any other instrument or length.
func SuicidalIdeationAnswer(answers []int, instrument Instrument) (value int, ok bool) {
	if instrument != InstrumentDepression || len(answers) != instrument.ItemCount() {
		return 0, false
	}
	return answers[SuicidalIdeationItem-1], true
}
