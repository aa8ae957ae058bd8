package detection

import (
	"github.com/MP2EZ/being-sub003/internal/domain/assessment"
	"github.com/MP2EZ/being-sub003/internal/domain/crisis"
)

// Subject identifies who an evaluation is about. Both fields are optional.
type Subject struct {
	UserID   string `json:"user_id,omitempty"`
	DeviceID string `json:"device_id,omitempty"`
}

// Request carries raw detection input. Scores are questionnaire totals.
type Request struct {
	Text             string   `json:"text,omitempty"`
	DepressionScore  *int     `json:"depression_score,omitempty"`
	AnxietyScore     *int     `json:"anxiety_score,omitempty"`
	SuicidalIdeation *int     `json:"suicidal_ideation,omitempty"`
	BehaviorFlags    []string `json:"behavior_flags,omitempty"`
	Subject
}

// Assessment is a scored questionnaire and the verdict derived from it.
type Assessment struct {
	Score   assessment.ScoreResult `json:"score"`
	Verdict crisis.Verdict         `json:"verdict"`
}

func (r *Request) input() crisis.Input {
	in := crisis.Input{
		Text:             r.Text,
		SuicidalIdeation: r.SuicidalIdeation,
		BehaviorFlags:    r.BehaviorFlags,
	}
	if r.DepressionScore != nil {
		in.Depression = totalToResult(assessment.InstrumentDepression, *r.DepressionScore)
	}
	if r.AnxietyScore != nil {
		in.Anxiety = totalToResult(assessment.InstrumentAnxiety, *r.AnxietyScore)
	}
	return in
}

// totalToResult does not range check; out of range totals are rejected by
// the detector as unclassifiable input.
func totalToResult(instrument assessment.Instrument, total int) *assessment.ScoreResult {
	return &assessment.ScoreResult{
		Total:      total,
		Band:       assessment.BandFor(instrument, total),
		Instrument: instrument,
	}
}
