package crisis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MP2EZ/being-sub003/internal/domain/assessment"
	"github.com/MP2EZ/being-sub003/internal/domain/errors"
	"github.com/MP2EZ/being-sub003/internal/testutil"
)

func mustScore(t testing.TB, answers []int, instrument assessment.Instrument) *assessment.ScoreResult {
	t.Helper()
	r, err := assessment.Score(answers, instrument)
	require.NoError(t, err)
	return &r
}

func depressionInput(t testing.TB, answers []int) Input {
	item9, _ := assessment.SuicidalIdeationAnswer(answers, assessment.InstrumentDepression)
	return Input{
		Depression:       mustScore(t, answers, assessment.InstrumentDepression),
		SuicidalIdeation: &item9,
	}
}

func TestDetectEndToEndScenarios(t *testing.T) {
	t.Run("depression all threes", func(t *testing.T) {
		in := depressionInput(t, []int{3, 3, 3, 3, 3, 3, 3, 3, 3})
		assert.Equal(t, 27, in.Depression.Total)
		assert.Equal(t, assessment.BandSevere, in.Depression.Band)

		v, err := Detect(in)
		require.NoError(t, err)
		assert.True(t, v.Detected)
		// item 9 is 3, so the suicidal ideation rule dominates
		assert.Equal(t, SeverityCritical, v.Severity)
		assert.Equal(t, TypeSuicidalIdeation, v.CrisisType)
	})

	t.Run("anxiety all threes", func(t *testing.T) {
		anxiety := mustScore(t, []int{3, 3, 3, 3, 3, 3, 3}, assessment.InstrumentAnxiety)
		assert.Equal(t, 21, anxiety.Total)
		assert.Equal(t, assessment.BandSevere, anxiety.Band)

		v, err := Detect(Input{Anxiety: anxiety})
		require.NoError(t, err)
		assert.True(t, v.Detected)
		assert.Equal(t, SeveritySevere, v.Severity)
		assert.Equal(t, TypeSevereAnxiety, v.CrisisType)
	})

	t.Run("depression all zero", func(t *testing.T) {
		in := depressionInput(t, testutil.Answers(9, 0))
		assert.Equal(t, 0, in.Depression.Total)
		assert.Equal(t, assessment.BandMinimal, in.Depression.Band)

		v, err := Detect(in)
		require.NoError(t, err)
		assert.False(t, v.Detected)
		assert.Equal(t, StatusEvaluated, v.Status)
		assert.Equal(t, SeverityNone, v.Severity)
	})
}

func TestSuicidalIdeationOverridesMinimalScore(t *testing.T) {
	in := depressionInput(t, []int{0, 0, 0, 0, 0, 0, 0, 0, 1})
	assert.Equal(t, 1, in.Depression.Total)
	assert.Equal(t, assessment.BandMinimal, in.Depression.Band)

	v, err := Detect(in)
	require.NoError(t, err)
	assert.True(t, v.Detected)
	assert.Equal(t, SeverityCritical, v.Severity)
	assert.Equal(t, TypeSuicidalIdeation, v.CrisisType)
	assert.Contains(t, v.RecommendedActions, ActionOfferCrisisLine)
}

// Walks every one of the 4^9 depression answer sets.
func TestDetectExhaustiveDepression(t *testing.T) {
	if testing.Short() {
		t.Skip("exhaustive sweep skipped in short mode")
	}
	answers := make([]int, 9)
	for n := 0; n < 1<<18; n++ {
		total := 0
		for i := range answers {
			answers[i] = (n >> (2 * i)) & 3
			total += answers[i]
		}
		in := depressionInput(t, answers)
		v, err := Detect(in)
		if err != nil {
			t.Fatalf("answers %v: unexpected error %v", answers, err)
		}

		item9 := answers[8]
		wantDetected := total >= 20 || item9 >= 1
		var wantSeverity Severity
		switch {
		case item9 >= 1:
			wantSeverity = SeverityCritical
		case total >= 20:
			wantSeverity = SeveritySevere
		default:
			wantSeverity = SeverityNone
		}

		if v.Detected != wantDetected || v.Severity != wantSeverity {
			t.Fatalf("answers %v (total %d): detected=%v severity=%v, want %v/%v",
				answers, total, v.Detected, v.Severity, wantDetected, wantSeverity)
		}
	}
}

func TestDetectAnxietyThreshold(t *testing.T) {
	answers := make([]int, 7)
	for n := 0; n < 1<<14; n++ {
		total := 0
		for i := range answers {
			answers[i] = (n >> (2 * i)) & 3
			total += answers[i]
		}
		v, err := Detect(Input{Anxiety: mustScore(t, answers, assessment.InstrumentAnxiety)})
		require.NoError(t, err)
		if v.Detected != (total >= 15) {
			t.Fatalf("answers %v (total %d): detected=%v", answers, total, v.Detected)
		}
	}
}

func TestKeywordRule(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		detected bool
	}{
		{"no keywords", "had a rough day at work", false},
		{"single keyword", "I feel hopeless about the exam", false},
		{"two keywords", "I feel hopeless and want to die", true},
		{"case insensitive", "I WANT TO DIE, there is NO WAY OUT", true},
		{"repeated single keyword counts once", "hopeless hopeless hopeless", false},
		{"curly apostrophe", "I can’t go on, I might overdose", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Detect(Input{Text: tt.text})
			require.NoError(t, err)
			assert.Equal(t, tt.detected, v.Detected)
			if tt.detected {
				assert.Equal(t, SeverityCritical, v.Severity)
				assert.GreaterOrEqual(t, v.Confidence, 0.95)
			}
		})
	}
}

func TestBehaviorRule(t *testing.T) {
	v, err := Detect(Input{BehaviorFlags: []string{"social_isolation"}})
	require.NoError(t, err)
	assert.False(t, v.Detected)

	v, err = Detect(Input{BehaviorFlags: []string{"social_isolation", "sleep_disruption", "unknown_flag"}})
	require.NoError(t, err)
	assert.True(t, v.Detected)
	assert.Equal(t, SeverityModerate, v.Severity)
	assert.Equal(t, TypeBehavioralWarning, v.CrisisType)

	v, err = Detect(Input{BehaviorFlags: []string{
		"social_isolation", "sleep_disruption", "saying_goodbye", "giving_away_possessions",
	}})
	require.NoError(t, err)
	assert.Equal(t, SeveritySevere, v.Severity)

	v, err = Detect(Input{BehaviorFlags: []string{"social_isolation", "social_isolation"}})
	require.NoError(t, err)
	assert.False(t, v.Detected, "duplicate flags count once")
}

func TestCombinedRulesTakeMaximum(t *testing.T) {
	anxiety := mustScore(t, []int{3, 3, 3, 3, 3, 0, 0}, assessment.InstrumentAnxiety)
	v, err := Detect(Input{
		Anxiety:       anxiety,
		BehaviorFlags: []string{"social_isolation", "sleep_disruption"},
		Text:          "I want to end it all, I feel hopeless",
	})
	require.NoError(t, err)
	assert.True(t, v.Detected)
	assert.Equal(t, SeverityCritical, v.Severity)
	assert.GreaterOrEqual(t, v.Confidence, 0.95)
	assert.Len(t, v.Triggers, 3)
	assert.Equal(t, ActionShowCrisisResources, v.RecommendedActions[0])
}

func TestMalformedInputIsUnavailable(t *testing.T) {
	tests := []struct {
		name string
		in   Input
	}{
		{"depression total too high", Input{Depression: &assessment.ScoreResult{
			Total: 30, Band: assessment.BandSevere, Instrument: assessment.InstrumentDepression}}},
		{"negative anxiety", Input{Anxiety: &assessment.ScoreResult{
			Total: -1, Band: assessment.BandMinimal, Instrument: assessment.InstrumentAnxiety}}},
		{"wrong instrument", Input{Depression: &assessment.ScoreResult{
			Total: 3, Band: assessment.BandMinimal, Instrument: assessment.InstrumentAnxiety}}},
		{"band mismatch", Input{Depression: &assessment.ScoreResult{
			Total: 22, Band: assessment.BandMild, Instrument: assessment.InstrumentDepression}}},
		{"item nine out of range", Input{SuicidalIdeation: testutil.Ptr(7)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Detect(tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrDetectionUnavailable)
			assert.True(t, v.Unavailable())
			assert.False(t, v.Detected)
			assert.Contains(t, v.RecommendedActions, ActionShowCrisisResources)
		})
	}
}

func TestSeverityText(t *testing.T) {
	for _, s := range []Severity{SeverityNone, SeverityMild, SeverityModerate, SeveritySevere, SeverityCritical} {
		b, err := s.MarshalText()
		require.NoError(t, err)
		var back Severity
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, s, back)
	}
	_, err := ParseSeverity("apocalyptic")
	assert.Error(t, err)
	assert.True(t, SeveritySevere.RequiresEscalation())
	assert.False(t, SeverityModerate.RequiresEscalation())
}

func BenchmarkDetect(b *testing.B) {
	in := depressionInput(b, []int{2, 2, 2, 2, 2, 2, 2, 2, 1})
	in.Text = "some free text about a hard day"
	for i := 0; i < b.N; i++ {
		_, _ = Detect(in)
	}
}
