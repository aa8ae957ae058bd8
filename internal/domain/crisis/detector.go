// Package crisis combines questionnaire scores, the suicidal ideation item,
// free-text keywords and behavioral flags into a single crisis verdict.
package crisis

import (
	"fmt"

	"github.com/MP2EZ/being-sub003/internal/domain/assessment"
	"github.com/MP2EZ/being-sub003/internal/domain/errors"
)

const (
	MinKeywordMatches  = 2
	MinBehaviorMatches = 2
	// SevereBehaviorMatches escalates behavioral warnings from moderate to severe.
	SevereBehaviorMatches = 4
)

// Input is everything the detector may consider. All fields are optional.
type Input struct {
	Depression *assessment.ScoreResult
	Anxiety    *assessment.ScoreResult
	// SuicidalIdeation is the raw answer to depression item 9.
	SuicidalIdeation *int
	Text             string
	BehaviorFlags    []string
}

type ruleHit struct {
	trigger    string
	severity   Severity
	crisisType Type
	confidence float64
	actions    []string
}

// Detect evaluates every rule independently; any rule firing detects a
// crisis. Severity and confidence are the maxima across fired rules and the
// crisis type follows the highest-severity rule (earlier rules win ties).
//
// Input the detector cannot classify yields an unavailable verdict together
// with a DETECTION_UNAVAILABLE error.
func Detect(in Input) (Verdict, error) {
	if err := validateInput(in); err != nil {
		return UnavailableVerdict(err.Error()), errors.NewDetectionUnavailableError(err.Error()).WithCause(err)
	}

	var hits []ruleHit

	if in.SuicidalIdeation != nil && *in.SuicidalIdeation >= 1 {
		hits = append(hits, ruleHit{
			trigger:    fmt.Sprintf("suicidal_ideation_item:%d", *in.SuicidalIdeation),
			severity:   SeverityCritical,
			crisisType: TypeSuicidalIdeation,
			confidence: 0.9 + 0.03*float64(*in.SuicidalIdeation),
			actions:    []string{ActionOfferCrisisLine, ActionNotifyEmergencyContact, ActionStartSafetyPlan},
		})
	}

	if matches := MatchKeywords(in.Text); len(matches) >= MinKeywordMatches {
		hits = append(hits, ruleHit{
			trigger:    fmt.Sprintf("keywords:%d", len(matches)),
			severity:   SeverityCritical,
			crisisType: TypeSuicidalIdeation,
			confidence: minFloat(0.95+0.01*float64(len(matches)-MinKeywordMatches), 0.99),
			actions:    []string{ActionOfferCrisisLine, ActionNotifyEmergencyContact, ActionStartSafetyPlan},
		})
	}

	if in.Depression != nil && in.Depression.AboveCrisisThreshold() {
		hits = append(hits, ruleHit{
			trigger:    fmt.Sprintf("depression_score:%d", in.Depression.Total),
			severity:   SeveritySevere,
			crisisType: TypeSevereDepression,
			confidence: 0.9,
			actions:    []string{ActionOfferCrisisLine, ActionStartSafetyPlan, ActionScheduleFollowUp},
		})
	}

	if in.Anxiety != nil && in.Anxiety.AboveCrisisThreshold() {
		hits = append(hits, ruleHit{
			trigger:    fmt.Sprintf("anxiety_score:%d", in.Anxiety.Total),
			severity:   SeveritySevere,
			crisisType: TypeSevereAnxiety,
			confidence: 0.85,
			actions:    []string{ActionOfferCrisisLine, ActionScheduleFollowUp},
		})
	}

	if matches := MatchBehaviors(in.BehaviorFlags); len(matches) >= MinBehaviorMatches {
		sev := SeverityModerate
		if len(matches) >= SevereBehaviorMatches {
			sev = SeveritySevere
		}
		hits = append(hits, ruleHit{
			trigger:    fmt.Sprintf("behavior_patterns:%d", len(matches)),
			severity:   sev,
			crisisType: TypeBehavioralWarning,
			confidence: minFloat(0.6+0.05*float64(len(matches)), 0.9),
			actions:    []string{ActionStartSafetyPlan, ActionScheduleFollowUp},
		})
	}

	return combine(hits), nil
}

func combine(hits []ruleHit) Verdict {
	if len(hits) == 0 {
		return Verdict{
			Detected:           false,
			Severity:           SeverityNone,
			Confidence:         0,
			RecommendedActions: []string{ActionMonitor},
			Status:             StatusEvaluated,
		}
	}

	v := Verdict{Detected: true, Status: StatusEvaluated}
	seen := map[string]struct{}{ActionShowCrisisResources: {}}
	v.RecommendedActions = []string{ActionShowCrisisResources}

	for _, h := range hits {
		if h.severity > v.Severity {
			v.Severity = h.severity
			v.CrisisType = h.crisisType
		}
		if h.confidence > v.Confidence {
			v.Confidence = h.confidence
		}
		v.Triggers = append(v.Triggers, h.trigger)
		for _, a := range h.actions {
			if _, ok := seen[a]; ok {
				continue
			}
			seen[a] = struct{}{}
			v.RecommendedActions = append(v.RecommendedActions, a)
		}
	}
	return v
}

func validateInput(in Input) error {
	if in.Depression != nil {
		if err := validateScore(*in.Depression, assessment.InstrumentDepression); err != nil {
			return err
		}
	}
	if in.Anxiety != nil {
		if err := validateScore(*in.Anxiety, assessment.InstrumentAnxiety); err != nil {
			return err
		}
	}
	if in.SuicidalIdeation != nil {
		v := *in.SuicidalIdeation
		if v < assessment.MinAnswer || v > assessment.MaxAnswer {
			return fmt.Errorf("suicidal ideation answer %d outside [0,3]", v)
		}
	}
	return nil
}

func validateScore(r assessment.ScoreResult, want assessment.Instrument) error {
	if r.Instrument != want {
		return fmt.Errorf("expected %s score, got %q", want, r.Instrument)
	}
	if r.Total < 0 || r.Total > want.MaxTotal() {
		return fmt.Errorf("%s total %d outside [0,%d]", want, r.Total, want.MaxTotal())
	}
	if r.Band != assessment.BandFor(want, r.Total) {
		return fmt.Errorf("%s band %q inconsistent with total %d", want, r.Band, r.Total)
	}
	return nil
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
