package crisis

import "strings"

// Keywords are matched case-insensitively as substrings of free text. Each
// phrase counts once however often it appears.
var Keywords = []string{
	"suicide",
	"suicidal",
	"kill myself",
	"end my life",
	"want to die",
	"better off dead",
	"no reason to live",
	"can't go on",
	"cannot go on",
	"hurt myself",
	"self harm",
	"self-harm",
	"overdose",
	"end it all",
	"no way out",
	"hopeless",
}

// BehaviorPatterns are the behavioral warning flags the detector recognises.
var BehaviorPatterns = []string{
	"social_isolation",
	"sleep_disruption",
	"giving_away_possessions",
	"increased_substance_use",
	"reckless_behavior",
	"withdrawal_from_activities",
	"saying_goodbye",
	"sudden_calm",
	"missed_check_ins",
	"mood_decline",
}

var behaviorSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(BehaviorPatterns))
	for _, p := range BehaviorPatterns {
		set[p] = struct{}{}
	}
	return set
}()

// MatchKeywords returns the distinct crisis phrases present in text.
func MatchKeywords(text string) []string {
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)
	lower = strings.ReplaceAll(lower, "’", "'")

	var matches []string
	for _, kw := range Keywords {
		if strings.Contains(lower, kw) {
			matches = append(matches, kw)
		}
	}
	return matches
}

// MatchBehaviors returns the distinct recognised flags in flags. Unknown
// flags are ignored.
func MatchBehaviors(flags []string) []string {
	if len(flags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(flags))
	var matches []string
	for _, f := range flags {
		f = strings.ToLower(strings.TrimSpace(f))
		if _, ok := behaviorSet[f]; !ok {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		matches = append(matches, f)
	}
	return matches
}
