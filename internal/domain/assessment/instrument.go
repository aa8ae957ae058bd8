// Package assessment scores the standardized depression (9 item) and anxiety
// (7 item) questionnaires and maps totals onto clinical severity bands.
package assessment

import "fmt"

// Instrument identifies a questionnaire.
type Instrument string

const (
	InstrumentDepression Instrument = "depression"
	InstrumentAnxiety    Instrument = "anxiety"
)

const (
	MinAnswer = 0
	MaxAnswer = 3

	// SuicidalIdeationItem is the 1-based index of the depression item whose
	// answer alone can trigger critical severity.
	SuicidalIdeationItem = 9
)

// ItemCount returns the fixed number of answers for the instrument, or 0
// when the instrument is unknown.
func (i Instrument) ItemCount() int {
	switch i {
	case InstrumentDepression:
		return 9
	case InstrumentAnxiety:
		return 7
	}
	return 0
}

// MaxTotal is the highest reachable score.
func (i Instrument) MaxTotal() int {
	return i.ItemCount() * MaxAnswer
}

// CrisisThreshold is the total at or above which the score alone signals a
// crisis.
func (i Instrument) CrisisThreshold() int {
	switch i {
	case InstrumentDepression:
		return 20
	case InstrumentAnxiety:
		return 15
	}
	return 0
}

func (i Instrument) IsValid() bool {
	return i.ItemCount() > 0
}

func ParseInstrument(v string) (Instrument, error) {
	i := Instrument(v)
	if !i.IsValid() {
		return "", fmt.Errorf("unknown instrument %q", v)
	}
	return i, nil
}

// SeverityBand is the discrete clinical category derived from a total.
type SeverityBand string

const (
	BandMinimal          SeverityBand = "minimal"
	BandMild             SeverityBand = "mild"
	BandModerate         SeverityBand = "moderate"
	BandModeratelySevere SeverityBand = "moderately_severe"
	BandSevere           SeverityBand = "severe"
)

type breakpoint struct {
	lower int
	band  SeverityBand
}

// Lower bounds are inclusive; each band runs to the next lower bound.
var (
	depressionBands = []breakpoint{
		{20, BandSevere},
		{15, BandModeratelySevere},
		{10, BandModerate},
		{5, BandMild},
		{0, BandMinimal},
	}
	anxietyBands = []breakpoint{
		{15, BandSevere},
		{10, BandModerate},
		{5, BandMild},
		{0, BandMinimal},
	}
)

// BandFor maps a total to its severity band. It is a pure function of the
// instrument and total.
func BandFor(instrument Instrument, total int) SeverityBand {
	bands := depressionBands
	if instrument == InstrumentAnxiety {
		bands = anxietyBands
	}
	for _, bp := range bands {
		if total >= bp.lower {
			return bp.band
		}
	}
	return BandMinimal
}

// Rank orders bands for monotonicity checks.
func (b SeverityBand) Rank() int {
	switch b {
	case BandMinimal:
		return 0
	case BandMild:
		return 1
	case BandModerate:
		return 2
	case BandModeratelySevere:
		return 3
	case BandSevere:
		return 4
	}
	return -1
}
