package values

import "fmt"

// Sensitivity selects the encryption tier for a piece of data.
type Sensitivity string

const (
	SensitivityOperational Sensitivity = "operational"
	SensitivityPersonal    Sensitivity = "personal"
	SensitivityClinical    Sensitivity = "clinical"
)

// AllSensitivities lists every tier, lowest first
func AllSensitivities() []Sensitivity {
	return []Sensitivity{SensitivityOperational, SensitivityPersonal, SensitivityClinical}
}

func (s Sensitivity) IsValid() bool {
	switch s {
	case SensitivityOperational, SensitivityPersonal, SensitivityClinical:
		return true
	}
	return false
}

// Retention returns the retention period required for data at this tier.
func (s Sensitivity) Retention() RetentionPeriod {
	if s == SensitivityClinical {
		return ClinicalRetention
	}
	return OperationalRetention
}

func ParseSensitivity(v string) (Sensitivity, error) {
	s := Sensitivity(v)
	if !s.IsValid() {
		return "", fmt.Errorf("unknown sensitivity %q", v)
	}
	return s, nil
}
