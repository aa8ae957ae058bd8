package values

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MP2EZ/being-sub003/internal/domain/errors"
)

// RetentionPeriod is how long an audit entry must be kept.
type RetentionPeriod struct {
	days int
}

const (
	// ClinicalRetentionDays covers anything touching clinical content (7 years).
	ClinicalRetentionDays = 2555
	// OperationalRetentionDays covers purely operational events.
	OperationalRetentionDays = 90

	MaxRetentionDays = 100 * 365
)

var (
	ClinicalRetention    = RetentionPeriod{days: ClinicalRetentionDays}
	OperationalRetention = RetentionPeriod{days: OperationalRetentionDays}
)

// NewRetentionPeriod creates a RetentionPeriod from a number of days
func NewRetentionPeriod(days int) (RetentionPeriod, error) {
	if days <= 0 {
		return RetentionPeriod{}, errors.NewValidationError("INVALID_RETENTION_DURATION",
			"retention period must be positive")
	}
	if days > MaxRetentionDays {
		return RetentionPeriod{}, errors.NewValidationError("RETENTION_TOO_LONG",
			fmt.Sprintf("retention period cannot exceed %d days", MaxRetentionDays))
	}
	return RetentionPeriod{days: days}, nil
}

// NewRetentionPeriodFromString parses "clinical", "operational", "30d", "7y"
// or a plain number of days.
func NewRetentionPeriodFromString(value string) (RetentionPeriod, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return RetentionPeriod{}, errors.NewValidationError("EMPTY_RETENTION",
			"retention period string cannot be empty")
	}

	switch value {
	case "clinical":
		return ClinicalRetention, nil
	case "operational":
		return OperationalRetention, nil
	}

	multiplier := 1
	switch {
	case strings.HasSuffix(value, "y"):
		multiplier = 365
		value = strings.TrimSuffix(value, "y")
	case strings.HasSuffix(value, "d"):
		value = strings.TrimSuffix(value, "d")
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return RetentionPeriod{}, errors.NewValidationError("INVALID_RETENTION_FORMAT",
			"retention period must be a number of days or years").WithCause(err)
	}
	if multiplier == 365 && n == 7 {
		return ClinicalRetention, nil
	}
	return NewRetentionPeriod(n * multiplier)
}

// Days returns the retention period in days
func (r RetentionPeriod) Days() int {
	return r.days
}

// Duration returns the retention period as a time.Duration
func (r RetentionPeriod) Duration() time.Duration {
	return time.Duration(r.days) * 24 * time.Hour
}

// IsClinical reports whether the period meets the clinical 7 year minimum
func (r RetentionPeriod) IsClinical() bool {
	return r.days >= ClinicalRetentionDays
}

// ExpiresAt returns when a record created at t may be discarded
func (r RetentionPeriod) ExpiresAt(t time.Time) time.Time {
	return t.Add(r.Duration())
}

func (r RetentionPeriod) String() string {
	return fmt.Sprintf("%dd", r.days)
}
