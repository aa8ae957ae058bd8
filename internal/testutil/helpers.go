package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// TestContext creates a context with timeout for tests
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// Ptr returns a pointer to the given value (useful for optional fields)
func Ptr[T any](v T) *T {
	return &v
}

// Answers returns n answers all set to value.
func Answers(n, value int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = value
	}
	return out
}

// ObservedLogger returns a logger that writes to the test log and records
// entries at warn level and above for assertions.
func ObservedLogger(t *testing.T) (*zap.Logger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.WarnLevel)
	logger := zaptest.NewLogger(t).WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, core)
	}))
	return logger, logs
}

// AssertTimeWithin asserts that a time is within an expected range
func AssertTimeWithin(t *testing.T, actual, expected time.Time, delta time.Duration) {
	t.Helper()
	diff := actual.Sub(expected)
	if diff < 0 {
		diff = -diff
	}
	require.LessOrEqual(t, diff, delta,
		"expected time %v to be within %v of %v, but difference was %v",
		actual, delta, expected, diff)
}
