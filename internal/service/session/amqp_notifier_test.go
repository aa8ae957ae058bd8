package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/MP2EZ/being-sub003/internal/domain/crisis"
	"github.com/MP2EZ/being-sub003/internal/domain/values"
	"github.com/MP2EZ/being-sub003/internal/infrastructure/encryption"
	"github.com/MP2EZ/being-sub003/internal/testutil"
)

type fakeChannel struct {
	published []amqp.Publishing
	keys      []string
	confirms  chan amqp.Confirmation
	ack       bool
	silent    bool
	err       error
}

func newFakeChannel(ack bool) *fakeChannel {
	return &fakeChannel{confirms: make(chan amqp.Confirmation, 1), ack: ack}
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, msg)
	f.keys = append(f.keys, key)
	if !f.silent {
		f.confirms <- amqp.Confirmation{DeliveryTag: uint64(len(f.published)), Ack: f.ack}
	}
	return nil
}

func sampleEscalation() Escalation {
	return Escalation{
		SessionID:  "session-1",
		DeviceID:   "device-1",
		CrisisType: crisis.TypeSuicidalIdeation,
		Severity:   crisis.SeverityCritical,
		Reason:     escalationReasonImmediateRisk,
		At:         time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
	}
}

func TestAMQPNotifierPublishes(t *testing.T) {
	ch := newFakeChannel(true)
	n := newAMQPNotifier(ch, ch.confirms, DefaultEscalationQueue, nil, zaptest.NewLogger(t))

	require.NoError(t, n.NotifyEscalation(context.Background(), sampleEscalation()))
	require.Len(t, ch.published, 1)
	msg := ch.published[0]
	assert.Equal(t, DefaultEscalationQueue, ch.keys[0])
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "application/json", msg.ContentType)

	var got Escalation
	require.NoError(t, json.Unmarshal(msg.Body, &got))
	assert.Equal(t, "session-1", got.SessionID)
	assert.Equal(t, crisis.SeverityCritical, got.Severity)
}

func TestAMQPNotifierSealsBody(t *testing.T) {
	key, err := encryption.GenerateKey()
	require.NoError(t, err)
	enc, err := encryption.NewService(key)
	require.NoError(t, err)

	ch := newFakeChannel(true)
	n := newAMQPNotifier(ch, ch.confirms, "q", enc, zaptest.NewLogger(t))
	require.NoError(t, n.NotifyEscalation(context.Background(), sampleEscalation()))

	msg := ch.published[0]
	assert.Equal(t, true, msg.Headers["sealed"])
	assert.NotContains(t, string(msg.Body), "session-1")

	plain, err := enc.Decrypt(msg.Body, values.SensitivityClinical)
	require.NoError(t, err)
	assert.Contains(t, string(plain), "session-1")
}

func TestAMQPNotifierFailures(t *testing.T) {
	t.Run("nack", func(t *testing.T) {
		ch := newFakeChannel(false)
		n := newAMQPNotifier(ch, ch.confirms, "q", nil, zaptest.NewLogger(t))
		assert.ErrorContains(t, n.NotifyEscalation(context.Background(), sampleEscalation()), "nacked")
	})

	t.Run("publish error", func(t *testing.T) {
		ch := newFakeChannel(true)
		ch.err = errors.New("channel/connection is not open")
		n := newAMQPNotifier(ch, ch.confirms, "q", nil, zaptest.NewLogger(t))
		assert.ErrorContains(t, n.NotifyEscalation(context.Background(), sampleEscalation()), "not open")
	})

	t.Run("no confirm before deadline", func(t *testing.T) {
		ch := newFakeChannel(true)
		ch.silent = true
		n := newAMQPNotifier(ch, ch.confirms, "q", nil, zaptest.NewLogger(t))
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, n.NotifyEscalation(ctx, sampleEscalation()), context.DeadlineExceeded)
	})
}

func TestLogNotifier(t *testing.T) {
	logger, logs := testutil.ObservedLogger(t)
	require.NoError(t, NewLogNotifier(logger).NotifyEscalation(context.Background(), sampleEscalation()))

	entries := logs.FilterMessage("crisis session escalated").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "session-1", fields["session_id"])
	assert.Equal(t, "critical", fields["severity"])
}
