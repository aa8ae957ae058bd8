package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const notifyTimeout = 5 * time.Second

// LogNotifier records escalations in the service log. It is the default
// when no delivery channel is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("escalation")}
}

func (n *LogNotifier) NotifyEscalation(_ context.Context, e Escalation) error {
	n.logger.Warn("crisis session escalated",
		zap.String("session_id", e.SessionID),
		zap.String("device_id", e.DeviceID),
		zap.String("severity", e.Severity.String()),
		zap.String("reason", e.Reason),
		zap.String("operation", string(e.Operation)),
		zap.Int("contacts", len(e.Contacts)))
	return nil
}

// dispatcher hands escalations to the notifier on their own goroutines.
// Contacts missing from the in-memory cache are looked up there, where
// blocking on the store does not hold up the request.
type dispatcher struct {
	target    EscalationNotifier
	directory Directory
	logger    *zap.Logger
	wg        sync.WaitGroup
}

func (d *dispatcher) dispatch(e Escalation) {
	if d.target == nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if len(e.Contacts) == 0 && e.UserID != "" && d.directory != nil {
			e.Contacts = d.directory.Lookup(ctx, e.UserID)
		}
		if err := d.target.NotifyEscalation(ctx, e); err != nil {
			d.logger.Error("escalation notification failed",
				zap.String("session_id", e.SessionID),
				zap.String("reason", e.Reason),
				zap.Error(err))
		}
	}()
}

func (d *dispatcher) wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
