package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/MP2EZ/being-sub003/internal/domain/values"
)

// DefaultEscalationQueue receives one message per escalation.
const DefaultEscalationQueue = "crisis_escalations"

// publisher is the part of *amqp.Channel the notifier uses.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPNotifier publishes escalations to a durable RabbitMQ queue and waits
// for the broker to confirm each one. Bodies are sealed at the clinical tier
// when an encryptor is set, since they carry contact details.
type AMQPNotifier struct {
	pub       publisher
	confirms  <-chan amqp.Confirmation
	queue     string
	encryptor Encryptor
	logger    *zap.Logger
	mu        sync.Mutex
}

// NewAMQPNotifier opens a confirm-mode channel on conn and declares queue.
func NewAMQPNotifier(conn *amqp.Connection, queue string, encryptor Encryptor, logger *zap.Logger) (*AMQPNotifier, error) {
	if queue == "" {
		queue = DefaultEscalationQueue
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("enable publisher confirms: %w", err)
	}
	return newAMQPNotifier(ch, ch.NotifyPublish(make(chan amqp.Confirmation, 1)), queue, encryptor, logger), nil
}

func newAMQPNotifier(pub publisher, confirms <-chan amqp.Confirmation, queue string, encryptor Encryptor, logger *zap.Logger) *AMQPNotifier {
	return &AMQPNotifier{
		pub:       pub,
		confirms:  confirms,
		queue:     queue,
		encryptor: encryptor,
		logger:    logger.Named("escalation"),
	}
}

func (n *AMQPNotifier) NotifyEscalation(ctx context.Context, e Escalation) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal escalation: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    e.SessionID + ":" + e.Reason,
		Timestamp:    e.At,
		Type:         "crisis.escalation",
		Body:         body,
	}
	if n.encryptor != nil {
		sealed, err := n.encryptor.Encrypt(body, values.SensitivityClinical)
		if err != nil {
			return fmt.Errorf("seal escalation: %w", err)
		}
		msg.ContentType = "application/octet-stream"
		msg.Headers = amqp.Table{"sealed": true, "sensitivity": string(values.SensitivityClinical)}
		msg.Body = sealed
	}

	// Confirms arrive in publish order on a single channel.
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.pub.PublishWithContext(ctx, "", n.queue, false, false, msg); err != nil {
		return fmt.Errorf("publish escalation: %w", err)
	}
	select {
	case c, ok := <-n.confirms:
		if !ok {
			return fmt.Errorf("publish escalation: channel closed before confirm")
		}
		if !c.Ack {
			return fmt.Errorf("publish escalation: broker nacked delivery %d", c.DeliveryTag)
		}
	case <-ctx.Done():
		return fmt.Errorf("publish escalation: %w", ctx.Err())
	}

	n.logger.Info("escalation published",
		zap.String("session_id", e.SessionID),
		zap.String("queue", n.queue),
		zap.String("reason", e.Reason))
	return nil
}
