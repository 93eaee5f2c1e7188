package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Queue is a RabbitMQ connection bound to a single durable mail queue.
type Queue struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	name string
}

// DialQueue connects with exponential backoff and declares the queue.
func DialQueue(url, name string) (*Queue, error) {
	var conn *amqp.Connection
	var err error

	for i := 1; i <= 5; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		logrus.WithError(err).Warnf("RabbitMQ connect attempt %d failed", i)
		time.Sleep(time.Second * time.Duration(math.Pow(2, float64(i))))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ after retries: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", name, err)
	}

	return &Queue{conn: conn, ch: ch, name: name}, nil
}

func (q *Queue) Close() {
	if q.ch != nil {
		_ = q.ch.Close()
	}
	if q.conn != nil {
		_ = q.conn.Close()
	}
}

// Send publishes msg for the mail worker; it satisfies Sender.
func (q *Queue) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return q.ch.PublishWithContext(ctx, "", q.name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Timestamp:    time.Now(),
		Body:         body,
	})
}

// Consume delivers queued messages through out until ctx is cancelled.
// A message that fails twice is dropped.
func (q *Queue) Consume(ctx context.Context, out Sender) error {
	deliveries, err := q.ch.Consume(q.name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", q.name, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			handleDelivery(ctx, d, out)
		}
	}
}

func handleDelivery(ctx context.Context, d amqp.Delivery, out Sender) {
	var msg Message
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		logrus.WithError(err).Error("dropping malformed mail message")
		_ = d.Nack(false, false)
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := out.Send(sendCtx, msg); err != nil {
		log := logrus.WithError(err).WithFields(logrus.Fields{"id": msg.ID, "to": msg.To})
		if d.Redelivered {
			log.Error("mail delivery failed twice, dropping")
			_ = d.Nack(false, false)
			return
		}
		log.Warn("mail delivery failed, requeueing")
		_ = d.Nack(false, true)
		return
	}

	_ = d.Ack(false)
}
