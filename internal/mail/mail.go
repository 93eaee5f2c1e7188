// Package mail renders transactional emails and hands them to a transport.
package mail

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Message is a rendered email ready for delivery.
type Message struct {
	ID       string `json:"id"`
	To       string `json:"to"`
	Template string `json:"template"`
	Subject  string `json:"subject"`
	HTML     string `json:"html"`
}

// Sender delivers a message through some transport.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

var sender Sender = LogSender{}

// Use replaces the transport used by Deliver and DeliverAsync.
func Use(s Sender) {
	if s != nil {
		sender = s
	}
}

// Deliver renders the template and sends it synchronously.
func Deliver(ctx context.Context, to, tmpl string, vars map[string]string) error {
	msg, err := Render(tmpl, to, vars)
	if err != nil {
		return err
	}
	msg.ID = uuid.NewString()
	return sender.Send(ctx, msg)
}

// DeliverAsync sends in the background; failures are only logged.
func DeliverAsync(to, tmpl string, vars map[string]string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := Deliver(ctx, to, tmpl, vars); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"to":       to,
				"template": tmpl,
			}).Error("email delivery failed")
		}
	}()
}

// LogSender writes messages to the application log instead of sending them.
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg Message) error {
	logrus.WithFields(logrus.Fields{
		"id":       msg.ID,
		"to":       msg.To,
		"template": msg.Template,
		"subject":  msg.Subject,
	}).Info("email (log transport)")
	return nil
}
