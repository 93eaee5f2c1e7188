// Command mailer drains the mail queue and delivers each message over SMTP.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"autohub/internal/config"
	"autohub/internal/logger"
	"autohub/internal/mail"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	logger.Setup(cfg.LogFile, cfg.LogLevel)

	smtp, err := mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
	if err != nil {
		logrus.WithError(err).Fatal("smtp transport")
	}

	q, err := mail.DialQueue(cfg.AMQPURL, cfg.MailQueue)
	if err != nil {
		logrus.WithError(err).Fatal("mail queue unavailable")
	}
	defer q.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logrus.WithField("queue", cfg.MailQueue).Info("mail worker consuming")
	if err := q.Consume(ctx, smtp); err != nil {
		logrus.WithError(err).Error("mail worker stopped")
	}
}
