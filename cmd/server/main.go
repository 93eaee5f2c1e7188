package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"autohub/internal/config"
	"autohub/internal/jobs"
	"autohub/internal/logger"
	"autohub/internal/mail"
	"autohub/internal/oauth"
	"autohub/internal/routes"
	"autohub/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	// Initialize structured logging to file
	logger.Setup(cfg.LogFile, cfg.LogLevel)
	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to the database
	if err := config.InitDB(); err != nil {
		logrus.WithError(err).Fatal("database unavailable")
	}
	if err := config.InitRedis(ctx, cfg.RedisURL); err != nil {
		logrus.WithError(err).Fatal("redis unavailable")
	}
	defer config.Cache.Close()

	switch cfg.MailTransport {
	case "smtp":
		s, err := mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
		if err != nil {
			logrus.WithError(err).Fatal("smtp transport")
		}
		mail.Use(s)
	case "amqp":
		q, err := mail.DialQueue(cfg.AMQPURL, cfg.MailQueue)
		if err != nil {
			logrus.WithError(err).Fatal("mail queue unavailable")
		}
		defer q.Close()
		mail.Use(q)
	}
	logrus.WithField("transport", cfg.MailTransport).Info("mail transport ready")

	if cfg.StorageEnabled() {
		storage.Uploads, err = storage.NewS3Client(ctx, storage.Options{
			Endpoint:      cfg.S3Endpoint,
			Region:        cfg.S3Region,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
		if err != nil {
			logrus.WithError(err).Fatal("object storage")
		}
	} else {
		logrus.Warn("S3 not configured, image uploads disabled")
	}

	if cfg.GoogleEnabled() {
		oauth.Provider = oauth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, config.Cache)
	}

	go jobs.RunExpirySweep(ctx, config.DB, cfg.SubscriptionSweepInterval)

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           routes.SetupRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logrus.Infof("🚀 Server running at %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("listen")
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("graceful shutdown failed")
	}
}
