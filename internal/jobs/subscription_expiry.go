// Package jobs holds the periodic maintenance tasks run by the server.
package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"autohub/internal/models"
)

// ExpireSubscriptions marks active subscriptions whose end date has passed as expired.
func ExpireSubscriptions(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("status = ? AND end_date < ?", models.SubscriptionActive, now).
		Update("status", models.SubscriptionExpired)
	return res.RowsAffected, res.Error
}

// RunExpirySweep runs ExpireSubscriptions every interval until ctx is done.
func RunExpirySweep(ctx context.Context, db *gorm.DB, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sweep := func() {
		n, err := ExpireSubscriptions(ctx, db, time.Now().UTC())
		if err != nil {
			logrus.WithError(err).Error("subscription expiry sweep failed")
			return
		}
		if n > 0 {
			logrus.WithField("expired", n).Info("subscriptions expired")
		}
	}

	sweep()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
