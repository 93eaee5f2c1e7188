package setup

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"autohub/internal/models"
)

// GormReader reads snapshots from the application database.
type GormReader struct {
	DB *gorm.DB
}

func NewGormReader(db *gorm.DB) *GormReader {
	return &GormReader{DB: db}
}

func (r *GormReader) Snapshot(ctx context.Context, accountID uint) (Snapshot, error) {
	db := r.DB.WithContext(ctx)

	var account models.Account
	if err := db.Select("id", "role", "phone").First(&account, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Snapshot{}, ErrAccountNotFound
		}
		return Snapshot{}, err
	}

	snap := Snapshot{Role: account.Role, Phone: account.Phone}

	if profile := profileModel(account.Role); profile != nil {
		var n int64
		if err := db.Model(profile).Where("account_id = ?", account.ID).Count(&n).Error; err != nil {
			return Snapshot{}, err
		}
		snap.HasProfile = n > 0
	}

	if account.Role == models.RoleCarOwner {
		if err := db.Model(&models.Vehicle{}).Where("owner_id = ?", account.ID).Count(&snap.VehicleCount).Error; err != nil {
			return Snapshot{}, err
		}
	}

	var sub models.Subscription
	err := db.Select("status").Where("account_id = ?", account.ID).Take(&sub).Error
	switch {
	case err == nil:
		snap.SubscriptionStatus = sub.Status
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return Snapshot{}, err
	}

	return snap, nil
}

func profileModel(role string) any {
	switch role {
	case models.RoleCarOwner:
		return &models.CarOwnerProfile{}
	case models.RoleServiceCenter:
		return &models.ServiceCenterProfile{}
	case models.RolePartSeller:
		return &models.PartSellerProfile{}
	}
	return nil
}
