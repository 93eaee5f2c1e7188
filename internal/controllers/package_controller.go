package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"autohub/internal/config"
	"autohub/internal/middleware"
	"autohub/internal/models"
)

var errForeignService = errors.New("service_ids must reference your own services")

type packageInput struct {
	Name         string   `json:"name" binding:"required"`
	Description  string   `json:"description"`
	Price        float64  `json:"price" binding:"gte=0"`
	ValidityDays int      `json:"validity_days" binding:"gte=0"`
	Features     []string `json:"features"`
	IsActive     *bool    `json:"is_active"`
	ServiceIDs   []uint   `json:"service_ids"`
}

func (in packageInput) apply(p *models.Package) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = strings.TrimSpace(in.Description)
	p.Price = in.Price
	p.ValidityDays = in.ValidityDays
	p.Features = pq.StringArray(in.Features)
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
}

// ownedServices loads ids and fails unless every one belongs to centerID.
func ownedServices(tx *gorm.DB, centerID uint, ids []uint) ([]models.Service, error) {
	if len(ids) == 0 {
		return []models.Service{}, nil
	}
	unique := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}

	var services []models.Service
	if err := tx.Where("id IN ? AND service_center_id = ?", ids, centerID).Find(&services).Error; err != nil {
		return nil, err
	}
	if len(services) != len(unique) {
		return nil, errForeignService
	}
	return services, nil
}

// savePackage writes pkg and replaces its linked services in one transaction.
func savePackage(c *gin.Context, pkg *models.Package, serviceIDs []uint, create bool) bool {
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		services, err := ownedServices(tx, pkg.ServiceCenterID, serviceIDs)
		if err != nil {
			return err
		}

		if create {
			err = tx.Omit("Services").Create(pkg).Error
		} else {
			err = tx.Omit("Services").Save(pkg).Error
		}
		if err != nil {
			return err
		}

		if err := tx.Model(pkg).Association("Services").Replace(services); err != nil {
			return err
		}
		pkg.Services = services
		return nil
	})

	if errors.Is(err, errForeignService) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	if err != nil {
		serverError(c, "Failed to save package", err)
		return false
	}
	return true
}

// CreatePackage bundles some of the caller's services under one price.
func CreatePackage(c *gin.Context) {
	var input packageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pkg := models.Package{ServiceCenterID: middleware.AccountID(c), IsActive: true}
	input.apply(&pkg)

	if !savePackage(c, &pkg, input.ServiceIDs, true) {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"package": pkg})
}

func GetMyPackages(c *gin.Context) {
	var packages []models.Package
	err := config.DB.Preload("Services").
		Where("service_center_id = ?", middleware.AccountID(c)).
		Order("name").
		Find(&packages).Error
	if err != nil {
		serverError(c, "Error fetching packages", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"packages": packages})
}

func GetPackage(c *gin.Context) {
	pkg, ok := ownedPackage(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"package": pkg})
}

func UpdatePackage(c *gin.Context) {
	pkg, ok := ownedPackage(c)
	if !ok {
		return
	}

	var input packageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.apply(&pkg)

	if !savePackage(c, &pkg, input.ServiceIDs, false) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"package": pkg})
}

func DeletePackage(c *gin.Context) {
	pkg, ok := ownedPackage(c)
	if !ok {
		return
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&pkg).Association("Services").Clear(); err != nil {
			return err
		}
		return tx.Delete(&pkg).Error
	})
	if err != nil {
		serverError(c, "Failed to delete package", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Package deleted"})
}

// ListCenterPackages is the public view of a center's active packages.
func ListCenterPackages(c *gin.Context) {
	centerID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var packages []models.Package
	err := config.DB.Preload("Services", "is_active = ?", true).
		Where("service_center_id = ? AND is_active = ?", centerID, true).
		Order("name").
		Find(&packages).Error
	if err != nil {
		serverError(c, "Error fetching packages", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"packages": packages})
}

func ownedPackage(c *gin.Context) (models.Package, bool) {
	var pkg models.Package
	id, ok := parseID(c, "id")
	if !ok {
		return pkg, false
	}

	err := config.DB.Preload("Services").
		Where("id = ? AND service_center_id = ?", id, middleware.AccountID(c)).
		First(&pkg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Package not found"})
			return pkg, false
		}
		serverError(c, "Error fetching package", err)
		return pkg, false
	}
	return pkg, true
}
