package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/smartfeastt/smartfeast-backend/apperr"
	"github.com/smartfeastt/smartfeast-backend/models"
)

type OutletRequest struct {
	RestaurantID string              `json:"restaurantId"`
	Name         string              `json:"name"`
	Location     string              `json:"location"`
	Address      *models.Address     `json:"address"`
	Coordinates  *models.Coordinates `json:"coordinates"`
	Image        string              `json:"image"`
}

type UpdateOutletRequest struct {
	Name        *string             `json:"name"`
	Location    *string             `json:"location"`
	Address     *models.Address     `json:"address"`
	Coordinates *models.Coordinates `json:"coordinates"`
	Image       *string             `json:"image"`
}

type AssignManagerRequest struct {
	ManagerEmail    string `json:"managerEmail" binding:"required,email"`
	ManagerPassword string `json:"managerPassword" binding:"required,min=6"`
}

// CreateOutlet adds an outlet to one of the caller's restaurants, up to the
// restaurant's outlet_count.
func (h *Handler) CreateOutlet(c *gin.Context) {
	var req OutletRequest
	if !h.bind(c, &req) {
		return
	}
	if req.RestaurantID == "" || req.Name == "" {
		h.fail(c, apperr.Invalid("restaurantId and name are required"))
		return
	}
	restaurant, err := h.ownRestaurant(c, req.RestaurantID)
	if err != nil {
		h.fail(c, err)
		return
	}

	outlet := models.Outlet{
		Name:         req.Name,
		RestaurantID: restaurant.ID,
		Location:     req.Location,
		Image:        req.Image,
	}
	if req.Address != nil {
		outlet.Address = *req.Address
	}
	if req.Coordinates != nil {
		outlet.Coordinates = *req.Coordinates
	}

	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Outlet{}).Where("restaurant_id = ?", restaurant.ID).Count(&n).Error; err != nil {
			return err
		}
		if n >= int64(restaurant.OutletCount) {
			return apperr.Invalid("Outlet limit reached (%d outlets allowed)", restaurant.OutletCount)
		}
		return tx.Create(&outlet).Error
	})
	if err != nil {
		h.fail(c, domainOr(err, "handlers.CreateOutlet"))
		return
	}
	h.log.Info("Outlet created", zap.String("outlet_id", outlet.ID), zap.String("restaurant_id", restaurant.ID))
	respond(c, http.StatusCreated, gin.H{"message": "Outlet created successfully", "outlet": outlet})
}

// UpdateOutlet is open to the owner and the outlet's managers.
func (h *Handler) UpdateOutlet(c *gin.Context) {
	var req UpdateOutletRequest
	if !h.bind(c, &req) {
		return
	}
	outlet, err := h.authorizeOutlet(c.Request.Context(), h.identity(c), c.Param("outletId"), fromToken)
	if err != nil {
		h.fail(c, err)
		return
	}
	if req.Name != nil {
		outlet.Name = *req.Name
	}
	if req.Location != nil {
		outlet.Location = *req.Location
	}
	if req.Address != nil {
		outlet.Address = *req.Address
	}
	if req.Coordinates != nil {
		outlet.Coordinates = *req.Coordinates
	}
	if req.Image != nil {
		outlet.Image = *req.Image
	}
	outlet.Restaurant = nil
	if err := h.db.WithContext(c.Request.Context()).Save(outlet).Error; err != nil {
		h.fail(c, apperr.Internal("handlers.UpdateOutlet", err))
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Outlet updated successfully", "outlet": outlet})
}

// ownOutlet loads an outlet and checks the caller owns its restaurant.
func (h *Handler) ownOutlet(c *gin.Context) (*models.Outlet, error) {
	var outlet models.Outlet
	err := h.db.WithContext(c.Request.Context()).Preload("Restaurant").
		First(&outlet, "id = ?", c.Param("outletId")).Error
	if err != nil {
		return nil, notFound(err, "Outlet", "handlers.ownOutlet")
	}
	if outlet.Restaurant == nil || outlet.Restaurant.OwnerID != h.identity(c).UserID() {
		return nil, apperr.Forbidden("You don't own this outlet")
	}
	return &outlet, nil
}

// DeleteOutlet removes an outlet and strips it from every manager.
func (h *Handler) DeleteOutlet(c *gin.Context) {
	outlet, err := h.ownOutlet(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		return deleteOutlet(tx, outlet.ID)
	})
	if err != nil {
		h.fail(c, apperr.Internal("handlers.DeleteOutlet", err))
		return
	}
	h.log.Info("Outlet deleted", zap.String("outlet_id", outlet.ID))
	respond(c, http.StatusOK, gin.H{"message": "Outlet deleted successfully"})
}

// GetOutlet returns one outlet (public).
func (h *Handler) GetOutlet(c *gin.Context) {
	var outlet models.Outlet
	if err := h.find(c.Request.Context(), &outlet, c.Param("outletId"), "Outlet"); err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"outlet": outlet})
}

// OutletsByRestaurant lists a restaurant's outlets with their managers.
func (h *Handler) OutletsByRestaurant(c *gin.Context) {
	var restaurant models.Restaurant
	if err := h.find(c.Request.Context(), &restaurant, c.Param("restaurantId"), "Restaurant"); err != nil {
		h.fail(c, err)
		return
	}
	outlets := []models.Outlet{}
	err := h.db.WithContext(c.Request.Context()).
		Preload("Managers").
		Where("restaurant_id = ?", restaurant.ID).
		Order("created_at").
		Find(&outlets).Error
	if err != nil {
		h.fail(c, apperr.Internal("handlers.OutletsByRestaurant", err))
		return
	}
	respond(c, http.StatusOK, gin.H{"outlets": outlets})
}

// AssignManager attaches the manager account for managerEmail to the
// outlet, creating that account when it does not exist yet.
func (h *Handler) AssignManager(c *gin.Context) {
	var req AssignManagerRequest
	if !h.bind(c, &req) {
		return
	}
	outlet, err := h.ownOutlet(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	var manager models.User
	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ? AND role = ?", req.ManagerEmail, models.RoleManager).First(&manager).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			hash, err := bcrypt.GenerateFromPassword([]byte(req.ManagerPassword), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			name, _, _ := strings.Cut(req.ManagerEmail, "@")
			manager = models.User{
				Name:         name,
				Email:        req.ManagerEmail,
				PasswordHash: string(hash),
				Role:         models.RoleManager,
			}
			if err := tx.Create(&manager).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		var n int64
		if err := tx.Table("outlet_managers").
			Where("outlet_id = ? AND user_id = ?", outlet.ID, manager.ID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.Conflict("Manager already assigned to this outlet")
		}
		return tx.Model(&models.Outlet{ID: outlet.ID}).Association("Managers").Append(&manager)
	})
	if err != nil {
		h.fail(c, domainOr(err, "handlers.AssignManager"))
		return
	}
	h.log.Info("Manager assigned", zap.String("outlet_id", outlet.ID), zap.String("manager_id", manager.ID))
	respond(c, http.StatusOK, gin.H{
		"message": "Manager assigned successfully",
		"manager": gin.H{"_id": manager.ID, "name": manager.Name, "email": manager.Email},
	})
}

// RemoveManager detaches a manager from an outlet.
func (h *Handler) RemoveManager(c *gin.Context) {
	outlet, err := h.ownOutlet(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	managerID := c.Param("managerId")
	res := h.db.WithContext(c.Request.Context()).
		Exec("DELETE FROM outlet_managers WHERE outlet_id = ? AND user_id = ?", outlet.ID, managerID)
	if res.Error != nil {
		h.fail(c, apperr.Internal("handlers.RemoveManager", res.Error))
		return
	}
	if res.RowsAffected == 0 {
		h.fail(c, apperr.NotFound(fmt.Sprintf("Manager %s is not assigned to this outlet", managerID)))
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Manager removed successfully"})
}
