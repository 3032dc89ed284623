package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smartfeastt/smartfeast-backend/apperr"
	"github.com/smartfeastt/smartfeast-backend/models"
)

type CreateRestaurantRequest struct {
	Name            string `json:"name" binding:"required"`
	OutletCount     int    `json:"outlet_count" binding:"gte=0"`
	Image           string `json:"image"`
	ProfilePhotoURL string `json:"profilePhotoUrl"`
	RestaurantImage string `json:"restaurantImage"`
}

// UpdateRestaurantRequest has no owner field: ownership cannot be moved.
type UpdateRestaurantRequest struct {
	Name            *string `json:"name"`
	OutletCount     *int    `json:"outlet_count"`
	Image           *string `json:"image"`
	ProfilePhotoURL *string `json:"profilePhotoUrl"`
	RestaurantImage *string `json:"restaurantImage"`
}

func (r UpdateRestaurantRequest) fields() map[string]any {
	f := map[string]any{}
	if r.Name != nil {
		f["name"] = *r.Name
	}
	if r.OutletCount != nil {
		f["outlet_count"] = *r.OutletCount
	}
	if r.Image != nil {
		f["image"] = *r.Image
	}
	if r.ProfilePhotoURL != nil {
		f["profile_photo_url"] = *r.ProfilePhotoURL
	}
	if r.RestaurantImage != nil {
		f["restaurant_image"] = *r.RestaurantImage
	}
	return f
}

// CreateRestaurant registers a restaurant owned by the caller.
func (h *Handler) CreateRestaurant(c *gin.Context) {
	var req CreateRestaurantRequest
	if !h.bind(c, &req) {
		return
	}
	restaurant := models.Restaurant{
		OwnerID:         h.identity(c).UserID(),
		Name:            req.Name,
		OutletCount:     req.OutletCount,
		Image:           req.Image,
		ProfilePhotoURL: req.ProfilePhotoURL,
		RestaurantImage: req.RestaurantImage,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&restaurant).Error; err != nil {
		h.fail(c, apperr.Internal("handlers.CreateRestaurant", err))
		return
	}
	h.log.Info("Restaurant created", zap.String("restaurant_id", restaurant.ID), zap.String("owner_id", restaurant.OwnerID))
	respond(c, http.StatusCreated, gin.H{"message": "Restaurant created successfully", "restaurant": restaurant})
}

// ownRestaurant loads a restaurant and checks the caller owns it.
func (h *Handler) ownRestaurant(c *gin.Context, id string) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := h.find(c.Request.Context(), &restaurant, id, "Restaurant"); err != nil {
		return nil, err
	}
	if restaurant.OwnerID != h.identity(c).UserID() {
		return nil, apperr.Forbidden("You don't own this restaurant")
	}
	return &restaurant, nil
}

// UpdateRestaurant applies a partial update to one of the caller's restaurants.
func (h *Handler) UpdateRestaurant(c *gin.Context) {
	var req UpdateRestaurantRequest
	if !h.bind(c, &req) {
		return
	}
	if req.OutletCount != nil && *req.OutletCount < 1 {
		h.fail(c, apperr.Invalid("outlet_count must be at least 1"))
		return
	}
	restaurant, err := h.ownRestaurant(c, c.Param("restaurantId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if f := req.fields(); len(f) > 0 {
		if err := h.db.WithContext(c.Request.Context()).Model(restaurant).Updates(f).Error; err != nil {
			h.fail(c, apperr.Internal("handlers.UpdateRestaurant", err))
			return
		}
	}
	if err := h.find(c.Request.Context(), restaurant, restaurant.ID, "Restaurant"); err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Restaurant updated successfully", "restaurant": restaurant})
}

// DeleteRestaurant removes the restaurant and all of its outlets.
func (h *Handler) DeleteRestaurant(c *gin.Context) {
	restaurant, err := h.ownRestaurant(c, c.Param("restaurantId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		return deleteRestaurant(tx, restaurant.ID)
	})
	if err != nil {
		h.fail(c, apperr.Internal("handlers.DeleteRestaurant", err))
		return
	}
	h.log.Info("Restaurant deleted", zap.String("restaurant_id", restaurant.ID))
	respond(c, http.StatusOK, gin.H{"message": "Restaurant deleted successfully"})
}

// ListRestaurants returns every restaurant with its outlets (public).
func (h *Handler) ListRestaurants(c *gin.Context) {
	restaurants := []models.Restaurant{}
	q := h.db.WithContext(c.Request.Context()).Preload("Outlets")
	if search := c.Query("search"); search != "" {
		q = q.Where("name LIKE ?", "%"+search+"%")
	}
	if err := q.Order("created_at DESC").Find(&restaurants).Error; err != nil {
		h.fail(c, apperr.Internal("handlers.ListRestaurants", err))
		return
	}
	respond(c, http.StatusOK, gin.H{"restaurants": restaurants})
}

// GetRestaurant returns a restaurant with its owner and outlets (public).
func (h *Handler) GetRestaurant(c *gin.Context) {
	var restaurant models.Restaurant
	err := h.db.WithContext(c.Request.Context()).
		Preload("Owner").
		Preload("Outlets").
		First(&restaurant, "id = ?", c.Param("restaurantId")).Error
	if err != nil {
		h.fail(c, notFound(err, "Restaurant", "handlers.GetRestaurant"))
		return
	}
	respond(c, http.StatusOK, gin.H{"restaurant": restaurant})
}

// GetRestaurantByName backs the public storefront URL. Names are not unique;
// the oldest restaurant with the name wins.
func (h *Handler) GetRestaurantByName(c *gin.Context) {
	var restaurant models.Restaurant
	err := h.db.WithContext(c.Request.Context()).
		Preload("Owner").
		Preload("Outlets", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		Where("name = ?", c.Param("restaurantName")).
		Order("created_at").
		First(&restaurant).Error
	if err != nil {
		h.fail(c, notFound(err, "Restaurant", "handlers.GetRestaurantByName"))
		return
	}
	respond(c, http.StatusOK, gin.H{"restaurant": restaurant})
}

// OwnerRestaurants lists the caller's restaurants.
func (h *Handler) OwnerRestaurants(c *gin.Context) {
	restaurants := []models.Restaurant{}
	err := h.db.WithContext(c.Request.Context()).
		Preload("Outlets").
		Where("owner_id = ?", h.identity(c).UserID()).
		Order("created_at").
		Find(&restaurants).Error
	if err != nil {
		h.fail(c, apperr.Internal("handlers.OwnerRestaurants", err))
		return
	}
	respond(c, http.StatusOK, gin.H{"restaurants": restaurants})
}

func deleteRestaurant(tx *gorm.DB, restaurantID string) error {
	var outletIDs []string
	if err := tx.Model(&models.Outlet{}).Where("restaurant_id = ?", restaurantID).
		Pluck("id", &outletIDs).Error; err != nil {
		return err
	}
	for _, id := range outletIDs {
		if err := deleteOutlet(tx, id); err != nil {
			return err
		}
	}
	if err := tx.Where("restaurant_id = ?", restaurantID).Delete(&models.Favorite{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", restaurantID).Delete(&models.Restaurant{}).Error
}

// deleteOutlet removes an outlet with its menu, categories, inventory and
// manager assignments.
func deleteOutlet(tx *gorm.DB, outletID string) error {
	for _, model := range []any{&models.MenuItem{}, &models.Category{}, &models.InventoryItem{}} {
		if err := tx.Where("outlet_id = ?", outletID).Delete(model).Error; err != nil {
			return err
		}
	}
	if err := tx.Exec("DELETE FROM outlet_managers WHERE outlet_id = ?", outletID).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", outletID).Delete(&models.Outlet{}).Error
}
