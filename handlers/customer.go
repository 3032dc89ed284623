package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smartfeastt/smartfeast-backend/access"
	"github.com/smartfeastt/smartfeast-backend/apperr"
	"github.com/smartfeastt/smartfeast-backend/models"
	"github.com/smartfeastt/smartfeast-backend/orders"
)

// CreateOrder places an order for a signed-in customer or a guest.
func (h *Handler) CreateOrder(c *gin.Context) {
	var in orders.CreateOrderInput
	if !h.bind(c, &in) {
		return
	}
	order, err := h.orders.CreateOrder(c.Request.Context(), h.identity(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"message": "Order created successfully", "order": order})
}

// GetMyOrders returns the caller's orders, newest first.
func (h *Handler) GetMyOrders(c *gin.Context) {
	list, err := h.orders.UserOrders(c.Request.Context(), h.identity(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"orders": list})
}

// VerifyOrder is the public payment/confirmation lookup.
func (h *Handler) VerifyOrder(c *gin.Context) {
	v, err := h.orders.Verify(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"order": v})
}

type FavoriteRequest struct {
	RestaurantID string `json:"restaurantId" binding:"required"`
}

// GetFavorites returns the caller's favorite restaurants.
func (h *Handler) GetFavorites(c *gin.Context) {
	var favs []models.Favorite
	err := h.db.WithContext(c.Request.Context()).
		Preload("Restaurant").
		Where("user_id = ?", h.identity(c).UserID()).
		Order("created_at DESC").
		Find(&favs).Error
	if err != nil {
		h.fail(c, apperr.Internal("handlers.GetFavorites", err))
		return
	}
	restaurants := make([]*models.Restaurant, 0, len(favs))
	for _, f := range favs {
		if f.Restaurant != nil {
			restaurants = append(restaurants, f.Restaurant)
		}
	}
	respond(c, http.StatusOK, gin.H{"favorites": restaurants})
}

// AddFavorite is idempotent: favoriting twice answers 200 with the
// existing row.
func (h *Handler) AddFavorite(c *gin.Context) {
	var req FavoriteRequest
	if !h.bind(c, &req) {
		return
	}
	ctx := c.Request.Context()
	var restaurant models.Restaurant
	if err := h.find(ctx, &restaurant, req.RestaurantID, "Restaurant"); err != nil {
		h.fail(c, err)
		return
	}

	fav := models.Favorite{UserID: h.identity(c).UserID(), RestaurantID: restaurant.ID}
	res := h.db.WithContext(ctx).
		Where(models.Favorite{UserID: fav.UserID, RestaurantID: fav.RestaurantID}).
		FirstOrCreate(&fav)
	if res.Error != nil {
		h.fail(c, apperr.Internal("handlers.AddFavorite", res.Error))
		return
	}
	if res.RowsAffected == 0 {
		respond(c, http.StatusOK, gin.H{"message": "Already in favorites", "favorite": fav})
		return
	}
	respond(c, http.StatusCreated, gin.H{"message": "Restaurant added to favorites", "favorite": fav})
}

// RemoveFavorite unmarks a restaurant.
func (h *Handler) RemoveFavorite(c *gin.Context) {
	res := h.db.WithContext(c.Request.Context()).
		Where("user_id = ? AND restaurant_id = ?", h.identity(c).UserID(), c.Param("restaurantId")).
		Delete(&models.Favorite{})
	if res.Error != nil {
		h.fail(c, apperr.Internal("handlers.RemoveFavorite", res.Error))
		return
	}
	if res.RowsAffected == 0 {
		h.fail(c, apperr.NotFound("Favorite not found"))
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Restaurant removed from favorites"})
}

// CheckFavorite answers false rather than 401 for anonymous callers.
func (h *Handler) CheckFavorite(c *gin.Context) {
	id := h.identity(c)
	if role, ok := access.Role(id); !ok || role != models.RoleCustomer {
		respond(c, http.StatusOK, gin.H{"isFavorite": false})
		return
	}
	var n int64
	err := h.db.WithContext(c.Request.Context()).Model(&models.Favorite{}).
		Where("user_id = ? AND restaurant_id = ?", id.UserID(), c.Param("restaurantId")).
		Count(&n).Error
	if err != nil {
		h.fail(c, apperr.Internal("handlers.CheckFavorite", err))
		return
	}
	respond(c, http.StatusOK, gin.H{"isFavorite": n > 0})
}
