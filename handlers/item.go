package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/smartfeastt/smartfeast-backend/access"
	"github.com/smartfeastt/smartfeast-backend/apperr"
	"github.com/smartfeastt/smartfeast-backend/models"
)

type CreateItemRequest struct {
	OutletID        string  `json:"outletId" binding:"required"`
	ItemName        string  `json:"itemName" binding:"required"`
	ItemPrice       float64 `json:"itemPrice" binding:"required,gt=0"`
	ItemQuantity    int     `json:"itemQuantity" binding:"gte=0"`
	ItemPhoto       string  `json:"itemPhoto"`
	ItemDescription string  `json:"itemDescription"`
	Category        string  `json:"category"`
	IsAvailable     *bool   `json:"isAvailable"`
}

type UpdateItemRequest struct {
	ItemName        *string  `json:"itemName"`
	ItemPrice       *float64 `json:"itemPrice"`
	ItemQuantity    *int     `json:"itemQuantity"`
	ItemPhoto       *string  `json:"itemPhoto"`
	ItemDescription *string  `json:"itemDescription"`
	Category        *string  `json:"category"`
	IsAvailable     *bool    `json:"isAvailable"`
}

func (r UpdateItemRequest) apply(item *models.MenuItem) error {
	if r.ItemPrice != nil && *r.ItemPrice <= 0 {
		return apperr.Invalid("itemPrice must be positive")
	}
	if r.ItemQuantity != nil && *r.ItemQuantity < 0 {
		return apperr.Invalid("itemQuantity cannot be negative")
	}
	if r.ItemName != nil {
		item.Name = *r.ItemName
	}
	if r.ItemPrice != nil {
		item.Price = *r.ItemPrice
	}
	if r.ItemQuantity != nil {
		item.Quantity = *r.ItemQuantity
	}
	if r.ItemPhoto != nil {
		item.Photo = *r.ItemPhoto
	}
	if r.ItemDescription != nil {
		item.Description = *r.ItemDescription
	}
	if r.Category != nil {
		item.Category = *r.Category
	}
	if r.IsAvailable != nil {
		item.IsAvailable = *r.IsAvailable
	}
	return nil
}

// CreateItem adds a menu item to an outlet.
func (h *Handler) CreateItem(c *gin.Context) {
	var req CreateItemRequest
	if !h.bind(c, &req) {
		return
	}
	if _, err := h.authorizeOutlet(c.Request.Context(), h.identity(c), req.OutletID, fromToken); err != nil {
		h.fail(c, err)
		return
	}
	item := models.MenuItem{
		OutletID:    req.OutletID,
		Name:        req.ItemName,
		Price:       req.ItemPrice,
		Quantity:    req.ItemQuantity,
		Photo:       req.ItemPhoto,
		Description: req.ItemDescription,
		Category:    req.Category,
		IsAvailable: req.IsAvailable == nil || *req.IsAvailable,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&item).Error; err != nil {
		h.fail(c, apperr.Internal("handlers.CreateItem", err))
		return
	}
	respond(c, http.StatusCreated, gin.H{"message": "Menu item created successfully", "item": item})
}

// itemFor loads a menu item and authorizes the caller for its outlet.
func (h *Handler) itemFor(ctx context.Context, id access.Identity, itemID string) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := h.find(ctx, &item, itemID, "Item"); err != nil {
		return nil, err
	}
	if _, err := h.authorizeOutlet(ctx, id, item.OutletID, fromToken); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem applies a partial update to a menu item.
func (h *Handler) UpdateItem(c *gin.Context) {
	var req UpdateItemRequest
	if !h.bind(c, &req) {
		return
	}
	item, err := h.itemFor(c.Request.Context(), h.identity(c), c.Param("itemId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := req.apply(item); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Save(item).Error; err != nil {
		h.fail(c, apperr.Internal("handlers.UpdateItem", err))
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Menu item updated successfully", "item": item})
}

// DeleteItem removes a menu item.
func (h *Handler) DeleteItem(c *gin.Context) {
	item, err := h.itemFor(c.Request.Context(), h.identity(c), c.Param("itemId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Delete(item).Error; err != nil {
		h.fail(c, apperr.Internal("handlers.DeleteItem", err))
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Menu item deleted successfully"})
}

type ItemPhotoRequest struct {
	FileURL string `json:"fileUrl" binding:"required"`
}

// UpdateItemPhoto records the URL of a photo the client has already
// uploaded to storage.
func (h *Handler) UpdateItemPhoto(c *gin.Context) {
	var req ItemPhotoRequest
	if !h.bind(c, &req) {
		return
	}
	item, err := h.itemFor(c.Request.Context(), h.identity(c), c.Param("itemId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	err = h.db.WithContext(c.Request.Context()).Model(item).Update("photo", req.FileURL).Error
	if err != nil {
		h.fail(c, apperr.Internal("handlers.UpdateItemPhoto", err))
		return
	}
	item.Photo = req.FileURL
	respond(c, http.StatusOK, gin.H{"message": "Item photo updated successfully", "item": item})
}

// GetItem returns one menu item (public).
func (h *Handler) GetItem(c *gin.Context) {
	var item models.MenuItem
	if err := h.find(c.Request.Context(), &item, c.Param("itemId"), "Item"); err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"item": item})
}

// ItemsByOutletName is the public storefront menu, addressed by restaurant
// and outlet name.
func (h *Handler) ItemsByOutletName(c *gin.Context) {
	db := h.db.WithContext(c.Request.Context())

	var restaurant models.Restaurant
	err := db.Where("name = ?", c.Param("restaurantName")).Order("created_at").First(&restaurant).Error
	if err != nil {
		h.fail(c, notFound(err, "Restaurant", "handlers.ItemsByOutletName"))
		return
	}
	var outlet models.Outlet
	err = db.Where("restaurant_id = ? AND name = ?", restaurant.ID, c.Param("outletName")).
		Order("created_at").
		First(&outlet).Error
	if err != nil {
		h.fail(c, notFound(err, "Outlet", "handlers.ItemsByOutletName"))
		return
	}

	items := []models.MenuItem{}
	if err := db.Where("outlet_id = ?", outlet.ID).Order("category, name").Find(&items).Error; err != nil {
		h.fail(c, apperr.Internal("handlers.ItemsByOutletName", err))
		return
	}
	respond(c, http.StatusOK, gin.H{
		"items": items,
		"outlet": gin.H{
			"_id":             outlet.ID,
			"name":            outlet.Name,
			"location":        outlet.Location,
			"image":           outlet.Image,
			"address":         outlet.Address,
			"coordinates":     outlet.Coordinates,
			"restaurantName":  restaurant.Name,
			"profilePhotoUrl": restaurant.ProfilePhotoURL,
		},
	})
}

// ItemsByOutlet lists an outlet's menu (public). ?available=true hides items
// marked unavailable.
func (h *Handler) ItemsByOutlet(c *gin.Context) {
	var outlet models.Outlet
	if err := h.find(c.Request.Context(), &outlet, c.Param("outletId"), "Outlet"); err != nil {
		h.fail(c, err)
		return
	}
	q := h.db.WithContext(c.Request.Context()).Where("outlet_id = ?", outlet.ID)
	if c.Query("available") == "true" {
		q = q.Where("is_available = ?", true)
	}
	if category := c.Query("category"); category != "" {
		q = q.Where("category = ?", category)
	}
	items := []models.MenuItem{}
	if err := q.Order("category, name").Find(&items).Error; err != nil {
		h.fail(c, apperr.Internal("handlers.ItemsByOutlet", err))
		return
	}
	respond(c, http.StatusOK, gin.H{"outlet": outlet, "items": items})
}

type CategoryRequest struct {
	OutletID    string `json:"outletId" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	SortOrder   int    `json:"sortOrder"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	SortOrder   *int    `json:"sortOrder"`
	IsActive    *bool   `json:"isActive"`
}

// categoryTaken reports whether the outlet already has a category called
// name, other than except.
func categoryTaken(db *gorm.DB, outletID, name, except string) (bool, error) {
	var n int64
	q := db.Model(&models.Category{}).Where("outlet_id = ? AND name = ?", outletID, name)
	if except != "" {
		q = q.Where("id <> ?", except)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

// CreateCategory adds a category; names are unique per outlet.
func (h *Handler) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if !h.bind(c, &req) {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.authorizeOutlet(ctx, h.identity(c), req.OutletID, fromToken); err != nil {
		h.fail(c, err)
		return
	}
	taken, err := categoryTaken(h.db.WithContext(ctx), req.OutletID, req.Name, "")
	if err != nil {
		h.fail(c, apperr.Internal("handlers.CreateCategory", err))
		return
	}
	if taken {
		h.fail(c, apperr.Conflict("Category already exists for this outlet"))
		return
	}
	category := models.Category{
		OutletID:    req.OutletID,
		Name:        req.Name,
		Description: req.Description,
		SortOrder:   req.SortOrder,
		IsActive:    true,
	}
	if err := h.db.WithContext(ctx).Create(&category).Error; err != nil {
		h.fail(c, apperr.Internal("handlers.CreateCategory", err))
		return
	}
	respond(c, http.StatusCreated, gin.H{"message": "Category created successfully", "category": category})
}

func (h *Handler) categoryFor(c *gin.Context) (*models.Category, error) {
	ctx := c.Request.Context()
	var category models.Category
	if err := h.find(ctx, &category, c.Param("categoryId"), "Category"); err != nil {
		return nil, err
	}
	if _, err := h.authorizeOutlet(ctx, h.identity(c), category.OutletID, fromToken); err != nil {
		return nil, err
	}
	return &category, nil
}

// UpdateCategory applies a partial update to a category.
func (h *Handler) UpdateCategory(c *gin.Context) {
	var req UpdateCategoryRequest
	if !h.bind(c, &req) {
		return
	}
	category, err := h.categoryFor(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	db := h.db.WithContext(c.Request.Context())
	if req.Name != nil && *req.Name != category.Name {
		taken, err := categoryTaken(db, category.OutletID, *req.Name, category.ID)
		if err != nil {
			h.fail(c, apperr.Internal("handlers.UpdateCategory", err))
			return
		}
		if taken {
			h.fail(c, apperr.Conflict("Category already exists for this outlet"))
			return
		}
		category.Name = *req.Name
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
	if req.SortOrder != nil {
		category.SortOrder = *req.SortOrder
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	if err := db.Save(category).Error; err != nil {
		h.fail(c, apperr.Internal("handlers.UpdateCategory", err))
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Category updated successfully", "category": category})
}

// DeleteCategory removes a category.
func (h *Handler) DeleteCategory(c *gin.Context) {
	category, err := h.categoryFor(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Delete(category).Error; err != nil {
		h.fail(c, apperr.Internal("handlers.DeleteCategory", err))
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Category deleted successfully"})
}

// CategoriesByOutlet lists an outlet's active categories (public).
func (h *Handler) CategoriesByOutlet(c *gin.Context) {
	categories := []models.Category{}
	err := h.db.WithContext(c.Request.Context()).
		Where("outlet_id = ? AND is_active = ?", c.Param("outletId"), true).
		Order("sort_order, name").
		Find(&categories).Error
	if err != nil {
		h.fail(c, apperr.Internal("handlers.CategoriesByOutlet", err))
		return
	}
	respond(c, http.StatusOK, gin.H{"categories": categories})
}
