package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smartfeastt/smartfeast-backend/apperr"
	"github.com/smartfeastt/smartfeast-backend/models"
)

// Inventory endpoints check manager assignments against the store.

type InventoryRequest struct {
	OutletID      string           `json:"outletId"`
	ItemName      string           `json:"itemName"`
	Category      string           `json:"category"`
	CurrentStock  float64          `json:"currentStock" binding:"gte=0"`
	MinStock      float64          `json:"minStock" binding:"gte=0"`
	Unit          models.StockUnit `json:"unit"`
	CostPerUnit   float64          `json:"costPerUnit" binding:"gte=0"`
	Supplier      string           `json:"supplier"`
	LastRestocked *time.Time       `json:"lastRestocked"`
	ExpiryDate    *time.Time       `json:"expiryDate"`
	Notes         string           `json:"notes"`
}

type UpdateInventoryRequest struct {
	ItemName      *string           `json:"itemName"`
	Category      *string           `json:"category"`
	CurrentStock  *float64          `json:"currentStock"`
	MinStock      *float64          `json:"minStock"`
	Unit          *models.StockUnit `json:"unit"`
	CostPerUnit   *float64          `json:"costPerUnit"`
	Supplier      *string           `json:"supplier"`
	LastRestocked *time.Time        `json:"lastRestocked"`
	ExpiryDate    *time.Time        `json:"expiryDate"`
	Notes         *string           `json:"notes"`
}

func (r UpdateInventoryRequest) apply(it *models.InventoryItem) error {
	if r.Unit != nil && !r.Unit.Valid() {
		return apperr.Invalid("Invalid unit %q", *r.Unit)
	}
	for _, v := range []*float64{r.CurrentStock, r.MinStock, r.CostPerUnit} {
		if v != nil && *v < 0 {
			return apperr.Invalid("Stock and cost values cannot be negative")
		}
	}
	if r.ItemName != nil {
		it.ItemName = *r.ItemName
	}
	if r.Category != nil {
		it.Category = *r.Category
	}
	if r.CurrentStock != nil {
		it.CurrentStock = *r.CurrentStock
	}
	if r.MinStock != nil {
		it.MinStock = *r.MinStock
	}
	if r.Unit != nil {
		it.Unit = *r.Unit
	}
	if r.CostPerUnit != nil {
		it.CostPerUnit = *r.CostPerUnit
	}
	if r.Supplier != nil {
		it.Supplier = *r.Supplier
	}
	if r.LastRestocked != nil {
		it.LastRestocked = r.LastRestocked.UTC()
	}
	if r.ExpiryDate != nil {
		t := r.ExpiryDate.UTC()
		it.ExpiryDate = &t
	}
	if r.Notes != nil {
		it.Notes = *r.Notes
	}
	it.LowStock = it.CurrentStock <= it.MinStock
	return nil
}

// InventoryByOutlet lists an outlet's stock with low-stock flags.
func (h *Handler) InventoryByOutlet(c *gin.Context) {
	ctx := c.Request.Context()
	outlet, err := h.authorizeOutlet(ctx, h.identity(c), c.Param("outletId"), fromStore)
	if err != nil {
		h.fail(c, err)
		return
	}
	inventory := []models.InventoryItem{}
	err = h.db.WithContext(ctx).
		Where("outlet_id = ?", outlet.ID).
		Order("category, item_name").
		Find(&inventory).Error
	if err != nil {
		h.fail(c, apperr.Internal("handlers.InventoryByOutlet", err))
		return
	}
	respond(c, http.StatusOK, gin.H{"inventory": inventory})
}

// CreateInventoryItem adds a stock row to an outlet.
func (h *Handler) CreateInventoryItem(c *gin.Context) {
	var req InventoryRequest
	if !h.bind(c, &req) {
		return
	}
	if req.ItemName == "" || req.OutletID == "" {
		h.fail(c, apperr.Invalid("Item name and outlet ID are required"))
		return
	}
	if req.Unit != "" && !req.Unit.Valid() {
		h.fail(c, apperr.Invalid("Invalid unit %q", req.Unit))
		return
	}
	ctx := c.Request.Context()
	if _, err := h.authorizeOutlet(ctx, h.identity(c), req.OutletID, fromStore); err != nil {
		h.fail(c, err)
		return
	}

	item := models.InventoryItem{
		OutletID:     req.OutletID,
		ItemName:     req.ItemName,
		Category:     req.Category,
		CurrentStock: req.CurrentStock,
		MinStock:     req.MinStock,
		Unit:         req.Unit,
		CostPerUnit:  req.CostPerUnit,
		Supplier:     req.Supplier,
		Notes:        req.Notes,
	}
	if item.Category == "" {
		item.Category = "Other"
	}
	if req.LastRestocked != nil {
		item.LastRestocked = req.LastRestocked.UTC()
	}
	if req.ExpiryDate != nil {
		t := req.ExpiryDate.UTC()
		item.ExpiryDate = &t
	}
	if err := h.db.WithContext(ctx).Create(&item).Error; err != nil {
		h.fail(c, apperr.Internal("handlers.CreateInventoryItem", err))
		return
	}
	item.LowStock = item.CurrentStock <= item.MinStock
	respond(c, http.StatusCreated, gin.H{"message": "Inventory item created successfully", "inventory": item})
}

func (h *Handler) inventoryFor(c *gin.Context) (*models.InventoryItem, error) {
	ctx := c.Request.Context()
	var item models.InventoryItem
	if err := h.find(ctx, &item, c.Param("itemId"), "Inventory item"); err != nil {
		return nil, err
	}
	if _, err := h.authorizeOutlet(ctx, h.identity(c), item.OutletID, fromStore); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateInventoryItem applies a partial update to a stock row.
func (h *Handler) UpdateInventoryItem(c *gin.Context) {
	var req UpdateInventoryRequest
	if !h.bind(c, &req) {
		return
	}
	item, err := h.inventoryFor(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := req.apply(item); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Save(item).Error; err != nil {
		h.fail(c, apperr.Internal("handlers.UpdateInventoryItem", err))
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Inventory item updated successfully", "inventory": item})
}

// DeleteInventoryItem removes a stock row.
func (h *Handler) DeleteInventoryItem(c *gin.Context) {
	item, err := h.inventoryFor(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Delete(item).Error; err != nil {
		h.fail(c, apperr.Internal("handlers.DeleteInventoryItem", err))
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Inventory item deleted successfully"})
}
