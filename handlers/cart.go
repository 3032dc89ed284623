package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smartfeastt/smartfeast-backend/carts"
)

type UpdateCartRequest struct {
	ItemID   string `json:"itemId" binding:"required"`
	Quantity int    `json:"quantity"`
}

type SyncCartRequest struct {
	Items []carts.Line `json:"items"`
}

// GetCart returns the caller's cart, creating it on first access.
func (h *Handler) GetCart(c *gin.Context) {
	cart, err := h.carts.Get(c.Request.Context(), h.identity(c).UserID())
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"cart": cart})
}

// AddToCart adds a line or raises the quantity of an existing one.
func (h *Handler) AddToCart(c *gin.Context) {
	var line carts.Line
	if !h.bind(c, &line) {
		return
	}
	cart, err := h.carts.Add(c.Request.Context(), h.identity(c).UserID(), line)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"cart": cart})
}

// UpdateCartItem sets a line's quantity; zero or less removes it.
func (h *Handler) UpdateCartItem(c *gin.Context) {
	var req UpdateCartRequest
	if !h.bind(c, &req) {
		return
	}
	cart, err := h.carts.Update(c.Request.Context(), h.identity(c).UserID(), req.ItemID, req.Quantity)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"cart": cart})
}

// RemoveFromCart drops one line.
func (h *Handler) RemoveFromCart(c *gin.Context) {
	cart, err := h.carts.Remove(c.Request.Context(), h.identity(c).UserID(), c.Param("itemId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"cart": cart})
}

// ClearCart empties the cart. Clearing an empty cart succeeds.
func (h *Handler) ClearCart(c *gin.Context) {
	if err := h.carts.Clear(c.Request.Context(), h.identity(c).UserID()); err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Cart cleared"})
}

// SyncCart replaces the whole cart with the client's copy.
func (h *Handler) SyncCart(c *gin.Context) {
	var req SyncCartRequest
	if !h.bind(c, &req) {
		return
	}
	cart, err := h.carts.Sync(c.Request.Context(), h.identity(c).UserID(), req.Items)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"cart": cart})
}
