package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smartfeastt/smartfeast-backend/apperr"
	"github.com/smartfeastt/smartfeast-backend/models"
)

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

type UpdatePaymentStatusRequest struct {
	PaymentStatus models.PaymentStatus `json:"paymentStatus" binding:"required"`
}

// GetOutletOrders lists the paid orders of an outlet. ?orderType= narrows
// the list; an unknown type is ignored.
func (h *Handler) GetOutletOrders(c *gin.Context) {
	list, err := h.orders.OutletOrders(c.Request.Context(), h.identity(c), c.Param("outletId"), c.Query("orderType"))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"orders": list})
}

// SyncOrders returns the vendor's paid orders changed at or after ?since=
// (RFC 3339, default the epoch) and the checkpoint for the next call.
func (h *Handler) SyncOrders(c *gin.Context) {
	since := time.Unix(0, 0).UTC()
	if s := c.Query("since"); s != "" {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			h.fail(c, apperr.Invalid("since must be an ISO 8601 timestamp"))
			return
		}
		since = t.UTC()
	}
	res, err := h.orders.SyncVendorOrders(c.Request.Context(), h.identity(c), since)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"orders": res.Orders, "syncedAt": res.SyncedAt})
}

// UpdateOrderStatus moves an order through the status state machine.
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	var req UpdateOrderStatusRequest
	if !h.bind(c, &req) {
		return
	}
	order, err := h.orders.UpdateStatus(c.Request.Context(), h.identity(c), c.Param("orderId"), req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Order status updated", "order": order})
}

// UpdatePaymentStatus is called by the payment service or by a vendor of
// the order's outlet.
func (h *Handler) UpdatePaymentStatus(c *gin.Context) {
	var req UpdatePaymentStatusRequest
	if !h.bind(c, &req) {
		return
	}
	order, err := h.orders.UpdatePaymentStatus(c.Request.Context(), h.identity(c), c.Param("orderId"), req.PaymentStatus)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Payment status updated", "order": order})
}

// GetOrderHistory returns an order's recorded status changes.
func (h *Handler) GetOrderHistory(c *gin.Context) {
	history, err := h.orders.History(c.Request.Context(), h.identity(c), c.Param("orderId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"history": history})
}
