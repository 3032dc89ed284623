package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smartfeastt/smartfeast-backend/models"
	"github.com/smartfeastt/smartfeast-backend/statemachine"
)

// Health pings the database.
func (h *Handler) Health(c *gin.Context) {
	status := "healthy"
	code := http.StatusOK
	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"success": code == http.StatusOK,
		"status":  status,
		"service": "SmartFeast ordering API",
	})
}

// GetStateMachineInfo documents the order and payment state machines.
func (h *Handler) GetStateMachineInfo(c *gin.Context) {
	respond(c, http.StatusOK, gin.H{
		"state_machine":   statemachine.GetAllTransitions(),
		"terminal_states": []models.OrderStatus{models.StatusDelivered, models.StatusCancelled},
		"payment_states": []models.PaymentStatus{
			models.PaymentPending, models.PaymentPaid, models.PaymentFailed, models.PaymentRefunded,
		},
		"payment_cascade": statemachine.Transition{From: models.StatusPending, To: models.StatusConfirmed},
		"description":     "Order lifecycle: forward skips allowed, no backward moves, delivered and cancelled are terminal. Payment becoming paid confirms a pending order.",
	})
}

// Welcome points clients at the documentation routes.
func (h *Handler) Welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to the SmartFeast ordering API",
		"docs":    "/api/state-machine",
		"health":  "/health",
		"roles":   []models.UserRole{models.RoleOwner, models.RoleManager, models.RoleCustomer},
	})
}
