// Package handlers holds the HTTP handlers. Handlers bind and validate the
// request, call into the services and the store, and render
// {"success": bool, ...} bodies.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smartfeastt/smartfeast-backend/access"
	"github.com/smartfeastt/smartfeast-backend/apperr"
	"github.com/smartfeastt/smartfeast-backend/carts"
	"github.com/smartfeastt/smartfeast-backend/middleware"
	"github.com/smartfeastt/smartfeast-backend/models"
	"github.com/smartfeastt/smartfeast-backend/orders"
)

// Handler serves every HTTP route over the shared store and services.
type Handler struct {
	db     *gorm.DB
	auth   *middleware.Authenticator
	orders *orders.Service
	carts  *carts.Service
	log    *zap.Logger
}

// New creates a Handler.
func New(db *gorm.DB, auth *middleware.Authenticator, o *orders.Service, c *carts.Service, log *zap.Logger) *Handler {
	return &Handler{db: db, auth: auth, orders: o, carts: c, log: log}
}

// fail renders err. Internal errors are logged and replaced by a generic
// message.
func (h *Handler) fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": apperr.Message(err)})
}

func respond(c *gin.Context, status int, body gin.H) {
	body["success"] = true
	c.JSON(status, body)
}

func (h *Handler) bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		h.fail(c, apperr.Invalid("Invalid request: %v", err))
		return false
	}
	return true
}

func (h *Handler) identity(c *gin.Context) access.Identity {
	return middleware.GetIdentity(c)
}

// outletSource picks where a manager's outlet assignments come from.
type outletSource int

const (
	// fromToken trusts the snapshot signed into the bearer token.
	fromToken outletSource = iota
	// fromStore re-reads outlet_managers.
	fromStore
)

// authorizeOutlet loads the outlet with its restaurant and applies the
// access guard.
func (h *Handler) authorizeOutlet(ctx context.Context, id access.Identity, outletID string, src outletSource) (*models.Outlet, error) {
	db := h.db.WithContext(ctx)
	var outlet models.Outlet
	err := db.Preload("Restaurant").First(&outlet, "id = ?", outletID).Error
	if err != nil {
		return nil, notFound(err, "Outlet", "handlers.authorizeOutlet")
	}
	if outlet.Restaurant == nil {
		return nil, apperr.NotFound("Restaurant not found")
	}
	if src == fromStore {
		id, err = access.Refresh(id, func(userID string) ([]string, error) {
			return models.ManagedOutletIDs(db, userID)
		})
		if err != nil {
			return nil, apperr.Internal("handlers.authorizeOutlet", err)
		}
	}
	if err := access.Authorize(id, access.ForOutlet(&outlet)); err != nil {
		return nil, err
	}
	return &outlet, nil
}

// find loads one row by id, mapping a miss to a not-found error naming what.
func (h *Handler) find(ctx context.Context, dest any, id, what string) error {
	if err := h.db.WithContext(ctx).First(dest, "id = ?", id).Error; err != nil {
		return notFound(err, what, "handlers.find")
	}
	return nil
}

// notFound maps a record miss to a not-found error naming what.
func notFound(err error, what, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(what + " not found")
	}
	return apperr.Internal(op, err)
}

// domainOr passes domain errors through and marks anything else internal.
func domainOr(err error, op string) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		return err
	}
	return apperr.Internal(op, err)
}
