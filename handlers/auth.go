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
	"github.com/smartfeastt/smartfeast-backend/carts"
	"github.com/smartfeastt/smartfeast-backend/models"
)

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Type     string `json:"type" binding:"required"`
}

type SigninRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Type     string `json:"type" binding:"required"`
}

func parseRole(s string) (models.UserRole, error) {
	role := models.UserRole(strings.ToLower(s))
	if !role.Valid() {
		return "", apperr.Invalid("Invalid user type. Must be owner, manager, or user")
	}
	return role, nil
}

func userView(u *models.User) gin.H {
	return gin.H{
		"userId": u.ID,
		"email":  u.Email,
		"name":   u.Name,
		"type":   u.Role,
	}
}

// Signup creates an account. One email may hold one account per role.
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if !h.bind(c, &req) {
		return
	}
	role, err := parseRole(req.Type)
	if err != nil {
		h.fail(c, err)
		return
	}

	var n int64
	if err := h.db.Model(&models.User{}).
		Where("email = ? AND role = ?", req.Email, role).
		Count(&n).Error; err != nil {
		h.fail(c, apperr.Internal("handlers.Signup", err))
		return
	}
	if n > 0 {
		h.fail(c, apperr.Conflict(fmt.Sprintf("Email already registered as %s", role)))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.fail(c, apperr.Internal("handlers.Signup", err))
		return
	}

	name := req.Name
	if name == "" {
		name, _, _ = strings.Cut(req.Email, "@")
	}
	user := models.User{
		Name:         name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := h.db.Create(&user).Error; err != nil {
		h.fail(c, apperr.Internal("handlers.Signup", err))
		return
	}

	token, err := h.auth.GenerateToken(&user, nil, nil)
	if err != nil {
		h.fail(c, apperr.Internal("handlers.Signup", err))
		return
	}
	h.log.Info("Account created", zap.String("user_id", user.ID), zap.String("role", string(role)))

	respond(c, http.StatusCreated, gin.H{
		"message": fmt.Sprintf("%s registration successful", role),
		"token":   token,
		"user":    userView(&user),
	})
}

// Signin authenticates by (email, type, password). Owner and manager tokens
// snapshot the caller's restaurants and outlets.
func (h *Handler) Signin(c *gin.Context) {
	var req SigninRequest
	if !h.bind(c, &req) {
		return
	}
	role, err := parseRole(req.Type)
	if err != nil {
		h.fail(c, err)
		return
	}

	var user models.User
	err = h.db.Where("email = ? AND role = ?", req.Email, role).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		h.fail(c, apperr.Unauthorized(fmt.Sprintf("Email not registered as %s. Please sign up first.", role)))
		return
	}
	if err != nil {
		h.fail(c, apperr.Internal("handlers.Signin", err))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.fail(c, apperr.Unauthorized("Invalid password"))
		return
	}

	var owned, managed []string
	switch role {
	case models.RoleOwner:
		owned, err = models.OwnedRestaurantIDs(h.db, user.ID)
	case models.RoleManager:
		managed, err = models.ManagedOutletIDs(h.db, user.ID)
	}
	if err != nil {
		h.fail(c, apperr.Internal("handlers.Signin", err))
		return
	}

	token, err := h.auth.GenerateToken(&user, owned, managed)
	if err != nil {
		h.fail(c, apperr.Internal("handlers.Signin", err))
		return
	}
	respond(c, http.StatusOK, gin.H{
		"message": fmt.Sprintf("%s login successful", role),
		"token":   token,
		"user":    userView(&user),
	})
}

// Me returns the caller's profile with their restaurants or outlets.
func (h *Handler) Me(c *gin.Context) {
	id := h.identity(c)
	var user models.User
	err := h.db.Preload("OwnedRestaurants").Preload("ManagedOutlets").
		First(&user, "id = ?", id.UserID()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		h.fail(c, apperr.NotFound("User not found"))
		return
	}
	if err != nil {
		h.fail(c, apperr.Internal("handlers.Me", err))
		return
	}
	respond(c, http.StatusOK, gin.H{"user": user})
}

// DeleteAccount removes the caller and everything they own. Orders are
// kept for the outlets' records.
func (h *Handler) DeleteAccount(c *gin.Context) {
	id := h.identity(c)
	var user models.User
	if err := h.find(c.Request.Context(), &user, id.UserID(), "User"); err != nil {
		h.fail(c, err)
		return
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		switch user.Role {
		case models.RoleOwner:
			restaurantIDs, err := models.OwnedRestaurantIDs(tx, user.ID)
			if err != nil {
				return err
			}
			for _, rid := range restaurantIDs {
				if err := deleteRestaurant(tx, rid); err != nil {
					return err
				}
			}
		case models.RoleManager:
			if err := tx.Exec("DELETE FROM outlet_managers WHERE user_id = ?", user.ID).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := carts.Delete(tx, user.ID); err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		h.fail(c, apperr.Internal("handlers.DeleteAccount", err))
		return
	}
	h.log.Info("Account deleted", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	respond(c, http.StatusOK, gin.H{"message": "Account deleted successfully"})
}
