package orders

import (
	"errors"

	"gorm.io/gorm"

	"github.com/smartfeastt/smartfeast-backend/apperr"
)

// wrap passes domain errors through and marks anything else internal.
func wrap(op string, err error) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		return err
	}
	return apperr.Internal(op, err)
}

func notFoundOr(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("Order not found")
	}
	return apperr.Internal(op, err)
}
