package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode(t *testing.T) {
	assert.Equal(t, "", Code(nil))
	assert.Equal(t, ENotFound, Code(NotFound("Order not found")))
	assert.Equal(t, EInternal, Code(errors.New("boom")))
	assert.Equal(t, EForbidden, Code(fmt.Errorf("wrapped: %w", Forbidden("Access denied"))))
	assert.Equal(t, EConflict, Code(&Error{Err: Conflict("stale")}))
}

func TestMessage_HidesInternalDetail(t *testing.T) {
	err := Internal("orders.Create", errors.New("disk I/O error"))
	assert.Equal(t, genericMessage, Message(err))
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.Contains(t, err.Error(), "orders.Create")
	assert.Equal(t, genericMessage, Message(errors.New("raw")))
	assert.Equal(t, "Cart is empty", Message(Invalid("Cart is empty")))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[error]int{
		Invalid("x"):                        http.StatusBadRequest,
		Unauthorized("x"):                   http.StatusUnauthorized,
		Forbidden("x"):                      http.StatusForbidden,
		NotFound("x"):                       http.StatusNotFound,
		Conflict("x"):                       http.StatusConflict,
		&Error{Code: EUnprocessable}:        http.StatusUnprocessableEntity,
		Internal("op", errors.New("cause")): http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, HTTPStatus(err), err.Error())
	}
}
