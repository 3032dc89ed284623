package statemachine

import (
	"fmt"
	"strings"

	"github.com/smartfeastt/smartfeast-backend/apperr"
	"github.com/smartfeastt/smartfeast-backend/models"
)

// progression is the forward order of the status lifecycle. Cancelled sits
// outside it and is reachable from every non-terminal state.
var progression = []models.OrderStatus{
	models.StatusPending,
	models.StatusConfirmed,
	models.StatusPreparing,
	models.StatusReady,
	models.StatusOutForDelivery,
	models.StatusDelivered,
}

var rank = func() map[models.OrderStatus]int {
	m := make(map[models.OrderStatus]int, len(progression))
	for i, s := range progression {
		m[s] = i
	}
	return m
}()

// Valid reports whether s is a known order status.
func Valid(s models.OrderStatus) bool {
	_, ok := rank[s]
	return ok || s == models.StatusCancelled
}

// Terminal reports whether no transition may leave s.
func Terminal(s models.OrderStatus) bool {
	return s == models.StatusDelivered || s == models.StatusCancelled
}

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	if Terminal(status) || !Valid(status) {
		return nil
	}
	nexts := append([]models.OrderStatus{}, progression[rank[status]+1:]...)
	return append(nexts, models.StatusCancelled)
}

// CanTransition checks whether an order may move from one status to another.
// Forward skips are allowed; backward moves and moves out of a terminal
// state are not. from == to is accepted so callers can treat it as a no-op.
func CanTransition(from, to models.OrderStatus) error {
	if !Valid(to) {
		return &apperr.Error{
			Code: apperr.EInvalid,
			Msg:  fmt.Sprintf("invalid status %q", to),
		}
	}
	if from == to {
		return nil
	}
	if Terminal(from) {
		return &apperr.Error{
			Code: apperr.EUnprocessable,
			Msg:  fmt.Sprintf("order is %s; no further transitions are allowed", from),
		}
	}
	if to == models.StatusCancelled || rank[to] > rank[from] {
		return nil
	}
	return &apperr.Error{
		Code: apperr.EUnprocessable,
		Msg: fmt.Sprintf("invalid transition: %s -> %s. Valid transitions from %s are: %s",
			from, to, from, describeValidFrom(from)),
	}
}

// Payment returns the order status that results from setting the payment
// status to next. Paying a pending order confirms it; nothing else cascades.
func Payment(status models.OrderStatus, next models.PaymentStatus) (models.OrderStatus, error) {
	if !next.Valid() {
		return status, &apperr.Error{Code: apperr.EInvalid, Msg: "Invalid payment status"}
	}
	if next == models.PaymentPaid && status == models.StatusPending {
		return models.StatusConfirmed, nil
	}
	return status, nil
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	parts := make([]string, len(nexts))
	for i, s := range nexts {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// Transition is one documented edge of the status graph.
type Transition struct {
	From models.OrderStatus `json:"from"`
	To   models.OrderStatus `json:"to"`
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	var out []Transition
	for _, from := range progression {
		for _, to := range ValidTransitionsFrom(from) {
			out = append(out, Transition{From: from, To: to})
		}
	}
	return out
}
