package order

import (
	"errors"
	"fmt"
	"strings"

	"fulfillment/internal/pkg/errs"
)

var (
	// ErrAlreadyTerminal is returned for any transition requested on a delivered or cancelled order.
	ErrAlreadyTerminal = errors.New("order is already in a terminal status")

	// ErrInvalidTransition is returned when the requested status skips a stage or moves backwards.
	ErrInvalidTransition = errors.New("status transition is not allowed")
)

// TransitionError describes a rejected status change. It unwraps to
// ErrAlreadyTerminal or ErrInvalidTransition.
type TransitionError struct {
	From Status
	To   Status
	Err  error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", e.Err, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// Status represents the lifecycle stage of an order.
//
// State transitions:
//
//	Pending ──> Confirmed ──> Preparing ──> Delivering ──> Delivered
//	   │            │             │              │
//	   └────────────┴─────────────┴──────────────┴──────> Cancelled
//
// The happy path is totally ordered and may only be walked one step at a time.
// Delivered and Cancelled are terminal: nothing leaves them.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// Pending is set at order creation.
	Pending

	// Confirmed means the operator accepted the order.
	Confirmed

	// Preparing means the order is being assembled.
	Preparing

	// Delivering means the order left for the customer.
	Delivering

	// Delivered is the successful terminal status.
	Delivered

	// Cancelled is the terminal status reachable from any non-terminal one.
	Cancelled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:    "unknown",
		Pending:    "pending",
		Confirmed:  "confirmed",
		Preparing:  "preparing",
		Delivering: "delivering",
		Delivered:  "delivered",
		Cancelled:  "cancelled",
	}
}

// happyPath lists the forward-adjacent successor of every non-terminal status.
func happyPath() map[Status]Status {
	return map[Status]Status{
		Pending:    Confirmed,
		Confirmed:  Preparing,
		Preparing:  Delivering,
		Delivering: Delivered,
	}
}

// ParseStatus converts a canonical status name ("pending", "delivered", ...) back to a Status.
// Matching is case-insensitive.
func ParseStatus(s string) (Status, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for status, str := range getStatusStrings() {
		if status != Unknown && str == name {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", s))
}

// TerminalStatuses lists the statuses from which no transition is accepted.
func TerminalStatuses() []Status {
	return []Status{Delivered, Cancelled}
}

// Validate checks if the Status value is one of the canonical statuses.
func (s Status) Validate() error {
	if s <= Unknown || s > Cancelled {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the canonical lowercase name, "unknown" for invalid values.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsTerminal reports whether s is Delivered or Cancelled.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled
}

// Next returns the forward-adjacent status on the happy path.
// ok is false for terminal and invalid statuses.
func (s Status) Next() (next Status, ok bool) {
	next, ok = happyPath()[s]
	return next, ok
}

// Transition validates a move from s to target.
//
// Rules, checked in order:
//   - target must be a canonical status
//   - s must not be terminal (ErrAlreadyTerminal), whatever the target
//   - target == s is accepted as a no-op: changed is false
//   - target must be the forward-adjacent status or Cancelled (ErrInvalidTransition otherwise)
//
// Example:
//
//	next, changed, err := order.Pending.Transition(order.Confirmed) // Confirmed, true, nil
//	_, _, err = order.Pending.Transition(order.Delivering)          // ErrInvalidTransition
func (s Status) Transition(target Status) (next Status, changed bool, err error) {
	if err = errors.Join(s.Validate(), target.Validate()); err != nil {
		return s, false, err
	}

	if s.IsTerminal() {
		return s, false, &TransitionError{From: s, To: target, Err: ErrAlreadyTerminal}
	}

	if target == s {
		return s, false, nil
	}

	if forward, ok := s.Next(); (ok && target == forward) || target == Cancelled {
		return target, true, nil
	}

	return s, false, &TransitionError{From: s, To: target, Err: ErrInvalidTransition}
}
