package kernel

import (
	"fmt"
	"regexp"
	"strings"

	"fulfillment/internal/pkg/errs"

	"github.com/google/uuid"
)

const orderIDPrefix = "O-"

var orderIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// ErrOrderIDIsNotConstructed is returned when validating a zero-value OrderID.
var ErrOrderIDIsNotConstructed = errs.NewValueIsRequiredError("OrderID must be created via NewOrderID or OrderIDFromString")

// OrderID is the externally visible, human-shareable identifier of an order.
// Customers read it aloud to support and operators see it on their controls,
// so it is short, case-preserving and restricted to URL-safe characters.
//
// The zero value is invalid.
//
// Example:
//
//	id := kernel.NewOrderID()           // e.g. "O-1F3A9C0B"
//	id, err := kernel.OrderIDFromString("O-100")
type OrderID struct {
	value string
}

// NewOrderID generates a fresh identifier of the form "O-XXXXXXXX" from a random UUID.
func NewOrderID() OrderID {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return OrderID{value: orderIDPrefix + strings.ToUpper(raw[:8])}
}

// OrderIDFromString parses an identifier received from an operator action, a URL or storage.
// Surrounding whitespace is ignored.
func OrderIDFromString(s string) (OrderID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return OrderID{}, errs.NewValueIsRequiredError("order id")
	}
	if !orderIDPattern.MatchString(s) {
		return OrderID{}, errs.NewValueIsInvalidErrorWithCause(
			"order id",
			fmt.Errorf("%q must contain only letters, digits, '-' or '_' and be at most 64 characters", s),
		)
	}
	return OrderID{value: s}, nil
}

// MustOrderIDFromString is OrderIDFromString for literals known to be valid; it panics otherwise.
func MustOrderIDFromString(s string) OrderID {
	id, err := OrderIDFromString(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the identifier as shown to people.
func (id OrderID) String() string {
	return id.value
}

// IsEqual compares two identifiers.
func (id OrderID) IsEqual(other OrderID) bool {
	return id.value == other.value
}

// Validate returns ErrOrderIDIsNotConstructed for the zero value.
func (id OrderID) Validate() error {
	if id.value == "" {
		return ErrOrderIDIsNotConstructed
	}
	return nil
}
