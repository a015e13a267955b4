package kernel

import (
	"strings"

	"fulfillment/internal/pkg/errs"
)

// ErrChannelRefIsNotConstructed is returned when validating a zero-value ChannelRef.
var ErrChannelRefIsNotConstructed = errs.NewValueIsRequiredError("ChannelRef must be created via ChannelRefFromString")

// ChannelRef is an opaque reference to the chat through which a customer can be reached.
// The fulfillment core never interprets it; only the chat transport does.
// Orders hold it as an optional pointer: its absence disables push notifications.
type ChannelRef struct {
	value string
}

// ChannelRefFromString wraps a non-empty transport reference.
func ChannelRefFromString(s string) (ChannelRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ChannelRef{}, errs.NewValueIsRequiredError("customer channel ref")
	}
	return ChannelRef{value: s}, nil
}

// OptionalChannelRef returns nil for an empty string and a reference otherwise.
func OptionalChannelRef(s string) *ChannelRef {
	ref, err := ChannelRefFromString(s)
	if err != nil {
		return nil
	}
	return &ref
}

func (r ChannelRef) String() string {
	return r.value
}

// IsEqual compares two references.
func (r ChannelRef) IsEqual(other ChannelRef) bool {
	return r.value == other.value
}

// Validate returns ErrChannelRefIsNotConstructed for the zero value.
func (r ChannelRef) Validate() error {
	if r.value == "" {
		return ErrChannelRefIsNotConstructed
	}
	return nil
}
