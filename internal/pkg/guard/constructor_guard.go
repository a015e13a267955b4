// Package guard lets value objects and commands detect that they were built through
// their constructor rather than as a zero value.
package guard

import "errors"

// ErrDefaultConstructorGuard is returned by Validate when the caller supplies no error
// of its own, so a zero-value owner never validates silently.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard is embedded in structs whose zero value is not meaningful: order
// ids, commands and queries. Only NewConstructorGuard produces a guard that validates,
// so an owner written as a struct literal, or left zero, fails its Validate method
// before any use case acts on it.
//
// The guard carries a single unexported flag. Copying an owner copies the flag, so
// values stay valid when passed around by value.
//
// Example:
//
//	var ErrChangeOrderStatusCommandIsNotConstructed = errors.New(
//	    "ChangeOrderStatusCommand must be created via NewChangeOrderStatusCommand")
//
//	type ChangeOrderStatusCommand struct {
//	    orderID kernel.OrderID
//	    status  order.Status
//	    guard   guard.ConstructorGuard
//	}
//
//	func NewChangeOrderStatusCommand(id kernel.OrderID, status order.Status) (ChangeOrderStatusCommand, error) {
//	    if err := id.Validate(); err != nil {
//	        return ChangeOrderStatusCommand{}, err
//	    }
//	    return ChangeOrderStatusCommand{orderID: id, status: status, guard: guard.NewConstructorGuard()}, nil
//	}
//
//	func (c ChangeOrderStatusCommand) Validate() error {
//	    return c.guard.Validate(ErrChangeOrderStatusCommandIsNotConstructed)
//	}
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard marks its owner as constructed. Call it only from the owner's
// constructor, after every argument has been checked.
//
// Returns:
//   - a ConstructorGuard whose Validate always reports nil
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate reports whether the owner went through its constructor. Owners call it
// first thing in their own Validate method.
//
// Parameters:
//   - validationError: the error describing the owner, returned for a zero-value guard
//
// Returns:
//   - nil when the guard came from NewConstructorGuard
//   - validationError when the guard is the zero value
//   - ErrDefaultConstructorGuard when the guard is the zero value and validationError is nil
func (g ConstructorGuard) Validate(validationError error) error {
	if g.isConstructed {
		return nil
	}
	if validationError == nil {
		return ErrDefaultConstructorGuard
	}
	return validationError
}
