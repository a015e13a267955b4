package guard_test

import (
	"errors"
	"fmt"

	"fulfillment/internal/pkg/guard"
)

var errTicketNotConstructed = errors.New("ticket must be created via newTicket")

type ticket struct {
	id    string
	guard guard.ConstructorGuard
}

func newTicket(id string) ticket {
	return ticket{id: id, guard: guard.NewConstructorGuard()}
}

func (t ticket) Validate() error {
	return t.guard.Validate(errTicketNotConstructed)
}

func ExampleConstructorGuard() {
	fmt.Println(newTicket("O-1").Validate())
	fmt.Println(ticket{id: "O-1"}.Validate())
	fmt.Println(guard.ConstructorGuard{}.Validate(nil))
	// Output:
	// <nil>
	// ticket must be created via newTicket
	// object must be created via its constructor
}
