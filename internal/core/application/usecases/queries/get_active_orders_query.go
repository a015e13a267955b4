package queries

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrGetActiveOrdersQueryIsNotConstructed = errors.New(
		"GetActiveOrdersQuery must be created via NewGetActiveOrdersQuery constructor",
	)
)

// GetActiveOrdersQuery lists a customer's orders that are neither delivered nor cancelled.
// This is the query the tracking view polls.
//
// Example:
//
//	ref, _ := kernel.ChannelRefFromString("424242")
//	query, err := NewGetActiveOrdersQuery(ref)
//	orders, err := handler.Handle(ctx, query)
//	if len(orders) > 0 {
//	    tracked := orders[0] // most recently created
//	}
type GetActiveOrdersQuery struct {
	customerRef kernel.ChannelRef

	guard guard.ConstructorGuard
}

// NewGetActiveOrdersQuery creates a query for the customer behind customerRef.
func NewGetActiveOrdersQuery(customerRef kernel.ChannelRef) (GetActiveOrdersQuery, error) {
	if err := customerRef.Validate(); err != nil {
		return GetActiveOrdersQuery{}, err
	}
	return GetActiveOrdersQuery{customerRef: customerRef, guard: guard.NewConstructorGuard()}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetActiveOrdersQuery) Validate() error {
	return q.guard.Validate(ErrGetActiveOrdersQueryIsNotConstructed)
}

// CustomerRef returns the customer whose orders are listed.
func (q GetActiveOrdersQuery) CustomerRef() kernel.ChannelRef {
	return q.customerRef
}
