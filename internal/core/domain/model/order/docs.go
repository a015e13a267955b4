// Package order provides the Order aggregate and the canonical status state machine.
//
// The package includes:
//   - Order: the aggregate root holding identity, customer channel and lifecycle status
//   - Status: the canonical statuses and the transition rules between them
//
// Key business rules:
//   - Status moves pending -> confirmed -> preparing -> delivering -> delivered, one step at a time
//   - Cancelled is reachable from any non-terminal status
//   - Delivered and Cancelled are terminal, every later request fails with ErrAlreadyTerminal
//   - Requesting the current status is a successful no-op
package order
