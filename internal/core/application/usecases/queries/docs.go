// Package queries contains read-only operations over the Order Store. Queries never
// change state and read through ports.OrderRepository, so every backend serves them.
package queries
