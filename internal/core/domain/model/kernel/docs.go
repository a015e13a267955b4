// Package kernel contains value objects shared across the fulfillment domain.
//
//   - OrderID: human-shareable order identifier such as "O-100"
//   - ChannelRef: opaque reference to a customer's chat channel
//
// Both are immutable and have an invalid zero value detected by Validate.
package kernel
