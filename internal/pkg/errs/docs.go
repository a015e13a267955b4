// Package errs provides standardized error types for the fulfillment application.
// Every error type pairs a sentinel (for errors.Is classification) with a struct
// carrying the details needed to build a human-readable message:
//   - ObjectNotFoundError: an order (or other object) does not exist
//   - ObjectAlreadyExistsError: an object with the same identity was already stored
//   - ValueIsRequiredError: a required value is missing
//   - ValueIsInvalidError: a value failed validation
//   - VersionIsInvalidError: a compare-and-set write observed a different current value
//   - StoreUnavailableError: the persistence backend could not be reached
//
// Each struct exposes a constructor with and without cause and unwraps to its sentinel.
package errs
