// Package commands contains business operations that modify order state.
// Every command follows the same pattern: a value built by its constructor and
// validated through a guard, and a handler that performs the write against ports.
package commands

import "time"

// Clock supplies the timestamp written with each change. time.Now satisfies it.
type Clock func() time.Time
