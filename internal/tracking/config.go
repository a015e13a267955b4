package tracking

import (
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/pkg/errs"
)

// Config holds the timing of a session.
type Config struct {
	// PollInterval is the delay between scheduled polls. The scheduler works in whole
	// seconds, so it must be at least one second.
	PollInterval time.Duration

	// AutoClearDelay is how long a delivered order stays visible.
	AutoClearDelay time.Duration

	// FetchTimeout bounds every read issued by a poll.
	FetchTimeout time.Duration
}

// DefaultConfig returns the reference timings: poll every 10s, keep a delivered order
// for 30s, give up on a read after 5s.
func DefaultConfig() Config {
	return Config{
		PollInterval:   10 * time.Second,
		AutoClearDelay: 30 * time.Second,
		FetchTimeout:   5 * time.Second,
	}
}

// Validate checks every duration.
func (c Config) Validate() error {
	var errList []error
	if c.PollInterval < time.Second {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause(
			"poll interval", fmt.Errorf("%s is shorter than 1s", c.PollInterval)))
	}
	if c.AutoClearDelay <= 0 {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause(
			"auto clear delay", fmt.Errorf("%s is not positive", c.AutoClearDelay)))
	}
	if c.FetchTimeout <= 0 {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause(
			"fetch timeout", fmt.Errorf("%s is not positive", c.FetchTimeout)))
	}
	return errors.Join(errList...)
}
