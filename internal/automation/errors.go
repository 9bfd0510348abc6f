package automation

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotConnected is returned by every primitive outside Connect/Disconnect.
	ErrNotConnected = errors.New("automation client not connected")
	// ErrWaitTimeout is returned when a polled condition never holds.
	ErrWaitTimeout = errors.New("wait timed out")
	// ErrUnknownElement is returned for element names missing from the element map.
	ErrUnknownElement = errors.New("unknown visual element")
	// ErrNoWindow is returned when a page operation runs with no open window.
	ErrNoWindow = errors.New("no browser window open")
	// ErrUnknownKey is returned for key names that cannot be mapped.
	ErrUnknownKey = errors.New("unknown key")
	// ErrNoPointer is returned by MouseLeftClick before any click happened.
	ErrNoPointer = errors.New("no pointer position recorded")
)

// AssertionError reports a locator that was not visible within the wait window.
type AssertionError struct {
	Locator Locator
	Timeout time.Duration
	Err     error
}

func (e *AssertionError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("expected %s to exist within %s", e.Locator, e.Timeout)
	}
	return fmt.Sprintf("expected %s to exist", e.Locator)
}

func (e *AssertionError) Unwrap() error {
	return e.Err
}

// IsAssertion reports whether err carries an AssertionError.
func IsAssertion(err error) bool {
	var ae *AssertionError
	return errors.As(err, &ae)
}
