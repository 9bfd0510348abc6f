package scenarios

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLoginFailed is returned when a purchase persona never reaches
	// the inventory.
	ErrLoginFailed = errors.New("login failed")
	// ErrOrderNotConfirmed is returned when a strict purchase finishes
	// without the order confirmation.
	ErrOrderNotConfirmed = errors.New("order confirmation not shown")
	// ErrLockoutNotShown is returned when the locked persona is not
	// rejected with the expected banner.
	ErrLockoutNotShown = errors.New("lockout message not shown")
	// ErrUnexpectedLogin is returned when the locked persona gets in.
	ErrUnexpectedLogin = errors.New("locked out user was logged in")
)

// UnknownScenarioError names a scenario that is not registered.
type UnknownScenarioError struct {
	Name  string
	Known []string
}

func (e *UnknownScenarioError) Error() string {
	return fmt.Sprintf("unknown scenario %q (known: %s)", e.Name, strings.Join(e.Known, ", "))
}

// SuiteError reports the scenarios that failed in a run.
type SuiteError struct {
	Failed []Result
	Total  int
}

func (e *SuiteError) Error() string {
	names := make([]string, len(e.Failed))
	for i, r := range e.Failed {
		names[i] = r.Scenario
	}
	return fmt.Sprintf("%d of %d scenarios failed: %s", len(e.Failed), e.Total, strings.Join(names, ", "))
}

func (e *SuiteError) Unwrap() []error {
	errs := make([]error, len(e.Failed))
	for i, r := range e.Failed {
		errs[i] = r.Err
	}
	return errs
}

// Check returns a *SuiteError when any result failed.
func Check(results []Result) error {
	var failed []Result
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return &SuiteError{Failed: failed, Total: len(results)}
}
