package scenarios

import (
	"context"
	"fmt"
	"time"

	"github.com/gotrs-io/saucedemo-e2e/internal/config"
	"github.com/gotrs-io/saucedemo-e2e/internal/pages"
	"github.com/gotrs-io/saucedemo-e2e/internal/session"
)

// LockedOut checks that the locked persona is turned away at login.
type LockedOut struct {
	name    string
	timeout time.Duration
}

// NewLockedOut creates the locked-out scenario.
func NewLockedOut(name string, timeout time.Duration) *LockedOut {
	return &LockedOut{name: name, timeout: timeout}
}

func (l *LockedOut) Name() string            { return l.name }
func (l *LockedOut) Persona() config.Persona { return config.Locked }
func (l *LockedOut) Timeout() time.Duration  { return l.timeout }

func (l *LockedOut) Run(ctx context.Context, s *session.Session) error {
	log := s.Log()
	want := s.Data().LockedUserError
	login := pages.NewLoginPage(s)

	log.Info("Starting locked out user login test")
	if err := login.NavigateToSite(ctx); err != nil {
		return err
	}
	creds := config.Locked.Credentials()
	if err := login.Login(ctx, creds.Username, creds.Password); err != nil {
		return err
	}
	if s.Stage() >= session.LoggedIn {
		return ErrUnexpectedLogin
	}

	shown, err := login.IsErrorMessageDisplayed(ctx, want)
	if err != nil {
		return err
	}
	if !shown {
		return fmt.Errorf("%w: %q", ErrLockoutNotShown, want)
	}
	log.Success("Locked out user was rejected with the expected message")
	return nil
}
