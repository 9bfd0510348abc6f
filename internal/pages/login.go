// Package pages holds the Swag Labs page workflows. Each workflow is a thin
// façade over a session: it owns no state beyond the session it was built
// with, so a fresh one is created per test.
package pages

import (
	"context"
	"errors"
	"fmt"

	"github.com/gotrs-io/saucedemo-e2e/internal/automation"
	"github.com/gotrs-io/saucedemo-e2e/internal/session"
)

// errorBanner is the prefix every Swag Labs error banner starts with.
const errorBanner = "Epic sadface"

// LoginPage drives the login screen.
type LoginPage struct {
	s *session.Session
}

// NewLoginPage creates a login workflow on s.
func NewLoginPage(s *session.Session) *LoginPage {
	return &LoginPage{s: s}
}

// NavigateToSite opens a browser window, loads the shop and waits until the
// site landmark is visible.
func (p *LoginPage) NavigateToSite(ctx context.Context) error {
	return p.s.Step(ctx, "Navigate to site", func(ctx context.Context) error {
		c := p.s.Client()
		if err := c.ExecOnShell(ctx, p.s.LaunchCommand()); err != nil {
			return fmt.Errorf("failed to launch browser: %w", err)
		}
		if err := c.Type(ctx, p.s.Data().BaseURL); err != nil {
			return fmt.Errorf("failed to type site address: %w", err)
		}
		if err := c.PressKey(ctx, "enter"); err != nil {
			return fmt.Errorf("failed to open site: %w", err)
		}
		if err := p.s.ExpectWithin(ctx, automation.Text(p.s.Data().SiteLandmark), p.s.LandmarkWait()); err != nil {
			return fmt.Errorf("site did not load: %w", err)
		}
		return p.s.Advance(session.SiteLoaded)
	})
}

// EnterUsername types name into the username field. Empty names are typed
// as is.
func (p *LoginPage) EnterUsername(ctx context.Context, name string) error {
	if err := p.s.ClickAndType(ctx, "Username", name); err != nil {
		return fmt.Errorf("failed to enter username: %w", err)
	}
	return nil
}

// EnterPassword types pw into the password field.
func (p *LoginPage) EnterPassword(ctx context.Context, pw string) error {
	if err := p.s.ClickAndType(ctx, "Password", pw); err != nil {
		return fmt.Errorf("failed to enter password: %w", err)
	}
	return nil
}

// ClickLogin submits the form, gives the page a bounded moment to show
// either the inventory or an error banner, then presses escape to dismiss
// any pop-up the browser raised.
func (p *LoginPage) ClickLogin(ctx context.Context) error {
	c := p.s.Client()
	if err := c.PressKey(ctx, "enter"); err != nil {
		return fmt.Errorf("failed to submit login: %w", err)
	}

	settled := func(ctx context.Context) (bool, error) {
		for _, loc := range []automation.Locator{
			automation.Text(p.s.Data().InventoryLandmark),
			automation.Text(errorBanner),
		} {
			ok, err := c.Exists(ctx, loc)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	}
	err := automation.WaitUntil(ctx, settled, p.s.Backoff(p.s.SettleWait()))
	switch {
	case err == nil:
	case errors.Is(err, automation.ErrWaitTimeout):
		// Slow logins are expected for some accounts; callers assert
		// the outcome themselves.
		p.s.Log().Info("Login page still settling")
	default:
		return fmt.Errorf("failed waiting for login response: %w", err)
	}

	if err := c.PressKey(ctx, "escape"); err != nil {
		return fmt.Errorf("failed to dismiss pop-up: %w", err)
	}
	return nil
}

// Login enters the credentials and submits them. It does not retry and
// does not fail on rejected credentials; the flow only advances to
// LoggedIn once the inventory is visible.
func (p *LoginPage) Login(ctx context.Context, username, password string) error {
	return p.s.Step(ctx, "Login", func(ctx context.Context) error {
		if err := p.EnterUsername(ctx, username); err != nil {
			return err
		}
		if err := p.EnterPassword(ctx, password); err != nil {
			return err
		}
		if err := p.ClickLogin(ctx); err != nil {
			return err
		}
		ok, err := p.s.Client().Exists(ctx, automation.Text(p.s.Data().InventoryLandmark))
		if err != nil {
			return err
		}
		if ok {
			return p.s.Advance(session.LoggedIn)
		}
		return nil
	})
}

// IsErrorMessageDisplayed reports whether msg shows up within the settle
// wait. Only backend failures are returned as errors.
func (p *LoginPage) IsErrorMessageDisplayed(ctx context.Context, msg string) (bool, error) {
	if msg == "" {
		return false, nil
	}
	return p.s.Appears(ctx, automation.Text(msg), p.s.SettleWait())
}
