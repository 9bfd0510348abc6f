package shop

import (
	"errors"
	"strings"
	"time"
)

// Password is shared by every demo account.
const Password = "secret_sauce"

// DefaultLockedOutMessage is what the live site shows a locked account.
const DefaultLockedOutMessage = "Epic sadface: Sorry, this user has been locked out."

// Account quirks.
const (
	QuirkNone = iota
	QuirkLockedOut
	QuirkProblem
	QuirkGlitch
	QuirkError
)

// Account is a demo login.
type Account struct {
	Username string
	Quirk    int
}

var accounts = []Account{
	{Username: "standard_user"},
	{Username: "locked_out_user", Quirk: QuirkLockedOut},
	{Username: "problem_user", Quirk: QuirkProblem},
	{Username: "performance_glitch_user", Quirk: QuirkGlitch},
	{Username: "error_user", Quirk: QuirkError},
}

// Description is the product blurb an account sees. The problem account
// sees the same filler text for every product.
func (a Account) Description(p Product) string {
	if a.Quirk == QuirkProblem {
		return strings.TrimSpace(strings.Repeat("lorem ipsum ", 3))
	}
	return p.Description
}

// CanFinish reports whether the account can place an order. The error
// account's Finish button does nothing.
func (a Account) CanFinish() bool {
	return a.Quirk != QuirkError
}

// Accounts returns the known logins.
func Accounts() []Account {
	out := make([]Account, len(accounts))
	copy(out, accounts)
	return out
}

var (
	ErrUsernameRequired = errors.New("username is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrBadCredentials   = errors.New("username and password do not match")
	ErrLockedOut        = errors.New("user has been locked out")
)

// Store holds the behaviour knobs of a running shop.
type Store struct {
	LockedOutMessage string
	// GlitchDelay is how long the inventory takes to appear for the
	// performance glitch account.
	GlitchDelay time.Duration
}

// NewStore returns a store with the live site's defaults.
func NewStore() Store {
	return Store{LockedOutMessage: DefaultLockedOutMessage, GlitchDelay: 1500 * time.Millisecond}
}

// Authenticate checks a login attempt.
func (s Store) Authenticate(username, password string) (Account, error) {
	if username == "" {
		return Account{}, ErrUsernameRequired
	}
	if password == "" {
		return Account{}, ErrPasswordRequired
	}
	for _, a := range accounts {
		if a.Username != username {
			continue
		}
		if password != Password {
			break
		}
		if a.Quirk == QuirkLockedOut {
			return a, ErrLockedOut
		}
		return a, nil
	}
	return Account{}, ErrBadCredentials
}

// LoginDelay is how long the landing page takes for a.
func (s Store) LoginDelay(a Account) time.Duration {
	if a.Quirk == QuirkGlitch {
		return s.GlitchDelay
	}
	return 0
}

// LoginMessage is the banner text shown for a failed login.
func (s Store) LoginMessage(err error) string {
	switch {
	case errors.Is(err, ErrUsernameRequired):
		return "Epic sadface: Username is required"
	case errors.Is(err, ErrPasswordRequired):
		return "Epic sadface: Password is required"
	case errors.Is(err, ErrLockedOut):
		if s.LockedOutMessage != "" {
			return s.LockedOutMessage
		}
		return DefaultLockedOutMessage
	case err != nil:
		return "Epic sadface: Username and password do not match any user in this service"
	}
	return ""
}
