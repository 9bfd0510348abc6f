package scenarios

import (
	"context"
	"fmt"
	"time"

	"github.com/gotrs-io/saucedemo-e2e/internal/config"
	"github.com/gotrs-io/saucedemo-e2e/internal/pages"
	"github.com/gotrs-io/saucedemo-e2e/internal/session"
)

// Purchase logs in as a persona and buys the fixture product.
type Purchase struct {
	name    string
	persona config.Persona
	timeout time.Duration
	// strict personas fail when the confirmation is missing; the others
	// only warn, since their accounts are built to misbehave.
	strict bool
}

// NewPurchase creates a purchase scenario.
func NewPurchase(name string, persona config.Persona, timeout time.Duration, strict bool) *Purchase {
	return &Purchase{name: name, persona: persona, timeout: timeout, strict: strict}
}

func (p *Purchase) Name() string            { return p.name }
func (p *Purchase) Persona() config.Persona { return p.persona }
func (p *Purchase) Timeout() time.Duration  { return p.timeout }

func (p *Purchase) Run(ctx context.Context, s *session.Session) error {
	log := s.Log()
	data := s.Data()
	who := p.persona.DisplayName()
	login := pages.NewLoginPage(s)
	inventory := pages.NewInventoryPage(s)
	checkout := pages.NewCheckoutPage(s)

	log.Info(fmt.Sprintf("Starting %s purchase flow test", who))

	if err := login.NavigateToSite(ctx); err != nil {
		return err
	}
	creds := p.persona.Credentials()
	if err := login.Login(ctx, creds.Username, creds.Password); err != nil {
		return err
	}
	if s.Stage() < session.LoggedIn {
		return fmt.Errorf("%w: %s", ErrLoginFailed, who)
	}
	log.Success(fmt.Sprintf("%s login successful", who))

	if err := inventory.CompleteProductSelection(ctx, data.ProductName); err != nil {
		return err
	}
	log.Success(fmt.Sprintf("Product selection completed for %s", who))

	info := data.Checkout
	if err := checkout.FillShippingDetails(ctx, info.FirstName, info.LastName, info.PostalCode); err != nil {
		return err
	}
	if err := checkout.ClickContinue(ctx); err != nil {
		return err
	}
	if err := checkout.ClickFinish(ctx); err != nil {
		return err
	}

	done, err := checkout.IsOrderComplete(ctx)
	if err != nil {
		return err
	}
	if !done {
		if p.strict {
			return fmt.Errorf("%w: %s", ErrOrderNotConfirmed, who)
		}
		log.Warning(fmt.Sprintf("%s finished checkout without an order confirmation", who))
	}
	log.Success(fmt.Sprintf("%s purchase flow completed", who))
	return nil
}
