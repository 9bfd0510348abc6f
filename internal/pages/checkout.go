package pages

import (
	"context"
	"errors"
	"fmt"

	"github.com/gotrs-io/saucedemo-e2e/internal/automation"
	"github.com/gotrs-io/saucedemo-e2e/internal/session"
)

// ErrBlankValue is returned by VerifyEnteredValues for empty inputs.
var ErrBlankValue = errors.New("value is blank")

// CheckoutPage drives the checkout form, overview and confirmation.
type CheckoutPage struct {
	s *session.Session
}

// NewCheckoutPage creates a checkout workflow on s.
func NewCheckoutPage(s *session.Session) *CheckoutPage {
	return &CheckoutPage{s: s}
}

// ClickCheckout clicks the checkout button on the cart page.
func (p *CheckoutPage) ClickCheckout(ctx context.Context) error {
	if err := p.s.Click(ctx, automation.Text(checkout)); err != nil {
		return fmt.Errorf("failed to click checkout: %w", err)
	}
	return nil
}

// EnterFirstName types v into the First Name field.
func (p *CheckoutPage) EnterFirstName(ctx context.Context, v string) error {
	if err := p.s.ClickAndType(ctx, firstNameLabel, v); err != nil {
		return fmt.Errorf("failed to enter first name: %w", err)
	}
	return nil
}

// EnterLastName types v into the Last Name field.
func (p *CheckoutPage) EnterLastName(ctx context.Context, v string) error {
	if err := p.s.ClickAndType(ctx, "Last Name", v); err != nil {
		return fmt.Errorf("failed to enter last name: %w", err)
	}
	return nil
}

// EnterPostalCode types v into the Zip/Postal Code field.
func (p *CheckoutPage) EnterPostalCode(ctx context.Context, v string) error {
	if err := p.s.ClickAndType(ctx, "Zip/Postal Code", v); err != nil {
		return fmt.Errorf("failed to enter postal code: %w", err)
	}
	return nil
}

// FillShippingDetails enters the customer information.
func (p *CheckoutPage) FillShippingDetails(ctx context.Context, first, last, postal string) error {
	return p.s.Step(ctx, "Fill shipping details", func(ctx context.Context) error {
		if err := p.EnterFirstName(ctx, first); err != nil {
			return err
		}
		if err := p.EnterLastName(ctx, last); err != nil {
			return err
		}
		if err := p.EnterPostalCode(ctx, postal); err != nil {
			return err
		}
		return p.s.Advance(session.CheckoutFormFilled)
	})
}

// VerifyEnteredValues checks that the three values were typed and are
// visible in the form. Blank values are reported before the screen is
// consulted.
func (p *CheckoutPage) VerifyEnteredValues(ctx context.Context, first, last, postal string) error {
	values := []struct{ label, value string }{
		{"First name", first},
		{"Last name", last},
		{"Postal code", postal},
	}

	var blank []error
	for _, v := range values {
		if v.value == "" {
			err := fmt.Errorf("%s: %w", v.label, ErrBlankValue)
			p.s.Log().Error(fmt.Sprintf("%s is empty", v.label), err)
			blank = append(blank, err)
		}
	}
	if len(blank) > 0 {
		return errors.Join(blank...)
	}

	for _, v := range values {
		if err := p.s.Expect(ctx, automation.Text(v.value)); err != nil {
			p.s.Log().Error(fmt.Sprintf("%s %q is not displayed", v.label, v.value), err)
			return err
		}
	}
	p.s.Log().Success("Entered values verified")
	return nil
}

// ClickContinue submits the customer information. The form must have
// been filled first.
func (p *CheckoutPage) ClickContinue(ctx context.Context) error {
	return p.s.Step(ctx, "Continue", func(ctx context.Context) error {
		if err := p.s.Require(session.CheckoutFormFilled); err != nil {
			return err
		}
		if err := p.scrollAndClick(ctx, "continue"); err != nil {
			return err
		}
		return p.s.Advance(session.ContinueClicked)
	})
}

// ClickFinish places the order. Continue must have been clicked first.
func (p *CheckoutPage) ClickFinish(ctx context.Context) error {
	return p.s.Step(ctx, "Finish", func(ctx context.Context) error {
		if err := p.s.Require(session.ContinueClicked); err != nil {
			return err
		}
		if err := p.scrollAndClick(ctx, "Finish"); err != nil {
			return err
		}
		return p.s.Advance(session.Finished)
	})
}

func (p *CheckoutPage) scrollAndClick(ctx context.Context, label string) error {
	if err := p.s.Client().PressKey(ctx, "pagedown"); err != nil {
		return fmt.Errorf("failed to scroll: %w", err)
	}
	if err := p.s.Click(ctx, automation.Text(label)); err != nil {
		return fmt.Errorf("failed to click %s: %w", label, err)
	}
	return nil
}

// IsOrderComplete reports whether the order confirmation shows up within
// the landmark wait.
func (p *CheckoutPage) IsOrderComplete(ctx context.Context) (bool, error) {
	return p.s.Appears(ctx, automation.Text(p.s.Data().CompletionText), p.s.LandmarkWait())
}
