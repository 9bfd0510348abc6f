package pages

import (
	"context"
	"fmt"

	"github.com/gotrs-io/saucedemo-e2e/internal/automation"
	"github.com/gotrs-io/saucedemo-e2e/internal/session"
)

// Named visual elements and labels on the inventory and cart screens.
const (
	cartElement    = "cart1"
	backToProducts = "Back to products"
	addToCart      = "Add to cart"
	removeFromCart = "Remove"
	checkout       = "checkout"
	firstNameLabel = "First Name"
)

// InventoryPage drives product selection and the cart.
type InventoryPage struct {
	s *session.Session
}

// NewInventoryPage creates an inventory workflow on s.
func NewInventoryPage(s *session.Session) *InventoryPage {
	return &InventoryPage{s: s}
}

// SelectProduct opens the product detail page for name and verifies it.
func (p *InventoryPage) SelectProduct(ctx context.Context, name string) error {
	return p.s.Step(ctx, "Select product", func(ctx context.Context) error {
		log := p.s.Log()
		log.Info(fmt.Sprintf("Attempting to select product: %s", name))

		if err := p.s.Click(ctx, automation.Text(name)); err != nil {
			return fmt.Errorf("failed to select product %q: %w", name, err)
		}
		log.Success(fmt.Sprintf("Successfully clicked product: %s", name))

		if err := p.s.ExpectWithin(ctx, automation.Text(backToProducts), p.s.LandmarkWait()); err != nil {
			return fmt.Errorf("product page did not open: %w", err)
		}
		if err := p.s.Expect(ctx, automation.Text(name)); err != nil {
			return fmt.Errorf("product page does not show %q: %w", name, err)
		}
		log.Success(fmt.Sprintf("Successfully verified product page for: %s", name))
		return p.s.Advance(session.ProductSelected)
	})
}

// AddToCart puts the open product in the cart. When the product is already
// there it is removed and added again, so the cart ends up with one unit.
func (p *InventoryPage) AddToCart(ctx context.Context) error {
	return p.s.Step(ctx, "Add to cart", func(ctx context.Context) error {
		log := p.s.Log()
		log.Info("Attempting to add product to cart")

		found, err := p.s.ExpectAny(ctx, automation.Text(addToCart), automation.Text(removeFromCart))
		if err != nil {
			return fmt.Errorf("failed to find cart button: %w", err)
		}
		if found.Value == addToCart {
			if err := p.s.Client().Click(ctx, found); err != nil {
				return fmt.Errorf("failed to add product to cart: %w", err)
			}
			log.Success("Successfully added product to cart")
			return nil
		}

		log.Warning("Add to cart button not found, attempting remove and add sequence")
		if err := p.s.Client().Click(ctx, found); err != nil {
			return fmt.Errorf("failed to remove product from cart: %w", err)
		}
		log.Info("Successfully clicked Remove button")
		if err := p.s.Click(ctx, automation.Text(addToCart)); err != nil {
			return fmt.Errorf("failed to add product to cart: %w", err)
		}
		log.Success("Successfully added product to cart after remove")
		return nil
	})
}

// GoToCart opens the cart through the cart icon.
func (p *InventoryPage) GoToCart(ctx context.Context) error {
	return p.s.Step(ctx, "Go to cart", func(ctx context.Context) error {
		log := p.s.Log()
		log.Info("Attempting to navigate to cart")

		if err := p.s.Click(ctx, automation.Element(cartElement)); err != nil {
			return fmt.Errorf("failed to open cart: %w", err)
		}
		log.Success("Successfully clicked cart icon")

		// The icon is in the shared header, so this lands on it again.
		if err := p.s.Client().MouseLeftClick(ctx); err != nil {
			return fmt.Errorf("failed to click cart again: %w", err)
		}
		log.Info("Additional click performed to view cart contents")

		if err := p.s.ExpectWithin(ctx, automation.Text(checkout), p.s.LandmarkWait()); err != nil {
			return fmt.Errorf("cart page did not load: %w", err)
		}
		log.Success("Successfully verified cart page loaded")
		return p.s.Advance(session.InCart)
	})
}

// ProceedToCheckout leaves the cart for the customer information form.
func (p *InventoryPage) ProceedToCheckout(ctx context.Context) error {
	return p.s.Step(ctx, "Proceed to checkout", func(ctx context.Context) error {
		log := p.s.Log()
		log.Info("Attempting to proceed to checkout")

		if err := NewCheckoutPage(p.s).ClickCheckout(ctx); err != nil {
			return fmt.Errorf("failed to proceed to checkout: %w", err)
		}
		log.Success("Successfully proceeded to checkout")

		if err := p.s.ExpectWithin(ctx, automation.Text(firstNameLabel), p.s.LandmarkWait()); err != nil {
			return fmt.Errorf("checkout page did not load: %w", err)
		}
		log.Success("Successfully verified checkout page loaded")
		return nil
	})
}

// CompleteProductSelection selects name, adds it to the cart and walks to
// the checkout form, stopping at the first failure.
func (p *InventoryPage) CompleteProductSelection(ctx context.Context, name string) error {
	return p.s.Step(ctx, "Complete product selection", func(ctx context.Context) error {
		log := p.s.Log()
		log.Info(fmt.Sprintf("Starting complete product selection flow for: %s", name))

		steps := []struct {
			done string
			run  func(context.Context) error
		}{
			{"Product selection step completed", func(ctx context.Context) error { return p.SelectProduct(ctx, name) }},
			{"Add to cart step completed", p.AddToCart},
			{"Cart navigation step completed", p.GoToCart},
			{"Proceed to checkout step completed", p.ProceedToCheckout},
		}
		for _, st := range steps {
			if err := st.run(ctx); err != nil {
				return err
			}
			log.Info(st.done)
		}

		log.Success("Completed product selection flow successfully")
		return nil
	})
}

// IsErrorDisplayed asserts that msg is visible.
func (p *InventoryPage) IsErrorDisplayed(ctx context.Context, msg string) error {
	if err := p.s.Expect(ctx, automation.Text(msg)); err != nil {
		return err
	}
	p.s.Log().Info(fmt.Sprintf("Error message verified: %s", msg))
	return nil
}
