package shop

import (
	"errors"
	"fmt"
	"math"
)

// Cart holds product ids in the order they were added. A product is in the
// cart at most once.
type Cart struct {
	ids []int
}

// Add puts id in the cart. Adding a product twice is a no-op.
func (c *Cart) Add(id int) bool {
	if c.Contains(id) {
		return false
	}
	c.ids = append(c.ids, id)
	return true
}

// Remove takes id out of the cart.
func (c *Cart) Remove(id int) bool {
	for i, v := range c.ids {
		if v == id {
			c.ids = append(c.ids[:i], c.ids[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Cart) Contains(id int) bool {
	for _, v := range c.ids {
		if v == id {
			return true
		}
	}
	return false
}

// Count is the number of items, shown on the cart badge.
func (c *Cart) Count() int {
	return len(c.ids)
}

// Items returns the products in the cart.
func (c *Cart) Items() []Product {
	out := make([]Product, 0, len(c.ids))
	for _, id := range c.ids {
		if p, ok := ProductByID(id); ok {
			out = append(out, p)
		}
	}
	return out
}

// Clear empties the cart after an order.
func (c *Cart) Clear() {
	c.ids = nil
}

// CheckoutInfo is the "Your Information" form.
type CheckoutInfo struct {
	FirstName  string
	LastName   string
	PostalCode string
}

var (
	ErrFirstNameRequired  = errors.New("first name is required")
	ErrLastNameRequired   = errors.New("last name is required")
	ErrPostalCodeRequired = errors.New("postal code is required")
)

// FormMessage is the banner text shown for a validation error.
func FormMessage(err error) string {
	switch {
	case errors.Is(err, ErrFirstNameRequired):
		return "Error: First Name is required"
	case errors.Is(err, ErrLastNameRequired):
		return "Error: Last Name is required"
	case errors.Is(err, ErrPostalCodeRequired):
		return "Error: Postal Code is required"
	}
	return ""
}

// Validate checks the form in field order.
func (i CheckoutInfo) Validate() error {
	switch {
	case i.FirstName == "":
		return ErrFirstNameRequired
	case i.LastName == "":
		return ErrLastNameRequired
	case i.PostalCode == "":
		return ErrPostalCodeRequired
	}
	return nil
}

// TaxRate applied on the overview page.
const TaxRate = 0.08

// Summary is the checkout overview.
type Summary struct {
	ItemTotal float64
	Tax       float64
	Total     float64
}

// Summarize prices the cart.
func (c *Cart) Summarize() Summary {
	var s Summary
	for _, p := range c.Items() {
		s.ItemTotal += p.Price
	}
	s.ItemTotal = round(s.ItemTotal)
	s.Tax = round(s.ItemTotal * TaxRate)
	s.Total = round(s.ItemTotal + s.Tax)
	return s
}

func round(v float64) float64 {
	return math.Round(v*100) / 100
}

// Money formats a price the way the site does.
func Money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

// CompletionHeader is shown once an order is placed.
const CompletionHeader = "Thank you for your order!"
