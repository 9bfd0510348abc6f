package simulated

import (
	"fmt"

	"github.com/gotrs-io/saucedemo-e2e/internal/automation"
	"github.com/gotrs-io/saucedemo-e2e/internal/shop"
)

// Elements are laid out in one column; element i sits at pointAt(i).
const (
	columnX = 640
	rowTop  = 20
	rowStep = 30
)

func pointAt(i int) automation.Point {
	return automation.Point{X: columnX, Y: float64(rowTop + i*rowStep)}
}

func indexAt(p automation.Point) int {
	if p.X != columnX {
		return -1
	}
	off := int(p.Y) - rowTop
	if off < 0 || off%rowStep != 0 {
		return -1
	}
	return off / rowStep
}

type element struct {
	text        string
	placeholder string
	value       string
	selector    string
	field       string
	action      func()
}

func (e element) score(t automation.Target) int {
	if t.Locator.Kind == automation.KindElement {
		if e.selector != "" && e.selector == t.Selector {
			return automation.ExactMatch
		}
		return automation.NoMatch
	}
	best := automation.NoMatch
	for _, s := range []string{e.text, e.placeholder, e.value} {
		if sc := automation.MatchScore(s, t.Locator.Value); sc > best {
			best = sc
		}
	}
	return best
}

func (e element) describe(fields map[string]string) string {
	switch {
	case e.field != "":
		return fmt.Sprintf("input[%s] placeholder=%q value=%q", e.field, e.placeholder, fields[e.field])
	case e.value != "":
		return fmt.Sprintf("button %q", e.value)
	case e.selector != "":
		return fmt.Sprintf("%s %q", e.selector, e.text)
	}
	return fmt.Sprintf("%q", e.text)
}

func text(s string) element {
	return element{text: s}
}

func button(label string, action func()) element {
	return element{value: label, action: action}
}

func link(label string, action func()) element {
	return element{text: label, action: action}
}

func (d *Driver) input(field, placeholder string) element {
	return element{placeholder: placeholder, value: d.fields[field], field: field}
}

// render lists the visible elements of the current screen, top to bottom.
func (d *Driver) render() []element {
	switch d.screen {
	case ScreenLogin:
		return d.loginScreen()
	case ScreenUnreachable:
		return []element{text("This site can’t be reached"), text(d.url)}
	case ScreenBlank:
		return nil
	}

	// The glitch account waits on a slow landing page.
	if d.opts.Now().Before(d.readyAt) {
		return nil
	}

	elems := d.header()
	switch d.screen {
	case ScreenInventory:
		elems = append(elems, d.inventoryScreen()...)
	case ScreenDetail:
		elems = append(elems, d.detailScreen()...)
	case ScreenCart:
		elems = append(elems, d.cartScreen()...)
	case ScreenStepOne:
		elems = append(elems, d.stepOneScreen()...)
	case ScreenStepTwo:
		elems = append(elems, d.stepTwoScreen()...)
	case ScreenComplete:
		elems = append(elems, d.completeScreen()...)
	}
	return elems
}

func (d *Driver) loginScreen() []element {
	elems := []element{
		text("Swag Labs"),
		d.input(FieldUsername, "Username"),
		d.input(FieldPassword, "Password"),
	}
	if d.banner != "" {
		elems = append(elems, text(d.banner))
	}
	return append(elems,
		button("Login", d.login),
		text("Accepted usernames are:"),
		text("Password for all users:"),
	)
}

// header is shared by every signed-in screen, so the cart link keeps its
// position when the page changes underneath it.
func (d *Driver) header() []element {
	badge := ""
	if n := d.cart.Count(); n > 0 {
		badge = fmt.Sprint(n)
	}
	return []element{
		text("Swag Labs"),
		{text: badge, selector: ".shopping_cart_link", action: func() { d.show(ScreenCart) }},
		link("Open Menu", nil),
	}
}

func (d *Driver) cartButton(p shop.Product) element {
	if d.cart.Contains(p.ID) {
		return button("Remove", func() { d.cart.Remove(p.ID) })
	}
	return button("Add to cart", func() { d.cart.Add(p.ID) })
}

func (d *Driver) openItem(id int) func() {
	return func() {
		d.itemID = id
		d.show(ScreenDetail)
	}
}

func (d *Driver) inventoryScreen() []element {
	elems := []element{text("Products"), text("Name (A to Z)")}
	for _, p := range shop.Catalog() {
		elems = append(elems,
			link(p.Name, d.openItem(p.ID)),
			text(d.describeProduct(p)),
			text(shop.Money(p.Price)),
			d.cartButton(p),
		)
	}
	return elems
}

func (d *Driver) describeProduct(p shop.Product) string {
	if d.account == nil {
		return p.Description
	}
	return d.account.Description(p)
}

func (d *Driver) detailScreen() []element {
	p, _ := shop.ProductByID(d.itemID)
	return []element{
		link("Back to products", func() { d.show(ScreenInventory) }),
		text(p.Name),
		text(d.describeProduct(p)),
		text(shop.Money(p.Price)),
		d.cartButton(p),
	}
}

func (d *Driver) cartScreen() []element {
	elems := []element{text("Your Cart"), text("QTY"), text("Description")}
	for _, p := range d.cart.Items() {
		elems = append(elems,
			text("1"),
			link(p.Name, d.openItem(p.ID)),
			text(shop.Money(p.Price)),
			d.cartButton(p),
		)
	}
	return append(elems,
		button("Continue Shopping", func() { d.show(ScreenInventory) }),
		button("Checkout", func() { d.show(ScreenStepOne) }),
	)
}

func (d *Driver) stepOneScreen() []element {
	elems := []element{
		text("Checkout: Your Information"),
		d.input(FieldFirstName, "First Name"),
		d.input(FieldLastName, "Last Name"),
		d.input(FieldPostalCode, "Zip/Postal Code"),
	}
	if d.banner != "" {
		elems = append(elems, text(d.banner))
	}
	return append(elems,
		button("Cancel", func() { d.show(ScreenCart) }),
		button("Continue", d.continueCheckout),
	)
}

func (d *Driver) stepTwoScreen() []element {
	elems := []element{text("Checkout: Overview"), text("QTY"), text("Description")}
	for _, p := range d.cart.Items() {
		elems = append(elems, text("1"), text(p.Name), text(shop.Money(p.Price)))
	}
	sum := d.cart.Summarize()
	return append(elems,
		text("Payment Information:"),
		text("SauceCard #31337"),
		text("Shipping Information:"),
		text("Free Pony Express Delivery!"),
		text("Item total: "+shop.Money(sum.ItemTotal)),
		text("Tax: "+shop.Money(sum.Tax)),
		text("Total: "+shop.Money(sum.Total)),
		button("Cancel", func() { d.show(ScreenInventory) }),
		button("Finish", d.finish),
	)
}

func (d *Driver) completeScreen() []element {
	return []element{
		text("Checkout: Complete!"),
		text(shop.CompletionHeader),
		text("Your order has been dispatched, and will arrive just as fast as the pony can get there!"),
		button("Back Home", func() { d.show(ScreenInventory) }),
	}
}
