// Package simulated is an in-memory automation.Driver that renders the
// Swag Labs screens from the shop model. It needs no browser, so page
// workflows and scenarios can run in unit tests and dry runs.
package simulated

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gotrs-io/saucedemo-e2e/internal/automation"
	"github.com/gotrs-io/saucedemo-e2e/internal/shop"
)

// Screen names.
const (
	ScreenBlank       = "blank"
	ScreenUnreachable = "unreachable"
	ScreenLogin       = "login"
	ScreenInventory   = "inventory"
	ScreenDetail      = "inventory-item"
	ScreenCart        = "cart"
	ScreenStepOne     = "checkout-step-one"
	ScreenStepTwo     = "checkout-step-two"
	ScreenComplete    = "checkout-complete"
)

// Form fields.
const (
	FieldUsername   = "user-name"
	FieldPassword   = "password"
	FieldFirstName  = "first-name"
	FieldLastName   = "last-name"
	FieldPostalCode = "postal-code"
)

// ErrNotStarted is returned when the driver is used before Start.
var ErrNotStarted = errors.New("simulated browser not started")

// Options configures the simulated site.
type Options struct {
	// BaseURL is where the shop answers. Other URLs render an error page.
	BaseURL string
	Store   shop.Store
	Now     func() time.Time
}

// Driver is the simulated browser. It is safe for concurrent use, though
// Desktop only calls it sequentially.
type Driver struct {
	mu   sync.Mutex
	opts Options

	started bool
	window  bool
	url     string
	screen  string

	fields  map[string]string
	focus   string
	account *shop.Account
	readyAt time.Time
	banner  string
	itemID  int
	cart    shop.Cart
	orders  int

	faults map[string]error
}

var _ automation.Driver = (*Driver)(nil)

// New creates a simulated browser.
func New(opts Options) *Driver {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://www.saucedemo.com/"
	}
	return &Driver{opts: opts, screen: ScreenBlank, fields: map[string]string{}}
}

// FailNext makes the next call of op fail with err. Ops are start, stop,
// open, close, navigate, locate, click, insert, press and screenshot.
func (d *Driver) FailNext(op string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.faults == nil {
		d.faults = map[string]error{}
	}
	d.faults[op] = err
}

func (d *Driver) fault(op string) error {
	if err, ok := d.faults[op]; ok {
		delete(d.faults, op)
		return err
	}
	return nil
}

func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fault("start"); err != nil {
		return err
	}
	d.started = true
	return nil
}

func (d *Driver) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fault("stop"); err != nil {
		return err
	}
	d.started = false
	d.window = false
	return nil
}

// OpenWindow opens a fresh window with no cookies or storage.
func (d *Driver) OpenWindow(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return ErrNotStarted
	}
	if err := d.fault("open"); err != nil {
		return err
	}
	d.window = true
	d.url = "about:blank"
	d.screen = ScreenBlank
	d.fields = map[string]string{}
	d.focus = ""
	d.account = nil
	d.banner = ""
	d.cart.Clear()
	return nil
}

func (d *Driver) CloseWindow(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fault("close"); err != nil {
		return err
	}
	if !d.window {
		return automation.ErrNoWindow
	}
	d.window = false
	d.screen = ScreenBlank
	return nil
}

func (d *Driver) Navigate(ctx context.Context, rawURL string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.usable("navigate"); err != nil {
		return err
	}
	d.url = rawURL
	d.focus = ""
	d.banner = ""
	d.fields = map[string]string{}

	path, ok := d.sitePath(rawURL)
	if !ok {
		d.screen = ScreenUnreachable
		return nil
	}
	d.route(path)
	return nil
}

func (d *Driver) Locate(ctx context.Context, t automation.Target) (automation.Point, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.usable("locate"); err != nil {
		return automation.Point{}, false, err
	}
	if err := ctx.Err(); err != nil {
		return automation.Point{}, false, err
	}

	elems := d.render()
	best, bestScore := -1, automation.NoMatch
	for i, e := range elems {
		score := e.score(t)
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return automation.Point{}, false, nil
	}
	return pointAt(best), true, nil
}

func (d *Driver) MouseClick(ctx context.Context, p automation.Point) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.usable("click"); err != nil {
		return err
	}

	elems := d.render()
	idx := indexAt(p)
	if idx < 0 || idx >= len(elems) {
		d.focus = ""
		return nil
	}
	e := elems[idx]
	if e.field != "" {
		d.focus = e.field
		return nil
	}
	d.focus = ""
	if e.action != nil {
		e.action()
	}
	return nil
}

func (d *Driver) InsertText(ctx context.Context, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.usable("insert"); err != nil {
		return err
	}
	if d.focus != "" {
		d.fields[d.focus] += text
	}
	return nil
}

func (d *Driver) Press(ctx context.Context, keys ...automation.Key) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.usable("press"); err != nil {
		return err
	}

	mods, rest := automation.SplitCombo(keys)
	if len(mods) > 0 {
		return nil
	}
	for _, k := range rest {
		switch k {
		case automation.KeyEnter:
			d.submit()
		case automation.KeyEscape:
			d.focus = ""
		case automation.KeyBackspace:
			if v := d.fields[d.focus]; d.focus != "" && v != "" {
				r := []rune(v)
				d.fields[d.focus] = string(r[:len(r)-1])
			}
		}
	}
	return nil
}

// Screenshot returns a plain-text dump of the visible screen.
func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.usable("screenshot"); err != nil {
		return nil, err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "screen: %s\nurl: %s\n", d.screen, d.url)
	for _, e := range d.render() {
		fmt.Fprintf(&b, "- %s\n", e.describe(d.fields))
	}
	return []byte(b.String()), nil
}

// Screen is the name of the visible screen.
func (d *Driver) Screen() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.screen
}

// URL is the last navigated address.
func (d *Driver) URL() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url
}

// WindowOpen reports whether a window is open.
func (d *Driver) WindowOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.window
}

// Started reports whether the browser process is running.
func (d *Driver) Started() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.started
}

// Field returns the current value of a form field.
func (d *Driver) Field(name string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fields[name]
}

// CartItems returns the names of the products in the cart.
func (d *Driver) CartItems() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var names []string
	for _, p := range d.cart.Items() {
		names = append(names, p.Name)
	}
	return names
}

// Orders is the number of orders placed in this browser.
func (d *Driver) Orders() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.orders
}

// User is the logged in account, or "".
func (d *Driver) User() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.account == nil {
		return ""
	}
	return d.account.Username
}

func (d *Driver) usable(op string) error {
	if !d.started {
		return ErrNotStarted
	}
	if !d.window {
		return automation.ErrNoWindow
	}
	return d.fault(op)
}

func (d *Driver) sitePath(rawURL string) (string, bool) {
	base, err := parseLoose(d.opts.BaseURL)
	if err != nil {
		return "", false
	}
	u, err := parseLoose(rawURL)
	if err != nil || !strings.EqualFold(u.Host, base.Host) {
		return "", false
	}
	path := strings.TrimPrefix(u.Path, strings.TrimSuffix(base.Path, "/"))
	path = strings.TrimPrefix(path, "/")
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return path, true
}

func parseLoose(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	return url.Parse(raw)
}

func (d *Driver) route(path string) {
	page, query, _ := strings.Cut(path, "?")
	page = strings.TrimSuffix(page, ".html")

	if page == "" || page == "index" {
		d.screen = ScreenLogin
		return
	}
	if d.account == nil {
		d.screen = ScreenLogin
		d.banner = fmt.Sprintf("Epic sadface: You can only access '/%s.html' when you are logged in.", page)
		return
	}
	switch page {
	case ScreenInventory, ScreenCart, ScreenStepOne, ScreenStepTwo, ScreenComplete:
		d.screen = page
	case ScreenDetail:
		q, _ := url.ParseQuery(query)
		id, err := strconv.Atoi(q.Get("id"))
		if _, ok := shop.ProductByID(id); err != nil || !ok {
			d.screen = ScreenInventory
			return
		}
		d.itemID = id
		d.screen = ScreenDetail
	default:
		d.screen = ScreenUnreachable
	}
}

func (d *Driver) submit() {
	switch d.screen {
	case ScreenLogin:
		d.login()
	case ScreenStepOne:
		d.continueCheckout()
	}
}

func (d *Driver) login() {
	acct, err := d.opts.Store.Authenticate(d.fields[FieldUsername], d.fields[FieldPassword])
	if err != nil {
		d.banner = d.opts.Store.LoginMessage(err)
		return
	}
	d.account = &acct
	d.readyAt = d.opts.Now().Add(d.opts.Store.LoginDelay(acct))
	d.show(ScreenInventory)
}

func (d *Driver) continueCheckout() {
	info := shop.CheckoutInfo{
		FirstName:  d.fields[FieldFirstName],
		LastName:   d.fields[FieldLastName],
		PostalCode: d.fields[FieldPostalCode],
	}
	if err := info.Validate(); err != nil {
		d.banner = shop.FormMessage(err)
		return
	}
	d.show(ScreenStepTwo)
}

func (d *Driver) finish() {
	if d.account != nil && !d.account.CanFinish() {
		return
	}
	d.orders++
	d.cart.Clear()
	d.show(ScreenComplete)
}

func (d *Driver) show(screen string) {
	d.screen = screen
	d.banner = ""
	d.focus = ""
	d.fields = map[string]string{}
	base := strings.TrimSuffix(d.opts.BaseURL, "/")
	switch screen {
	case ScreenLogin:
		d.url = base + "/"
	case ScreenDetail:
		d.url = fmt.Sprintf("%s/inventory-item.html?id=%d", base, d.itemID)
	default:
		d.url = base + "/" + screen + ".html"
	}
}
