// Package pwdriver runs the automation Driver on playwright-go.
package pwdriver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/gotrs-io/saucedemo-e2e/internal/automation"
)

// Options configures the Chromium instance.
type Options struct {
	Headless       bool
	SlowMo         time.Duration
	Width          int
	Height         int
	ExecutablePath string
	// Timeout is the default for playwright's own waits.
	Timeout time.Duration
}

// Driver drives one Chromium through playwright. Each window is a fresh
// browser context, so windows never share cookies.
type Driver struct {
	mu      sync.Mutex
	opts    Options
	pw      *playwright.Playwright
	browser playwright.Browser
	bctx    playwright.BrowserContext
	page    playwright.Page
}

var _ automation.Driver = (*Driver)(nil)

// New returns an unstarted driver.
func New(opts Options) *Driver {
	if opts.Width == 0 || opts.Height == 0 {
		opts.Width, opts.Height = 1280, 720
	}
	return &Driver{opts: opts}
}

// Start installs the playwright driver when needed and launches Chromium.
// Set PLAYWRIGHT_PREINSTALLED=1 to skip the install step.
func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pw != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if os.Getenv("PLAYWRIGHT_PREINSTALLED") != "1" {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return fmt.Errorf("could not install playwright browsers: %w", err)
		}
	}
	pw, err := playwright.Run()
	if err != nil {
		// The installed driver may not match this playwright-go release.
		_ = playwright.Install()
		pw, err = playwright.Run()
		if err != nil {
			return fmt.Errorf("could not start playwright after retry: %w", err)
		}
	}

	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(d.opts.Headless),
		SlowMo:   playwright.Float(float64(d.opts.SlowMo.Milliseconds())),
	}
	if d.opts.ExecutablePath != "" {
		launch.ExecutablePath = playwright.String(d.opts.ExecutablePath)
	}
	browser, err := pw.Chromium.Launch(launch)
	if err != nil {
		_ = pw.Stop()
		return fmt.Errorf("could not launch browser: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return errors.Join(err, browser.Close(), pw.Stop())
	}
	d.pw = pw
	d.browser = browser
	return nil
}

func (d *Driver) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	if d.bctx != nil {
		errs = append(errs, d.bctx.Close())
		d.bctx, d.page = nil, nil
	}
	if d.browser != nil {
		errs = append(errs, d.browser.Close())
		d.browser = nil
	}
	if d.pw != nil {
		errs = append(errs, d.pw.Stop())
		d.pw = nil
	}
	return errors.Join(errs...)
}

func (d *Driver) OpenWindow(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.browser == nil {
		return errors.New("playwright browser not started")
	}
	bctx, err := d.browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: d.opts.Width, Height: d.opts.Height},
	})
	if err != nil {
		return fmt.Errorf("could not create context: %w", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return fmt.Errorf("could not create page: %w", err)
	}
	if d.opts.Timeout > 0 {
		page.SetDefaultTimeout(float64(d.opts.Timeout.Milliseconds()))
	}
	d.bctx, d.page = bctx, page
	return nil
}

func (d *Driver) CloseWindow(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.bctx == nil {
		return automation.ErrNoWindow
	}
	err := d.bctx.Close()
	d.bctx, d.page = nil, nil
	return err
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	page, err := d.current(ctx)
	if err != nil {
		return err
	}
	_, err = page.Goto(url, playwright.PageGotoOptions{WaitUntil: playwright.WaitUntilStateLoad})
	if err != nil && strings.Contains(err.Error(), "ERR_TOO_MANY_REDIRECTS") {
		return fmt.Errorf("redirect loop navigating to %s: %w", url, err)
	}
	return err
}

func (d *Driver) Locate(ctx context.Context, t automation.Target) (automation.Point, bool, error) {
	page, err := d.current(ctx)
	if err != nil {
		return automation.Point{}, false, err
	}
	res, err := page.Evaluate(automation.LocateExpression, automation.ArgsFor(t))
	if err != nil {
		// A navigation in flight destroys the execution context; treat it
		// as "not there yet" so polling carries on.
		if strings.Contains(err.Error(), "Execution context was destroyed") {
			return automation.Point{}, false, nil
		}
		return automation.Point{}, false, fmt.Errorf("evaluate locate script: %w", err)
	}
	raw, ok := res.(string)
	if !ok {
		return automation.Point{}, false, fmt.Errorf("locate script returned %T", res)
	}
	return automation.DecodeLocateResult(raw)
}

func (d *Driver) MouseClick(ctx context.Context, p automation.Point) error {
	page, err := d.current(ctx)
	if err != nil {
		return err
	}
	return page.Mouse().Click(p.X, p.Y)
}

func (d *Driver) InsertText(ctx context.Context, text string) error {
	page, err := d.current(ctx)
	if err != nil {
		return err
	}
	return page.Keyboard().InsertText(text)
}

func (d *Driver) Press(ctx context.Context, keys ...automation.Key) error {
	page, err := d.current(ctx)
	if err != nil {
		return err
	}
	combo, err := Combo(keys...)
	if err != nil {
		return err
	}
	return page.Keyboard().Press(combo)
}

func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	page, err := d.current(ctx)
	if err != nil {
		return nil, err
	}
	return page.Screenshot(playwright.PageScreenshotOptions{FullPage: playwright.Bool(false)})
}

// Page exposes the open page, or nil.
func (d *Driver) Page() playwright.Page {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.page
}

func (d *Driver) current(ctx context.Context) (playwright.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.page == nil {
		return nil, automation.ErrNoWindow
	}
	return d.page, nil
}

var keyNames = map[automation.Key]string{
	automation.KeyEnter:     "Enter",
	automation.KeyEscape:    "Escape",
	automation.KeyTab:       "Tab",
	automation.KeyBackspace: "Backspace",
	automation.KeyDelete:    "Delete",
	automation.KeySpace:     "Space",
	automation.KeyPageDown:  "PageDown",
	automation.KeyPageUp:    "PageUp",
	automation.KeyHome:      "Home",
	automation.KeyEnd:       "End",
	automation.KeyUp:        "ArrowUp",
	automation.KeyDown:      "ArrowDown",
	automation.KeyLeft:      "ArrowLeft",
	automation.KeyRight:     "ArrowRight",
	automation.KeyF4:        "F4",
	automation.KeyF5:        "F5",
	automation.KeyAlt:       "Alt",
	automation.KeyControl:   "Control",
	automation.KeyShift:     "Shift",
	automation.KeyMeta:      "Meta",
}

// Combo renders keys in playwright's "Alt+F4" form, modifiers first.
func Combo(keys ...automation.Key) (string, error) {
	mods, rest := automation.SplitCombo(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range append(mods, rest...) {
		name, ok := keyNames[k]
		if !ok {
			return "", fmt.Errorf("%w: %q", automation.ErrUnknownKey, k)
		}
		parts = append(parts, name)
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: empty combination", automation.ErrUnknownKey)
	}
	return strings.Join(parts, "+"), nil
}
