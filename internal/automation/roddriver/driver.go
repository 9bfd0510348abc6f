// Package roddriver runs the automation Driver on go-rod.
package roddriver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/gotrs-io/saucedemo-e2e/internal/automation"
)

// Options configures the Chrome process.
type Options struct {
	Headless bool
	Width    int
	Height   int
	// Bin is the browser binary; empty lets the launcher find or fetch one.
	Bin string
	// ControlURL attaches to a running browser instead of launching one.
	ControlURL string
}

// Driver owns one Chrome process. Each window is a page in its own
// incognito context.
type Driver struct {
	mu        sync.Mutex
	opts      Options
	launcher  *launcher.Launcher
	browser   *rod.Browser
	incognito *rod.Browser
	page      *rod.Page
}

var _ automation.Driver = (*Driver)(nil)

// New returns an unstarted driver.
func New(opts Options) *Driver {
	if opts.Width == 0 || opts.Height == 0 {
		opts.Width, opts.Height = 1280, 720
	}
	return &Driver{opts: opts}
}

func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.browser != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	controlURL := d.opts.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(d.opts.Headless)
		if d.opts.Bin != "" {
			l = l.Bin(d.opts.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("launch chrome: %w", err)
		}
		d.launcher = l
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		if d.launcher != nil {
			d.launcher.Cleanup()
			d.launcher = nil
		}
		return fmt.Errorf("connect to chrome: %w", err)
	}
	if err := ctx.Err(); err != nil {
		err = errors.Join(err, browser.Close())
		if d.launcher != nil {
			d.launcher.Cleanup()
			d.launcher = nil
		}
		return err
	}
	d.browser = browser
	return nil
}

func (d *Driver) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	if d.incognito != nil {
		errs = append(errs, d.incognito.Close())
		d.incognito, d.page = nil, nil
	}
	if d.browser != nil {
		errs = append(errs, d.browser.Close())
		d.browser = nil
	}
	if d.launcher != nil {
		d.launcher.Cleanup()
		d.launcher = nil
	}
	return errors.Join(errs...)
}

func (d *Driver) OpenWindow(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.browser == nil {
		return errors.New("chrome not connected")
	}
	incognito, err := d.browser.Incognito()
	if err != nil {
		return fmt.Errorf("incognito context: %w", err)
	}
	page, err := incognito.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = incognito.Close()
		return fmt.Errorf("create page: %w", err)
	}
	err = proto.EmulationSetDeviceMetricsOverride{
		Width:             d.opts.Width,
		Height:            d.opts.Height,
		DeviceScaleFactor: 1.0,
	}.Call(page)
	if err != nil {
		_ = incognito.Close()
		return fmt.Errorf("set viewport: %w", err)
	}
	d.incognito, d.page = incognito, page
	return nil
}

func (d *Driver) CloseWindow(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.incognito == nil {
		return automation.ErrNoWindow
	}
	// Closing an incognito browser disposes its context and pages.
	err := d.incognito.Close()
	d.incognito, d.page = nil, nil
	return err
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	page, err := d.current(ctx)
	if err != nil {
		return err
	}
	if err := page.Navigate(url); err != nil {
		return err
	}
	return page.WaitLoad()
}

func (d *Driver) Locate(ctx context.Context, t automation.Target) (automation.Point, bool, error) {
	page, err := d.current(ctx)
	if err != nil {
		return automation.Point{}, false, err
	}
	res, err := page.Evaluate(rod.Eval(automation.LocateExpression, automation.ArgsFor(t)))
	if err != nil {
		return automation.Point{}, false, fmt.Errorf("evaluate locate script: %w", err)
	}
	return automation.DecodeLocateResult(res.Value.Str())
}

func (d *Driver) MouseClick(ctx context.Context, p automation.Point) error {
	page, err := d.current(ctx)
	if err != nil {
		return err
	}
	if err := page.Mouse.MoveTo(proto.Point{X: p.X, Y: p.Y}); err != nil {
		return err
	}
	return page.Mouse.Click(proto.InputMouseButtonLeft, 1)
}

func (d *Driver) InsertText(ctx context.Context, text string) error {
	page, err := d.current(ctx)
	if err != nil {
		return err
	}
	return page.InsertText(text)
}

func (d *Driver) Press(ctx context.Context, keys ...automation.Key) error {
	page, err := d.current(ctx)
	if err != nil {
		return err
	}
	mods, rest, err := Keys(keys...)
	if err != nil {
		return err
	}
	if len(mods) == 0 {
		return page.Keyboard.Type(rest...)
	}
	return page.KeyActions().Press(mods...).Type(rest...).Do()
}

func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	page, err := d.current(ctx)
	if err != nil {
		return nil, err
	}
	return page.Screenshot(false, nil)
}

// current returns the open page bound to ctx.
func (d *Driver) current(ctx context.Context) (*rod.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.page == nil {
		return nil, automation.ErrNoWindow
	}
	return d.page.Context(ctx), nil
}

var keyMap = map[automation.Key]input.Key{
	automation.KeyEnter:     input.Enter,
	automation.KeyEscape:    input.Escape,
	automation.KeyTab:       input.Tab,
	automation.KeyBackspace: input.Backspace,
	automation.KeyDelete:    input.Delete,
	automation.KeySpace:     input.Space,
	automation.KeyPageDown:  input.PageDown,
	automation.KeyPageUp:    input.PageUp,
	automation.KeyHome:      input.Home,
	automation.KeyEnd:       input.End,
	automation.KeyUp:        input.ArrowUp,
	automation.KeyDown:      input.ArrowDown,
	automation.KeyLeft:      input.ArrowLeft,
	automation.KeyRight:     input.ArrowRight,
	automation.KeyF4:        input.F4,
	automation.KeyF5:        input.F5,
	automation.KeyAlt:       input.AltLeft,
	automation.KeyControl:   input.ControlLeft,
	automation.KeyShift:     input.ShiftLeft,
	automation.KeyMeta:      input.MetaLeft,
}

// Keys maps a combination to rod keys, modifiers separated out.
func Keys(keys ...automation.Key) (mods, rest []input.Key, err error) {
	m, r := automation.SplitCombo(keys)
	if len(r) == 0 {
		return nil, nil, fmt.Errorf("%w: no key to press", automation.ErrUnknownKey)
	}
	for _, k := range m {
		mods = append(mods, keyMap[k])
	}
	for _, k := range r {
		rk, ok := keyMap[k]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %q", automation.ErrUnknownKey, k)
		}
		rest = append(rest, rk)
	}
	return mods, rest, nil
}
