// Package cdpdriver runs the automation Driver on chromedp.
package cdpdriver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/gotrs-io/saucedemo-e2e/internal/automation"
)

// Options configures the Chrome process.
type Options struct {
	Headless       bool
	Width          int
	Height         int
	ExecutablePath string
	// ActionTimeout bounds a single CDP round trip.
	ActionTimeout time.Duration
}

// Driver owns one Chrome process. Windows are tabs opened in it.
type Driver struct {
	mu   sync.Mutex
	opts Options

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	tabCtx        context.Context
	tabCancel     context.CancelFunc
}

var _ automation.Driver = (*Driver)(nil)

// New returns an unstarted driver.
func New(opts Options) *Driver {
	if opts.Width == 0 || opts.Height == 0 {
		opts.Width, opts.Height = 1280, 720
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = 30 * time.Second
	}
	return &Driver{opts: opts}
}

func (d *Driver) execOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", d.opts.Headless),
		chromedp.WindowSize(d.opts.Width, d.opts.Height),
	)
	if d.opts.ExecutablePath != "" {
		opts = append(opts, chromedp.ExecPath(d.opts.ExecutablePath))
	}
	return opts
}

// Start launches Chrome. The browser lives on a background context and
// outlives ctx; Stop ends it.
func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.browserCtx != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), d.execOptions()...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// The first Run allocates the browser and binds it to browserCtx, so it
	// must not run on a derived context with its own deadline.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return fmt.Errorf("could not launch chrome: %w", err)
	}
	d.allocCancel = allocCancel
	d.browserCtx, d.browserCancel = browserCtx, browserCancel
	return nil
}

func (d *Driver) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.tabCancel != nil {
		d.tabCancel()
		d.tabCtx, d.tabCancel = nil, nil
	}
	var err error
	if d.browserCtx != nil {
		err = chromedp.Cancel(d.browserCtx)
		d.browserCancel()
		d.browserCtx, d.browserCancel = nil, nil
	}
	if d.allocCancel != nil {
		d.allocCancel()
		d.allocCancel = nil
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (d *Driver) OpenWindow(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.browserCtx == nil {
		return errors.New("chrome not started")
	}
	tabCtx, tabCancel := chromedp.NewContext(d.browserCtx)
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		return fmt.Errorf("could not open tab: %w", err)
	}
	err := d.run(ctx, tabCtx,
		network.ClearBrowserCookies(),
		chromedp.EmulateViewport(int64(d.opts.Width), int64(d.opts.Height)),
	)
	if err != nil {
		tabCancel()
		return fmt.Errorf("could not open tab: %w", err)
	}
	d.tabCtx, d.tabCancel = tabCtx, tabCancel
	return nil
}

func (d *Driver) CloseWindow(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.tabCtx == nil {
		return automation.ErrNoWindow
	}
	// Cancelling a context made by NewContext closes its tab.
	d.tabCancel()
	d.tabCtx, d.tabCancel = nil, nil
	return nil
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	return d.runTab(ctx, chromedp.Navigate(url))
}

func (d *Driver) Locate(ctx context.Context, t automation.Target) (automation.Point, bool, error) {
	args, err := json.Marshal(automation.ArgsFor(t))
	if err != nil {
		return automation.Point{}, false, err
	}
	// chromedp.Evaluate takes no arguments, so they are inlined as a literal.
	script := fmt.Sprintf("(%s)(%s)", automation.LocateExpression, args)

	var raw string
	if err := d.runTab(ctx, chromedp.Evaluate(script, &raw)); err != nil {
		return automation.Point{}, false, fmt.Errorf("evaluate locate script: %w", err)
	}
	return automation.DecodeLocateResult(raw)
}

func (d *Driver) MouseClick(ctx context.Context, p automation.Point) error {
	return d.runTab(ctx, chromedp.MouseClickXY(p.X, p.Y))
}

func (d *Driver) InsertText(ctx context.Context, text string) error {
	return d.runTab(ctx, input.InsertText(text))
}

func (d *Driver) Press(ctx context.Context, keys ...automation.Key) error {
	actions, err := KeyActions(keys...)
	if err != nil {
		return err
	}
	return d.runTab(ctx, actions...)
}

func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := d.runTab(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return buf, nil
}

func (d *Driver) runTab(ctx context.Context, actions ...chromedp.Action) error {
	d.mu.Lock()
	tabCtx := d.tabCtx
	d.mu.Unlock()
	if tabCtx == nil {
		return automation.ErrNoWindow
	}
	return d.run(ctx, tabCtx, actions...)
}

// run executes actions on target while honouring cancellation of ctx.
func (d *Driver) run(ctx, target context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(target, d.opts.ActionTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

var singleKeys = map[automation.Key]string{
	automation.KeyEnter:     kb.Enter,
	automation.KeyEscape:    kb.Escape,
	automation.KeyTab:       kb.Tab,
	automation.KeyBackspace: kb.Backspace,
	automation.KeyDelete:    kb.Delete,
	automation.KeySpace:     " ",
	automation.KeyPageDown:  kb.PageDown,
	automation.KeyPageUp:    kb.PageUp,
	automation.KeyHome:      kb.Home,
	automation.KeyEnd:       kb.End,
	automation.KeyUp:        kb.ArrowUp,
	automation.KeyDown:      kb.ArrowDown,
	automation.KeyLeft:      kb.ArrowLeft,
	automation.KeyRight:     kb.ArrowRight,
	automation.KeyF4:        kb.F4,
	automation.KeyF5:        kb.F5,
}

// domKeys are KeyboardEvent.key values for keys sent with modifiers.
var domKeys = map[automation.Key]string{
	automation.KeyEnter:     "Enter",
	automation.KeyEscape:    "Escape",
	automation.KeyTab:       "Tab",
	automation.KeyBackspace: "Backspace",
	automation.KeyDelete:    "Delete",
	automation.KeySpace:     " ",
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
}

var modifierBits = map[automation.Key]input.Modifier{
	automation.KeyAlt:     input.ModifierAlt,
	automation.KeyControl: input.ModifierCtrl,
	automation.KeyMeta:    input.ModifierMeta,
	automation.KeyShift:   input.ModifierShift,
}

// KeyActions converts a key press into chromedp actions. Plain keys go
// through chromedp.KeyEvent; combinations are dispatched as raw key events
// carrying the modifier mask.
func KeyActions(keys ...automation.Key) ([]chromedp.Action, error) {
	mods, rest := automation.SplitCombo(keys)
	if len(rest) == 0 {
		return nil, fmt.Errorf("%w: no key to press", automation.ErrUnknownKey)
	}

	if len(mods) == 0 {
		var actions []chromedp.Action
		for _, k := range rest {
			s, ok := singleKeys[k]
			if !ok {
				return nil, fmt.Errorf("%w: %q", automation.ErrUnknownKey, k)
			}
			actions = append(actions, chromedp.KeyEvent(s))
		}
		return actions, nil
	}

	var mask input.Modifier
	for _, m := range mods {
		mask |= modifierBits[m]
	}
	var actions []chromedp.Action
	for _, k := range rest {
		name, ok := domKeys[k]
		if !ok {
			return nil, fmt.Errorf("%w: %q", automation.ErrUnknownKey, k)
		}
		actions = append(actions,
			input.DispatchKeyEvent(input.KeyDown).WithModifiers(mask).WithKey(name),
			input.DispatchKeyEvent(input.KeyUp).WithModifiers(mask).WithKey(name),
		)
	}
	return actions, nil
}
