package automation

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ShellFunc runs a command line that is not the browser launch command.
type ShellFunc func(ctx context.Context, command string) error

// Options configures a Desktop.
type Options struct {
	// LaunchCommand is the shell command that opens a browser window,
	// e.g. "start chrome". It leaves keyboard focus in the address bar.
	LaunchCommand string
	// Elements maps visual element names to CSS selectors.
	Elements map[string]string
	Shell    ShellFunc
	Logger   *zap.Logger
}

// Desktop is a Client that behaves like a person at a desktop: it launches
// the browser from a shell, types a URL into the address bar, clicks on what
// it sees and closes the window with alt+f4.
type Desktop struct {
	mu     sync.Mutex
	driver Driver
	opts   Options
	log    *zap.Logger

	connected  bool
	windowOpen bool
	addressBar bool
	address    strings.Builder
	lastPoint  *Point
}

var _ Client = (*Desktop)(nil)

// NewDesktop wraps driver.
func NewDesktop(driver Driver, opts Options) *Desktop {
	if opts.Shell == nil {
		opts.Shell = RunShell
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Desktop{driver: driver, opts: opts, log: log.Named("desktop")}
}

// RunShell runs command through sh -c.
func RunShell(ctx context.Context, command string) error {
	out, err := exec.CommandContext(ctx, "sh", "-c", command).CombinedOutput()
	if err != nil {
		return fmt.Errorf("shell %q: %w: %s", command, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (d *Desktop) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return nil
	}
	if err := d.driver.Start(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	d.connected = true
	d.log.Debug("connected")
	return nil
}

func (d *Desktop) Disconnect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}
	var errs []error
	if d.windowOpen {
		errs = append(errs, d.closeWindow(ctx))
	}
	errs = append(errs, d.driver.Stop(ctx))
	d.connected = false
	d.log.Debug("disconnected")
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	return nil
}

func (d *Desktop) Click(ctx context.Context, loc Locator) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ready(); err != nil {
		return err
	}
	target, err := d.resolve(loc)
	if err != nil {
		return err
	}
	p, found, err := d.driver.Locate(ctx, target)
	if err != nil {
		return fmt.Errorf("click %s: %w", loc, err)
	}
	if !found {
		return &AssertionError{Locator: loc}
	}
	if err := d.driver.MouseClick(ctx, p); err != nil {
		return fmt.Errorf("click %s: %w", loc, err)
	}
	d.lastPoint = &p
	d.addressBar = false
	d.log.Debug("click", zap.Stringer("locator", loc), zap.Float64("x", p.X), zap.Float64("y", p.Y))
	return nil
}

func (d *Desktop) Type(ctx context.Context, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ready(); err != nil {
		return err
	}
	if d.addressBar {
		d.address.WriteString(text)
		return nil
	}
	if err := d.driver.InsertText(ctx, text); err != nil {
		return fmt.Errorf("type: %w", err)
	}
	return nil
}

func (d *Desktop) PressKey(ctx context.Context, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return ErrNotConnected
	}
	key, err := ParseKey(name)
	if err != nil {
		return err
	}
	if d.addressBar {
		return d.addressBarKey(ctx, key)
	}
	if !d.windowOpen {
		return ErrNoWindow
	}
	if err := d.driver.Press(ctx, key); err != nil {
		return fmt.Errorf("press %s: %w", key, err)
	}
	return nil
}

func (d *Desktop) PressTwoKeys(ctx context.Context, first, second string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return ErrNotConnected
	}
	a, err := ParseKey(first)
	if err != nil {
		return err
	}
	b, err := ParseKey(second)
	if err != nil {
		return err
	}
	if isCloseWindow(a, b) {
		if !d.windowOpen {
			return nil
		}
		return d.closeWindow(ctx)
	}
	if !d.windowOpen {
		return ErrNoWindow
	}
	if err := d.driver.Press(ctx, a, b); err != nil {
		return fmt.Errorf("press %s+%s: %w", a, b, err)
	}
	return nil
}

func (d *Desktop) ExecOnShell(ctx context.Context, command string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return ErrNotConnected
	}
	if d.isLaunch(command) {
		if d.windowOpen {
			if err := d.closeWindow(ctx); err != nil {
				return err
			}
		}
		if err := d.driver.OpenWindow(ctx); err != nil {
			return fmt.Errorf("launch browser: %w", err)
		}
		d.windowOpen = true
		d.addressBar = true
		d.address.Reset()
		d.log.Debug("browser window opened", zap.String("command", command))
		return nil
	}
	return d.opts.Shell(ctx, command)
}

func (d *Desktop) WaitFor(ctx context.Context, dur time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return ErrNotConnected
	}
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Desktop) MouseLeftClick(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ready(); err != nil {
		return err
	}
	if d.lastPoint == nil {
		return ErrNoPointer
	}
	if err := d.driver.MouseClick(ctx, *d.lastPoint); err != nil {
		return fmt.Errorf("mouse left click: %w", err)
	}
	return nil
}

func (d *Desktop) Exists(ctx context.Context, loc Locator) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return false, ErrNotConnected
	}
	if !d.windowOpen {
		return false, nil
	}
	target, err := d.resolve(loc)
	if err != nil {
		return false, err
	}
	_, found, err := d.driver.Locate(ctx, target)
	if err != nil {
		return false, fmt.Errorf("locate %s: %w", loc, err)
	}
	return found, nil
}

// Screenshot captures the open window.
func (d *Desktop) Screenshot(ctx context.Context) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ready(); err != nil {
		return nil, err
	}
	return d.driver.Screenshot(ctx)
}

// WindowOpen reports whether a browser window is currently open.
func (d *Desktop) WindowOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.windowOpen
}

func (d *Desktop) ready() error {
	if !d.connected {
		return ErrNotConnected
	}
	if !d.windowOpen {
		return ErrNoWindow
	}
	return nil
}

func (d *Desktop) resolve(loc Locator) (Target, error) {
	if loc.Kind != KindElement {
		return Target{Locator: loc}, nil
	}
	sel, ok := d.opts.Elements[loc.Value]
	if !ok || sel == "" {
		return Target{}, fmt.Errorf("%w: %q", ErrUnknownElement, loc.Value)
	}
	return Target{Locator: loc, Selector: sel}, nil
}

func (d *Desktop) isLaunch(command string) bool {
	launch := strings.Join(strings.Fields(d.opts.LaunchCommand), " ")
	return launch != "" && strings.EqualFold(strings.Join(strings.Fields(command), " "), launch)
}

func (d *Desktop) addressBarKey(ctx context.Context, key Key) error {
	switch key {
	case KeyEnter:
		url := strings.TrimSpace(d.address.String())
		d.address.Reset()
		d.addressBar = false
		if err := d.driver.Navigate(ctx, url); err != nil {
			return fmt.Errorf("navigate %s: %w", url, err)
		}
		d.log.Debug("navigated", zap.String("url", url))
	case KeyEscape:
		d.address.Reset()
		d.addressBar = false
	case KeyBackspace:
		s := []rune(d.address.String())
		if len(s) > 0 {
			d.address.Reset()
			d.address.WriteString(string(s[:len(s)-1]))
		}
	}
	return nil
}

func (d *Desktop) closeWindow(ctx context.Context) error {
	d.windowOpen = false
	d.addressBar = false
	d.address.Reset()
	d.lastPoint = nil
	if err := d.driver.CloseWindow(ctx); err != nil {
		return fmt.Errorf("close window: %w", err)
	}
	d.log.Debug("browser window closed")
	return nil
}
