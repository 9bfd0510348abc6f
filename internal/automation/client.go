// Package automation defines the action client the page workflows drive:
// locate by text or named element, click, type, press keys, run shell
// commands, and wait. Desktop implements it on top of a browser Driver.
package automation

import (
	"context"
	"fmt"
	"time"
)

// Kind tells how a Locator is resolved.
type Kind int

const (
	// KindText matches visible text, placeholders and input values.
	KindText Kind = iota
	// KindElement is a named visual element resolved through the element map.
	KindElement
)

// Locator identifies something on screen.
type Locator struct {
	Kind  Kind
	Value string
}

// Text locates the element showing s.
func Text(s string) Locator {
	return Locator{Kind: KindText, Value: s}
}

// Element locates a named visual element such as "cart1".
func Element(name string) Locator {
	return Locator{Kind: KindElement, Value: name}
}

func (l Locator) String() string {
	if l.Kind == KindElement {
		return fmt.Sprintf("element(%q)", l.Value)
	}
	return fmt.Sprintf("text(%q)", l.Value)
}

// Client is the set of primitive UI operations. Calls must not overlap:
// each one completes before the next is issued.
type Client interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error

	Click(ctx context.Context, loc Locator) error
	Type(ctx context.Context, text string) error
	PressKey(ctx context.Context, key string) error
	PressTwoKeys(ctx context.Context, first, second string) error
	ExecOnShell(ctx context.Context, command string) error
	WaitFor(ctx context.Context, d time.Duration) error
	MouseLeftClick(ctx context.Context) error

	// Exists reports whether loc is currently visible. It never fails
	// because loc is absent; see Expect for the asserting form.
	Exists(ctx context.Context, loc Locator) (bool, error)
}

// Screenshotter is implemented by clients able to capture the screen.
type Screenshotter interface {
	Screenshot(ctx context.Context) ([]byte, error)
}
