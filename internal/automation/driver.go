package automation

import "context"

// Point is a position in page coordinates.
type Point struct {
	X float64
	Y float64
}

// Target is a Locator resolved against the element map. Selector is only
// set for KindElement locators.
type Target struct {
	Locator  Locator
	Selector string
}

// Driver is the browser backend Desktop runs on. A driver owns one browser
// process and at most one window at a time.
type Driver interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error

	OpenWindow(ctx context.Context) error
	CloseWindow(ctx context.Context) error
	Navigate(ctx context.Context, url string) error

	// Locate returns the centre of the best match for t, scrolled into view.
	Locate(ctx context.Context, t Target) (Point, bool, error)
	MouseClick(ctx context.Context, p Point) error
	InsertText(ctx context.Context, text string) error
	// Press presses keys together: modifiers held while the rest are tapped.
	Press(ctx context.Context, keys ...Key) error
	Screenshot(ctx context.Context) ([]byte, error)
}
