package automation

import (
	"fmt"
	"strings"
)

// Key is a canonical key name. Drivers translate it to their own codes.
type Key string

const (
	KeyEnter     Key = "enter"
	KeyEscape    Key = "escape"
	KeyTab       Key = "tab"
	KeyBackspace Key = "backspace"
	KeyDelete    Key = "delete"
	KeySpace     Key = "space"
	KeyPageDown  Key = "pagedown"
	KeyPageUp    Key = "pageup"
	KeyHome      Key = "home"
	KeyEnd       Key = "end"
	KeyUp        Key = "up"
	KeyDown      Key = "down"
	KeyLeft      Key = "left"
	KeyRight     Key = "right"
	KeyF4        Key = "f4"
	KeyF5        Key = "f5"
	KeyAlt       Key = "alt"
	KeyControl   Key = "control"
	KeyShift     Key = "shift"
	KeyMeta      Key = "meta"
)

var keyAliases = map[string]Key{
	"enter":      KeyEnter,
	"return":     KeyEnter,
	"escape":     KeyEscape,
	"esc":        KeyEscape,
	"tab":        KeyTab,
	"backspace":  KeyBackspace,
	"delete":     KeyDelete,
	"del":        KeyDelete,
	"space":      KeySpace,
	"pagedown":   KeyPageDown,
	"pgdn":       KeyPageDown,
	"pageup":     KeyPageUp,
	"pgup":       KeyPageUp,
	"home":       KeyHome,
	"end":        KeyEnd,
	"up":         KeyUp,
	"arrowup":    KeyUp,
	"down":       KeyDown,
	"arrowdown":  KeyDown,
	"left":       KeyLeft,
	"arrowleft":  KeyLeft,
	"right":      KeyRight,
	"arrowright": KeyRight,
	"f4":         KeyF4,
	"f5":         KeyF5,
	"alt":        KeyAlt,
	"option":     KeyAlt,
	"control":    KeyControl,
	"ctrl":       KeyControl,
	"shift":      KeyShift,
	"meta":       KeyMeta,
	"command":    KeyMeta,
	"cmd":        KeyMeta,
}

// ParseKey maps a key name ("enter", "PageDown", "page_down", "esc") to a Key.
func ParseKey(name string) (Key, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer("_", "", "-", "", " ", "").Replace(n)
	if k, ok := keyAliases[n]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKey, name)
}

// IsModifier reports whether k only modifies other keys.
func (k Key) IsModifier() bool {
	switch k {
	case KeyAlt, KeyControl, KeyShift, KeyMeta:
		return true
	}
	return false
}

// SplitCombo separates modifiers from the keys they apply to.
func SplitCombo(keys []Key) (mods []Key, rest []Key) {
	for _, k := range keys {
		if k.IsModifier() {
			mods = append(mods, k)
		} else {
			rest = append(rest, k)
		}
	}
	return mods, rest
}

// isCloseWindow reports whether the combo is the window-close shortcut.
func isCloseWindow(a, b Key) bool {
	return (a == KeyAlt && b == KeyF4) || (a == KeyF4 && b == KeyAlt)
}
