package automation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKey(t *testing.T) {
	tests := map[string]Key{
		"enter":     KeyEnter,
		"Enter":     KeyEnter,
		"return":    KeyEnter,
		"escape":    KeyEscape,
		"ESC":       KeyEscape,
		"pagedown":  KeyPageDown,
		"page_down": KeyPageDown,
		"Page Down": KeyPageDown,
		"alt":       KeyAlt,
		"f4":        KeyF4,
		"ctrl":      KeyControl,
		"cmd":       KeyMeta,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			got, err := ParseKey(in)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	_, err := ParseKey("hyper")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestSplitCombo(t *testing.T) {
	mods, rest := SplitCombo([]Key{KeyAlt, KeyF4})
	assert.Equal(t, []Key{KeyAlt}, mods)
	assert.Equal(t, []Key{KeyF4}, rest)

	assert.True(t, isCloseWindow(KeyAlt, KeyF4))
	assert.True(t, isCloseWindow(KeyF4, KeyAlt))
	assert.False(t, isCloseWindow(KeyControl, KeyF4))
}
