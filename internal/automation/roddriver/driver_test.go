package roddriver

import (
	"context"
	"testing"

	"github.com/go-rod/rod/lib/input"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gotrs-io/saucedemo-e2e/internal/automation"
)

func TestKeys(t *testing.T) {
	mods, rest, err := Keys(automation.KeyAlt, automation.KeyF4)
	require.NoError(t, err)
	assert.Equal(t, []input.Key{input.AltLeft}, mods)
	assert.Equal(t, []input.Key{input.F4}, rest)

	mods, rest, err = Keys(automation.KeyEnter)
	require.NoError(t, err)
	assert.Empty(t, mods)
	assert.Equal(t, []input.Key{input.Enter}, rest)

	_, _, err = Keys(automation.KeyShift)
	assert.ErrorIs(t, err, automation.ErrUnknownKey)
}

func TestUnopenedWindow(t *testing.T) {
	d := New(Options{})
	assert.ErrorIs(t, d.InsertText(context.Background(), "x"), automation.ErrNoWindow)
	assert.ErrorIs(t, d.CloseWindow(context.Background()), automation.ErrNoWindow)
	assert.Error(t, d.OpenWindow(context.Background()))
	assert.NoError(t, d.Stop(context.Background()))
}

func TestStartHonoursCancelledContext(t *testing.T) {
	d := New(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, d.Start(ctx), context.Canceled)
	assert.Nil(t, d.browser)
	assert.NoError(t, d.Stop(context.Background()))
}
