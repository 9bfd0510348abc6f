package pages_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gotrs-io/saucedemo-e2e/internal/automation"
	"github.com/gotrs-io/saucedemo-e2e/internal/automation/simulated"
	"github.com/gotrs-io/saucedemo-e2e/internal/config"
	"github.com/gotrs-io/saucedemo-e2e/internal/pages"
	"github.com/gotrs-io/saucedemo-e2e/internal/report"
	"github.com/gotrs-io/saucedemo-e2e/internal/session"
	"github.com/gotrs-io/saucedemo-e2e/internal/shop"
)

type fixture struct {
	sim       *simulated.Driver
	log       *report.Memory
	s         *session.Session
	data      config.TestData
	login     *pages.LoginPage
	inventory *pages.InventoryPage
	checkout  *pages.CheckoutPage
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	data := config.DefaultTestData()
	sim := simulated.New(simulated.Options{
		BaseURL: data.BaseURL,
		Store:   shop.Store{LockedOutMessage: data.LockedUserError, GlitchDelay: 60 * time.Millisecond},
	})
	desk := automation.NewDesktop(sim, automation.Options{
		LaunchCommand: "start chrome",
		Elements:      map[string]string{"cart1": ".shopping_cart_link"},
	})
	log := report.NewMemory()
	s := session.New(session.Options{
		Client:   desk,
		Logger:   log,
		TestData: data,
		Wait: config.WaitConfig{
			Implicit:       300 * time.Millisecond,
			Landmark:       500 * time.Millisecond,
			Settle:         300 * time.Millisecond,
			PollInitial:    5 * time.Millisecond,
			PollMax:        20 * time.Millisecond,
			PollMultiplier: 1.5,
		},
	})
	require.NoError(t, s.Connect(context.Background()))
	t.Cleanup(func() { _ = s.Disconnect(context.Background()) })

	return &fixture{
		sim:       sim,
		log:       log,
		s:         s,
		data:      data,
		login:     pages.NewLoginPage(s),
		inventory: pages.NewInventoryPage(s),
		checkout:  pages.NewCheckoutPage(s),
	}
}

func (f *fixture) loggedIn(t *testing.T, user string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.login.NavigateToSite(ctx))
	require.NoError(t, f.login.Login(ctx, user, shop.Password))
}

func (f *fixture) atCheckoutForm(t *testing.T) {
	t.Helper()
	f.loggedIn(t, "standard_user")
	require.NoError(t, f.inventory.CompleteProductSelection(context.Background(), f.data.ProductName))
}

func TestNavigateToSite(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.login.NavigateToSite(context.Background()))

	assert.Equal(t, simulated.ScreenLogin, f.sim.Screen())
	assert.Equal(t, session.SiteLoaded, f.s.Stage())
}

func TestNavigateToSiteUnreachable(t *testing.T) {
	f := newFixture(t)
	data := f.data
	data.SiteLandmark = "Nothing like this"
	s := session.New(session.Options{Client: f.s.Client(), Logger: f.log, TestData: data, Wait: config.WaitConfig{
		Landmark: 30 * time.Millisecond, PollInitial: 5 * time.Millisecond,
	}})

	err := pages.NewLoginPage(s).NavigateToSite(context.Background())
	require.Error(t, err)
	assert.True(t, automation.IsAssertion(err))
	assert.Equal(t, session.NotStarted, s.Stage())
}

func TestLogin(t *testing.T) {
	t.Run("standard user reaches inventory", func(t *testing.T) {
		f := newFixture(t)
		f.loggedIn(t, "standard_user")
		assert.Equal(t, simulated.ScreenInventory, f.sim.Screen())
		assert.Equal(t, "standard_user", f.sim.User())
		assert.Equal(t, session.LoggedIn, f.s.Stage())
	})

	t.Run("glitch user waits for slow inventory", func(t *testing.T) {
		f := newFixture(t)
		f.loggedIn(t, "performance_glitch_user")
		assert.Equal(t, session.LoggedIn, f.s.Stage())
	})

	t.Run("locked user stays on login", func(t *testing.T) {
		f := newFixture(t)
		f.loggedIn(t, "locked_out_user")
		assert.Equal(t, simulated.ScreenLogin, f.sim.Screen())
		assert.Equal(t, session.SiteLoaded, f.s.Stage())

		shown, err := f.login.IsErrorMessageDisplayed(context.Background(), f.data.LockedUserError)
		require.NoError(t, err)
		assert.True(t, shown)
	})

	t.Run("empty credentials are passed through", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		require.NoError(t, f.login.NavigateToSite(ctx))
		require.NoError(t, f.login.Login(ctx, "", ""))

		shown, err := f.login.IsErrorMessageDisplayed(ctx, "Epic sadface: Username is required")
		require.NoError(t, err)
		assert.True(t, shown)
	})
}

func TestIsErrorMessageDisplayedWhenAbsent(t *testing.T) {
	f := newFixture(t)
	f.loggedIn(t, "standard_user")

	shown, err := f.login.IsErrorMessageDisplayed(context.Background(), f.data.LockedUserError)
	require.NoError(t, err)
	assert.False(t, shown)

	shown, err = f.login.IsErrorMessageDisplayed(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, shown)
}

func TestSelectProduct(t *testing.T) {
	f := newFixture(t)
	f.loggedIn(t, "standard_user")
	ctx := context.Background()
	before := len(f.log.Entries())

	require.NoError(t, f.inventory.SelectProduct(ctx, f.data.ProductName))
	assert.Equal(t, simulated.ScreenDetail, f.sim.Screen())
	assert.Equal(t, session.ProductSelected, f.s.Stage())

	entries := f.log.Entries()
	require.Greater(t, len(entries), before)
	assert.Equal(t, "Attempting to select product: Sauce Labs Backpack", entries[before].Message)
	last, _ := f.log.Last()
	assert.Equal(t, "Successfully verified product page for: Sauce Labs Backpack", last.Message)
}

func TestSelectUnknownProduct(t *testing.T) {
	f := newFixture(t)
	f.loggedIn(t, "standard_user")

	err := f.inventory.SelectProduct(context.Background(), "Sauce Labs Hoverboard")
	require.Error(t, err)
	assert.True(t, automation.IsAssertion(err))
	assert.Equal(t, session.LoggedIn, f.s.Stage())
}

func TestAddToCartTwiceKeepsOneUnit(t *testing.T) {
	f := newFixture(t)
	f.loggedIn(t, "standard_user")
	ctx := context.Background()
	require.NoError(t, f.inventory.SelectProduct(ctx, f.data.ProductName))

	require.NoError(t, f.inventory.AddToCart(ctx))
	assert.Equal(t, []string{f.data.ProductName}, f.sim.CartItems())
	assert.Equal(t, 0, f.log.Count(report.SeverityWarning))

	require.NoError(t, f.inventory.AddToCart(ctx))
	assert.Equal(t, []string{f.data.ProductName}, f.sim.CartItems())
	assert.Equal(t, 1, f.log.Count(report.SeverityWarning))
	last, _ := f.log.Last()
	assert.Equal(t, "Successfully added product to cart after remove", last.Message)
}

func TestGoToCartAndCheckout(t *testing.T) {
	f := newFixture(t)
	f.loggedIn(t, "standard_user")
	ctx := context.Background()
	require.NoError(t, f.inventory.SelectProduct(ctx, f.data.ProductName))
	require.NoError(t, f.inventory.AddToCart(ctx))

	require.NoError(t, f.inventory.GoToCart(ctx))
	assert.Equal(t, simulated.ScreenCart, f.sim.Screen())
	assert.Equal(t, session.InCart, f.s.Stage())

	require.NoError(t, f.inventory.ProceedToCheckout(ctx))
	assert.Equal(t, simulated.ScreenStepOne, f.sim.Screen())
}

func TestClickCheckoutFromCart(t *testing.T) {
	f := newFixture(t)
	f.loggedIn(t, "standard_user")
	ctx := context.Background()
	require.NoError(t, f.inventory.GoToCart(ctx))

	f.sim.FailNext("click", assert.AnError)
	err := f.checkout.ClickCheckout(ctx)
	require.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "failed to click checkout")
	assert.Equal(t, simulated.ScreenCart, f.sim.Screen())

	require.NoError(t, f.checkout.ClickCheckout(ctx))
	assert.Equal(t, simulated.ScreenStepOne, f.sim.Screen())
}

func TestCompleteProductSelectionStopsAtFirstFailure(t *testing.T) {
	f := newFixture(t)
	f.loggedIn(t, "standard_user")

	err := f.inventory.CompleteProductSelection(context.Background(), "Sauce Labs Hoverboard")
	require.Error(t, err)
	for _, e := range f.log.Entries() {
		assert.NotEqual(t, "Add to cart step completed", e.Message)
	}
	assert.Empty(t, f.sim.CartItems())
}

func TestIsErrorDisplayed(t *testing.T) {
	f := newFixture(t)
	f.loggedIn(t, "locked_out_user")
	ctx := context.Background()

	require.NoError(t, f.inventory.IsErrorDisplayed(ctx, f.data.LockedUserError))
	last, _ := f.log.Last()
	assert.Equal(t, "Error message verified: "+f.data.LockedUserError, last.Message)

	assert.True(t, automation.IsAssertion(f.inventory.IsErrorDisplayed(ctx, "Something else entirely")))
}

func TestCheckoutFlow(t *testing.T) {
	f := newFixture(t)
	f.atCheckoutForm(t)
	ctx := context.Background()
	info := f.data.Checkout

	require.NoError(t, f.checkout.FillShippingDetails(ctx, info.FirstName, info.LastName, info.PostalCode))
	assert.Equal(t, session.CheckoutFormFilled, f.s.Stage())
	assert.Equal(t, "John", f.sim.Field(simulated.FieldFirstName))
	assert.Equal(t, "Doe", f.sim.Field(simulated.FieldLastName))
	assert.Equal(t, "10000", f.sim.Field(simulated.FieldPostalCode))
	require.NoError(t, f.checkout.VerifyEnteredValues(ctx, info.FirstName, info.LastName, info.PostalCode))

	require.NoError(t, f.checkout.ClickContinue(ctx))
	assert.Equal(t, simulated.ScreenStepTwo, f.sim.Screen())
	require.NoError(t, f.checkout.ClickFinish(ctx))
	assert.Equal(t, simulated.ScreenComplete, f.sim.Screen())
	assert.Equal(t, session.Finished, f.s.Stage())
	assert.Equal(t, 1, f.sim.Orders())

	done, err := f.checkout.IsOrderComplete(ctx)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestContinuePrecedesFinish(t *testing.T) {
	f := newFixture(t)
	f.atCheckoutForm(t)
	ctx := context.Background()

	require.ErrorIs(t, f.checkout.ClickFinish(ctx), session.ErrStageOrder)
	require.ErrorIs(t, f.checkout.ClickContinue(ctx), session.ErrStageOrder)
	assert.Equal(t, simulated.ScreenStepOne, f.sim.Screen())
	assert.Zero(t, f.sim.Orders())
}

func TestVerifyEnteredValues(t *testing.T) {
	info := config.DefaultTestData().Checkout
	values := [3]string{info.FirstName, info.LastName, info.PostalCode}

	// Every blank/filled combination of what was typed, verified against
	// the full expected values.
	for mask := 0; mask < 8; mask++ {
		typed := values
		for i := range typed {
			if mask&(1<<i) != 0 {
				typed[i] = ""
			}
		}
		t.Run(fmt.Sprintf("blank=%03b", mask), func(t *testing.T) {
			f := newFixture(t)
			f.atCheckoutForm(t)
			ctx := context.Background()
			require.NoError(t, f.checkout.FillShippingDetails(ctx, typed[0], typed[1], typed[2]))

			err := f.checkout.VerifyEnteredValues(ctx, values[0], values[1], values[2])
			if mask == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, automation.IsAssertion(err))

			err = f.checkout.VerifyEnteredValues(ctx, typed[0], typed[1], typed[2])
			require.ErrorIs(t, err, pages.ErrBlankValue)
			assert.Equal(t, bitsSet(mask), f.log.Count(report.SeverityError)-1)
		})
	}
}

func bitsSet(n int) int {
	c := 0
	for ; n > 0; n >>= 1 {
		c += n & 1
	}
	return c
}

func TestIsOrderCompleteBeforeFinish(t *testing.T) {
	f := newFixture(t)
	f.loggedIn(t, "standard_user")

	done, err := f.checkout.IsOrderComplete(context.Background())
	require.NoError(t, err)
	assert.False(t, done)
}
