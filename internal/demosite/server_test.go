package demosite_test

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gotrs-io/saucedemo-e2e/internal/config"
	"github.com/gotrs-io/saucedemo-e2e/internal/demosite"
	"github.com/gotrs-io/saucedemo-e2e/internal/shop"
)

type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newBrowser(t *testing.T, store shop.Store) *browser {
	t.Helper()
	srv, err := demosite.New(demosite.Options{Store: store})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}
	t.Cleanup(client.CloseIdleConnections)
	return &browser{t: t, base: ts.URL, client: client}
}

func (b *browser) read(resp *http.Response, err error) (int, string) {
	b.t.Helper()
	require.NoError(b.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return resp.StatusCode, string(body)
}

func (b *browser) get(path string) (int, string) {
	return b.read(b.client.Get(b.base + path))
}

func (b *browser) post(path string, form url.Values) (int, string) {
	return b.read(b.client.PostForm(b.base+path, form))
}

func (b *browser) login(user string) string {
	_, body := b.post("/", url.Values{"user-name": {user}, "password": {shop.Password}})
	return body
}

func TestLoginPage(t *testing.T) {
	b := newBrowser(t, shop.NewStore())
	resp, err := b.client.Get(b.base + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `placeholder="Username"`)
	assert.Contains(t, string(body), `value="Login"`)

	u, _ := url.Parse(b.base)
	cookies := b.client.Jar.Cookies(u)
	require.Len(t, cookies, 1)
	assert.Equal(t, "session-id", cookies[0].Name)
}

func TestLoginRequired(t *testing.T) {
	b := newBrowser(t, shop.NewStore())
	code, body := b.get("/inventory.html")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Epic sadface: You can only access &#39;/inventory.html&#39; when you are logged in.")
}

func TestLoginFailures(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"empty username", url.Values{}, "Epic sadface: Username is required"},
		{"empty password", url.Values{"user-name": {"standard_user"}}, "Epic sadface: Password is required"},
		{"wrong password", url.Values{"user-name": {"standard_user"}, "password": {"x"}}, "do not match any user in this service"},
		{"locked out", url.Values{"user-name": {"locked_out_user"}, "password": {shop.Password}}, "Epic sadface: Username and password x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBrowser(t, shop.Store{LockedOutMessage: "Epic sadface: Username and password x"})
			_, body := b.post("/", tt.form)
			assert.Contains(t, body, tt.want)
			assert.Contains(t, body, `id="login-button"`)
		})
	}
}

func TestPurchaseFlow(t *testing.T) {
	b := newBrowser(t, shop.NewStore())

	body := b.login("standard_user")
	assert.Contains(t, body, ">Products<")
	assert.Contains(t, body, "Sauce Labs Backpack")

	_, body = b.get("/inventory-item.html?id=4")
	assert.Contains(t, body, "Back to products")
	assert.Contains(t, body, "Add to cart")

	_, body = b.post("/cart/add/4", url.Values{"back": {"/inventory-item.html?id=4"}})
	assert.Contains(t, body, "Back to products", "returns to the detail page")
	assert.Contains(t, body, `<span class="shopping_cart_badge">1</span>`)
	assert.Contains(t, body, ">Remove<")

	_, body = b.get("/cart.html")
	assert.Contains(t, body, "Your Cart")
	assert.Contains(t, body, "Sauce Labs Backpack")
	assert.Contains(t, body, ">Checkout<")

	_, body = b.post("/checkout-step-one.html", url.Values{"first-name": {"John"}})
	assert.Contains(t, body, "Error: Last Name is required")
	assert.Contains(t, body, `value="John"`)

	_, body = b.post("/checkout-step-one.html", url.Values{
		"first-name":  {"John"},
		"last-name":   {"Doe"},
		"postal-code": {"10000"},
	})
	assert.Contains(t, body, "Checkout: Overview")
	assert.Contains(t, body, "Item total: $29.99")
	assert.Contains(t, body, "Tax: $2.40")
	assert.Contains(t, body, "Total: $32.39")

	_, body = b.post("/checkout-step-two.html", nil)
	assert.Contains(t, body, "Thank you for your order!")
	assert.NotContains(t, body, `<span class="shopping_cart_badge">`, "cart is emptied")
}

func TestErrorUserCannotFinish(t *testing.T) {
	b := newBrowser(t, shop.NewStore())
	b.login("error_user")
	b.post("/cart/add/4", nil)
	b.post("/checkout-step-one.html", url.Values{
		"first-name":  {"John"},
		"last-name":   {"Doe"},
		"postal-code": {"10000"},
	})

	_, body := b.post("/checkout-step-two.html", nil)
	assert.Contains(t, body, "Checkout: Overview")
	assert.NotContains(t, body, "Thank you for your order!")
}

func TestRemoveFromCart(t *testing.T) {
	b := newBrowser(t, shop.NewStore())
	b.login("standard_user")
	b.post("/cart/add/0", nil)
	_, body := b.post("/cart/remove/0", url.Values{"back": {"/cart.html"}})
	assert.Contains(t, body, "Your Cart")
	assert.NotContains(t, body, "Sauce Labs Bike Light")

	code, _ := b.post("/cart/add/99", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestOpenRedirectIsIgnored(t *testing.T) {
	b := newBrowser(t, shop.NewStore())
	b.login("standard_user")
	for _, back := range []string{"https://example.com/", "//example.com/"} {
		_, body := b.post("/cart/add/4", url.Values{"back": {back}})
		assert.Contains(t, body, ">Products<", back)
	}
}

func TestProblemUserDescriptions(t *testing.T) {
	b := newBrowser(t, shop.NewStore())
	body := b.login("problem_user")
	assert.Equal(t, 6, strings.Count(body, "lorem ipsum lorem ipsum lorem ipsum"))
}

func TestGlitchUserIsSlow(t *testing.T) {
	b := newBrowser(t, shop.Store{GlitchDelay: 40 * time.Millisecond})
	start := time.Now()
	body := b.login("performance_glitch_user")
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	assert.Contains(t, body, ">Products<")
}

func TestUnknownItemRedirects(t *testing.T) {
	b := newBrowser(t, shop.NewStore())
	b.login("standard_user")
	_, body := b.get("/inventory-item.html?id=abc")
	assert.Contains(t, body, ">Products<")
	_, body = b.get("/inventory-item.html?id=42")
	assert.Contains(t, body, ">Products<")
}

func TestLogout(t *testing.T) {
	b := newBrowser(t, shop.NewStore())
	b.login("standard_user")
	b.post("/logout", nil)
	_, body := b.get("/cart.html")
	assert.Contains(t, body, "You can only access &#39;/cart.html&#39;")
}

func TestExpire(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	srv, err := demosite.New(demosite.Options{Store: shop.NewStore(), Now: func() time.Time { return now }})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Zero(t, srv.Expire(time.Hour))
	now = now.Add(2 * time.Hour)
	assert.Equal(t, 1, srv.Expire(time.Hour))
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{DemoSite: config.DemoSiteConfig{LockedOutMessage: "nope", GlitchDelay: time.Second}}
	opts := demosite.OptionsFromConfig(cfg, nil)
	assert.Equal(t, "nope", opts.Store.LockedOutMessage)
	assert.Equal(t, time.Second, opts.Store.GlitchDelay)

	opts = demosite.OptionsFromConfig(&config.Config{}, nil)
	assert.Equal(t, shop.DefaultLockedOutMessage, opts.Store.LockedOutMessage)
}

func TestRunAndShutdown(t *testing.T) {
	srv, err := demosite.New(demosite.Options{Store: shop.NewStore()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	addrCh := make(chan net.Addr, 1)
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, "127.0.0.1:0", func(a net.Addr) { addrCh <- a }) }()

	var addr net.Addr
	select {
	case addr = <-addrCh:
	case <-time.After(5 * time.Second):
		t.Fatal("server never came up")
	}
	client := &http.Client{}
	resp, err := client.Get("http://" + addr.String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	client.CloseIdleConnections()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
