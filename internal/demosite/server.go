// Package demosite serves a stand-in for the Swag Labs shop so the browser
// backends can run the scenarios without reaching the public site. Its
// behaviour comes from the shop package, the same model the simulated
// backend renders.
package demosite

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gotrs-io/saucedemo-e2e/internal/config"
	"github.com/gotrs-io/saucedemo-e2e/internal/shop"
)

//go:embed templates/*.html
var templateFS embed.FS

// Options configures a Server.
type Options struct {
	Store  shop.Store
	Logger *zap.Logger
	// Debug puts gin in debug mode.
	Debug bool
	Now   func() time.Time
}

// OptionsFromConfig maps the demosite section of cfg.
func OptionsFromConfig(cfg *config.Config, logger *zap.Logger) Options {
	store := shop.NewStore()
	if cfg.DemoSite.LockedOutMessage != "" {
		store.LockedOutMessage = cfg.DemoSite.LockedOutMessage
	}
	if cfg.DemoSite.GlitchDelay > 0 {
		store.GlitchDelay = cfg.DemoSite.GlitchDelay
	}
	return Options{Store: store, Logger: logger, Debug: cfg.App.Debug}
}

// Server is the demo shop.
type Server struct {
	engine   *gin.Engine
	store    shop.Store
	sessions *sessions
	log      *zap.Logger
	now      func() time.Time
}

// New builds the server and its routes.
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"money":  shop.Money,
		"button": newCartButton,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		engine:   gin.New(),
		store:    opts.Store,
		sessions: newSessions(),
		log:      opts.Logger.Named("demosite"),
		now:      opts.Now,
	}
	s.engine.SetHTMLTemplate(tmpl)
	s.engine.Use(gin.Recovery(), requestID(), requestLogger(s.log), s.session())
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.engine
	r.GET("/", s.loginPage)
	r.POST("/", s.login)
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	in := r.Group("/", requireLogin())
	in.GET("/inventory.html", s.inventory)
	in.GET("/inventory-item.html", s.item)
	in.POST("/cart/add/:id", s.addToCart)
	in.POST("/cart/remove/:id", s.removeFromCart)
	in.GET("/cart.html", s.cart)
	in.GET("/checkout-step-one.html", s.stepOne)
	in.POST("/checkout-step-one.html", s.submitStepOne)
	in.GET("/checkout-step-two.html", s.stepTwo)
	in.POST("/checkout-step-two.html", s.finish)
	in.GET("/checkout-complete.html", s.complete)
	in.POST("/logout", s.logout)
}

// Handler exposes the routes, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Expire drops sessions idle for longer than idle.
func (s *Server) Expire(idle time.Duration) int {
	return s.sessions.expire(s.now().Add(-idle))
}

// Run serves on addr until ctx ends, then shuts down gracefully. ready,
// when not nil, receives the bound address once the listener is up.
func (s *Server) Run(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if ready != nil {
		ready(ln.Addr())
	}
	s.log.Info("Demo site listening", zap.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("Demo site stopped")
	return nil
}
