// Package scenarios defines the persona purchase scenarios and runs them
// against sessions, once, in parallel or on a schedule.
package scenarios

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gotrs-io/saucedemo-e2e/internal/config"
	"github.com/gotrs-io/saucedemo-e2e/internal/session"
)

// Scenario is one end-to-end test.
type Scenario interface {
	// Name returns the unique name of the scenario
	Name() string

	// Persona returns the user type the scenario logs in as
	Persona() config.Persona

	// Run executes the scenario on a session whose browser window is open
	Run(ctx context.Context, s *session.Session) error

	// Timeout returns the maximum time this scenario should run
	Timeout() time.Duration
}

// Registry holds the known scenarios.
type Registry struct {
	mu        sync.RWMutex
	scenarios map[string]Scenario
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{scenarios: make(map[string]Scenario)}
}

// Register adds a scenario, replacing any with the same name.
func (r *Registry) Register(sc Scenario) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scenarios[sc.Name()] = sc
}

// Get returns a scenario by name.
func (r *Registry) Get(name string) (Scenario, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sc, ok := r.scenarios[name]
	return sc, ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.scenarios))
	for name := range r.scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the registered scenarios sorted by name.
func (r *Registry) All() []Scenario {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Scenario, 0, len(names))
	for _, name := range names {
		out = append(out, r.scenarios[name])
	}
	return out
}

// Select resolves names to scenarios. No names selects all of them.
func (r *Registry) Select(names ...string) ([]Scenario, error) {
	if len(names) == 0 {
		return r.All(), nil
	}
	out := make([]Scenario, 0, len(names))
	for _, name := range names {
		sc, ok := r.Get(name)
		if !ok {
			return nil, &UnknownScenarioError{Name: name, Known: r.Names()}
		}
		out = append(out, sc)
	}
	return out, nil
}

// DefaultTimeout bounds a scenario when no timeout is configured.
const DefaultTimeout = 10 * time.Minute

// Builtin returns a registry with the standard persona scenarios, each
// bounded by timeout.
func Builtin(timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	r := NewRegistry()
	r.Register(NewPurchase("standard-purchase", config.Standard, timeout, true))
	r.Register(NewPurchase("glitch-purchase", config.Glitch, timeout, true))
	r.Register(NewPurchase("problem-purchase", config.Problem, timeout, false))
	r.Register(NewPurchase("error-purchase", config.Error, timeout, false))
	r.Register(NewLockedOut("locked-out", timeout))
	return r
}
