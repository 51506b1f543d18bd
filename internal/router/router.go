// Package router shows one dashboard view at a time. A view is initialized the first
// time it is shown and resized every time after that.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"edudash/internal/infrastructure"
	"edudash/internal/views"
)

// ErrUnknownView is returned for view names that were never registered.
var ErrUnknownView = errors.New("unknown view")

// Router manages the registered views of one page.
type Router struct {
	mu          sync.RWMutex
	views       map[string]views.View
	order       []string // registration order
	initialized map[string]bool
	active      string

	metrics *infrastructure.BusinessMetrics
	logger  *slog.Logger
}

// New creates an empty router. metrics may be nil.
func New(metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		views:       make(map[string]views.View),
		initialized: make(map[string]bool),
		metrics:     metrics,
		logger:      logger.With(slog.String("component", "router")),
	}
}

// Register adds a view. Names must be unique.
func (r *Router) Register(v views.View) error {
	if v == nil {
		return fmt.Errorf("cannot register nil view")
	}
	name := v.Name()
	if name == "" {
		return fmt.Errorf("view name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.views[name]; exists {
		return fmt.Errorf("view %s already registered", name)
	}
	r.views[name] = v
	r.order = append(r.order, name)
	return nil
}

// MarkInitialized records that name was initialized outside the router, so its
// first Show only resizes it.
func (r *Router) MarkInitialized(name string) {
	r.mu.Lock()
	r.initialized[name] = true
	r.mu.Unlock()
}

// Show makes name the active view. The first activation runs Init; later ones run
// Resize. It reports whether this was the first activation.
//
// A view whose Init failed is not retried: it stays inert and later activations
// only resize it.
func (r *Router) Show(ctx context.Context, name string) (bool, error) {
	r.mu.Lock()
	v, ok := r.views[name]
	if !ok {
		r.mu.Unlock()
		return false, fmt.Errorf("%w: %s", ErrUnknownView, name)
	}
	previous := r.active
	r.active = name
	first := !r.initialized[name]
	r.initialized[name] = true
	r.mu.Unlock()

	// Init runs unlocked: views ask IsActive while they initialize.
	infrastructure.RecordViewActivation(ctx, r.metrics, name, first)
	r.logger.InfoContext(ctx, "view shown",
		slog.String("view", name),
		slog.String("previous", previous),
		slog.Bool("first", first))

	if first {
		if err := v.Init(ctx); err != nil {
			r.logger.WarnContext(ctx, "view initialization failed",
				slog.String("view", name),
				slog.String("error", err.Error()))
			return true, fmt.Errorf("init %s: %w", name, err)
		}
		return true, nil
	}
	if err := v.Resize(); err != nil {
		return false, fmt.Errorf("resize %s: %w", name, err)
	}
	return false, nil
}

// Active returns the name of the visible view, empty before the first Show.
func (r *Router) Active() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// IsActive reports whether name is the visible view.
func (r *Router) IsActive(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active == name
}

// Initialized reports whether name has been activated at least once.
func (r *Router) Initialized(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.initialized[name]
}

// Get retrieves a view by name.
func (r *Router) Get(name string) (views.View, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.views[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownView, name)
	}
	return v, nil
}

// Has checks if a view is registered.
func (r *Router) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.views[name]
	return ok
}

// List returns all registered views in registration order.
func (r *Router) List() []views.View {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]views.View, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.views[name])
	}
	return out
}

// Names returns the registered view names in registration order.
func (r *Router) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Count returns the number of registered views.
func (r *Router) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.views)
}
