package templates

import (
	"context"
	"log/slog"
	"sync"

	"github.com/proofr/notifier/pkg/logger"
)

// Source resolves a template ID to content from an external template store.
// A nil template with a nil error means the ID is unknown to the source;
// that is graceful absence, not a failure.
type Source interface {
	Lookup(ctx context.Context, id string) (*Template, error)
}

// Registry owns the id-to-template mapping for one process. It is
// constructed once and passed by reference to whatever renders email, so
// there is no module-level template state.
//
// Load resolves templates through three tiers: the in-memory cache (fed by
// the optional Source), the built-in defaults, and finally a generic
// catch-all. The tiers trade correct copy for sendability: an unknown
// template ID still produces usable content instead of a dropped email.
type Registry struct {
	mu       sync.RWMutex
	cache    map[string]*Template
	source   Source
	defaults PlatformDefaults
	log      *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithSource attaches an external template store consulted on cache misses.
func WithSource(s Source) RegistryOption {
	return func(r *Registry) { r.source = s }
}

// WithPlatformDefaults sets the default variables injected into every render.
func WithPlatformDefaults(d PlatformDefaults) RegistryOption {
	return func(r *Registry) { r.defaults = d }
}

// WithLogger sets the logger for source lookup failures.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRegistry creates an empty template registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		cache: make(map[string]*Template),
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register places a template in the cache, replacing any cached copy with
// the same ID.
func (r *Registry) Register(tpl *Template) {
	if tpl == nil || tpl.ID == "" {
		return
	}
	r.mu.Lock()
	r.cache[tpl.ID] = tpl
	r.mu.Unlock()
}

// Load returns the template for the given ID. It never returns nil: when
// the cache and the source both miss, it falls back to the built-in default
// for the ID, and to the generic template when the ID is entirely unknown.
// Source failures are logged and treated as a miss.
func (r *Registry) Load(ctx context.Context, id string) *Template {
	r.mu.RLock()
	if tpl, ok := r.cache[id]; ok {
		r.mu.RUnlock()
		return tpl
	}
	r.mu.RUnlock()

	if r.source != nil {
		tpl, err := r.source.Lookup(ctx, id)
		if err != nil {
			r.log.WarnContext(ctx, "template source lookup failed",
				slog.String("template_id", id), logger.Error(err))
		} else if tpl != nil {
			r.Register(tpl)
			return tpl
		}
	}

	return defaultTemplate(id)
}

// Render substitutes vars into content and injects the registry's platform
// defaults in a second pass.
func (r *Registry) Render(content string, vars map[string]any) string {
	return Render(content, vars, r.defaults)
}
