// Package registry maps strategy method names to builders and their
// declared parameter schemas.
package registry

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

// BuilderFunc creates a strategy instance from resolved parameters.
// Params have already been validated, defaulted and coerced.
type BuilderFunc[T any] func(params map[string]any) (T, error)

type entry[T any] struct {
	strategy domain.Strategy
	builder  BuilderFunc[T]
}

// Registry maps method names to their builders.
// It allows construction of strategies from user-supplied parameters.
// Registries are filled once at startup and only read afterwards.
type Registry[T any] struct {
	kind    string
	entries map[string]entry[T]
}

// New creates an empty registry. Kind names the strategy family
// (e.g., "chunker") in error messages.
func New[T any](kind string) *Registry[T] {
	return &Registry[T]{
		kind:    kind,
		entries: make(map[string]entry[T]),
	}
}

// Register adds a strategy. It fails when the method is empty, already
// registered, or when the declared defaults do not pass the strategy's
// own validation.
func (r *Registry[T]) Register(strategy domain.Strategy, builder BuilderFunc[T]) error {
	if strategy.Method == "" {
		return fmt.Errorf("%s registry: empty method name", r.kind)
	}
	if builder == nil {
		return fmt.Errorf("%s registry: %s: nil builder", r.kind, strategy.Method)
	}
	if _, ok := r.entries[strategy.Method]; ok {
		return fmt.Errorf("%s registry: %s already registered", r.kind, strategy.Method)
	}
	if _, err := strategy.Resolve(nil); err != nil {
		return fmt.Errorf("%s registry: %s: invalid defaults: %w", r.kind, strategy.Method, err)
	}
	r.entries[strategy.Method] = entry[T]{strategy: strategy, builder: builder}
	return nil
}

// Resolve validates params for method and returns them with defaults filled in.
func (r *Registry[T]) Resolve(method string, params map[string]any) (map[string]any, error) {
	e, ok := r.entries[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s %q", domain.ErrUnsupportedMethod, r.kind, method)
	}
	return e.strategy.Resolve(params)
}

// Build resolves params and creates the strategy.
// It returns the resolved params alongside so callers can record exactly
// what was run.
func (r *Registry[T]) Build(method string, params map[string]any) (T, map[string]any, error) {
	var zero T
	resolved, err := r.Resolve(method, params)
	if err != nil {
		return zero, nil, err
	}
	inst, err := r.entries[method].builder(resolved)
	if err != nil {
		return zero, nil, fmt.Errorf("build %s %s: %w", r.kind, method, err)
	}
	return inst, resolved, nil
}

// Has returns true if a strategy with the given method is registered.
func (r *Registry[T]) Has(method string) bool {
	_, ok := r.entries[method]
	return ok
}

// Schema returns the declared strategy for method.
func (r *Registry[T]) Schema(method string) (domain.Strategy, error) {
	e, ok := r.entries[method]
	if !ok {
		return domain.Strategy{}, fmt.Errorf("%w: %s %q", domain.ErrUnsupportedMethod, r.kind, method)
	}
	return e.strategy, nil
}

// Methods returns all registered method names in sorted order.
func (r *Registry[T]) Methods() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Strategies returns all registered strategies sorted by method.
func (r *Registry[T]) Strategies() []domain.Strategy {
	methods := r.Methods()
	out := make([]domain.Strategy, 0, len(methods))
	for _, m := range methods {
		out = append(out, r.entries[m].strategy)
	}
	return out
}
