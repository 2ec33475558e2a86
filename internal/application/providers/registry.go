// Package providers maps provider tags to adapter factories.
package providers

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/example/bookinghub/internal/domain/reservation"
)

var ErrUnknownProvider = errors.New("unknown provider")

// UnknownProviderError names the rejected tag and the supported ones.
type UnknownProviderError struct {
	Provider  string
	Supported []string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unsupported provider: %s (supported: %s)", e.Provider, strings.Join(e.Supported, ", "))
}

func (e *UnknownProviderError) Is(target error) bool { return target == ErrUnknownProvider }

type Factory func() (reservation.Adapter, error)

// Registry builds each adapter once, on first use.
type Registry struct {
	defaultTag string

	mu        sync.Mutex
	factories map[string]Factory
	built     map[string]reservation.Adapter
}

func NewRegistry(defaultTag string) *Registry {
	return &Registry{
		defaultTag: normalize(defaultTag),
		factories:  map[string]Factory{},
		built:      map[string]reservation.Adapter{},
	}
}

func normalize(tag string) string { return strings.ToLower(strings.TrimSpace(tag)) }

func (r *Registry) Register(tag string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tag = normalize(tag)
	r.factories[tag] = f
	delete(r.built, tag)
}

// Get returns the adapter for tag, or an *UnknownProviderError.
func (r *Registry) Get(tag string) (reservation.Adapter, error) {
	tag = normalize(tag)
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.built[tag]; ok {
		return a, nil
	}
	f, ok := r.factories[tag]
	if !ok {
		return nil, &UnknownProviderError{Provider: tag, Supported: r.supportedLocked()}
	}
	a, err := f()
	if err != nil {
		return nil, fmt.Errorf("build %s adapter: %w", tag, err)
	}
	r.built[tag] = a
	return a, nil
}

// Default returns the adapter used when a venue has no usable mapping.
func (r *Registry) Default() (reservation.Adapter, error) {
	return r.Get(r.defaultTag)
}

func (r *Registry) DefaultTag() string { return r.defaultTag }

func (r *Registry) Supported() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.supportedLocked()
}

func (r *Registry) supportedLocked() []string {
	out := make([]string, 0, len(r.factories))
	for k := range r.factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
