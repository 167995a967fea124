package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Provider is implemented by every sync backend. Failures are returned as *ErrorEnvelope.
type Provider interface {
	// ID is stable across releases, for example "google_calendar".
	ID() string
	Status() Status
	Auth(ctx context.Context, req AuthRequest) (*AuthResult, error)
	Pull(ctx context.Context, req PullRequest) (*PullResult, error)
	Push(ctx context.Context, req PushRequest) (*PushResult, error)
	ConflictMap(ctx context.Context, req ConflictMapRequest) (*ConflictMapResult, error)
}

var (
	ErrDuplicateProvider = errors.New("provider already registered")
	ErrUnknownProvider   = errors.New("unknown provider")
	ErrInvalidProviderID = errors.New("provider id must not be blank")
)

// Registry holds the in-process providers and the one selected for syncing.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	active    string
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

func (r *Registry) Register(p Provider) error {
	id := strings.TrimSpace(p.ID())
	if id == "" {
		return ErrInvalidProviderID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateProvider, id)
	}
	r.providers[id] = p
	return nil
}

func (r *Registry) Get(id string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	return p, ok
}

// Statuses returns a snapshot of every provider ordered by id.
func (r *Registry) Statuses() []Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Status, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p.Status())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProviderID < out[j].ProviderID })
	return out
}

func (r *Registry) Select(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, id)
	}
	r.active = id
	return nil
}

// Active returns the selected provider, if any.
func (r *Registry) Active() (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.active == "" {
		return nil, false
	}
	p, ok := r.providers[r.active]
	return p, ok
}
