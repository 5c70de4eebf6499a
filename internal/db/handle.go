package db

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrStoreUnavailable is returned when the prompt store cannot be reached
var ErrStoreUnavailable = errors.New("prompt store unavailable")

// DefaultRetryAfter is how long a Handle waits after a failed connect before trying again
const DefaultRetryAfter = 30 * time.Second

// Opener creates a connected store
type Opener func(ctx context.Context) (PromptStore, error)

// Handle is the process-wide store connection. It connects on first use,
// is shared by all callers, and is released with Close.
// After a failed connect, calls fail fast with ErrStoreUnavailable until
// retryAfter has elapsed.
type Handle struct {
	open       Opener
	retryAfter time.Duration
	now        func() time.Time

	mu         sync.Mutex
	store      PromptStore
	lastErr    error
	lastFailAt time.Time
	closed     bool
}

// NewHandle creates a Handle that connects lazily through open
func NewHandle(open Opener, retryAfter time.Duration) *Handle {
	if retryAfter <= 0 {
		retryAfter = DefaultRetryAfter
	}
	return &Handle{
		open:       open,
		retryAfter: retryAfter,
		now:        time.Now,
	}
}

// acquire returns the shared store, connecting if this is the first use
func (h *Handle) acquire(ctx context.Context) (PromptStore, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, fmt.Errorf("%w: handle closed", ErrStoreUnavailable)
	}
	if h.store != nil {
		return h.store, nil
	}
	if h.lastErr != nil && h.now().Sub(h.lastFailAt) < h.retryAfter {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, h.lastErr)
	}

	store, err := h.open(ctx)
	if err != nil {
		h.lastErr = err
		h.lastFailAt = h.now()
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	h.store = store
	h.lastErr = nil
	return store, nil
}

// Connected reports whether the handle currently holds an open store
func (h *Handle) Connected() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store != nil
}

// GetPrompt implements PromptStore
func (h *Handle) GetPrompt(ctx context.Context, name string) (*PromptTemplate, error) {
	store, err := h.acquire(ctx)
	if err != nil {
		return nil, err
	}
	return store.GetPrompt(ctx, name)
}

// UpsertPrompt implements PromptStore
func (h *Handle) UpsertPrompt(ctx context.Context, tmpl *PromptTemplate) error {
	store, err := h.acquire(ctx)
	if err != nil {
		return err
	}
	return store.UpsertPrompt(ctx, tmpl)
}

// InsertPromptIfMissing implements PromptStore
func (h *Handle) InsertPromptIfMissing(ctx context.Context, tmpl *PromptTemplate) (bool, error) {
	store, err := h.acquire(ctx)
	if err != nil {
		return false, err
	}
	return store.InsertPromptIfMissing(ctx, tmpl)
}

// ListPromptNames implements PromptStore
func (h *Handle) ListPromptNames(ctx context.Context) ([]string, error) {
	store, err := h.acquire(ctx)
	if err != nil {
		return nil, err
	}
	return store.ListPromptNames(ctx)
}

// Close tears down the shared connection. Later calls fail with ErrStoreUnavailable.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	if h.store == nil {
		return nil
	}
	err := h.store.Close()
	h.store = nil
	return err
}
