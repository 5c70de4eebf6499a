package prompts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jonathan/profile-extractor/internal/db"
)

// DefaultCacheTTL bounds how long a stored override is served from memory
const DefaultCacheTTL = 5 * time.Minute

type cachedPrompt struct {
	body     string
	cachedAt time.Time
}

// Repository resolves prompt names to template bodies. Stored overrides
// take precedence; reads fall back to the compiled-in defaults when the
// store is unreachable or has no record. Writes require the store.
type Repository struct {
	store  db.PromptStore
	logger *slog.Logger
	ttl    time.Duration
	now    func() time.Time

	mu    sync.RWMutex
	cache map[string]cachedPrompt
}

// NewRepository creates a repository over store. A nil store runs in default-only mode.
func NewRepository(store db.PromptStore, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		store:  store,
		logger: logger,
		ttl:    DefaultCacheTTL,
		now:    time.Now,
		cache:  make(map[string]cachedPrompt),
	}
}

// Get returns the template body for name
func (r *Repository) Get(ctx context.Context, name string) (string, error) {
	if body, ok := r.cached(name); ok {
		return body, nil
	}

	if r.store != nil {
		tmpl, err := r.store.GetPrompt(ctx, name)
		switch {
		case err != nil:
			r.logger.Warn("prompt store read failed, using default",
				slog.String("prompt", name), slog.Any("error", err))
		case tmpl != nil:
			r.remember(name, tmpl.Body)
			return tmpl.Body, nil
		}
	}

	if def, ok := Default(name); ok {
		return def.Template, nil
	}
	return "", fmt.Errorf("%w: %s", ErrPromptNotFound, name)
}

// Render fetches name and substitutes vars into it
func (r *Repository) Render(ctx context.Context, name string, vars map[string]string) (string, error) {
	body, err := r.Get(ctx, name)
	if err != nil {
		return "", err
	}
	out, err := Substitute(body, vars)
	if err != nil {
		return "", fmt.Errorf("prompt %s: %w", name, err)
	}
	return out, nil
}

// Put stores body under name, replacing any previous override
func (r *Repository) Put(ctx context.Context, name, body string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidPrompt)
	}
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("%w: template cannot be empty", ErrInvalidPrompt)
	}
	if r.store == nil {
		return fmt.Errorf("%w: no prompt store configured", ErrStoreUnavailable)
	}

	tmpl := &db.PromptTemplate{Name: name, Body: body, UpdatedAt: r.now().UTC()}
	if def, ok := Default(name); ok {
		tmpl.Description = def.Description
	}

	err := r.store.UpsertPrompt(ctx, tmpl)
	r.forget(name)
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	r.logger.Info("prompt updated", slog.String("prompt", name))
	return nil
}

// List returns the names of every resolvable prompt: stored overrides plus defaults.
// When the store is unreachable only the defaults are listed.
func (r *Repository) List(ctx context.Context) []string {
	set := make(map[string]struct{})
	for _, name := range DefaultNames() {
		set[name] = struct{}{}
	}

	if r.store != nil {
		stored, err := r.store.ListPromptNames(ctx)
		if err != nil {
			r.logger.Warn("prompt store list failed, listing defaults only", slog.Any("error", err))
		}
		for _, name := range stored {
			set[name] = struct{}{}
		}
	}

	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Seed writes every default that the store does not yet hold. Existing
// overrides are never touched. Returns the number of prompts inserted.
func (r *Repository) Seed(ctx context.Context) (int, error) {
	if r.store == nil {
		return 0, fmt.Errorf("%w: no prompt store configured", ErrStoreUnavailable)
	}

	inserted := 0
	for _, name := range DefaultNames() {
		def := MustDefault(name)
		ok, err := r.store.InsertPromptIfMissing(ctx, &db.PromptTemplate{
			Name:        name,
			Body:        def.Template,
			Description: def.Description,
			UpdatedAt:   r.now().UTC(),
		})
		if err != nil {
			return inserted, fmt.Errorf("failed to seed prompt %s: %w", name, err)
		}
		if ok {
			inserted++
			r.logger.Info("seeded default prompt", slog.String("prompt", name))
		}
	}
	return inserted, nil
}

func (r *Repository) cached(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[name]
	if !ok || r.now().Sub(entry.cachedAt) > r.ttl {
		return "", false
	}
	return entry.body, true
}

func (r *Repository) remember(name, body string) {
	r.mu.Lock()
	r.cache[name] = cachedPrompt{body: body, cachedAt: r.now()}
	r.mu.Unlock()
}

func (r *Repository) forget(name string) {
	r.mu.Lock()
	delete(r.cache, name)
	r.mu.Unlock()
}
