// Package registry keeps the set of generator configuration files a user has
// made available, addressed by generator name.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/mediabridge/internal/logging"
	"github.com/aretw0/mediabridge/pkg/config"
	"github.com/aretw0/mediabridge/pkg/domain"
)

// Entry is one registered generator.
type Entry struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Path        string `json:"path"`
}

// Registry manages the available generators.
// Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	logger  *slog.Logger
}

// Option configures the registry.
type Option func(*Registry)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]Entry),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add parses the configuration file at path and registers it under the
// generator's name. A path or name that is already registered is rejected.
func (r *Registry) Add(path string) (Entry, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Entry{}, err
	}
	def, err := config.LoadFile(abs)
	if err != nil {
		return Entry{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.Path == abs {
			return Entry{}, fmt.Errorf("%w: %s is already registered as %q", domain.ErrDuplicateGenerator, abs, e.Name)
		}
	}
	if _, exists := r.entries[def.Name]; exists {
		return Entry{}, fmt.Errorf("%w: a generator named %q already exists", domain.ErrDuplicateGenerator, def.Name)
	}

	e := Entry{Name: def.Name, Description: def.Description, Path: abs}
	r.entries[def.Name] = e
	r.logger.Debug("generator registered", "name", e.Name, "path", e.Path)
	return e, nil
}

// Remove unregisters a generator. The configuration file is left alone.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[name]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrGeneratorNotFound, name)
	}
	delete(r.entries, name)
	return nil
}

// List returns every registered generator sorted by name.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LoadDir registers every .yaml and .yml file in dir. Files that fail to parse
// or collide with a registered generator are skipped; their errors are
// returned joined alongside the entries that were added.
func (r *Registry) LoadDir(dir string) ([]Entry, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read generators directory: %w", err)
	}

	var added []Entry
	var errs []error
	for _, f := range files {
		ext := strings.ToLower(filepath.Ext(f.Name()))
		if f.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		e, err := r.Add(filepath.Join(dir, f.Name()))
		if err != nil {
			r.logger.Warn("skipping generator config", "file", f.Name(), "error", err)
			errs = append(errs, err)
			continue
		}
		added = append(added, e)
	}
	return added, errors.Join(errs...)
}

// Definition re-reads and re-parses the generator's file so edits made since
// registration take effect on the next run.
func (r *Registry) Definition(ctx context.Context, name string) (*domain.GeneratorDefinition, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrGeneratorNotFound, name)
	}
	return config.LoadFile(e.Path)
}
