// Package file implements the project ports over a JSON document on disk.
//
// The document is re-read on every call and rewritten atomically on every
// mutation, so several processes may share one project file between runs.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aretw0/mediabridge/pkg/domain"
)

// Document is the on-disk shape of a project.
type Document struct {
	Strips      []domain.Strip                `json:"strips"`
	Controllers map[string]*domain.Controller `json:"controllers,omitempty"`
}

// Project implements ports.Project backed by a JSON file.
type Project struct {
	mu   sync.Mutex
	path string
}

// New opens the project document at path. The file need not exist yet; it is
// created on the first mutation.
func New(path string) (*Project, error) {
	if path == "" {
		return nil, domain.ErrNoProject
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return &Project{path: abs}, nil
}

// Path returns the absolute document path.
func (p *Project) Path() string {
	return p.path
}

func (p *Project) Strip(ctx context.Context, id string) (domain.Strip, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	doc, err := p.load()
	if err != nil {
		return domain.Strip{}, err
	}
	s := doc.byID(id)
	if s == nil {
		return domain.Strip{}, domain.ErrStripNotFound
	}
	return p.resolve(*s), nil
}

// Selected returns the selected strips, the active one first.
func (p *Project) Selected(ctx context.Context) ([]domain.Strip, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	doc, err := p.load()
	if err != nil {
		return nil, err
	}
	var active, rest []domain.Strip
	for _, s := range doc.Strips {
		switch {
		case s.Active:
			active = append(active, p.resolve(s))
		case s.Selected:
			rest = append(rest, p.resolve(s))
		}
	}
	return append(active, rest...), nil
}

func (p *Project) AddStrip(ctx context.Context, spec domain.NewStrip) (domain.Strip, error) {
	var created domain.Strip
	err := p.mutate(func(doc *Document) error {
		created = domain.Strip{
			ID:            spec.ID,
			Key:           domain.UniqueKey(spec.Name, func(k string) bool { return doc.byKey(k) != nil }),
			Name:          spec.Name,
			Kind:          spec.Kind,
			Channel:       spec.Channel,
			FrameStart:    spec.FrameStart,
			FrameDuration: spec.FrameDuration,
			Text:          spec.Text,
			FilePath:      p.relative(spec.FilePath),
		}
		doc.Strips = append(doc.Strips, created)
		return nil
	})
	if err != nil {
		return domain.Strip{}, err
	}
	return p.resolve(created), nil
}

// SetMedia stores path relative to the project directory when it lies inside it.
func (p *Project) SetMedia(ctx context.Context, id, path string) error {
	return p.update(id, func(s *domain.Strip) { s.FilePath = p.relative(path) })
}

func (p *Project) SetText(ctx context.Context, id, text string) error {
	return p.update(id, func(s *domain.Strip) { s.Text = text })
}

func (p *Project) AssignID(ctx context.Context, key, id string) error {
	return p.mutate(func(doc *Document) error {
		s := doc.byKey(key)
		if s == nil {
			return domain.ErrStripNotFound
		}
		s.ID = id
		return nil
	})
}

func (p *Project) LoadController(ctx context.Context, id string) (*domain.Controller, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	doc, err := p.load()
	if err != nil {
		return nil, err
	}
	c, ok := doc.Controllers[id]
	if !ok || c == nil {
		return nil, domain.ErrControllerNotFound
	}
	return c, nil
}

func (p *Project) SaveController(ctx context.Context, c *domain.Controller) error {
	return p.mutate(func(doc *Document) error {
		if doc.Controllers == nil {
			doc.Controllers = make(map[string]*domain.Controller)
		}
		doc.Controllers[c.ID] = c
		return nil
	})
}

// OutputDir returns "<name>_media" next to the project document.
func (p *Project) OutputDir() (string, error) {
	base := strings.TrimSuffix(filepath.Base(p.path), filepath.Ext(p.path))
	dir := filepath.Join(filepath.Dir(p.path), base+"_media")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}
	return dir, nil
}

// Select marks the strips with the given keys as selected, the first one
// active, and clears every other selection.
func (p *Project) Select(ctx context.Context, keys ...string) error {
	return p.mutate(func(doc *Document) error {
		for i := range doc.Strips {
			doc.Strips[i].Selected, doc.Strips[i].Active = false, false
		}
		for i, k := range keys {
			s := doc.byKey(k)
			if s == nil {
				return fmt.Errorf("%w: %s", domain.ErrStripNotFound, k)
			}
			s.Selected = true
			s.Active = i == 0
		}
		return nil
	})
}

// Strips returns every strip in document order with resolved paths.
func (p *Project) Strips(ctx context.Context) ([]domain.Strip, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	doc, err := p.load()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Strip, 0, len(doc.Strips))
	for _, s := range doc.Strips {
		out = append(out, p.resolve(s))
	}
	return out, nil
}

func (p *Project) update(id string, fn func(*domain.Strip)) error {
	return p.mutate(func(doc *Document) error {
		s := doc.byID(id)
		if s == nil {
			return domain.ErrStripNotFound
		}
		fn(s)
		return nil
	})
}

func (p *Project) mutate(fn func(*Document) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	doc, err := p.load()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return p.save(doc)
}

func (p *Project) load() (*Document, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Document{}, nil
		}
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project: %w", err)
	}
	return &doc, nil
}

// save writes doc to a temp file in the same directory, syncs it and renames
// it over the document.
func (p *Project) save(doc *Document) error {
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure project directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "tmp-"+filepath.Base(p.path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Windows refuses to rename over an existing file.
	if _, err := os.Stat(p.path); err == nil {
		if err := os.Remove(p.path); err != nil {
			return fmt.Errorf("failed to remove existing project file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, p.path); err != nil {
		return fmt.Errorf("failed to rename temp file to project: %w", err)
	}
	return nil
}

func (p *Project) resolve(s domain.Strip) domain.Strip {
	if s.FilePath != "" && !filepath.IsAbs(s.FilePath) {
		s.FilePath = filepath.Join(filepath.Dir(p.path), filepath.FromSlash(s.FilePath))
	}
	return s
}

func (p *Project) relative(path string) string {
	if path == "" || !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(filepath.Dir(p.path), path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return filepath.ToSlash(rel)
}

func (d *Document) byID(id string) *domain.Strip {
	if id == "" {
		return nil
	}
	for i := range d.Strips {
		if d.Strips[i].ID == id {
			return &d.Strips[i]
		}
	}
	return nil
}

func (d *Document) byKey(key string) *domain.Strip {
	for i := range d.Strips {
		if d.Strips[i].Key == key {
			return &d.Strips[i]
		}
	}
	return nil
}
