package memory

import (
	"context"
	"os"
	"sync"

	"github.com/aretw0/mediabridge/pkg/domain"
)

// Project implements ports.Project in memory.
// Safe for concurrent use.
type Project struct {
	mu          sync.RWMutex
	strips      []*domain.Strip
	controllers map[string]*domain.Controller
	outputDir   string
	refreshes   map[string]int
}

// Option configures the in-memory project.
type Option func(*Project)

// WithOutputDir sets the stable artifact directory. Without it the project
// behaves like an unsaved document.
func WithOutputDir(dir string) Option {
	return func(p *Project) {
		p.outputDir = dir
	}
}

// NewProject creates an empty in-memory project.
func NewProject(opts ...Option) *Project {
	p := &Project{
		controllers: make(map[string]*domain.Controller),
		refreshes:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Strip returns a copy of the strip tagged with id.
func (p *Project) Strip(ctx context.Context, id string) (domain.Strip, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := p.byID(id)
	if s == nil {
		return domain.Strip{}, domain.ErrStripNotFound
	}
	return *s, nil
}

// Selected returns the selected strips, the active one first.
func (p *Project) Selected(ctx context.Context) ([]domain.Strip, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var active []domain.Strip
	var rest []domain.Strip
	for _, s := range p.strips {
		switch {
		case s.Active:
			active = append(active, *s)
		case s.Selected:
			rest = append(rest, *s)
		}
	}
	return append(active, rest...), nil
}

// AddStrip stores a new strip with a unique key derived from its name.
func (p *Project) AddStrip(ctx context.Context, spec domain.NewStrip) (domain.Strip, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := &domain.Strip{
		ID:            spec.ID,
		Key:           domain.UniqueKey(spec.Name, func(k string) bool { return p.byKey(k) != nil }),
		Name:          spec.Name,
		Kind:          spec.Kind,
		Channel:       spec.Channel,
		FrameStart:    spec.FrameStart,
		FrameDuration: spec.FrameDuration,
		Text:          spec.Text,
		FilePath:      spec.FilePath,
	}
	p.strips = append(p.strips, s)
	return *s, nil
}

func (p *Project) SetMedia(ctx context.Context, id, path string) error {
	return p.update(id, func(s *domain.Strip) { s.FilePath = path })
}

func (p *Project) SetText(ctx context.Context, id, text string) error {
	return p.update(id, func(s *domain.Strip) { s.Text = text })
}

func (p *Project) AssignID(ctx context.Context, key, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.byKey(key)
	if s == nil {
		return domain.ErrStripNotFound
	}
	s.ID = id
	return nil
}

// RefreshMedia records a metadata reload for id.
func (p *Project) RefreshMedia(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.byID(id) == nil {
		return domain.ErrStripNotFound
	}
	p.refreshes[id]++
	return nil
}

// Refreshes returns how often RefreshMedia was called for id.
func (p *Project) Refreshes(id string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.refreshes[id]
}

// LoadController returns a copy of the stored controller.
func (p *Project) LoadController(ctx context.Context, id string) (*domain.Controller, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	c, ok := p.controllers[id]
	if !ok {
		return nil, domain.ErrControllerNotFound
	}
	return cloneController(c), nil
}

func (p *Project) SaveController(ctx context.Context, c *domain.Controller) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.controllers[c.ID] = cloneController(c)
	return nil
}

// OutputDir implements ports.Workspace.
func (p *Project) OutputDir() (string, error) {
	if p.outputDir == "" {
		return "", domain.ErrNoProject
	}
	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return "", err
	}
	return p.outputDir, nil
}

// --- Host-side helpers (what a user does in the editor) ---

// Put stores a strip as-is, replacing any strip with the same key.
func (p *Project) Put(s domain.Strip) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if existing := p.byKey(s.Key); existing != nil {
		*existing = s
		return
	}
	p.strips = append(p.strips, &s)
}

// Select marks the strips with the given keys as selected and the first one as active.
func (p *Project) Select(keys ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, s := range p.strips {
		s.Selected, s.Active = false, false
	}
	for i, k := range keys {
		if s := p.byKey(k); s != nil {
			s.Selected = true
			s.Active = i == 0
		}
	}
}

// Remove deletes the strip tagged with id.
func (p *Project) Remove(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, s := range p.strips {
		if s.ID == id {
			p.strips = append(p.strips[:i], p.strips[i+1:]...)
			return
		}
	}
}

// Strips returns a copy of every strip in creation order.
func (p *Project) Strips() []domain.Strip {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]domain.Strip, 0, len(p.strips))
	for _, s := range p.strips {
		out = append(out, *s)
	}
	return out
}

func (p *Project) update(id string, fn func(*domain.Strip)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.byID(id)
	if s == nil {
		return domain.ErrStripNotFound
	}
	fn(s)
	return nil
}

func (p *Project) byID(id string) *domain.Strip {
	if id == "" {
		return nil
	}
	for _, s := range p.strips {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func (p *Project) byKey(key string) *domain.Strip {
	for _, s := range p.strips {
		if s.Key == key {
			return s
		}
	}
	return nil
}

func cloneController(c *domain.Controller) *domain.Controller {
	out := *c
	out.Inputs = c.Inputs.Clone()
	out.Outputs = append([]domain.OutputLink(nil), c.Outputs...)
	return &out
}
