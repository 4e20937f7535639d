// Package materializer writes the outputs of a finished run back into the
// timeline: text into strips, media into stable artifacts referenced by strips.
package materializer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/mediabridge/internal/logging"
	"github.com/aretw0/mediabridge/pkg/domain"
	"github.com/aretw0/mediabridge/pkg/ports"
	"github.com/google/uuid"
)

// Materializer moves temp outputs to stable artifacts and updates strips.
type Materializer struct {
	timeline    ports.Timeline
	controllers ports.ControllerStore
	workspace   ports.Workspace
	logger      *slog.Logger
	newID       func() string
}

// Option configures the materializer.
type Option func(*Materializer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Materializer) {
		m.logger = logger
	}
}

// WithIDGenerator overrides how stable IDs for new strips are made.
func WithIDGenerator(fn func() string) Option {
	return func(m *Materializer) {
		m.newID = fn
	}
}

// New creates a materializer for one project.
func New(timeline ports.Timeline, controllers ports.ControllerStore, workspace ports.Workspace, opts ...Option) *Materializer {
	m := &Materializer{
		timeline:    timeline,
		controllers: controllers,
		workspace:   workspace,
		logger:      logging.NewNop(),
		newID:       func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Materialize places the outputs of a finished run. A definition with a single
// output updates the controller strip in place; several outputs each get a new
// strip above the controller. Failures are per output and never stop the
// remaining outputs; they are returned joined.
func (m *Materializer) Materialize(ctx context.Context, def *domain.GeneratorDefinition, outputs map[string]string, controllerID string) error {
	if len(def.Outputs) == 0 {
		return nil
	}

	controller, err := m.timeline.Strip(ctx, controllerID)
	if err != nil {
		return fmt.Errorf("%w: controller strip %s: %v", domain.ErrMaterialize, controllerID, err)
	}

	if len(def.Outputs) == 1 {
		return m.updateInPlace(ctx, def, def.Outputs[0], outputs, controller)
	}

	var errs []error
	for i, out := range def.Outputs {
		if err := m.createStrip(ctx, def, out, i, outputs, controller); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Materializer) updateInPlace(ctx context.Context, def *domain.GeneratorDefinition, out domain.OutputSpec, outputs map[string]string, controller domain.Strip) error {
	temp, ok, err := m.tempFor(out, outputs)
	if err != nil || !ok {
		return err
	}

	if out.Kind == domain.MediaText {
		text, err := readText(out, temp)
		if err != nil {
			return err
		}
		if err := m.timeline.SetText(ctx, controller.ID, text); err != nil {
			return outputErr(out, err)
		}
		m.logger.Info("text output applied", "strip", controller.Name, "output", out.Name)
		return nil
	}

	stable, err := m.place(def, out, temp, controller.Name, controller.ID)
	if err != nil {
		return err
	}
	if err := m.timeline.SetMedia(ctx, controller.ID, stable); err != nil {
		return outputErr(out, err)
	}
	if r, ok := m.timeline.(ports.MediaRefresher); ok {
		if err := r.RefreshMedia(ctx, controller.ID); err != nil {
			m.logger.Warn("failed to refresh media", "strip", controller.Name, "error", err)
		}
	}
	m.logger.Info("media output applied", "strip", controller.Name, "output", out.Name, "path", stable)
	return nil
}

func (m *Materializer) createStrip(ctx context.Context, def *domain.GeneratorDefinition, out domain.OutputSpec, index int, outputs map[string]string, controller domain.Strip) error {
	temp, ok, err := m.tempFor(out, outputs)
	if err != nil || !ok {
		return err
	}

	id := m.newID()
	spec := domain.NewStrip{
		ID:         id,
		Name:       out.Name,
		Kind:       out.Kind.StripKind(),
		Channel:    controller.Channel + 1 + index,
		FrameStart: controller.FrameStart,
	}

	if out.Kind == domain.MediaText {
		spec.FrameDuration = domain.DefaultStripDuration
		if spec.Text, err = readText(out, temp); err != nil {
			return err
		}
	} else {
		if spec.FilePath, err = m.place(def, out, temp, out.Name, id); err != nil {
			return err
		}
	}

	created, err := m.timeline.AddStrip(ctx, spec)
	if err != nil {
		return outputErr(out, err)
	}

	if err := m.link(ctx, controller.ID, out.Name, created.ID); err != nil {
		return outputErr(out, err)
	}
	m.logger.Info("output strip created", "strip", created.Key, "output", out.Name, "channel", created.Channel)
	return nil
}

// place purges earlier artifacts carrying id and moves temp into its stable path.
func (m *Materializer) place(def *domain.GeneratorDefinition, out domain.OutputSpec, temp, owner, id string) (string, error) {
	dir, err := m.workspace.OutputDir()
	if err != nil {
		return "", outputErr(out, err)
	}

	ext := out.FileExtension
	if ext == "" {
		ext = filepath.Ext(temp)
	}
	stable := StablePath(dir, owner, def.Name, out.Name, id, ext)

	removed, err := Purge(dir, id)
	if err != nil {
		m.logger.Warn("failed to purge previous artifacts", "id", id, "error", err)
	}
	for _, p := range removed {
		m.logger.Debug("removed previous artifact", "path", p)
	}

	if err := Move(temp, stable); err != nil {
		return "", outputErr(out, fmt.Errorf("cannot move generated file to %s: %w", stable, err))
	}
	return stable, nil
}

func (m *Materializer) link(ctx context.Context, controllerID, output, stripID string) error {
	c, err := m.controllers.LoadController(ctx, controllerID)
	if errors.Is(err, domain.ErrControllerNotFound) {
		c = &domain.Controller{ID: controllerID}
	} else if err != nil {
		return err
	}
	c.LinkOutput(output, stripID)
	return m.controllers.SaveController(ctx, c)
}

// tempFor returns the file the program wrote for out. ok is false when an
// optional output is missing; it is skipped with a warning.
func (m *Materializer) tempFor(out domain.OutputSpec, outputs map[string]string) (temp string, ok bool, err error) {
	var reason string
	temp, allocated := outputs[out.Name]
	switch {
	case !allocated:
		reason = "no temp file was allocated; the argument template never references it"
	default:
		if _, statErr := os.Stat(temp); statErr != nil {
			reason = "the program did not write it"
		}
	}
	if reason == "" {
		return temp, true, nil
	}
	if !out.Required {
		m.logger.Warn("optional output missing, skipped", "output", out.Name, "reason", reason)
		return "", false, nil
	}
	return "", false, outputErr(out, errors.New(reason))
}

func readText(out domain.OutputSpec, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", outputErr(out, err)
	}
	return string(data), nil
}

func outputErr(out domain.OutputSpec, err error) error {
	return fmt.Errorf("%w: output %q: %v", domain.ErrMaterialize, out.Name, err)
}
