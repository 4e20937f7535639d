// Package bridge connects generators to the timeline: it creates controller
// strips with their inputs pre-bound from the selection, and turns stored
// controller state into run requests.
package bridge

import (
	"context"
	"fmt"

	"github.com/aretw0/mediabridge/pkg/domain"
	"github.com/aretw0/mediabridge/pkg/ports"
	"github.com/aretw0/mediabridge/pkg/supervisor"
	"github.com/google/uuid"
)

// AttachOptions places the controller strip. Zero values fall back to the
// generator name and channel 1.
type AttachOptions struct {
	Name       string
	FrameStart int
	Channel    int
}

// Attachment is the result of Attach.
type Attachment struct {
	Strip      domain.Strip
	Controller *domain.Controller
	// Unbound lists the inputs no selected strip could satisfy.
	Unbound []string
}

// Attach creates a controller strip for def. Selected strips, the active one
// first, are matched to inputs in declaration order by media kind; each strip
// is used at most once. Matched strips without a stable ID get one.
func Attach(ctx context.Context, tl ports.Timeline, controllers ports.ControllerStore, def *domain.GeneratorDefinition, opts AttachOptions) (*Attachment, error) {
	selected, err := tl.Selected(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read selection: %w", err)
	}

	bindings, unbound, err := match(ctx, tl, def, selected)
	if err != nil {
		return nil, err
	}

	spec := controllerStrip(def, opts)
	strip, err := tl.AddStrip(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("failed to create controller strip: %w", err)
	}

	c := &domain.Controller{ID: strip.ID, Generator: def.Name, Inputs: bindings}
	if err := controllers.SaveController(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save controller: %w", err)
	}
	return &Attachment{Strip: strip, Controller: c, Unbound: unbound}, nil
}

func match(ctx context.Context, tl ports.Timeline, def *domain.GeneratorDefinition, selected []domain.Strip) (domain.Bindings, []string, error) {
	bindings := make(domain.Bindings)
	used := make([]bool, len(selected))
	var unbound []string

	for _, in := range def.Inputs {
		found := false
		for i, s := range selected {
			kind, ok := s.Kind.MediaKind()
			if used[i] || !ok || kind != in.Kind {
				continue
			}
			if s.ID == "" {
				s.ID = uuid.NewString()
				if err := tl.AssignID(ctx, s.Key, s.ID); err != nil {
					return nil, nil, fmt.Errorf("failed to tag strip %s: %w", s.Key, err)
				}
				selected[i].ID = s.ID
			}
			bindings[in.Name] = domain.StripSource(s.ID)
			used[i] = true
			found = true
			break
		}
		if !found {
			unbound = append(unbound, in.Name)
		}
	}
	return bindings, unbound, nil
}

// controllerStrip picks the strip kind: the output's own kind for a single
// output, an adjustment strip otherwise.
func controllerStrip(def *domain.GeneratorDefinition, opts AttachOptions) domain.NewStrip {
	spec := domain.NewStrip{
		ID:            uuid.NewString(),
		Name:          opts.Name,
		Kind:          domain.StripAdjustment,
		Channel:       opts.Channel,
		FrameStart:    opts.FrameStart,
		FrameDuration: domain.DefaultStripDuration,
	}
	if spec.Name == "" {
		spec.Name = def.Name
	}
	if spec.Channel <= 0 {
		spec.Channel = 1
	}
	if len(def.Outputs) == 1 {
		spec.Kind = def.Outputs[0].Kind.StripKind()
		if spec.Kind != domain.StripText {
			spec.FrameDuration = 0
		}
	}
	return spec
}

// Request builds a start request from stored controller state. Overrides
// replace individual bindings for this run only.
func Request(c *domain.Controller, overrides domain.Bindings) supervisor.StartRequest {
	bindings := c.Inputs.Clone()
	for name, src := range overrides {
		bindings[name] = src
	}
	return supervisor.StartRequest{
		ControllerID: c.ID,
		Generator:    c.Generator,
		Bindings:     bindings,
	}
}

// Load reads a controller and builds its start request.
func Load(ctx context.Context, controllers ports.ControllerStore, controllerID string, overrides domain.Bindings) (supervisor.StartRequest, error) {
	c, err := controllers.LoadController(ctx, controllerID)
	if err != nil {
		return supervisor.StartRequest{}, err
	}
	return Request(c, overrides), nil
}
