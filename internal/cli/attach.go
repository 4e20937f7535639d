package cli

import (
	"context"
	"io"

	"github.com/aretw0/mediabridge/internal/settings"
	"github.com/aretw0/mediabridge/pkg/adapters/file"
	"github.com/aretw0/mediabridge/pkg/bridge"
	"github.com/aretw0/mediabridge/pkg/config"
)

// AttachOptions configures the attach command.
type AttachOptions struct {
	Settings settings.Settings
	Debug    bool
	Out      io.Writer

	Generator  string
	Project    string
	Name       string
	FrameStart int
	Channel    int
	// Select marks these strip keys as selected (first one active) before
	// matching them to inputs. Empty keeps the stored selection.
	Select []string
}

// Attach creates a controller strip in a project file.
func Attach(ctx context.Context, opts AttachOptions) (*bridge.Attachment, error) {
	logger := createLogger(opts.Settings, opts.Debug)

	def, err := config.LoadFile(opts.Generator)
	if err != nil {
		return nil, err
	}
	project, err := file.New(opts.Project)
	if err != nil {
		return nil, err
	}
	if len(opts.Select) > 0 {
		if err := project.Select(ctx, opts.Select...); err != nil {
			return nil, err
		}
	}

	att, err := bridge.Attach(ctx, project, project, def, bridge.AttachOptions{
		Name:       opts.Name,
		FrameStart: opts.FrameStart,
		Channel:    opts.Channel,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("generator attached", "generator", def.Name, "controller", att.Strip.ID)

	printSystemMessage(opts.Out, "Attached '%s' as controller %s.", def.Name, att.Strip.ID)
	for _, in := range def.Inputs {
		if src, ok := att.Controller.Inputs[in.Name]; ok {
			printSystemMessage(opts.Out, "  %s <- strip %s", in.Name, src.StripID)
		}
	}
	for _, name := range att.Unbound {
		printSystemMessage(opts.Out, "  %s is unbound", name)
	}
	return att, nil
}
