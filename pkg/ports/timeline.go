package ports

import (
	"context"

	"github.com/aretw0/mediabridge/pkg/domain"
)

// StripReader looks strips up by stable identifier.
type StripReader interface {
	// Strip returns the strip tagged with id.
	// Returns domain.ErrStripNotFound if no such strip exists anymore.
	Strip(ctx context.Context, id string) (domain.Strip, error)
}

// Timeline is the editor's strip collection as seen by the engine.
// Strips are always addressed by stable ID and never cached across calls.
type Timeline interface {
	StripReader

	// Selected returns the selected strips, the active strip first.
	Selected(ctx context.Context) ([]domain.Strip, error)

	// AddStrip creates a strip and returns it as stored.
	AddStrip(ctx context.Context, spec domain.NewStrip) (domain.Strip, error)

	// SetMedia points a strip at a new file. Display attributes are kept.
	SetMedia(ctx context.Context, id, path string) error

	// SetText replaces a text strip's content. Display attributes are kept.
	SetText(ctx context.Context, id, text string) error

	// AssignID tags the strip with host key with a stable identifier.
	AssignID(ctx context.Context, key, id string) error
}

// MediaRefresher is implemented by timelines that cache media metadata
// (duration, dimensions) and can reload it after the file changes.
type MediaRefresher interface {
	RefreshMedia(ctx context.Context, id string) error
}

// ControllerStore persists controller state.
type ControllerStore interface {
	// LoadController returns domain.ErrControllerNotFound for unknown IDs.
	LoadController(ctx context.Context, id string) (*domain.Controller, error)
	SaveController(ctx context.Context, c *domain.Controller) error
}

// Project bundles everything a host exposes about the open project.
type Project interface {
	Timeline
	ControllerStore
	Workspace
}
