package ports

import (
	"context"

	"github.com/aretw0/mediabridge/pkg/domain"
)

// GeneratorSource loads generator definitions by name.
// Returns domain.ErrGeneratorNotFound for unknown names.
type GeneratorSource interface {
	Definition(ctx context.Context, name string) (*domain.GeneratorDefinition, error)
}
