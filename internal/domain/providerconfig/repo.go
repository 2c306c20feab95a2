package providerconfig

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, cfg *Config) error
	GetByID(ctx context.Context, id uuid.UUID) (*Config, error)
	Update(ctx context.Context, cfg *Config) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*Config, error)
	// ListActiveByRole returns active configs whose key carries the role's
	// namespace prefix, ordered by priority ascending.
	ListActiveByRole(ctx context.Context, role string) ([]*Config, error)
}
