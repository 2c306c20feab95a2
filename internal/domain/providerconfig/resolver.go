package providerconfig

import (
	"context"
	"fmt"
	"sort"
)

// Resolver turns the config table into an ordered fallback list per role.
// It holds no cache: every Resolve re-reads current configuration, so admin
// changes take effect on the next request without a redeploy.
type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve returns the active provider identifiers for a role, ordered by
// priority ascending (lower number tried first). An empty list means no
// automated path is available; the caller decides how to degrade.
func (r *Resolver) Resolve(ctx context.Context, role string) ([]string, error) {
	if KeyPrefixForRole(role) == "" {
		return nil, fmt.Errorf("unknown provider role: %s", role)
	}

	configs, err := r.repo.ListActiveByRole(ctx, role)
	if err != nil {
		return nil, err
	}

	// Priority ascending regardless of repository ordering.
	sort.SliceStable(configs, func(i, j int) bool {
		return configs[i].Priority < configs[j].Priority
	})

	providers := make([]string, 0, len(configs))
	for _, cfg := range configs {
		providers = append(providers, cfg.Value)
	}
	return providers, nil
}
