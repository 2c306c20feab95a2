package providerconfig

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const configCols = `id, key, value, provider, is_active, priority, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, cfg *Config) error {
	cfg.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO provider_configs (id, key, value, provider, is_active, priority)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		cfg.ID, cfg.Key, cfg.Value, cfg.Provider, cfg.IsActive, cfg.Priority,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Config, error) {
	return scanConfig(r.pool.QueryRow(ctx, `SELECT `+configCols+` FROM provider_configs WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, cfg *Config) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE provider_configs SET key=$2, value=$3, provider=$4, is_active=$5, priority=$6, updated_at=NOW()
		WHERE id = $1`,
		cfg.ID, cfg.Key, cfg.Value, cfg.Provider, cfg.IsActive, cfg.Priority,
	)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM provider_configs WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context) ([]*Config, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+configCols+` FROM provider_configs ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectConfigs(rows)
}

func (r *repoPG) ListActiveByRole(ctx context.Context, role string) ([]*Config, error) {
	prefix := KeyPrefixForRole(role)
	if prefix == "" {
		return nil, fmt.Errorf("unknown provider role: %s", role)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+configCols+` FROM provider_configs
		WHERE key LIKE $1 AND is_active
		ORDER BY priority`, likePrefix(prefix))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectConfigs(rows)
}

func collectConfigs(rows pgx.Rows) ([]*Config, error) {
	var result []*Config
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, cfg)
	}
	return result, rows.Err()
}

func scanConfig(row pgx.Row) (*Config, error) {
	var cfg Config
	err := row.Scan(&cfg.ID, &cfg.Key, &cfg.Value, &cfg.Provider, &cfg.IsActive, &cfg.Priority, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// likePrefix builds a LIKE argument that matches keys starting with prefix
// literally. The role prefixes contain "_", which LIKE treats as a
// single-character wildcard unless escaped.
func likePrefix(prefix string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
	return escaped + "%"
}
