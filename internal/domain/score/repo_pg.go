package score

import (
	"context"

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

const scoreCols = `patient_id, score, weight_evolution, fat_evolution, muscle_evolution, criticality, rank, computed_at`

func (r *repoPG) ReplaceAll(ctx context.Context, scores []*PatientScore) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE patient_scores`); err != nil {
		return err
	}
	for _, ps := range scores {
		if _, err := tx.Exec(ctx, `
			INSERT INTO patient_scores (
				patient_id, score, weight_evolution, fat_evolution, muscle_evolution,
				criticality, rank, computed_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			ps.PatientID, ps.Score, ps.WeightEvolution, ps.FatEvolution, ps.MuscleEvolution,
			ps.Criticality, ps.Rank, ps.ComputedAt,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *repoPG) GetByPatient(ctx context.Context, patientID uuid.UUID) (*PatientScore, error) {
	return scanScore(r.pool.QueryRow(ctx, `SELECT `+scoreCols+` FROM patient_scores WHERE patient_id = $1`, patientID))
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*PatientScore, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patient_scores`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+scoreCols+` FROM patient_scores ORDER BY rank LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []*PatientScore
	for rows.Next() {
		ps, err := scanScore(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, ps)
	}
	return result, total, rows.Err()
}

func scanScore(row pgx.Row) (*PatientScore, error) {
	var ps PatientScore
	err := row.Scan(&ps.PatientID, &ps.Score, &ps.WeightEvolution, &ps.FatEvolution,
		&ps.MuscleEvolution, &ps.Criticality, &ps.Rank, &ps.ComputedAt)
	if err != nil {
		return nil, err
	}
	return &ps, nil
}
