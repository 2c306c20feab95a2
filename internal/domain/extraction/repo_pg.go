package extraction

import (
	"context"
	"encoding/json"

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

const recordCols = `id, patient_id, image_url, raw_text, method, status, data, ai_processed, insights, created_at`

func (r *repoPG) CreateRecord(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO extraction_records (
			id, patient_id, image_url, raw_text, method, status, data, ai_processed, insights
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		rec.ID, rec.PatientID, rec.ImageURL, rec.RawText, rec.Method, rec.Status, data, rec.AIProcessed, rec.Insights,
	)
	return err
}

func (r *repoPG) GetRecord(ctx context.Context, id uuid.UUID) (*Record, error) {
	return scanExtractionRecord(r.pool.QueryRow(ctx, `SELECT `+recordCols+` FROM extraction_records WHERE id = $1`, id))
}

func (r *repoPG) ListRecordsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM extraction_records WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+recordCols+` FROM extraction_records WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []*Record
	for rows.Next() {
		rec, err := scanExtractionRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, rec)
	}
	return result, total, rows.Err()
}

func scanExtractionRecord(row pgx.Row) (*Record, error) {
	var rec Record
	var data []byte
	err := row.Scan(&rec.ID, &rec.PatientID, &rec.ImageURL, &rec.RawText, &rec.Method,
		&rec.Status, &data, &rec.AIProcessed, &rec.Insights, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &rec.Data); err != nil {
			return nil, err
		}
	}
	return &rec, nil
}

type usageRepoPG struct {
	pool *pgxpool.Pool
}

func NewUsageRepo(pool *pgxpool.Pool) UsageRepository {
	return &usageRepoPG{pool: pool}
}

func (r *usageRepoPG) Append(ctx context.Context, entry *UsageEntry) error {
	entry.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO api_usage_log (
			id, provider_key, operation, patient_id, success, duration_ms,
			prompt_tokens, completion_tokens, estimated_cost, error_message
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		entry.ID, entry.ProviderKey, entry.Operation, entry.PatientID, entry.Success,
		entry.DurationMs, entry.PromptTokens, entry.CompletionTokens, entry.EstimatedCost, entry.ErrorMessage,
	)
	return err
}

func (r *usageRepoPG) List(ctx context.Context, limit, offset int) ([]*UsageEntry, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM api_usage_log`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, provider_key, operation, patient_id, success, duration_ms,
			prompt_tokens, completion_tokens, estimated_cost, error_message, created_at
		FROM api_usage_log ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []*UsageEntry
	for rows.Next() {
		var e UsageEntry
		if err := rows.Scan(&e.ID, &e.ProviderKey, &e.Operation, &e.PatientID, &e.Success,
			&e.DurationMs, &e.PromptTokens, &e.CompletionTokens, &e.EstimatedCost, &e.ErrorMessage, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, &e)
	}
	return result, total, rows.Err()
}
