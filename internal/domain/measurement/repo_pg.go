package measurement

import (
	"context"
	"errors"

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

const recordCols = `id, patient_id, measured_at, week, dose,
	weight, bmi, body_fat_percent, fat_mass, lean_mass,
	muscle_mass, muscle_rate_percent, skeletal_muscle_percent,
	visceral_fat, subcutaneous_fat_percent, body_water_percent,
	protein_percent, bone_mass, bmr, metabolic_age, waist_hip_ratio,
	source, extraction_id, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO measurements (
			id, patient_id, measured_at, week, dose,
			weight, bmi, body_fat_percent, fat_mass, lean_mass,
			muscle_mass, muscle_rate_percent, skeletal_muscle_percent,
			visceral_fat, subcutaneous_fat_percent, body_water_percent,
			protein_percent, bone_mass, bmr, metabolic_age, waist_hip_ratio,
			source, extraction_id
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,
			$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,
			$21,$22,$23
		)`,
		rec.ID, rec.PatientID, rec.MeasuredAt, rec.Week, rec.Dose,
		rec.Weight, rec.BMI, rec.BodyFatPercent, rec.FatMass, rec.LeanMass,
		rec.MuscleMass, rec.MuscleRatePercent, rec.SkeletalMusclePercent,
		rec.VisceralFat, rec.SubcutaneousFat, rec.BodyWaterPercent,
		rec.ProteinPercent, rec.BoneMass, rec.BMR, rec.MetabolicAge, rec.WaistHipRatio,
		rec.Source, rec.ExtractionID,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	return scanRecord(r.pool.QueryRow(ctx, `SELECT `+recordCols+` FROM measurements WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, rec *Record) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE measurements SET
			measured_at=$2, week=$3, dose=$4,
			weight=$5, bmi=$6, body_fat_percent=$7, fat_mass=$8, lean_mass=$9,
			muscle_mass=$10, muscle_rate_percent=$11, skeletal_muscle_percent=$12,
			visceral_fat=$13, subcutaneous_fat_percent=$14, body_water_percent=$15,
			protein_percent=$16, bone_mass=$17, bmr=$18, metabolic_age=$19, waist_hip_ratio=$20,
			updated_at=NOW()
		WHERE id = $1`,
		rec.ID, rec.MeasuredAt, rec.Week, rec.Dose,
		rec.Weight, rec.BMI, rec.BodyFatPercent, rec.FatMass, rec.LeanMass,
		rec.MuscleMass, rec.MuscleRatePercent, rec.SkeletalMusclePercent,
		rec.VisceralFat, rec.SubcutaneousFat, rec.BodyWaterPercent,
		rec.ProteinPercent, rec.BoneMass, rec.BMR, rec.MetabolicAge, rec.WaistHipRatio,
	)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM measurements WHERE id = $1`, id)
	return err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM measurements WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+recordCols+` FROM measurements WHERE patient_id = $1 ORDER BY measured_at LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, rec)
	}
	return result, total, rows.Err()
}

func (r *repoPG) First(ctx context.Context, patientID uuid.UUID) (*Record, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx,
		`SELECT `+recordCols+` FROM measurements WHERE patient_id = $1 ORDER BY measured_at LIMIT 1`, patientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

func (r *repoPG) Latest(ctx context.Context, patientID uuid.UUID) (*Record, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx,
		`SELECT `+recordCols+` FROM measurements WHERE patient_id = $1 ORDER BY measured_at DESC LIMIT 1`, patientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

func (r *repoPG) PatientIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT patient_id FROM measurements`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID, &rec.PatientID, &rec.MeasuredAt, &rec.Week, &rec.Dose,
		&rec.Weight, &rec.BMI, &rec.BodyFatPercent, &rec.FatMass, &rec.LeanMass,
		&rec.MuscleMass, &rec.MuscleRatePercent, &rec.SkeletalMusclePercent,
		&rec.VisceralFat, &rec.SubcutaneousFat, &rec.BodyWaterPercent,
		&rec.ProteinPercent, &rec.BoneMass, &rec.BMR, &rec.MetabolicAge, &rec.WaistHipRatio,
		&rec.Source, &rec.ExtractionID, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
