package measurement

import (
	"time"

	"github.com/google/uuid"
)

// Record maps to the measurements table. Every body-composition field is
// nullable: a record holds only what the scale report (or the form) actually
// provided, and absent is distinct from zero.
type Record struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`

	MeasuredAt time.Time `db:"measured_at" json:"measured_at"`
	Week       *int      `db:"week" json:"week,omitempty"`
	Dose       *string   `db:"dose" json:"dose,omitempty"`

	Weight                *float64 `db:"weight" json:"weight,omitempty"`
	BMI                   *float64 `db:"bmi" json:"bmi,omitempty"`
	BodyFatPercent        *float64 `db:"body_fat_percent" json:"body_fat_percent,omitempty"`
	FatMass               *float64 `db:"fat_mass" json:"fat_mass,omitempty"`
	LeanMass              *float64 `db:"lean_mass" json:"lean_mass,omitempty"`
	MuscleMass            *float64 `db:"muscle_mass" json:"muscle_mass,omitempty"`
	MuscleRatePercent     *float64 `db:"muscle_rate_percent" json:"muscle_rate_percent,omitempty"`
	SkeletalMusclePercent *float64 `db:"skeletal_muscle_percent" json:"skeletal_muscle_percent,omitempty"`
	VisceralFat           *float64 `db:"visceral_fat" json:"visceral_fat,omitempty"`
	SubcutaneousFat       *float64 `db:"subcutaneous_fat_percent" json:"subcutaneous_fat_percent,omitempty"`
	BodyWaterPercent      *float64 `db:"body_water_percent" json:"body_water_percent,omitempty"`
	ProteinPercent        *float64 `db:"protein_percent" json:"protein_percent,omitempty"`
	BoneMass              *float64 `db:"bone_mass" json:"bone_mass,omitempty"`
	BMR                   *float64 `db:"bmr" json:"bmr,omitempty"`
	MetabolicAge          *float64 `db:"metabolic_age" json:"metabolic_age,omitempty"`
	WaistHipRatio         *float64 `db:"waist_hip_ratio" json:"waist_hip_ratio,omitempty"`

	// Source is "manual" for form entries and "extraction" for records
	// written by the report pipeline.
	Source       string     `db:"source" json:"source"`
	ExtractionID *uuid.UUID `db:"extraction_id" json:"extraction_id,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// HasData reports whether any body-composition field is set.
func (r *Record) HasData() bool {
	fields := []*float64{
		r.Weight, r.BMI, r.BodyFatPercent, r.FatMass, r.LeanMass,
		r.MuscleMass, r.MuscleRatePercent, r.SkeletalMusclePercent,
		r.VisceralFat, r.SubcutaneousFat, r.BodyWaterPercent,
		r.ProteinPercent, r.BoneMass, r.BMR, r.MetabolicAge, r.WaistHipRatio,
	}
	for _, f := range fields {
		if f != nil {
			return true
		}
	}
	return false
}
