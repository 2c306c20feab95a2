package score

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/reneerti/zoemed-bio-bd-externo-sub000/internal/domain/measurement"
)

// Combination weights. Weight loss carries the most signal for the tracked
// treatment; fat and muscle split the remainder evenly.
const (
	weightFactor = 0.4
	fatFactor    = 0.3
	muscleFactor = 0.3
)

// evolution returns the percentage change from first to latest, or nil when
// either side is missing or the baseline is zero.
func evolution(first, latest *float64) *float64 {
	if first == nil || latest == nil || *first == 0 {
		return nil
	}
	pct := round2((*latest - *first) / *first * 100)
	return &pct
}

// Compute derives a patient's score from the first and latest measurements.
// Weight and fat improve by decreasing, muscle by increasing; a missing
// evolution contributes zero. With fewer than two measurements every
// evolution is nil and the score is zero.
func Compute(patientID uuid.UUID, first, latest *measurement.Record) *PatientScore {
	ps := &PatientScore{
		PatientID:   patientID,
		Criticality: CriticalityNormal,
		ComputedAt:  time.Now().UTC(),
	}
	if first == nil || latest == nil || first.ID == latest.ID {
		return ps
	}

	ps.WeightEvolution = evolution(first.Weight, latest.Weight)
	ps.FatEvolution = evolution(first.BodyFatPercent, latest.BodyFatPercent)
	ps.MuscleEvolution = evolution(first.MuscleRatePercent, latest.MuscleRatePercent)

	var score float64
	if ps.WeightEvolution != nil {
		score += weightFactor * -*ps.WeightEvolution
	}
	if ps.FatEvolution != nil {
		score += fatFactor * -*ps.FatEvolution
	}
	if ps.MuscleEvolution != nil {
		score += muscleFactor * *ps.MuscleEvolution
	}
	ps.Score = round2(score)
	ps.Criticality = classify(ps.Score)
	return ps
}

func classify(score float64) string {
	switch {
	case score >= 5:
		return CriticalityHealthy
	case score >= 0:
		return CriticalityNormal
	case score >= -5:
		return CriticalityAttention
	default:
		return CriticalityCritical
	}
}

// Rank orders scores descending and assigns 1-based ranks. Ties break by
// patient ID so repeated runs produce the same ordering.
func Rank(scores []*PatientScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].PatientID.String() < scores[j].PatientID.String()
	})
	for i, ps := range scores {
		ps.Rank = i + 1
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
