package refrange

// Definition binds a metric to its curated ranges. Metrics that do not vary
// by gender carry the same Range under both keys.
type Definition struct {
	Metric        string           `json:"metric"`
	Unit          string           `json:"unit"`
	LowerIsBetter bool             `json:"lower_is_better"`
	ByGender      map[string]Range `json:"by_gender"`
}

// Defaults is the read-only curated reference table. Keys match the
// measurement record field names.
var Defaults = []Definition{
	{
		Metric: "bmi", Unit: "kg/m2",
		ByGender: map[string]Range{
			"male":   {Ideal: Band{Min: 18.5, Max: 24.9}, Alert: Band{Min: 17.0, Max: 29.9}},
			"female": {Ideal: Band{Min: 18.5, Max: 24.9}, Alert: Band{Min: 17.0, Max: 29.9}},
		},
	},
	{
		Metric: "body_fat_percent", Unit: "%",
		ByGender: map[string]Range{
			"male":   {Ideal: Band{Min: 10, Max: 20}, Alert: Band{Min: 8, Max: 25}},
			"female": {Ideal: Band{Min: 18, Max: 28}, Alert: Band{Min: 15, Max: 32}},
		},
	},
	{
		Metric: "muscle_rate_percent", Unit: "%",
		ByGender: map[string]Range{
			"male":   {Ideal: Band{Min: 33, Max: 39}, Alert: Band{Min: 30, Max: 44}},
			"female": {Ideal: Band{Min: 24, Max: 30}, Alert: Band{Min: 22, Max: 35}},
		},
	},
	{
		Metric: "visceral_fat", Unit: "level",
		LowerIsBetter: true,
		ByGender: map[string]Range{
			"male":   {Ideal: Band{Max: 9}, Alert: Band{Max: 14}},
			"female": {Ideal: Band{Max: 9}, Alert: Band{Max: 14}},
		},
	},
	{
		Metric: "waist_hip_ratio", Unit: "ratio",
		LowerIsBetter: true,
		ByGender: map[string]Range{
			"male":   {Ideal: Band{Max: 0.90}, Alert: Band{Max: 0.99}},
			"female": {Ideal: Band{Max: 0.85}, Alert: Band{Max: 0.90}},
		},
	},
	{
		Metric: "body_water_percent", Unit: "%",
		ByGender: map[string]Range{
			"male":   {Ideal: Band{Min: 50, Max: 65}, Alert: Band{Min: 45, Max: 70}},
			"female": {Ideal: Band{Min: 45, Max: 60}, Alert: Band{Min: 40, Max: 65}},
		},
	},
	{
		Metric: "protein_percent", Unit: "%",
		ByGender: map[string]Range{
			"male":   {Ideal: Band{Min: 16, Max: 20}, Alert: Band{Min: 14, Max: 22}},
			"female": {Ideal: Band{Min: 14, Max: 18}, Alert: Band{Min: 12, Max: 20}},
		},
	},
}

// Lookup returns the curated range and direction for a metric/gender pair.
func Lookup(metric, gender string) (Range, bool, bool) {
	for _, def := range Defaults {
		if def.Metric != metric {
			continue
		}
		r, ok := def.ByGender[gender]
		if !ok {
			return Range{}, false, false
		}
		return r, def.LowerIsBetter, true
	}
	return Range{}, false, false
}
