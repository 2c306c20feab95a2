package extraction

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// num captures a decimal number with either separator; minus sign tolerated
// so scale exports with signed deltas do not corrupt the capture.
const num = `(-?\d+(?:[.,]\d+)?)`

// fieldPatterns holds the ordered candidate labels for one field. The first
// pattern that matches anywhere in the folded text wins; later patterns are
// not consulted for that field.
type fieldPatterns struct {
	field    string
	patterns []*regexp.Regexp
}

func pats(exprs ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		compiled = append(compiled, regexp.MustCompile(e))
	}
	return compiled
}

// patternTable maps each extractable field to its bilingual label variants.
// Patterns match against lowercased, accent-folded text. Labels that are
// prefixes of other labels (gordura vs. gordura visceral) are disambiguated
// by requiring the number to follow immediately, and the bare "gordura"/"fat"
// fallbacks are anchored to the start of a line so "massa de gordura: 14" or
// "visceral fat: 10" never feeds body_fat_percent.
var patternTable = []fieldPatterns{
	{"weight", pats(
		`\bpeso\s*(?:atual|corporal)?\s*[:=]?\s*`+num+`\s*(?:kg)?`,
		`\b(?:body\s*)?weight\s*[:=]?\s*`+num+`\s*(?:kg|lbs?)?`,
	)},
	{"bmi", pats(
		`\bimc\s*[:=]?\s*`+num,
		`\bbmi\s*[:=]?\s*`+num,
		`indice\s*de\s*massa\s*corporal\s*[:=]?\s*`+num,
		`body\s*mass\s*index\s*[:=]?\s*`+num,
	)},
	{"body_fat_percent", pats(
		`gordura\s*corporal\s*[:=]?\s*`+num,
		`(?:percentual|%)\s*(?:de\s*)?gordura\s*[:=]?\s*`+num,
		`(?m)^[^\S\n]*gordura\s*[:=]?\s*`+num,
		`body\s*fat\s*(?:percent(?:age)?)?\s*[:=]?\s*`+num,
		`(?m)^[^\S\n]*fat\s*[:=]\s*`+num,
	)},
	{"fat_mass", pats(
		`massa\s*(?:de\s*)?gordura\s*[:=]?\s*`+num,
		`massa\s*gorda\s*[:=]?\s*`+num,
		`fat\s*mass\s*[:=]?\s*`+num,
	)},
	{"lean_mass", pats(
		`massa\s*magra\s*[:=]?\s*`+num,
		`lean\s*(?:body\s*)?mass\s*[:=]?\s*`+num,
	)},
	{"muscle_mass", pats(
		`massa\s*muscular\s*[:=]?\s*`+num,
		`muscle\s*mass\s*[:=]?\s*`+num,
	)},
	{"muscle_rate_percent", pats(
		`taxa\s*(?:de\s*)?muscul(?:ar|o)\s*[:=]?\s*`+num,
		`(?:percentual|%)\s*(?:de\s*)?musculo\s*[:=]?\s*`+num,
		`muscle\s*rate\s*[:=]?\s*`+num,
	)},
	{"skeletal_muscle_percent", pats(
		`musculo\s*esqueletico\s*[:=]?\s*`+num,
		`skeletal\s*muscle\s*[:=]?\s*`+num,
	)},
	{"visceral_fat", pats(
		`gordura\s*visceral\s*[:=]?\s*`+num,
		`visceral\s*fat\s*(?:level)?\s*[:=]?\s*`+num,
		`nivel\s*visceral\s*[:=]?\s*`+num,
	)},
	{"subcutaneous_fat_percent", pats(
		`gordura\s*subcutanea\s*[:=]?\s*`+num,
		`subcutaneous\s*fat\s*[:=]?\s*`+num,
	)},
	{"body_water_percent", pats(
		`agua\s*corporal\s*[:=]?\s*`+num,
		`(?:percentual|%)\s*(?:de\s*)?agua\s*[:=]?\s*`+num,
		`\bagua\s*[:=]\s*`+num,
		`body\s*water\s*[:=]?\s*`+num,
		`hidratacao\s*[:=]?\s*`+num,
	)},
	{"protein_percent", pats(
		`proteinas?\s*[:=]?\s*`+num,
		`proteins?\s*[:=]?\s*`+num,
	)},
	{"bone_mass", pats(
		`massa\s*ossea\s*[:=]?\s*`+num,
		`\bossos\s*[:=]?\s*`+num,
		`bone\s*mass\s*[:=]?\s*`+num,
	)},
	{"bmr", pats(
		`\btmb\s*[:=]?\s*`+num,
		`taxa\s*metabolica\s*basal\s*[:=]?\s*`+num,
		`metabolismo\s*basal\s*[:=]?\s*`+num,
		`\bbmr\s*[:=]?\s*`+num,
		`basal\s*metabolic\s*rate\s*[:=]?\s*`+num,
	)},
	{"metabolic_age", pats(
		`idade\s*metabolica\s*[:=]?\s*`+num,
		`idade\s*corporal\s*[:=]?\s*`+num,
		`metabolic\s*age\s*[:=]?\s*`+num,
	)},
	{"waist_hip_ratio", pats(
		`relacao\s*cintura[\s-]*quadril\s*[:=]?\s*`+num,
		`\brcq\s*[:=]?\s*`+num,
		`waist[\s-]*(?:to[\s-]*)?hip\s*ratio\s*[:=]?\s*`+num,
		`\bwhr\s*[:=]?\s*`+num,
	)},
}

var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldText lowercases and strips diacritics so "Água" matches "agua".
func foldText(s string) string {
	folded, _, err := transform.String(accentFolder, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return folded
}

// Parse runs the regex pass over raw report text and then the derived-field
// pass. Deterministic: the same text always yields the same record.
func Parse(rawText string) *Extracted {
	result := &Extracted{Derived: make(map[string]bool)}
	if strings.TrimSpace(rawText) == "" {
		return result
	}

	text := foldText(rawText)
	byName := make(map[string]**float64)
	for _, f := range result.fields() {
		byName[f.name] = f.value
	}

	for _, fp := range patternTable {
		target := byName[fp.field]
		for _, re := range fp.patterns {
			m := re.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			if v, ok := parseNumber(m[1]); ok {
				*target = &v
			}
			// First matching pattern decides the field, even when its
			// number failed to parse.
			break
		}
	}

	deriveFields(result)
	return result
}

// parseNumber normalizes a comma decimal separator and parses. Failure means
// the field stays unset, never zero.
func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// deriveFields fills fat_mass and lean_mass from direct matches. Derivation
// only fills gaps: a directly extracted value is never overwritten.
func deriveFields(e *Extracted) {
	if e.Weight != nil && e.BodyFatPercent != nil && e.FatMass == nil {
		fm := round2(*e.Weight * *e.BodyFatPercent / 100)
		e.FatMass = &fm
		e.Derived["fat_mass"] = true
	}
	if e.Weight != nil && e.FatMass != nil && e.LeanMass == nil {
		lm := round2(*e.Weight - *e.FatMass)
		e.LeanMass = &lm
		e.Derived["lean_mass"] = true
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
