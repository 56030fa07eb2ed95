package notes

import (
	"sort"
	"strings"
)

// SOAP section canonical names.
const (
	SectionSubjective = "subjective"
	SectionObjective  = "objective"
	SectionAssessment = "assessment"
	SectionPlan       = "plan"
)

// Section aliases: arbitrary input section names (Norwegian clinical terms,
// English, abbreviations) mapped to the canonical SOAP section. Keys are the
// snake_case form produced by canonicalKey.
var sectionAliases = map[string]string{
	"subjective": SectionSubjective,
	"subjektiv":  SectionSubjective,
	"subjektivt": SectionSubjective,
	"anamnese":   SectionSubjective,
	"s":          SectionSubjective,

	"objective":    SectionObjective,
	"objektiv":     SectionObjective,
	"objektivt":    SectionObjective,
	"funn":         SectionObjective,
	"findings":     SectionObjective,
	"examination":  SectionObjective,
	"undersokelse": SectionObjective,
	"undersøkelse": SectionObjective,
	"o":            SectionObjective,

	"assessment": SectionAssessment,
	"vurdering":  SectionAssessment,
	"analyse":    SectionAssessment,
	"a":          SectionAssessment,

	"plan":            SectionPlan,
	"tiltak":          SectionPlan,
	"behandlingsplan": SectionPlan,
	"treatment_plan":  SectionPlan,
	"p":               SectionPlan,
}

// Field aliases per canonical field. The table is bilingual and covers the
// camelCase, snake_case and Norwegian variants seen in note payloads from the
// web and mobile clients. Canonical names map to themselves so normalization
// is idempotent.
var fieldAliases = map[string]string{
	"chief_complaint":      "chief_complaint",
	"chiefcomplaint":       "chief_complaint",
	"hovedplage":           "chief_complaint",
	"hovedproblem":         "chief_complaint",
	"main_complaint":       "chief_complaint",
	"presenting_complaint": "chief_complaint",
	"kontaktarsak":         "chief_complaint",
	"kontaktårsak":         "chief_complaint",

	"history":             "history",
	"historie":            "history",
	"sykehistorie":        "history",
	"tidligere_sykdommer": "history",

	"onset":        "onset",
	"debut":        "onset",
	"symptomdebut": "onset",

	"pain_location":      "pain_location",
	"smertelokalisasjon": "pain_location",
	"lokalisasjon":       "pain_location",

	"pain_intensity":   "pain_intensity",
	"smerteintensitet": "pain_intensity",
	"vas":              "pain_intensity",
	"nrs":              "pain_intensity",

	"aggravating_factors":  "aggravating_factors",
	"forverrende_faktorer": "aggravating_factors",
	"relieving_factors":    "relieving_factors",
	"lindrende_faktorer":   "relieving_factors",

	"progress":   "progress",
	"progresjon": "progress",
	"endring":    "progress",

	"dizziness_description": "dizziness_description",
	"svimmelhet":            "dizziness_description",

	"observation": "observation",
	"observasjon": "observation",
	"inspeksjon":  "observation",
	"inspection":  "observation",

	"palpation": "palpation",
	"palpasjon": "palpation",

	"range_of_motion":  "range_of_motion",
	"rom":              "range_of_motion",
	"bevegelighet":     "range_of_motion",
	"bevegelsesutslag": "range_of_motion",

	"orthopedic_tests":   "orthopedic_tests",
	"ortopediske_tester": "orthopedic_tests",
	"special_tests":      "orthopedic_tests",

	"neurological_findings": "neurological_findings",
	"nevrologiske_funn":     "neurological_findings",
	"neuro":                 "neurological_findings",

	"vestibular_tests":   "vestibular_tests",
	"vestibulare_tester": "vestibular_tests",
	"dix_hallpike":       "vestibular_tests",
	"nystagmus":          "vestibular_tests",

	"diagnosis":           "diagnosis",
	"diagnose":            "diagnosis",
	"clinical_impression": "diagnosis",
	"klinisk_vurdering":   "diagnosis",

	"icpc2_codes":   "icpc2_codes",
	"icpc2":         "icpc2_codes",
	"icpc_codes":    "icpc2_codes",
	"icpc":          "icpc2_codes",
	"icd10_codes":   "icd10_codes",
	"icd10":         "icd10_codes",
	"icd_codes":     "icd10_codes",
	"icd":           "icd10_codes",
	"diagnosekoder": "icpc2_codes",

	"differential":          "differential",
	"differensialdiagnoser": "differential",
	"ddx":                   "differential",

	"prognosis": "prognosis",
	"prognose":  "prognosis",

	"treatment":    "treatment",
	"behandling":   "treatment",
	"intervention": "treatment",
	"intervensjon": "treatment",

	"exercises":      "exercises",
	"ovelser":        "exercises",
	"øvelser":        "exercises",
	"hjemmeovelser":  "exercises",
	"home_exercises": "exercises",

	"follow_up":  "follow_up",
	"followup":   "follow_up",
	"oppfolging": "follow_up",
	"oppfølging": "follow_up",
	"kontroll":   "follow_up",

	"goals":          "goals",
	"mal":            "goals",
	"mål":            "goals",
	"behandlingsmal": "goals",
	"behandlingsmål": "goals",
}

// canonicalKey lowercases a key and converts camelCase, spaces and dashes to
// snake_case so one alias table covers all naming conventions.
func canonicalKey(key string) string {
	var b strings.Builder
	for i, r := range key {
		switch {
		case r >= 'A' && r <= 'Z':
			if i > 0 {
				prev := rune(key[i-1])
				if prev >= 'a' && prev <= 'z' || prev >= '0' && prev <= '9' {
					b.WriteByte('_')
				}
			}
			b.WriteRune(r - 'A' + 'a')
		case r == ' ' || r == '-':
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeSOAPData rewrites section and field names to their canonical form.
// Unknown keys pass through unchanged; values are never altered. The function
// is idempotent: normalizing an already-normalized payload is a no-op.
func NormalizeSOAPData(data map[string]interface{}) map[string]interface{} {
	if data == nil {
		return nil
	}
	out := make(map[string]interface{}, len(data))
	for key, value := range data {
		section, ok := sectionAliases[canonicalKey(key)]
		if !ok {
			out[key] = value
			continue
		}
		fields, ok := asMap(value)
		if !ok {
			out[section] = value
			continue
		}
		normalized := make(map[string]interface{}, len(fields))
		for fk, fv := range fields {
			if canonical, ok := fieldAliases[canonicalKey(fk)]; ok {
				normalized[canonical] = fv
			} else {
				normalized[fk] = fv
			}
		}
		out[section] = normalized
	}
	return out
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case map[string]string:
		out := make(map[string]interface{}, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	}
	return nil, false
}

// sectionMap returns the named section as a map, or nil.
func sectionMap(data map[string]interface{}, section string) map[string]interface{} {
	if data == nil {
		return nil
	}
	m, _ := asMap(data[section])
	return m
}

// fieldString returns a string field from a section, trimmed.
func fieldString(section map[string]interface{}, field string) string {
	if section == nil {
		return ""
	}
	s, _ := section[field].(string)
	return strings.TrimSpace(s)
}

// sectionText concatenates all string values of a section for scanning and
// length checks. Keys are visited in sorted order so repeated validations of
// the same payload produce an identical scan corpus.
func sectionText(section map[string]interface{}) string {
	if section == nil {
		return ""
	}
	keys := make([]string, 0, len(section))
	for k := range section {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var parts []string
	for _, k := range keys {
		v := section[k]
		switch s := v.(type) {
		case string:
			if strings.TrimSpace(s) != "" {
				parts = append(parts, s)
			}
		case []interface{}:
			for _, item := range s {
				if str, ok := item.(string); ok && strings.TrimSpace(str) != "" {
					parts = append(parts, str)
				}
			}
		}
	}
	return strings.Join(parts, " ")
}
