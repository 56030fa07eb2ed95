package notes

import (
	"regexp"
	"strings"

	"github.com/klinikk/klinikk/internal/domain/safety"
)

// DefaultMinSectionLength is the content-length threshold below which the
// objective and assessment sections count as missing.
const DefaultMinSectionLength = 10

var (
	icpc2Pattern = regexp.MustCompile(`^[A-Z]\d{2}$`)
	icd10Pattern = regexp.MustCompile(`^[A-Z]\d{2}(\.\d{1,4})?$`)
)

type fieldRef struct {
	section string
	field   string
	label   string
}

type encounterProfile struct {
	recommended    []fieldRef
	planRequired   bool
	planMissingMsg string
}

var encounterProfiles = map[string]encounterProfile{
	EncounterInitial: {
		planRequired:   true,
		planMissingMsg: "Plan mangler for førstegangskonsultasjon",
		recommended: []fieldRef{
			{SectionSubjective, "history", "sykehistorie"},
			{SectionSubjective, "onset", "symptomdebut"},
			{SectionObjective, "palpation", "palpasjonsfunn"},
			{SectionObjective, "range_of_motion", "bevegelighet"},
			{SectionObjective, "orthopedic_tests", "ortopediske tester"},
			{SectionAssessment, "diagnosis", "diagnose"},
			{SectionPlan, "treatment", "behandlingstiltak"},
			{SectionPlan, "goals", "behandlingsmål"},
		},
	},
	EncounterFollowUp: {
		recommended: []fieldRef{
			{SectionSubjective, "progress", "endring siden sist"},
			{SectionObjective, "range_of_motion", "bevegelighet"},
			{SectionPlan, "treatment", "behandlingstiltak"},
		},
	},
	EncounterSOAP: {
		recommended: []fieldRef{
			{SectionAssessment, "diagnosis", "diagnose"},
			{SectionPlan, "treatment", "behandlingstiltak"},
		},
	},
	EncounterVestibular: {
		planRequired:   true,
		planMissingMsg: "Plan mangler for vestibulær utredning",
		recommended: []fieldRef{
			{SectionSubjective, "dizziness_description", "beskrivelse av svimmelhet"},
			{SectionSubjective, "onset", "symptomdebut"},
			{SectionObjective, "vestibular_tests", "vestibulære tester"},
			{SectionObjective, "neurological_findings", "nevrologiske funn"},
			{SectionAssessment, "diagnosis", "diagnose"},
			{SectionPlan, "treatment", "behandlingstiltak"},
		},
	},
}

// Validator orchestrates the safety pipeline against a structured SOAP
// payload and produces the final save decision.
type Validator struct {
	scanner          *safety.Scanner
	minSectionLength int
}

func NewValidator(scanner *safety.Scanner, minSectionLength int) *Validator {
	if minSectionLength <= 0 {
		minSectionLength = DefaultMinSectionLength
	}
	return &Validator{scanner: scanner, minSectionLength: minSectionLength}
}

// Validate normalizes the payload, checks mandatory and recommended fields
// for the encounter type, validates diagnosis code formats, runs the red-flag
// scan plus medication and age-protocol checks, and computes the completeness
// score. Red flags
// never block saving here; only a missing or too-short chief complaint sets
// CanSave=false. The practitioner retains final clinical judgment.
func (v *Validator) Validate(data map[string]interface{}, encounterType string, cctx *safety.ClinicalContext) *safety.ValidationReport {
	report := &safety.ValidationReport{
		IsValid:     true,
		CanProceed:  true,
		CanSave:     true,
		RiskLevel:   safety.RiskLow,
		Warnings:    []safety.Warning{},
		Errors:      []string{},
		RedFlags:    []safety.DetectedFlag{},
		Suggestions: []string{},
	}

	if data == nil {
		report.IsValid = false
		report.CanSave = false
		report.CanProceed = false
		report.Errors = append(report.Errors, "note payload is required")
		return report
	}
	if cctx == nil {
		cctx = &safety.ClinicalContext{}
	}

	normalized := NormalizeSOAPData(data)
	subjective := sectionMap(normalized, SectionSubjective)
	objective := sectionMap(normalized, SectionObjective)
	assessment := sectionMap(normalized, SectionAssessment)
	plan := sectionMap(normalized, SectionPlan)

	// Chief complaint is mandatory for every encounter type.
	chiefComplaint := fieldString(subjective, "chief_complaint")
	if len(chiefComplaint) < 3 {
		report.Errors = append(report.Errors, "chief complaint (hovedplage) is missing or too short")
		report.CanSave = false
	}

	if len(strings.TrimSpace(sectionText(objective))) < v.minSectionLength {
		report.Warnings = append(report.Warnings, safety.Warning{
			Type:     "missing_section",
			Severity: safety.WarningModerate,
			Message:  "Objektiv del mangler eller er svært kort",
		})
	}
	if len(strings.TrimSpace(sectionText(assessment))) < v.minSectionLength {
		report.Warnings = append(report.Warnings, safety.Warning{
			Type:     "missing_section",
			Severity: safety.WarningModerate,
			Message:  "Vurderingsdel mangler eller er svært kort",
		})
	}

	profile, ok := encounterProfiles[encounterType]
	if !ok {
		profile = encounterProfiles[EncounterSOAP]
	}
	planText := strings.TrimSpace(sectionText(plan))
	if planText == "" && profile.planRequired {
		report.Warnings = append(report.Warnings, safety.Warning{
			Type:     "missing_section",
			Severity: safety.WarningModerate,
			Message:  profile.planMissingMsg,
		})
	}

	sections := map[string]map[string]interface{}{
		SectionSubjective: subjective,
		SectionObjective:  objective,
		SectionAssessment: assessment,
		SectionPlan:       plan,
	}
	for _, ref := range profile.recommended {
		if ref.section == SectionSubjective && ref.field == "chief_complaint" {
			continue // already a hard error above
		}
		if fieldString(sections[ref.section], ref.field) == "" {
			report.Suggestions = append(report.Suggestions,
				"Vurder å dokumentere "+ref.label+" ("+ref.section+"."+ref.field+")")
		}
	}

	icpc2 := codeList(assessment, "icpc2_codes")
	icd10 := codeList(assessment, "icd10_codes")
	for _, code := range icpc2 {
		if !icpc2Pattern.MatchString(code) {
			report.Warnings = append(report.Warnings, safety.Warning{
				Type:     "invalid_diagnosis_code",
				Severity: safety.WarningModerate,
				Message:  "Ugyldig ICPC-2-kode: " + code,
			})
		}
	}
	for _, code := range icd10 {
		if !icd10Pattern.MatchString(code) {
			report.Warnings = append(report.Warnings, safety.Warning{
				Type:     "invalid_diagnosis_code",
				Severity: safety.WarningModerate,
				Message:  "Ugyldig ICD-10-kode: " + code,
			})
		}
	}
	if len(icpc2) == 0 && len(icd10) == 0 {
		report.Suggestions = append(report.Suggestions, "Ingen diagnosekoder registrert (ICPC-2 eller ICD-10)")
	}

	// Content-flag pass over the chief complaint first, then the full note;
	// the merge drops duplicates by rule id or same category+description.
	flags := v.scanner.Scan(chiefComplaint, cctx.Patient)
	corpus := strings.Join([]string{
		sectionText(subjective), sectionText(objective),
		sectionText(assessment), sectionText(plan),
	}, "\n")
	flags = mergeFlags(flags, v.scanner.Scan(corpus, cctx.Patient))

	report.RedFlags = flags
	if len(flags) > 0 {
		report.HasRedFlags = true
		report.RequiresReview = true
		for _, f := range flags {
			switch f.Severity {
			case safety.SeverityCritical:
				report.RiskLevel = safety.RiskCritical
			case safety.SeverityHigh:
				if report.RiskLevel != safety.RiskCritical {
					report.RiskLevel = safety.RiskHigh
				}
			case safety.SeverityModerate:
				if report.RiskLevel == safety.RiskLow {
					report.RiskLevel = safety.RiskModerate
				}
			}
		}
	}

	if cctx.Patient != nil && len(cctx.Patient.CurrentMedications) > 0 {
		medWarnings := safety.CheckMedications(cctx.Patient.CurrentMedications)
		if len(medWarnings) > 0 {
			report.Warnings = append(report.Warnings, medWarnings...)
			report.RequiresReview = true
		}
	}

	if cctx.Patient != nil && cctx.Patient.Age != nil {
		ageWarnings := safety.CheckAgeRisks(*cctx.Patient.Age, chiefComplaint)
		report.Warnings = append(report.Warnings, ageWarnings...)
		for _, w := range ageWarnings {
			if w.Severity == safety.WarningModerate {
				report.RequiresReview = true
			}
		}
	}

	report.CompletenessScore = completenessScore(subjective, objective, assessment, plan,
		chiefComplaint, len(icpc2)+len(icd10) > 0, v.minSectionLength)

	report.IsValid = len(report.Errors) == 0
	// Red flags never block saving on this entry point.
	return report
}

// mergeFlags appends extra flags onto base, skipping entries already present
// with the same rule id or the same category and description.
func mergeFlags(base, extra []safety.DetectedFlag) []safety.DetectedFlag {
	out := base
	for _, f := range extra {
		dup := false
		for _, existing := range out {
			if existing.RuleID == f.RuleID ||
				(existing.Category == f.Category && existing.DescriptionNo == f.DescriptionNo) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, f)
		}
	}
	return out
}

func codeList(section map[string]interface{}, field string) []string {
	if section == nil {
		return nil
	}
	var out []string
	add := func(code string) {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code != "" {
			out = append(out, code)
		}
	}
	switch v := section[field].(type) {
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	case []string:
		for _, s := range v {
			add(s)
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			add(s)
		}
	}
	return out
}

// completenessScore awards up to 25 points per SOAP section: subjective 15
// base plus 10 for a resolvable chief complaint, objective all-or-nothing,
// assessment 20 base plus 5 for any diagnosis code, plan all-or-nothing.
func completenessScore(subjective, objective, assessment, plan map[string]interface{},
	chiefComplaint string, hasCodes bool, minLen int) int {

	score := 0
	if len(strings.TrimSpace(sectionText(subjective))) >= minLen {
		score += 15
	}
	if len(chiefComplaint) >= 3 {
		score += 10
	}
	if len(strings.TrimSpace(sectionText(objective))) >= minLen {
		score += 25
	}
	if len(strings.TrimSpace(sectionText(assessment))) >= minLen {
		score += 20
		if hasCodes {
			score += 5
		}
	}
	if strings.TrimSpace(sectionText(plan)) != "" {
		score += 25
	}
	if score > 100 {
		score = 100
	}
	return score
}
