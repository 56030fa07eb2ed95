package notes

import (
	"strings"
	"testing"

	"github.com/klinikk/klinikk/internal/domain/safety"
)

func newTestValidator() *Validator {
	return NewValidator(safety.NewScanner(safety.DefaultRegistry()), DefaultMinSectionLength)
}

func completeNote() map[string]interface{} {
	return map[string]interface{}{
		"subjective": map[string]interface{}{
			"chief_complaint": "Smerter i korsryggen",
			"history":         "Gradvis utvikling over to uker uten kjent utløsende hendelse",
			"onset":           "For to uker siden",
		},
		"objective": map[string]interface{}{
			"palpation":        "Palpasjonsømhet paravertebralt L4-L5",
			"range_of_motion":  "Lett redusert fleksjon, ellers normal bevegelighet",
			"orthopedic_tests": "SLR negativ bilateralt",
		},
		"assessment": map[string]interface{}{
			"diagnosis":   "Uspesifikke korsryggsmerter",
			"icpc2_codes": []interface{}{"L03"},
		},
		"plan": map[string]interface{}{
			"treatment": "Mobilisering og hjemmeøvelser",
			"goals":     "Full funksjon innen fire uker",
		},
	}
}

func warningWithType(warnings []safety.Warning, typ string) *safety.Warning {
	for i := range warnings {
		if warnings[i].Type == typ {
			return &warnings[i]
		}
	}
	return nil
}

func TestValidate_CompleteNote(t *testing.T) {
	report := newTestValidator().Validate(completeNote(), EncounterInitial, nil)

	if !report.IsValid || !report.CanSave {
		t.Fatalf("expected a complete note to be savable: %+v", report)
	}
	if report.CompletenessScore != 100 {
		t.Errorf("expected completeness 100, got %d", report.CompletenessScore)
	}
	if report.HasRedFlags {
		t.Errorf("expected no red flags, got %v", report.RedFlags)
	}
	if report.RiskLevel != safety.RiskLow {
		t.Errorf("expected LOW, got %s", report.RiskLevel)
	}
}

func TestValidate_NilPayload(t *testing.T) {
	report := newTestValidator().Validate(nil, EncounterSOAP, nil)
	if report.CanSave || report.IsValid {
		t.Error("expected nil payload to be blocked")
	}
}

func TestValidate_MissingChiefComplaintBlocks(t *testing.T) {
	data := completeNote()
	delete(data["subjective"].(map[string]interface{}), "chief_complaint")

	report := newTestValidator().Validate(data, EncounterInitial, nil)
	if report.CanSave {
		t.Error("expected CanSave=false without chief complaint")
	}
	if report.IsValid {
		t.Error("expected IsValid=false without chief complaint")
	}
	if len(report.Errors) == 0 {
		t.Error("expected an error entry")
	}
}

func TestValidate_ShortChiefComplaintBlocks(t *testing.T) {
	data := completeNote()
	data["subjective"].(map[string]interface{})["chief_complaint"] = "Au"

	report := newTestValidator().Validate(data, EncounterInitial, nil)
	if report.CanSave {
		t.Error("expected CanSave=false for a two-character chief complaint")
	}
}

func TestValidate_ChiefComplaintViaAlias(t *testing.T) {
	data := map[string]interface{}{
		"subjektiv": map[string]interface{}{
			"hovedplage": "Vondt i nakken",
		},
	}
	report := newTestValidator().Validate(data, EncounterFollowUp, nil)
	if !report.CanSave {
		t.Errorf("expected hovedplage alias to satisfy the chief complaint: %v", report.Errors)
	}
}

func TestValidate_PlanWarningOnlyWhenRequired(t *testing.T) {
	v := newTestValidator()

	data := completeNote()
	delete(data, "plan")

	initial := v.Validate(data, EncounterInitial, nil)
	if warningWithType(initial.Warnings, "missing_section") == nil {
		t.Error("expected missing plan warning for INITIAL")
	}
	if !initial.CanSave {
		t.Error("a missing plan must warn, not block")
	}

	followUp := v.Validate(data, EncounterFollowUp, nil)
	for _, w := range followUp.Warnings {
		if strings.Contains(w.Message, "Plan mangler") {
			t.Error("did not expect plan warning for FOLLOW_UP")
		}
	}

	vestibular := v.Validate(data, EncounterVestibular, nil)
	found := false
	for _, w := range vestibular.Warnings {
		if strings.Contains(w.Message, "Plan mangler") {
			found = true
			if strings.Contains(w.Message, "førstegangskonsultasjon") {
				t.Error("vestibular plan warning must not mention a first consultation")
			}
		}
	}
	if !found {
		t.Error("expected missing plan warning for VESTIBULAR")
	}
}

func TestValidate_UnknownEncounterFallsBackToSOAP(t *testing.T) {
	data := completeNote()
	delete(data, "plan")

	report := newTestValidator().Validate(data, "TELEHEALTH", nil)
	for _, w := range report.Warnings {
		if strings.Contains(w.Message, "Plan mangler") {
			t.Error("fallback SOAP profile should not require a plan")
		}
	}
}

func TestValidate_ShortSectionsWarn(t *testing.T) {
	data := map[string]interface{}{
		"subjective": map[string]interface{}{
			"chief_complaint": "Hodepine etter lang dag på kontoret",
		},
		"objective":  map[string]interface{}{"palpation": "ua"},
		"assessment": map[string]interface{}{"diagnosis": "ua"},
	}
	report := newTestValidator().Validate(data, EncounterSOAP, nil)

	count := 0
	for _, w := range report.Warnings {
		if w.Type == "missing_section" {
			count++
		}
	}
	if count != 2 {
		t.Errorf("expected short objective and assessment warnings, got %d", count)
	}
	if !report.CanSave {
		t.Error("short sections must warn, not block")
	}
}

func TestValidate_DiagnosisCodeFormats(t *testing.T) {
	data := completeNote()
	assessment := data["assessment"].(map[string]interface{})
	assessment["icpc2_codes"] = []interface{}{"L03", "L3"}
	assessment["icd10_codes"] = "m54.5, M545"

	report := newTestValidator().Validate(data, EncounterInitial, nil)

	invalid := 0
	for _, w := range report.Warnings {
		if w.Type == "invalid_diagnosis_code" {
			invalid++
		}
	}
	// L3 fails ICPC-2, M545 fails ICD-10; lowercase m54.5 is uppercased first.
	if invalid != 2 {
		t.Errorf("expected 2 invalid code warnings, got %d: %v", invalid, report.Warnings)
	}
}

func TestValidate_NoCodesSuggestion(t *testing.T) {
	data := completeNote()
	delete(data["assessment"].(map[string]interface{}), "icpc2_codes")

	report := newTestValidator().Validate(data, EncounterInitial, nil)
	found := false
	for _, s := range report.Suggestions {
		if strings.Contains(s, "diagnosekoder") {
			found = true
		}
	}
	if !found {
		t.Error("expected suggestion about missing diagnosis codes")
	}
}

func TestValidate_RecommendedFieldSuggestions(t *testing.T) {
	data := map[string]interface{}{
		"subjective": map[string]interface{}{
			"chief_complaint": "Svimmelhet ved stillingsendring siste uke",
		},
	}
	report := newTestValidator().Validate(data, EncounterVestibular, nil)

	found := false
	for _, s := range report.Suggestions {
		if strings.Contains(s, "vestibular_tests") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected vestibular test suggestion, got %v", report.Suggestions)
	}
}

func TestValidate_RedFlagsNeverBlockSaving(t *testing.T) {
	data := completeNote()
	data["subjective"].(map[string]interface{})["chief_complaint"] =
		"Urinretensjon og nummenhet mellom beina siden i går"

	report := newTestValidator().Validate(data, EncounterInitial, nil)

	if !report.HasRedFlags {
		t.Fatal("expected red flags")
	}
	if report.RiskLevel != safety.RiskCritical {
		t.Errorf("expected CRITICAL, got %s", report.RiskLevel)
	}
	if !report.CanSave {
		t.Error("red flags must not block saving the note")
	}
	if !report.RequiresReview {
		t.Error("expected RequiresReview for flagged note")
	}
}

func TestValidate_FlagsDeduplicatedAcrossPasses(t *testing.T) {
	// The same finding appears in the chief complaint and the history; the
	// chief-complaint pass and the full-corpus pass must not double-report.
	data := completeNote()
	subj := data["subjective"].(map[string]interface{})
	subj["chief_complaint"] = "Uforklarlig vekttap og ryggsmerter"
	subj["history"] = "Uforklarlig vekttap på 6 kg siste to måneder"

	report := newTestValidator().Validate(data, EncounterInitial, nil)

	count := 0
	for _, f := range report.RedFlags {
		if f.RuleID == "ma_weight_loss" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected ma_weight_loss reported once, got %d", count)
	}
}

func TestValidate_MedicationWarningsFromContext(t *testing.T) {
	cctx := &safety.ClinicalContext{
		Patient: &safety.PatientContext{CurrentMedications: []string{"Fosamax"}},
	}
	report := newTestValidator().Validate(completeNote(), EncounterInitial, cctx)
	if warningWithType(report.Warnings, "medication_bisphosphonate") == nil {
		t.Error("expected bisphosphonate warning from patient context")
	}
}

func TestValidate_AgeProtocolWarningsFromContext(t *testing.T) {
	data := completeNote()
	data["subjective"].(map[string]interface{})["chief_complaint"] = "Akutt innsettende ryggsmerter i går"

	age := 78
	cctx := &safety.ClinicalContext{Patient: &safety.PatientContext{Age: &age}}
	report := newTestValidator().Validate(data, EncounterInitial, cctx)

	if warningWithType(report.Warnings, "age_geriatric") == nil {
		t.Error("expected geriatric protocol warning for a 78-year-old")
	}
	if warningWithType(report.Warnings, "age_sudden_onset") == nil {
		t.Error("expected screening warning for acute onset in an elderly patient")
	}
	if !report.RequiresReview {
		t.Error("expected RequiresReview with a moderate age warning")
	}

	age = 42
	report = newTestValidator().Validate(data, EncounterInitial, cctx)
	for _, typ := range []string{"age_geriatric", "age_sudden_onset", "age_pediatric", "age_first_episode"} {
		if warningWithType(report.Warnings, typ) != nil {
			t.Errorf("did not expect %s warning for a 42-year-old", typ)
		}
	}
}

func TestValidate_CompletenessPartial(t *testing.T) {
	data := map[string]interface{}{
		"subjective": map[string]interface{}{
			"chief_complaint": "Smerter i skulderen etter maling av tak",
		},
		"plan": map[string]interface{}{
			"treatment": "Avlastning og gradvis opptrening",
		},
	}
	report := newTestValidator().Validate(data, EncounterFollowUp, nil)

	// Subjective 15+10, plan 25; objective and assessment missing.
	if report.CompletenessScore != 50 {
		t.Errorf("expected completeness 50, got %d", report.CompletenessScore)
	}
}

func TestValidate_Deterministic(t *testing.T) {
	v := newTestValidator()
	data := completeNote()
	data["subjective"].(map[string]interface{})["history"] = "Feber og nattesvette siste uke"

	a := v.Validate(data, EncounterInitial, nil)
	b := v.Validate(data, EncounterInitial, nil)

	if len(a.RedFlags) != len(b.RedFlags) {
		t.Fatalf("non-deterministic flag count: %d vs %d", len(a.RedFlags), len(b.RedFlags))
	}
	for i := range a.RedFlags {
		if a.RedFlags[i].RuleID != b.RedFlags[i].RuleID {
			t.Errorf("non-deterministic order at %d", i)
		}
	}
	if a.CompletenessScore != b.CompletenessScore {
		t.Error("non-deterministic completeness score")
	}
}
