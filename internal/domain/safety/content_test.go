package safety

import (
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestService() *Service {
	return NewService(DefaultRegistry(), zerolog.Nop())
}

// ── Confidence ──

func TestComputeConfidence_WellFormedNote(t *testing.T) {
	content := "Ingen nevrologiske utfall. Normal bevegelighet i nakke. VAS 3. Fortsetter med øvelser hjemme."
	got := ComputeConfidence(content, ConfidenceHints{})

	// 0.5 base + 0.15 length + 3/10 terminology + 0.05 digits.
	if math.Abs(got-0.76) > 1e-9 {
		t.Errorf("expected 0.76, got %v", got)
	}
}

func TestComputeConfidence_VeryShort(t *testing.T) {
	if got := ComputeConfidence("ok", ConfidenceHints{}); math.Abs(got-0.2) > 1e-9 {
		t.Errorf("expected 0.2 for very short content, got %v", got)
	}
}

func TestComputeConfidence_VeryLong(t *testing.T) {
	got := ComputeConfidence(strings.Repeat("x", 3100), ConfidenceHints{})
	if math.Abs(got-0.4) > 1e-9 {
		t.Errorf("expected 0.4 for overlong content, got %v", got)
	}
}

func TestComputeConfidence_CountsCharactersNotBytes(t *testing.T) {
	// 15 characters but 30 bytes; must score as very short.
	if got := ComputeConfidence(strings.Repeat("æ", 15), ConfidenceHints{}); math.Abs(got-0.2) > 1e-9 {
		t.Errorf("expected 0.2 for 15 characters of two-byte runes, got %v", got)
	}
	// 2500 characters but 5000 bytes; must not hit the overlong penalty.
	if got := ComputeConfidence(strings.Repeat("å", 2500), ConfidenceHints{}); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("expected 0.5 for 2500 characters of two-byte runes, got %v", got)
	}
}

func TestComputeConfidence_Hints(t *testing.T) {
	content := strings.Repeat("y", 100)
	base := ComputeConfidence(content, ConfidenceHints{})
	withHints := ComputeConfidence(content, ConfidenceHints{
		HasSimilarCases:    true,
		TemplateMatchScore: 0.9,
	})
	if math.Abs(withHints-base-0.2) > 1e-9 {
		t.Errorf("expected hints to add 0.2, got %v over %v", withHints, base)
	}
}

func TestComputeConfidence_Clamped(t *testing.T) {
	content := "Smerte ved palpasjon av nakke.\nBevegelighet ok.\nBehandling: mobilisering og øvelser.\nKraft 5/5, refleks normal, god funksjon i skulder."
	got := ComputeConfidence(content, ConfidenceHints{HasSimilarCases: true, TemplateMatchScore: 0.95})
	if got > 1 {
		t.Errorf("confidence not clamped: %v", got)
	}
}

// ── ValidateContent ──

func TestValidateContent_EmptyContent(t *testing.T) {
	report := newTestService().ValidateContent("   ", nil)
	if report.IsValid {
		t.Error("expected invalid report for empty content")
	}
	if report.CanProceed {
		t.Error("expected CanProceed=false for empty content")
	}
	if len(report.Errors) == 0 {
		t.Error("expected an error entry")
	}
}

func TestValidateContent_CleanFollowUp(t *testing.T) {
	content := "Ingen nevrologiske utfall. Normal bevegelighet i nakke. VAS 3. Fortsetter med øvelser hjemme."
	report := newTestService().ValidateContent(content, nil)

	if !report.IsValid || !report.CanProceed {
		t.Errorf("expected valid, proceedable report: %+v", report)
	}
	if report.HasRedFlags {
		t.Error("expected no red flags")
	}
	if report.RiskLevel != RiskLow {
		t.Errorf("expected LOW, got %s", report.RiskLevel)
	}
	if report.Confidence < 0.6 {
		t.Errorf("expected confidence above warning threshold, got %v", report.Confidence)
	}
	if w := warningOfType(report.Warnings, "low_confidence"); w != nil {
		t.Error("did not expect low_confidence warning")
	}
}

func TestValidateContent_CriticalBlocksAndCapsConfidence(t *testing.T) {
	content := "Pasienten har urinretensjon og nummenhet mellom beina siden i går. God beskrivelse av forløp med mange detaljer."
	report := newTestService().ValidateContent(content, nil)

	if report.CanProceed {
		t.Error("expected CanProceed=false on CRITICAL findings")
	}
	if report.IsValid {
		t.Error("expected IsValid=false, critical flags are errors")
	}
	if report.RiskLevel != RiskCritical {
		t.Errorf("expected CRITICAL, got %s", report.RiskLevel)
	}
	if report.Confidence > 0.3 {
		t.Errorf("expected confidence capped at 0.3, got %v", report.Confidence)
	}
	if !report.RequiresReview {
		t.Error("expected RequiresReview")
	}
}

func TestValidateContent_HighSeverityWarnsButNotError(t *testing.T) {
	content := "Uforklarlig vekttap siste tre måneder, ellers upåfallende."
	report := newTestService().ValidateContent(content, nil)

	if len(report.Errors) != 0 {
		t.Errorf("HIGH flags should be warnings, not errors: %v", report.Errors)
	}
	if report.CanProceed {
		t.Error("expected CanProceed=false on HIGH risk")
	}
	if report.RiskLevel != RiskHigh {
		t.Errorf("expected HIGH, got %s", report.RiskLevel)
	}
	if report.Confidence > 0.5 {
		t.Errorf("expected confidence capped at 0.5, got %v", report.Confidence)
	}
}

func TestValidateContent_ScansSOAPSections(t *testing.T) {
	report := newTestService().ValidateContent("Kontrolltime.", &ClinicalContext{
		Subjective: "Nummenhet mellom beina og vannlatingsproblemer.",
	})
	if !report.HasRedFlags {
		t.Error("expected red flags from the subjective section")
	}
	if report.RiskLevel != RiskCritical {
		t.Errorf("expected CRITICAL, got %s", report.RiskLevel)
	}
}

func TestValidateContent_LogicRule_AcuteVsLongTermPlan(t *testing.T) {
	report := newTestService().ValidateContent("Konsultasjonsnotat.", &ClinicalContext{
		Subjective: "Akutt innsettende smerter i korsryggen i dag.",
		Plan:       "Behandlingsserie på 12 behandlinger over tre måneder.",
	})
	w := warningOfType(report.Warnings, "medical_logic")
	if w == nil {
		t.Fatal("expected medical_logic warning")
	}
	if w.Severity != WarningModerate {
		t.Errorf("expected MODERATE, got %s", w.Severity)
	}
}

func TestValidateContent_LogicRule_NeuroWithoutFollowUp(t *testing.T) {
	svc := newTestService()

	report := svc.ValidateContent("Konsultasjonsnotat.", &ClinicalContext{
		Subjective: "Smerter i korsryggen med utstråling.",
		Objective:  "Redusert sensibilitet i L5-dermatomet.",
		Plan:       "Fortsetter med mobilisering.",
	})
	w := warningOfType(report.Warnings, "medical_logic")
	if w == nil {
		t.Fatal("expected medical_logic warning for neuro findings without follow-up")
	}
	if w.Severity != WarningHigh {
		t.Errorf("expected HIGH, got %s", w.Severity)
	}
	if !report.RequiresReview {
		t.Error("expected RequiresReview for HIGH logic warning")
	}

	// Plan that includes neurological follow-up clears the rule.
	cleared := svc.ValidateContent("Konsultasjonsnotat.", &ClinicalContext{
		Subjective: "Smerter i korsryggen med utstråling.",
		Objective:  "Redusert sensibilitet i L5-dermatomet.",
		Plan:       "Nevrologisk kontroll om en uke, retester sensibilitet.",
	})
	if warningOfType(cleared.Warnings, "medical_logic") != nil {
		t.Error("did not expect medical_logic warning when follow-up is planned")
	}
}

func TestValidateContent_LogicRulesSkippedWithoutSections(t *testing.T) {
	report := newTestService().ValidateContent("Akutt smerte i dag.", &ClinicalContext{
		Plan: "Behandlingsserie på 12 behandlinger.",
	})
	if warningOfType(report.Warnings, "medical_logic") != nil {
		t.Error("logic rules should not run without a subjective section")
	}
}

func TestValidateContent_MedicationWarnings(t *testing.T) {
	report := newTestService().ValidateContent("Vanlig kontrolltime uten nye funn.", &ClinicalContext{
		Patient: &PatientContext{CurrentMedications: []string{"Marevan 2.5mg"}},
	})
	if warningOfType(report.Warnings, "medication_anticoagulant") == nil {
		t.Error("expected anticoagulant warning from patient context")
	}
	if !report.RequiresReview {
		t.Error("expected RequiresReview with medication warnings")
	}
}

func TestValidateContent_AgeWarnings(t *testing.T) {
	age := 78
	report := newTestService().ValidateContent("Akutte korsryggsmerter siden i går, ellers upåfallende funn.", &ClinicalContext{
		Patient: &PatientContext{Age: &age},
	})
	if warningOfType(report.Warnings, "age_geriatric") == nil {
		t.Error("expected geriatric protocol warning for a 78-year-old")
	}
	if warningOfType(report.Warnings, "age_sudden_onset") == nil {
		t.Error("expected screening warning for acute onset in an elderly patient")
	}
	if !report.RequiresReview {
		t.Error("expected RequiresReview with a moderate age warning")
	}
}

func TestValidateContent_ChartedRedFlags(t *testing.T) {
	report := newTestService().ValidateContent("Vanlig kontrolltime uten nye funn.", &ClinicalContext{
		Patient: &PatientContext{RedFlags: []string{"tidligere malignitet"}},
	})
	w := warningOfType(report.Warnings, "patient_red_flag")
	if w == nil {
		t.Fatal("expected patient_red_flag warning")
	}
	if w.Severity != WarningHigh {
		t.Errorf("expected HIGH, got %s", w.Severity)
	}
}

func TestValidateContent_PIIWarnings(t *testing.T) {
	report := newTestService().ValidateContent("Pasient med fødselsnummer 01019012345, e-post ola@example.com.", nil)

	if warningOfType(report.Warnings, "possible_national_id") == nil {
		t.Error("expected national id warning for 11-digit sequence")
	}
	if warningOfType(report.Warnings, "possible_email") == nil {
		t.Error("expected email warning")
	}
	// PII findings are advisory only.
	if !report.CanProceed {
		t.Error("PII warnings must not block")
	}
}

func TestValidateContent_LowConfidenceWarning(t *testing.T) {
	report := newTestService().ValidateContent("Kort.", nil)
	if warningOfType(report.Warnings, "low_confidence") == nil {
		t.Error("expected low_confidence warning for a minimal note")
	}
}
