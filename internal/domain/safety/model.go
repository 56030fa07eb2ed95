package safety

import "regexp"

// Severity of a red-flag category, ordered CRITICAL < HIGH < MODERATE < LOW
// for ranking purposes.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityModerate Severity = "MODERATE"
	SeverityLow      Severity = "LOW"
)

// Rank returns the sort rank of a severity. Lower is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityModerate:
		return 2
	case SeverityLow:
		return 3
	}
	return 4
}

// Category identifies a red-flag category.
type Category string

const (
	CategoryCaudaEquina  Category = "CAUDA_EQUINA"
	CategoryMalignancy   Category = "MALIGNANCY"
	CategoryInfection    Category = "INFECTION"
	CategoryFracture     Category = "FRACTURE"
	CategoryVascular     Category = "VASCULAR"
	CategoryInflammatory Category = "INFLAMMATORY"
	CategoryNeurological Category = "NEUROLOGICAL"
	CategorySystemic     Category = "SYSTEMIC"
	CategoryMedication   Category = "MEDICATION"
	CategoryAgeRelated   Category = "AGE_RELATED"
)

// Action is the recommended clinical action for a category.
type Action string

const (
	ActionImmediateReferral   Action = "IMMEDIATE_REFERRAL"
	ActionUrgentReferral      Action = "URGENT_REFERRAL"
	ActionMedicalEvaluation   Action = "MEDICAL_EVALUATION"
	ActionImagingRequired     Action = "IMAGING_REQUIRED"
	ActionEmergencyEvaluation Action = "EMERGENCY_EVALUATION"
	ActionSpecialistReferral  Action = "SPECIALIST_REFERRAL"
	ActionDetailedExam        Action = "DETAILED_EXAM"
	ActionMedicalConsultation Action = "MEDICAL_CONSULTATION"
	ActionPrecaution          Action = "PRECAUTION"
	ActionModifiedTreatment   Action = "MODIFIED_TREATMENT"
)

// CategoryInfo holds the static metadata for a red-flag category.
type CategoryInfo struct {
	Code      Category `json:"code"`
	NameNo    string   `json:"name_no"`
	NameEn    string   `json:"name_en"`
	Severity  Severity `json:"severity"`
	Action    Action   `json:"recommended_action"`
	Timeframe string   `json:"timeframe"`
}

// Rule is a single red-flag detection rule. Patterns are tried in order and
// the rule fires at most once per scan regardless of how many patterns match.
type Rule struct {
	ID                 string
	Category           Category
	Patterns           []*regexp.Regexp
	DescriptionNo      string
	DescriptionEn      string
	AgeThreshold       *int
	AgeLessThan        bool
	RiskMultiplier     float64
	ScreeningQuestions []string
}

// DetectedFlag is the scan output for one matched rule. Severity, action and
// timeframe are copied from the category at scan time.
type DetectedFlag struct {
	RuleID         string   `json:"rule_id"`
	Category       Category `json:"category"`
	Severity       Severity `json:"severity"`
	Action         Action   `json:"recommended_action"`
	Timeframe      string   `json:"timeframe"`
	DescriptionNo  string   `json:"description_no"`
	DescriptionEn  string   `json:"description_en"`
	Matched        string   `json:"matched"`
	RiskMultiplier float64  `json:"risk_multiplier"`
}

// RiskLevel is the discrete outcome of risk scoring.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// Recommendation values returned by the risk scorer.
type Recommendation string

const (
	RecommendProceed            Recommendation = "proceed"
	RecommendProceedWithCaution Recommendation = "proceed_with_caution"
	RecommendUrgentEvaluation   Recommendation = "urgent_evaluation"
	RecommendImmediateReferral  Recommendation = "immediate_referral"
)

// RiskAssessment aggregates a set of detected flags into one verdict.
type RiskAssessment struct {
	Score           float64        `json:"score"`
	Level           RiskLevel      `json:"level"`
	Recommendation  Recommendation `json:"recommendation"`
	FlagCount       int            `json:"flag_count"`
	HighestSeverity Severity       `json:"highest_severity,omitempty"`
}

// Warning severities used by medication/age checks and the content validator.
// These sit outside the red-flag severity scale.
const (
	WarningInfo     = "INFO"
	WarningModerate = "MODERATE"
	WarningHigh     = "HIGH"
	WarningGeneral  = "WARNING"
)

// Warning is an advisory finding that never blocks by itself.
type Warning struct {
	Type              string   `json:"type"`
	Severity          string   `json:"severity"`
	Message           string   `json:"message"`
	Contraindications []string `json:"contraindications,omitempty"`
	Recommendation    string   `json:"recommendation,omitempty"`
	Action            string   `json:"action,omitempty"`
}

// PatientContext carries the structured patient fields the pipeline consults.
// All fields are optional; a nil context disables the corresponding checks.
type PatientContext struct {
	Age                *int     `json:"age,omitempty"`
	CurrentMedications []string `json:"current_medications,omitempty"`
	RedFlags           []string `json:"red_flags,omitempty"`
	Contraindications  []string `json:"contraindications,omitempty"`
}

// ClinicalContext is the optional context for content validation.
type ClinicalContext struct {
	Subjective         string          `json:"subjective,omitempty"`
	Objective          string          `json:"objective,omitempty"`
	Assessment         string          `json:"assessment,omitempty"`
	Plan               string          `json:"plan,omitempty"`
	Patient            *PatientContext `json:"patient,omitempty"`
	SimilarCasesCount  int             `json:"similar_cases_count,omitempty"`
	TemplateMatchScore float64         `json:"template_match_score,omitempty"`
}

// ValidationReport is the uniform result shape of both validation entry
// points. It is constructed fresh per call and never mutated after return.
type ValidationReport struct {
	IsValid           bool           `json:"is_valid"`
	CanProceed        bool           `json:"can_proceed"`
	CanSave           bool           `json:"can_save"`
	RequiresReview    bool           `json:"requires_review"`
	HasRedFlags       bool           `json:"has_red_flags"`
	RiskLevel         RiskLevel      `json:"risk_level"`
	Confidence        float64        `json:"confidence"`
	Warnings          []Warning      `json:"warnings"`
	Errors            []string       `json:"errors"`
	RedFlags          []DetectedFlag `json:"red_flags"`
	Suggestions       []string       `json:"suggestions"`
	CompletenessScore int            `json:"completeness_score"`
}
