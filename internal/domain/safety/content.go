package safety

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Bilingual clinical-term patterns used for terminology density scoring.
var terminologyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)smerte|pain`),
	regexp.MustCompile(`(?i)palpasjon|palpation|øm(het)?|tender`),
	regexp.MustCompile(`(?i)bevegelighet|bevegelsesutslag|range of motion|\brom\b`),
	regexp.MustCompile(`(?i)nakke|cervical|columna|rygg|lumbal|thorakal|spine`),
	regexp.MustCompile(`(?i)behandling|treatment|mobilisering|mobilization`),
	regexp.MustCompile(`(?i)manipulasjon|justering|manipulation|adjustment|hvla`),
	regexp.MustCompile(`(?i)øvelse|trening|exercise|rehab`),
	regexp.MustCompile(`(?i)refleks|sensibilitet|kraft|reflex|sensation|strength`),
	regexp.MustCompile(`(?i)funksjon|function|adl\b`),
	regexp.MustCompile(`(?i)muskel|muscle|ledd|joint|skulder|shoulder|hofte|hip|bekken|pelvis`),
}

// ConfidenceHints carry the optional context signals for confidence scoring.
type ConfidenceHints struct {
	HasSimilarCases    bool
	TemplateMatchScore float64
}

// ComputeConfidence scores how complete and well-formed a clinical narrative
// looks, in [0,1]. It is a heuristic over length, terminology density and
// structure, never a clinical judgment.
func ComputeConfidence(content string, hints ConfidenceHints) float64 {
	confidence := 0.5

	// Length thresholds count characters, not bytes; æ/ø/å are two bytes.
	n := utf8.RuneCountInString(content)
	switch {
	case n >= 50 && n <= 2000:
		confidence += 0.15
	case n < 20:
		confidence -= 0.3
	case n > 3000:
		confidence -= 0.1
	}

	matched := 0
	for _, p := range terminologyPatterns {
		if p.MatchString(content) {
			matched++
		}
	}
	confidence += float64(matched) / float64(len(terminologyPatterns)) * 0.2

	if strings.Contains(content, ":") {
		confidence += 0.05
	}
	if strings.ContainsAny(content, "0123456789") {
		confidence += 0.05
	}
	if strings.Count(content, "\n") > 2 {
		confidence += 0.05
	}

	if hints.HasSimilarCases {
		confidence += 0.10
	}
	if hints.TemplateMatchScore > 0.8 {
		confidence += 0.10
	}

	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0 {
		confidence = 0
	}
	return confidence
}

// Medical-logic consistency rules. Each rule flags an internally inconsistent
// note (e.g. acute presentation with an immediate long-term care plan). A
// panic inside one rule is swallowed so a malformed predicate can never abort
// the whole validation.
type logicRule struct {
	id       string
	severity string
	message  string
	flagged  func(ctx *ClinicalContext) bool
}

var (
	acuteOnsetPattern   = regexp.MustCompile(`(?i)akutt|plutselig|i dag|i går|sudden|acute|today|yesterday`)
	longTermPlanPattern = regexp.MustCompile(`(?i)12 behandlinger|behandlingsserie|langvarig|kronisk|long.?term|chronic care|maintenance care`)
	inflammationPattern = regexp.MustCompile(`(?i)inflammasjon|betennelse|akutte? smerter|inflammation|acute pain`)
	hvlaPattern         = regexp.MustCompile(`(?i)hvla|manipulasjon|justering|high.?velocity|thrust`)
	neuroFindingPattern = regexp.MustCompile(`(?i)parese|nedsatte? reflekser|redusert sensibilitet|kraftsvikt|paresis|reduced (reflexes|sensation)|motor weakness`)
	neuroFollowPattern  = regexp.MustCompile(`(?i)nevrologisk (oppfølging|testing|kontroll|vurdering)|henvis\w* (til )?nevrolog|neurological (follow.?up|testing|re-?assessment)|refer\w* to neurolog`)
)

var logicRules = []logicRule{
	{
		id:       "acute_vs_longterm_plan",
		severity: WarningModerate,
		message:  "Akutt debut i subjektiv del, men planen legger opp til langvarig behandlingsforløp",
		flagged: func(ctx *ClinicalContext) bool {
			return acuteOnsetPattern.MatchString(ctx.Subjective) &&
				longTermPlanPattern.MatchString(ctx.Plan)
		},
	},
	{
		id:       "inflammation_vs_hvla",
		severity: WarningModerate,
		message:  "Objektive funn tyder på inflammasjon/akutte smerter, men planen inkluderer HVLA-manipulasjon",
		flagged: func(ctx *ClinicalContext) bool {
			return inflammationPattern.MatchString(ctx.Objective) &&
				hvlaPattern.MatchString(ctx.Plan)
		},
	},
	{
		id:       "neuro_findings_without_followup",
		severity: WarningHigh,
		message:  "Nevrologiske funn uten plan for nevrologisk oppfølging eller retesting",
		flagged: func(ctx *ClinicalContext) bool {
			return neuroFindingPattern.MatchString(ctx.Objective) &&
				!neuroFollowPattern.MatchString(ctx.Plan)
		},
	},
}

func evalLogicRule(rule logicRule, ctx *ClinicalContext) (flagged bool) {
	defer func() {
		if recover() != nil {
			flagged = false
		}
	}()
	return rule.flagged(ctx)
}

// PII heuristics: one advisory warning per pattern type matched, never per
// occurrence, never blocking. Long numeric sequences (e.g. diagnosis codes)
// are accepted false positives.
var piiPatterns = []struct {
	name    string
	message string
	re      *regexp.Regexp
}{
	{"possible_national_id", "Innholdet kan inneholde fødselsnummer (11 sifre)", regexp.MustCompile(`\d{11}`)},
	{"possible_phone_number", "Innholdet kan inneholde telefonnummer (8 sifre)", regexp.MustCompile(`\d{8}`)},
	{"possible_email", "Innholdet kan inneholde e-postadresse", regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)},
}

// ValidateContent runs the full content/quality validation: red-flag scan
// over content plus any SOAP sections in ctx, medical-logic consistency
// rules, medication, age-protocol and charted red-flag warnings, confidence
// scoring and PII heuristics. HIGH or CRITICAL risk blocks CanProceed even with zero hard
// errors. It never returns a Go error for clinical content, only the report.
func (s *Service) ValidateContent(content string, cctx *ClinicalContext) *ValidationReport {
	report := &ValidationReport{
		IsValid:     true,
		CanProceed:  true,
		CanSave:     true,
		RiskLevel:   RiskLow,
		Warnings:    []Warning{},
		Errors:      []string{},
		RedFlags:    []DetectedFlag{},
		Suggestions: []string{},
	}

	if strings.TrimSpace(content) == "" {
		report.IsValid = false
		report.CanProceed = false
		report.CanSave = false
		report.Errors = append(report.Errors, "content is required")
		return report
	}
	if cctx == nil {
		cctx = &ClinicalContext{}
	}

	corpus := strings.Join([]string{
		content, cctx.Subjective, cctx.Objective, cctx.Assessment, cctx.Plan,
	}, "\n")

	var pctx *PatientContext
	if cctx.Patient != nil {
		pctx = cctx.Patient
	}

	flags := s.scanner.Scan(corpus, pctx)
	for _, f := range flags {
		report.RedFlags = append(report.RedFlags, f)
		if f.Severity == SeverityCritical {
			report.Errors = append(report.Errors, "rød flagg ("+string(f.Category)+"): "+f.DescriptionNo)
		} else {
			report.Warnings = append(report.Warnings, Warning{
				Type:     "red_flag",
				Severity: string(f.Severity),
				Message:  f.DescriptionNo,
			})
		}
	}
	if len(flags) > 0 {
		report.HasRedFlags = true
		report.RequiresReview = true
	}

	// Risk level derives directly from flag severities on this entry point,
	// not from the numeric scorer.
	for _, f := range flags {
		switch f.Severity {
		case SeverityCritical:
			report.RiskLevel = RiskCritical
			report.CanProceed = false
		case SeverityHigh:
			if report.RiskLevel != RiskCritical {
				report.RiskLevel = RiskHigh
				report.CanProceed = false
			}
		case SeverityModerate:
			if report.RiskLevel != RiskCritical && report.RiskLevel != RiskHigh {
				report.RiskLevel = RiskModerate
			}
		}
	}

	if cctx.Subjective != "" && cctx.Plan != "" {
		for _, rule := range logicRules {
			if evalLogicRule(rule, cctx) {
				report.Warnings = append(report.Warnings, Warning{
					Type:     "medical_logic",
					Severity: rule.severity,
					Message:  rule.message,
				})
				if rule.severity == WarningHigh {
					report.RequiresReview = true
				}
			}
		}
	}

	confidence := ComputeConfidence(content, ConfidenceHints{
		HasSimilarCases:    cctx.SimilarCasesCount > 0,
		TemplateMatchScore: cctx.TemplateMatchScore,
	})
	// Risk caps confidence; it is only ever clamped down, never raised.
	switch report.RiskLevel {
	case RiskCritical:
		if confidence > 0.3 {
			confidence = 0.3
		}
	case RiskHigh:
		if confidence > 0.5 {
			confidence = 0.5
		}
	}
	report.Confidence = confidence

	if cctx.Patient != nil && len(cctx.Patient.CurrentMedications) > 0 {
		medWarnings := CheckMedications(cctx.Patient.CurrentMedications)
		if len(medWarnings) > 0 {
			report.Warnings = append(report.Warnings, medWarnings...)
			report.RequiresReview = true
		}
	}

	if cctx.Patient != nil && cctx.Patient.Age != nil {
		ageWarnings := CheckAgeRisks(*cctx.Patient.Age, content)
		report.Warnings = append(report.Warnings, ageWarnings...)
		for _, w := range ageWarnings {
			if w.Severity == WarningModerate {
				report.RequiresReview = true
			}
		}
	}

	if cctx.Patient != nil {
		for _, charted := range cctx.Patient.RedFlags {
			report.Warnings = append(report.Warnings, Warning{
				Type:     "patient_red_flag",
				Severity: WarningHigh,
				Message:  "Registrert rød flagg i pasientjournal: " + charted,
			})
			report.RequiresReview = true
		}
	}

	if confidence < 0.6 {
		report.Warnings = append(report.Warnings, Warning{
			Type:     "low_confidence",
			Severity: WarningModerate,
			Message:  "Lav tillit til innholdets kvalitet; manuell gjennomgang anbefales",
		})
		report.RequiresReview = true
	}

	for _, pii := range piiPatterns {
		if pii.re.MatchString(corpus) {
			report.Warnings = append(report.Warnings, Warning{
				Type:     pii.name,
				Severity: WarningModerate,
				Message:  pii.message,
			})
		}
	}

	report.IsValid = len(report.Errors) == 0
	if len(report.Errors) > 0 || report.RiskLevel == RiskCritical || report.RiskLevel == RiskHigh {
		report.CanProceed = false
	}
	return report
}
