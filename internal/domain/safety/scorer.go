package safety

// Severity base scores used by Score.
const (
	scoreCritical = 100.0
	scoreHigh     = 70.0
	scoreModerate = 40.0
	scoreLow      = 20.0
)

func severityScore(s Severity) float64 {
	switch s {
	case SeverityCritical:
		return scoreCritical
	case SeverityHigh:
		return scoreHigh
	case SeverityModerate:
		return scoreModerate
	default:
		return scoreLow
	}
}

// Score aggregates detected flags into a numeric score (0-100) and a risk
// level. A single CRITICAL flag forces level CRITICAL regardless of the
// numeric score, and any HIGH flag forces at least HIGH.
func Score(flags []DetectedFlag, pctx *PatientContext) RiskAssessment {
	if len(flags) == 0 {
		return RiskAssessment{
			Score:          0,
			Level:          RiskLow,
			Recommendation: RecommendProceed,
		}
	}

	total := 0.0
	hasCritical := false
	hasHigh := false
	highest := flags[0].Severity
	for _, f := range flags {
		mult := f.RiskMultiplier
		if mult == 0 {
			mult = 1.0
		}
		total += severityScore(f.Severity) * mult
		switch f.Severity {
		case SeverityCritical:
			hasCritical = true
		case SeverityHigh:
			hasHigh = true
		}
		if f.Severity.Rank() < highest.Rank() {
			highest = f.Severity
		}
	}

	if pctx != nil && pctx.Age != nil {
		if *pctx.Age < 18 || *pctx.Age > 75 {
			total *= 1.2
		}
	}
	if len(flags) > 1 {
		total *= 1 + float64(len(flags)-1)*0.1
	}
	if total > 100 {
		total = 100
	}
	if total < 0 {
		total = 0
	}

	assessment := RiskAssessment{
		Score:           total,
		FlagCount:       len(flags),
		HighestSeverity: highest,
	}
	switch {
	case total >= 80 || hasCritical:
		assessment.Level = RiskCritical
		assessment.Recommendation = RecommendImmediateReferral
	case total >= 50 || hasHigh:
		assessment.Level = RiskHigh
		assessment.Recommendation = RecommendUrgentEvaluation
	case total >= 25:
		assessment.Level = RiskModerate
		assessment.Recommendation = RecommendProceedWithCaution
	default:
		assessment.Level = RiskLow
		assessment.Recommendation = RecommendProceed
	}
	return assessment
}
