package safety

import "github.com/rs/zerolog"

// Service is the clinical safety pipeline entry point. All methods are pure
// over in-memory inputs and the immutable registry; concurrent calls are
// independent and need no synchronization.
type Service struct {
	registry *Registry
	scanner  *Scanner
	logger   zerolog.Logger
}

func NewService(registry *Registry, logger zerolog.Logger) *Service {
	return &Service{
		registry: registry,
		scanner:  NewScanner(registry),
		logger:   logger,
	}
}

// Registry exposes the injected rule registry (read-only).
func (s *Service) Registry() *Registry { return s.registry }

// Scanner exposes the scanner for callers that orchestrate their own
// validation (the SOAP note validator).
func (s *Service) Scanner() *Scanner { return s.scanner }

// ScanForRedFlags evaluates the full rule set against free text.
func (s *Service) ScanForRedFlags(text string, pctx *PatientContext) []DetectedFlag {
	flags := s.scanner.Scan(text, pctx)
	if len(flags) > 0 {
		s.logger.Info().
			Int("flag_count", len(flags)).
			Str("highest_severity", string(flags[0].Severity)).
			Msg("red flags detected")
	}
	return flags
}

// CalculateRiskScore aggregates flags into a single risk assessment.
func (s *Service) CalculateRiskScore(flags []DetectedFlag, pctx *PatientContext) RiskAssessment {
	return Score(flags, pctx)
}
