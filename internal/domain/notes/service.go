package notes

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/klinikk/klinikk/internal/domain/safety"
)

var validNoteStatuses = map[string]bool{
	"draft": true, "final": true, "amended": true,
}

// PatientContextSource supplies the structured patient fields the safety
// pipeline consults. Implemented by the patient service; nil disables the
// patient-context checks.
type PatientContextSource interface {
	ClinicalContext(ctx context.Context, patientID uuid.UUID) (*safety.PatientContext, error)
}

// Service runs the SOAP validator on every create/update and refuses to
// persist a note the validator blocked. The validation report is always
// returned to the caller, which owns audit logging of the risk fields.
type Service struct {
	repo      NoteRepository
	validator *Validator
	patients  PatientContextSource
	logger    zerolog.Logger
}

func NewService(repo NoteRepository, validator *Validator, patients PatientContextSource, logger zerolog.Logger) *Service {
	return &Service{repo: repo, validator: validator, patients: patients, logger: logger}
}

// Validate runs the SOAP validation without persisting anything.
func (s *Service) Validate(ctx context.Context, data map[string]interface{}, encounterType string, patientID uuid.UUID) (*safety.ValidationReport, error) {
	cctx, err := s.clinicalContext(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return s.validator.Validate(data, encounterType, cctx), nil
}

// Create validates and persists a new note. A blocked report (CanSave=false)
// is returned with a nil note and nothing is stored.
func (s *Service) Create(ctx context.Context, n *Note) (*safety.ValidationReport, error) {
	if n.PatientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}
	if n.EncounterType == "" {
		n.EncounterType = EncounterSOAP
	}
	if n.Status == "" {
		n.Status = "draft"
	}
	if !validNoteStatuses[n.Status] {
		return nil, fmt.Errorf("invalid note status: %s", n.Status)
	}

	cctx, err := s.clinicalContext(ctx, n.PatientID)
	if err != nil {
		return nil, err
	}
	report := s.validator.Validate(n.Data, n.EncounterType, cctx)
	s.logOutcome(n.PatientID, report)
	if !report.CanSave {
		return report, nil
	}

	n.Data = NormalizeSOAPData(n.Data)
	n.CompletenessScore = report.CompletenessScore
	n.RiskLevel = report.RiskLevel
	n.FlagCount = len(report.RedFlags)
	if err := s.repo.Create(ctx, n); err != nil {
		return report, fmt.Errorf("create note: %w", err)
	}
	return report, nil
}

// Update re-validates the full payload and persists only if the validator
// allows saving.
func (s *Service) Update(ctx context.Context, n *Note) (*safety.ValidationReport, error) {
	existing, err := s.repo.GetByID(ctx, n.ID)
	if err != nil {
		return nil, err
	}
	if n.EncounterType == "" {
		n.EncounterType = existing.EncounterType
	}
	if n.Status == "" {
		n.Status = existing.Status
	}
	if !validNoteStatuses[n.Status] {
		return nil, fmt.Errorf("invalid note status: %s", n.Status)
	}
	n.PatientID = existing.PatientID

	cctx, err := s.clinicalContext(ctx, n.PatientID)
	if err != nil {
		return nil, err
	}
	report := s.validator.Validate(n.Data, n.EncounterType, cctx)
	s.logOutcome(n.PatientID, report)
	if !report.CanSave {
		return report, nil
	}

	n.Data = NormalizeSOAPData(n.Data)
	n.CompletenessScore = report.CompletenessScore
	n.RiskLevel = report.RiskLevel
	n.FlagCount = len(report.RedFlags)
	if err := s.repo.Update(ctx, n); err != nil {
		return report, fmt.Errorf("update note: %w", err)
	}
	return report, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Note, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Note, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Note, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) clinicalContext(ctx context.Context, patientID uuid.UUID) (*safety.ClinicalContext, error) {
	if s.patients == nil || patientID == uuid.Nil {
		return &safety.ClinicalContext{}, nil
	}
	pctx, err := s.patients.ClinicalContext(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("load patient context: %w", err)
	}
	return &safety.ClinicalContext{Patient: pctx}, nil
}

func (s *Service) logOutcome(patientID uuid.UUID, report *safety.ValidationReport) {
	s.logger.Info().
		Str("patient_id", patientID.String()).
		Str("risk_level", string(report.RiskLevel)).
		Int("flag_count", len(report.RedFlags)).
		Int("completeness", report.CompletenessScore).
		Bool("can_save", report.CanSave).
		Msg("soap note evaluated")
}
