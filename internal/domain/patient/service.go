package patient

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/klinikk/klinikk/internal/domain/safety"
)

var validStatuses = map[string]bool{
	"active": true, "inactive": true, "archived": true,
}

type Service struct {
	repo PatientRepository
}

func NewService(repo PatientRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, p *Patient) error {
	if p.FirstName == "" {
		return fmt.Errorf("first_name is required")
	}
	if p.LastName == "" {
		return fmt.Errorf("last_name is required")
	}
	if p.BirthDate.IsZero() {
		return fmt.Errorf("birth_date is required")
	}
	if p.Status == "" {
		p.Status = "active"
	}
	if !validStatuses[p.Status] {
		return fmt.Errorf("invalid status: %s", p.Status)
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *Patient) error {
	if p.Status != "" && !validStatuses[p.Status] {
		return fmt.Errorf("invalid status: %s", p.Status)
	}
	return s.repo.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// ClinicalContext builds the structured safety-pipeline context for a
// patient. Implements notes.PatientContextSource.
func (s *Service) ClinicalContext(ctx context.Context, patientID uuid.UUID) (*safety.PatientContext, error) {
	p, err := s.repo.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	age := p.Age()
	return &safety.PatientContext{
		Age:                &age,
		CurrentMedications: p.CurrentMedications,
		RedFlags:           p.RedFlags,
		Contraindications:  p.Contraindications,
	}, nil
}
