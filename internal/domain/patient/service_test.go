package patient

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockPatientRepo struct {
	data map[uuid.UUID]*Patient
}

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	m.data[p.ID] = p
	return nil
}
func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	if p, ok := m.data[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("not found")
}
func (m *mockPatientRepo) Update(_ context.Context, p *Patient) error {
	if _, ok := m.data[p.ID]; !ok {
		return fmt.Errorf("not found")
	}
	m.data[p.ID] = p
	return nil
}
func (m *mockPatientRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.data, id)
	return nil
}
func (m *mockPatientRepo) List(_ context.Context, limit, offset int) ([]*Patient, int, error) {
	var out []*Patient
	for _, p := range m.data {
		out = append(out, p)
	}
	return out, len(out), nil
}

func newTestService() *Service {
	return NewService(&mockPatientRepo{data: make(map[uuid.UUID]*Patient)})
}

func validPatient() *Patient {
	return &Patient{
		FirstName: "Kari",
		LastName:  "Nordmann",
		BirthDate: time.Date(1980, 3, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestService_Create(t *testing.T) {
	svc := newTestService()
	p := validPatient()
	if err := svc.Create(nil, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == uuid.Nil {
		t.Error("expected ID to be set")
	}
	if p.Status != "active" {
		t.Errorf("expected default status active, got %s", p.Status)
	}
}

func TestService_Create_MissingFirstName(t *testing.T) {
	svc := newTestService()
	p := validPatient()
	p.FirstName = ""
	if err := svc.Create(nil, p); err == nil {
		t.Error("expected error for missing first_name")
	}
}

func TestService_Create_MissingBirthDate(t *testing.T) {
	svc := newTestService()
	p := validPatient()
	p.BirthDate = time.Time{}
	if err := svc.Create(nil, p); err == nil {
		t.Error("expected error for missing birth_date")
	}
}

func TestService_Create_InvalidStatus(t *testing.T) {
	svc := newTestService()
	p := validPatient()
	p.Status = "deceased"
	if err := svc.Create(nil, p); err == nil {
		t.Error("expected error for invalid status")
	}
}

func TestService_Update_InvalidStatus(t *testing.T) {
	svc := newTestService()
	p := validPatient()
	svc.Create(nil, p)
	p.Status = "unknown"
	if err := svc.Update(nil, p); err == nil {
		t.Error("expected error for invalid status")
	}
}

func TestService_ClinicalContext(t *testing.T) {
	svc := newTestService()
	p := validPatient()
	p.CurrentMedications = []string{"Marevan"}
	p.RedFlags = []string{"tidligere malignitet"}
	if err := svc.Create(nil, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pctx, err := svc.ClinicalContext(nil, p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pctx.Age == nil || *pctx.Age != p.Age() {
		t.Errorf("expected age %d, got %v", p.Age(), pctx.Age)
	}
	if len(pctx.CurrentMedications) != 1 || pctx.CurrentMedications[0] != "Marevan" {
		t.Errorf("expected medications to carry over, got %v", pctx.CurrentMedications)
	}
	if len(pctx.RedFlags) != 1 {
		t.Errorf("expected red flags to carry over, got %v", pctx.RedFlags)
	}
}

func TestService_ClinicalContext_NotFound(t *testing.T) {
	svc := newTestService()
	if _, err := svc.ClinicalContext(nil, uuid.New()); err == nil {
		t.Error("expected error for unknown patient")
	}
}

func TestPatient_AgeAt(t *testing.T) {
	p := &Patient{BirthDate: time.Date(1950, 6, 1, 0, 0, 0, 0, time.UTC)}

	if got := p.AgeAt(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)); got != 75 {
		t.Errorf("expected 75 on birthday, got %d", got)
	}
	if got := p.AgeAt(time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC)); got != 74 {
		t.Errorf("expected 74 the day before, got %d", got)
	}
}
