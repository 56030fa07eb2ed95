package notes

import (
	"time"

	"github.com/google/uuid"

	"github.com/klinikk/klinikk/internal/domain/safety"
)

// Encounter types with distinct validation profiles. Unknown types fall back
// to the SOAP default profile.
const (
	EncounterInitial    = "INITIAL"
	EncounterFollowUp   = "FOLLOW_UP"
	EncounterSOAP       = "SOAP"
	EncounterVestibular = "VESTIBULAR"
)

// Note maps to the soap_note table. Data holds the normalized SOAP sections
// as jsonb; the risk fields are a snapshot of the validation outcome at save
// time so the audit trail can be reconstructed without re-running the
// pipeline.
type Note struct {
	ID                uuid.UUID              `db:"id" json:"id"`
	PatientID         uuid.UUID              `db:"patient_id" json:"patient_id"`
	EncounterType     string                 `db:"encounter_type" json:"encounter_type"`
	Data              map[string]interface{} `db:"data" json:"data"`
	CompletenessScore int                    `db:"completeness_score" json:"completeness_score"`
	RiskLevel         safety.RiskLevel       `db:"risk_level" json:"risk_level"`
	FlagCount         int                    `db:"flag_count" json:"flag_count"`
	Status            string                 `db:"status" json:"status"`
	CreatedBy         *uuid.UUID             `db:"created_by" json:"created_by,omitempty"`
	CreatedAt         time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time              `db:"updated_at" json:"updated_at"`
}
