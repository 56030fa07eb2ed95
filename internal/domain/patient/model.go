package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patient table. The medication, red-flag and
// contraindication lists are charted by practitioners and feed the safety
// pipeline as structured context.
type Patient struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	FirstName          string     `db:"first_name" json:"first_name"`
	LastName           string     `db:"last_name" json:"last_name"`
	BirthDate          time.Time  `db:"birth_date" json:"birth_date"`
	Email              *string    `db:"email" json:"email,omitempty"`
	Phone              *string    `db:"phone" json:"phone,omitempty"`
	CurrentMedications []string   `db:"current_medications" json:"current_medications"`
	RedFlags           []string   `db:"red_flags" json:"red_flags"`
	Contraindications  []string   `db:"contraindications" json:"contraindications"`
	Status             string     `db:"status" json:"status"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// AgeAt returns the patient's age in whole years at the given time.
func (p *Patient) AgeAt(at time.Time) int {
	age := at.Year() - p.BirthDate.Year()
	if at.YearDay() < p.BirthDate.YearDay() {
		age--
	}
	if age < 0 {
		age = 0
	}
	return age
}

// Age returns the patient's current age in whole years.
func (p *Patient) Age() int {
	return p.AgeAt(time.Now())
}
