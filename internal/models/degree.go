package models

import "time"

// DegreeLevel distinguishes undergraduate from postgraduate programs. The
// credit-hour floor only binds postgraduate registrations.
type DegreeLevel string

const (
	DegreeLevelUndergraduate DegreeLevel = "UNDERGRADUATE"
	DegreeLevelPostgraduate  DegreeLevel = "POSTGRADUATE"
)

// Degree is the academic-records view of a program. CreditCeiling and
// CreditFloor are overrides; when nil the configured defaults apply.
type Degree struct {
	ID             string      `db:"id" json:"id"`
	Name           string      `db:"name" json:"name"`
	Level          DegreeLevel `db:"level" json:"level"`
	TotalSemesters int         `db:"total_semesters" json:"total_semesters"`
	TotalSections  int         `db:"total_sections" json:"total_sections"`
	CreditCeiling  *int        `db:"credit_ceiling" json:"credit_ceiling,omitempty"`
	CreditFloor    *int        `db:"credit_floor" json:"credit_floor,omitempty"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
}
