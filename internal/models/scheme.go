package models

import (
	"time"

	"github.com/noah-isme/uni-enroll-api/internal/credit"
)

// Subject is one catalog entry inside a scheme semester. The parsed
// credit decomposition is stored alongside the raw notation so the
// notation invariant stays enforceable without re-parsing on reads.
type Subject struct {
	Code            string `db:"code" json:"code"`
	Title           string `db:"title" json:"title"`
	CreditNotation  string `db:"credit_notation" json:"credit_notation"`
	CreditTotal     int    `db:"credit_total" json:"credit_total"`
	CreditLecture   int    `db:"credit_lecture" json:"credit_lecture"`
	CreditPractical int    `db:"credit_practical" json:"credit_practical"`
}

// Credits returns the parsed credit-hour decomposition.
func (s Subject) Credits() credit.Hours {
	return credit.Hours{Total: s.CreditTotal, Lecture: s.CreditLecture, Practical: s.CreditPractical}
}

// SemesterPlan groups the subjects offered in one semester of a scheme.
// TotalCreditHours is derived from the subjects and never settable.
type SemesterPlan struct {
	SemesterNumber   int       `json:"semester_number"`
	Subjects         []Subject `json:"subjects"`
	TotalCreditHours int       `json:"total_credit_hours"`
}

// Scheme is the complete subject catalog for one degree in one admission
// session, keyed by (degree, session, name).
type Scheme struct {
	ID                 string         `db:"id" json:"id"`
	DegreeID           string         `db:"degree_id" json:"degree_id"`
	SessionLabel       string         `db:"session_label" json:"session_label"`
	Name               string         `db:"name" json:"name"`
	Active             bool           `db:"active" json:"active"`
	SemesterPlans      []SemesterPlan `json:"semester_plans"`
	TotalDegreeCredits int            `db:"total_degree_credits" json:"total_degree_credits"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// SemesterSubjects is the lookup result for one (degree, session,
// semester). Available=false means no active scheme matched, which is a
// legitimate empty result and not a fault.
type SemesterSubjects struct {
	Available        bool      `json:"available"`
	SemesterNumber   int       `json:"semester_number"`
	Subjects         []Subject `json:"subjects"`
	TotalCreditHours int       `json:"total_credit_hours"`
}
