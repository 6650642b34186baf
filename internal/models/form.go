package models

import "time"

// FormStatus is the lifecycle of an enrollment form.
type FormStatus string

const (
	FormStatusSubmitted       FormStatus = "SUBMITTED"
	FormStatusTutorApproved   FormStatus = "TUTOR_APPROVED"
	FormStatusTutorRejected   FormStatus = "TUTOR_REJECTED"
	FormStatusManagerApproved FormStatus = "MANAGER_APPROVED"
	FormStatusManagerRejected FormStatus = "MANAGER_REJECTED"
)

// Terminal reports whether the form can no longer change.
func (s FormStatus) Terminal() bool {
	switch s {
	case FormStatusTutorRejected, FormStatusManagerApproved, FormStatusManagerRejected:
		return true
	}
	return false
}

// FormSubject is a subject attached to an enrollment form, either
// resolved from the scheme catalog or added ad hoc. The parsed credit
// triple is persisted next to the notation.
type FormSubject struct {
	Code            string `db:"code" json:"code"`
	Title           string `db:"title" json:"title"`
	CreditNotation  string `db:"credit_notation" json:"credit_notation"`
	CreditTotal     int    `db:"credit_total" json:"credit_total"`
	CreditLecture   int    `db:"credit_lecture" json:"credit_lecture"`
	CreditPractical int    `db:"credit_practical" json:"credit_practical"`
	AdHoc           bool   `db:"ad_hoc" json:"ad_hoc"`
}

// AdHocSubject is a caller-supplied extra subject not present in the
// scheme, carrying its own notation to be validated on addition.
type AdHocSubject struct {
	Code           string `json:"code" validate:"required"`
	Title          string `json:"title" validate:"required"`
	CreditNotation string `json:"credit_notation" validate:"required"`
}

// EnrollmentForm is the registration record flowing through the
// tutor/manager approval chain. TotalCreditHours is always the sum of
// the attached subjects' totals; FormNumber is assigned exactly once, on
// manager approval.
type EnrollmentForm struct {
	ID               string        `db:"id" json:"id"`
	FormNumber       *string       `db:"form_number" json:"form_number,omitempty"`
	StudentID        string        `db:"student_id" json:"student_id"`
	DegreeID         string        `db:"degree_id" json:"degree_id"`
	SessionLabel     string        `db:"session_label" json:"session_label"`
	SemesterNumber   int           `db:"semester_number" json:"semester_number"`
	Section          string        `db:"section" json:"section"`
	FeeVerificationID string       `db:"fee_verification_id" json:"fee_verification_id"`
	Subjects         []FormSubject `json:"subjects"`
	TotalCreditHours int           `db:"total_credit_hours" json:"total_credit_hours"`
	Status           FormStatus    `db:"status" json:"status"`
	StudentSignature *string       `db:"student_signature" json:"student_signature,omitempty"`
	TutorSignature   *string       `db:"tutor_signature" json:"tutor_signature,omitempty"`
	ManagerNotes     *string       `db:"manager_notes" json:"manager_notes,omitempty"`
	RejectionReason  *string       `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updated_at"`
}

// FormSummary is the console listing view of a form.
type FormSummary struct {
	ID               string     `db:"id" json:"id"`
	FormNumber       *string    `db:"form_number" json:"form_number,omitempty"`
	StudentID        string     `db:"student_id" json:"student_id"`
	StudentName      string     `db:"student_name" json:"student_name"`
	DegreeID         string     `db:"degree_id" json:"degree_id"`
	SessionLabel     string     `db:"session_label" json:"session_label"`
	SemesterNumber   int        `db:"semester_number" json:"semester_number"`
	Section          string     `db:"section" json:"section"`
	TotalCreditHours int        `db:"total_credit_hours" json:"total_credit_hours"`
	Status           FormStatus `db:"status" json:"status"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// FormFilter provides filters for listing forms.
type FormFilter struct {
	Status    FormStatus
	StudentID string
	DegreeID  string
	Page      int
	PageSize  int
}

// FormSnapshot is the finalized view handed to document generation: all
// resolved subjects with parsed hours, both sign-offs and the assigned
// form number.
type FormSnapshot struct {
	FormNumber       string        `json:"form_number"`
	StudentID        string        `json:"student_id"`
	DegreeID         string        `json:"degree_id"`
	SessionLabel     string        `json:"session_label"`
	SemesterNumber   int           `json:"semester_number"`
	Section          string        `json:"section"`
	Subjects         []FormSubject `json:"subjects"`
	TotalCreditHours int           `json:"total_credit_hours"`
	TutorSignature   string        `json:"tutor_signature"`
	ManagerNotes     string        `json:"manager_notes"`
	ApprovedAt       time.Time     `json:"approved_at"`
}
