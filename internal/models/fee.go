package models

import "time"

// FeeStatus is the lifecycle of a fee verification submission.
type FeeStatus string

const (
	FeeStatusPending    FeeStatus = "PENDING"
	FeeStatusProcessing FeeStatus = "PROCESSING"
	FeeStatusApproved   FeeStatus = "APPROVED"
	FeeStatusRejected   FeeStatus = "REJECTED"
)

// Terminal reports whether no further transition is permitted.
func (s FeeStatus) Terminal() bool {
	return s == FeeStatusApproved || s == FeeStatusRejected
}

// FeeVerification records one payment submission under office review.
// Approval is the only mechanism that unlocks enrollment for the paid
// semester.
type FeeVerification struct {
	ID              string    `db:"id" json:"id"`
	StudentID       string    `db:"student_id" json:"student_id"`
	SemesterPaidFor int       `db:"semester_paid_for" json:"semester_paid_for"`
	Amount          int64     `db:"amount" json:"amount"`
	VoucherRef      string    `db:"voucher_ref" json:"voucher_ref"`
	Status          FeeStatus `db:"status" json:"status"`
	Message         string    `db:"message" json:"message"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
