package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-enroll-api/internal/models"
)

// FeeRepository handles persistence of fee verification submissions.
type FeeRepository struct {
	db *sqlx.DB
}

// NewFeeRepository constructs the repository.
func NewFeeRepository(db *sqlx.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

// Create inserts a new submission.
func (r *FeeRepository) Create(ctx context.Context, fee *models.FeeVerification) error {
	if fee.ID == "" {
		fee.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	fee.CreatedAt = now
	fee.UpdatedAt = now
	const query = `INSERT INTO fee_verifications (id, student_id, semester_paid_for, amount, voucher_ref, status, message, created_at, updated_at)
        VALUES (:id, :student_id, :semester_paid_for, :amount, :voucher_ref, :status, :message, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, fee); err != nil {
		return fmt.Errorf("insert fee verification: %w", err)
	}
	return nil
}

// FindByID returns one submission.
func (r *FeeRepository) FindByID(ctx context.Context, id string) (*models.FeeVerification, error) {
	const query = `SELECT id, student_id, semester_paid_for, amount, voucher_ref, status, message, created_at, updated_at
        FROM fee_verifications WHERE id = $1 LIMIT 1`
	var fee models.FeeVerification
	if err := r.db.GetContext(ctx, &fee, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find fee verification: %w", err)
	}
	return &fee, nil
}

// ExistsActive reports whether the student has a non-terminal submission
// for the given semester.
func (r *FeeRepository) ExistsActive(ctx context.Context, studentID string, semester int) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM fee_verifications
        WHERE student_id = $1 AND semester_paid_for = $2 AND status IN ($3, $4))`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, studentID, semester, models.FeeStatusPending, models.FeeStatusProcessing); err != nil {
		return false, fmt.Errorf("fee exists active: %w", err)
	}
	return exists, nil
}

// ExistsApproved reports whether the student holds an approved
// verification for the given semester.
func (r *FeeRepository) ExistsApproved(ctx context.Context, studentID string, semester int) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM fee_verifications
        WHERE student_id = $1 AND semester_paid_for = $2 AND status = $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, studentID, semester, models.FeeStatusApproved); err != nil {
		return false, fmt.Errorf("fee exists approved: %w", err)
	}
	return exists, nil
}

// FindApproved returns the approved verification for (student, semester).
func (r *FeeRepository) FindApproved(ctx context.Context, studentID string, semester int) (*models.FeeVerification, error) {
	const query = `SELECT id, student_id, semester_paid_for, amount, voucher_ref, status, message, created_at, updated_at
        FROM fee_verifications WHERE student_id = $1 AND semester_paid_for = $2 AND status = $3
        ORDER BY updated_at DESC LIMIT 1`
	var fee models.FeeVerification
	if err := r.db.GetContext(ctx, &fee, query, studentID, semester, models.FeeStatusApproved); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find approved fee verification: %w", err)
	}
	return &fee, nil
}

// UpdateStatus stores the outcome of an office decision.
func (r *FeeRepository) UpdateStatus(ctx context.Context, id string, status models.FeeStatus, message string) error {
	const query = `UPDATE fee_verifications SET status = $2, message = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, message, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update fee status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
