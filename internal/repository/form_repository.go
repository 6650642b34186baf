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

// FormRepository handles persistence of enrollment forms and their
// attached subjects.
type FormRepository struct {
	db *sqlx.DB
}

// NewFormRepository constructs the repository.
func NewFormRepository(db *sqlx.DB) *FormRepository {
	return &FormRepository{db: db}
}

type formSubjectRow struct {
	FormID string `db:"form_id"`
	models.FormSubject
}

// Create inserts a new form in SUBMITTED state with no subjects yet.
func (r *FormRepository) Create(ctx context.Context, form *models.EnrollmentForm) error {
	if form.ID == "" {
		form.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	form.CreatedAt = now
	form.UpdatedAt = now
	const query = `INSERT INTO enrollment_forms (id, form_number, student_id, degree_id, session_label, semester_number, section,
        fee_verification_id, total_credit_hours, status, student_signature, tutor_signature, manager_notes, rejection_reason, created_at, updated_at)
        VALUES (:id, :form_number, :student_id, :degree_id, :session_label, :semester_number, :section,
        :fee_verification_id, :total_credit_hours, :status, :student_signature, :tutor_signature, :manager_notes, :rejection_reason, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, form); err != nil {
		return fmt.Errorf("insert enrollment form: %w", err)
	}
	return nil
}

// FindByID loads a form with its subjects.
func (r *FormRepository) FindByID(ctx context.Context, id string) (*models.EnrollmentForm, error) {
	const query = `SELECT id, form_number, student_id, degree_id, session_label, semester_number, section,
        fee_verification_id, total_credit_hours, status, student_signature, tutor_signature, manager_notes, rejection_reason, created_at, updated_at
        FROM enrollment_forms WHERE id = $1 LIMIT 1`
	var form models.EnrollmentForm
	if err := r.db.GetContext(ctx, &form, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find form by id: %w", err)
	}
	subjects, err := r.loadSubjects(ctx, id)
	if err != nil {
		return nil, err
	}
	form.Subjects = subjects
	return &form, nil
}

func (r *FormRepository) loadSubjects(ctx context.Context, formID string) ([]models.FormSubject, error) {
	const query = `SELECT form_id, code, title, credit_notation, credit_total, credit_lecture, credit_practical, ad_hoc
        FROM form_subjects WHERE form_id = $1 ORDER BY ad_hoc, code`
	var rows []formSubjectRow
	if err := r.db.SelectContext(ctx, &rows, query, formID); err != nil {
		return nil, fmt.Errorf("load form subjects: %w", err)
	}
	subjects := make([]models.FormSubject, 0, len(rows))
	for _, row := range rows {
		subjects = append(subjects, row.FormSubject)
	}
	return subjects, nil
}

// ExistsOpen reports whether a non-terminal form exists for the student
// in the given (degree, session, semester).
func (r *FormRepository) ExistsOpen(ctx context.Context, studentID, degreeID, sessionLabel string, semester int) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM enrollment_forms
        WHERE student_id = $1 AND degree_id = $2 AND session_label = $3 AND semester_number = $4
        AND status IN ($5, $6))`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, studentID, degreeID, sessionLabel, semester,
		models.FormStatusSubmitted, models.FormStatusTutorApproved)
	if err != nil {
		return false, fmt.Errorf("form exists open: %w", err)
	}
	return exists, nil
}

// ReplaceSubjects swaps the form's subject rows and stores the recomputed
// total in one transaction.
func (r *FormRepository) ReplaceSubjects(ctx context.Context, formID string, subjects []models.FormSubject, totalCreditHours int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM form_subjects WHERE form_id = $1`, formID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear form subjects: %w", err)
	}
	const insert = `INSERT INTO form_subjects (form_id, code, title, credit_notation, credit_total, credit_lecture, credit_practical, ad_hoc)
        VALUES (:form_id, :code, :title, :credit_notation, :credit_total, :credit_lecture, :credit_practical, :ad_hoc)`
	for _, subject := range subjects {
		row := formSubjectRow{FormID: formID, FormSubject: subject}
		if _, err := tx.NamedExecContext(ctx, insert, row); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert form subject %s: %w", subject.Code, err)
		}
	}
	const update = `UPDATE enrollment_forms SET total_credit_hours = $2, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, update, formID, totalCreditHours, time.Now().UTC()); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("update form total: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit form subjects: %w", err)
	}
	return nil
}

// UpdateStatus records a workflow transition together with the field the
// transition writes (signature, notes or rejection reason).
func (r *FormRepository) UpdateStatus(ctx context.Context, form *models.EnrollmentForm) error {
	form.UpdatedAt = time.Now().UTC()
	const query = `UPDATE enrollment_forms SET status = :status, form_number = :form_number, student_signature = :student_signature, tutor_signature = :tutor_signature,
        manager_notes = :manager_notes, rejection_reason = :rejection_reason, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, form)
	if err != nil {
		return fmt.Errorf("update form status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns form summaries matching the filter.
func (r *FormRepository) List(ctx context.Context, filter models.FormFilter) ([]models.FormSummary, int, error) {
	base := `FROM enrollment_forms f LEFT JOIN users u ON u.id = f.student_id`
	query := `SELECT f.id, f.form_number, f.student_id, COALESCE(u.full_name, '') AS student_name, f.degree_id,
        f.session_label, f.semester_number, f.section, f.total_credit_hours, f.status, f.updated_at ` + base + ` WHERE 1=1`
	countQuery := `SELECT COUNT(*) ` + base + ` WHERE 1=1`
	var args []interface{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		cond := fmt.Sprintf(" AND f.status = $%d", len(args))
		query += cond
		countQuery += cond
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		cond := fmt.Sprintf(" AND f.student_id = $%d", len(args))
		query += cond
		countQuery += cond
	}
	if filter.DegreeID != "" {
		args = append(args, filter.DegreeID)
		cond := fmt.Sprintf(" AND f.degree_id = $%d", len(args))
		query += cond
		countQuery += cond
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	query += fmt.Sprintf(" ORDER BY f.updated_at DESC LIMIT %d OFFSET %d", size, (page-1)*size)

	var summaries []models.FormSummary
	if err := r.db.SelectContext(ctx, &summaries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list forms: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count forms: %w", err)
	}
	return summaries, total, nil
}
