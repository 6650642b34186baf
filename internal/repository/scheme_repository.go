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

// SchemeRepository handles persistence of degree schemes and their
// per-semester subject tables.
type SchemeRepository struct {
	db *sqlx.DB
}

// NewSchemeRepository constructs the repository.
func NewSchemeRepository(db *sqlx.DB) *SchemeRepository {
	return &SchemeRepository{db: db}
}

type schemeSubjectRow struct {
	SchemeID        string `db:"scheme_id"`
	SemesterNumber  int    `db:"semester_no"`
	Code            string `db:"code"`
	Title           string `db:"title"`
	CreditNotation  string `db:"credit_notation"`
	CreditTotal     int    `db:"credit_total"`
	CreditLecture   int    `db:"credit_lecture"`
	CreditPractical int    `db:"credit_practical"`
}

// ExistsByKey reports whether a scheme with the given natural key exists.
func (r *SchemeRepository) ExistsByKey(ctx context.Context, degreeID, sessionLabel, name string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM schemes WHERE degree_id = $1 AND session_label = $2 AND name = $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, degreeID, sessionLabel, name); err != nil {
		return false, fmt.Errorf("scheme exists by key: %w", err)
	}
	return exists, nil
}

// Create stores the scheme header and all subject rows in one transaction.
func (r *SchemeRepository) Create(ctx context.Context, scheme *models.Scheme) error {
	if scheme.ID == "" {
		scheme.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	scheme.CreatedAt = now
	scheme.UpdatedAt = now
	scheme.Active = true

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const header = `INSERT INTO schemes (id, degree_id, session_label, name, active, total_degree_credits, created_at, updated_at)
        VALUES (:id, :degree_id, :session_label, :name, :active, :total_degree_credits, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, header, scheme); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("insert scheme: %w", err)
	}
	if err := insertSchemeSubjects(ctx, tx, scheme); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit scheme: %w", err)
	}
	return nil
}

// ReplacePlans swaps the full subject table of a scheme. The delete and
// reinsert happen in one transaction so readers never observe a
// partially-updated scheme.
func (r *SchemeRepository) ReplacePlans(ctx context.Context, scheme *models.Scheme) error {
	scheme.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const header = `UPDATE schemes SET total_degree_credits = :total_degree_credits, updated_at = :updated_at WHERE id = :id`
	res, err := tx.NamedExecContext(ctx, header, scheme)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("update scheme: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		tx.Rollback() //nolint:errcheck
		return sql.ErrNoRows
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM scheme_subjects WHERE scheme_id = $1`, scheme.ID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear scheme subjects: %w", err)
	}
	if err := insertSchemeSubjects(ctx, tx, scheme); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit scheme update: %w", err)
	}
	return nil
}

func insertSchemeSubjects(ctx context.Context, tx *sqlx.Tx, scheme *models.Scheme) error {
	const query = `INSERT INTO scheme_subjects (scheme_id, semester_no, code, title, credit_notation, credit_total, credit_lecture, credit_practical)
        VALUES (:scheme_id, :semester_no, :code, :title, :credit_notation, :credit_total, :credit_lecture, :credit_practical)`
	for _, plan := range scheme.SemesterPlans {
		for _, subject := range plan.Subjects {
			row := schemeSubjectRow{
				SchemeID:        scheme.ID,
				SemesterNumber:  plan.SemesterNumber,
				Code:            subject.Code,
				Title:           subject.Title,
				CreditNotation:  subject.CreditNotation,
				CreditTotal:     subject.CreditTotal,
				CreditLecture:   subject.CreditLecture,
				CreditPractical: subject.CreditPractical,
			}
			if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
				return fmt.Errorf("insert scheme subject %s: %w", subject.Code, err)
			}
		}
	}
	return nil
}

// FindByID loads a scheme header with its semester plans.
func (r *SchemeRepository) FindByID(ctx context.Context, id string) (*models.Scheme, error) {
	const query = `SELECT id, degree_id, session_label, name, active, total_degree_credits, created_at, updated_at
        FROM schemes WHERE id = $1 LIMIT 1`
	var scheme models.Scheme
	if err := r.db.GetContext(ctx, &scheme, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find scheme by id: %w", err)
	}
	plans, err := r.loadPlans(ctx, id)
	if err != nil {
		return nil, err
	}
	scheme.SemesterPlans = plans
	return &scheme, nil
}

func (r *SchemeRepository) loadPlans(ctx context.Context, schemeID string) ([]models.SemesterPlan, error) {
	const query = `SELECT scheme_id, semester_no, code, title, credit_notation, credit_total, credit_lecture, credit_practical
        FROM scheme_subjects WHERE scheme_id = $1 ORDER BY semester_no, code`
	var rows []schemeSubjectRow
	if err := r.db.SelectContext(ctx, &rows, query, schemeID); err != nil {
		return nil, fmt.Errorf("load scheme subjects: %w", err)
	}
	var plans []models.SemesterPlan
	for _, row := range rows {
		if len(plans) == 0 || plans[len(plans)-1].SemesterNumber != row.SemesterNumber {
			plans = append(plans, models.SemesterPlan{SemesterNumber: row.SemesterNumber})
		}
		plan := &plans[len(plans)-1]
		plan.Subjects = append(plan.Subjects, models.Subject{
			Code:            row.Code,
			Title:           row.Title,
			CreditNotation:  row.CreditNotation,
			CreditTotal:     row.CreditTotal,
			CreditLecture:   row.CreditLecture,
			CreditPractical: row.CreditPractical,
		})
		plan.TotalCreditHours += row.CreditTotal
	}
	return plans, nil
}

// FindSemesterSubjects returns the subject list for one semester of the
// active scheme matching (degree, session). sql.ErrNoRows means no active
// scheme matched.
func (r *SchemeRepository) FindSemesterSubjects(ctx context.Context, degreeID, sessionLabel string, semester int) ([]models.Subject, error) {
	const schemeQuery = `SELECT id FROM schemes WHERE degree_id = $1 AND session_label = $2 AND active = TRUE
        ORDER BY created_at DESC LIMIT 1`
	var schemeID string
	if err := r.db.GetContext(ctx, &schemeID, schemeQuery, degreeID, sessionLabel); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find active scheme: %w", err)
	}
	const query = `SELECT scheme_id, semester_no, code, title, credit_notation, credit_total, credit_lecture, credit_practical
        FROM scheme_subjects WHERE scheme_id = $1 AND semester_no = $2 ORDER BY code`
	var rows []schemeSubjectRow
	if err := r.db.SelectContext(ctx, &rows, query, schemeID, semester); err != nil {
		return nil, fmt.Errorf("load semester subjects: %w", err)
	}
	subjects := make([]models.Subject, 0, len(rows))
	for _, row := range rows {
		subjects = append(subjects, models.Subject{
			Code:            row.Code,
			Title:           row.Title,
			CreditNotation:  row.CreditNotation,
			CreditTotal:     row.CreditTotal,
			CreditLecture:   row.CreditLecture,
			CreditPractical: row.CreditPractical,
		})
	}
	return subjects, nil
}

// SetActive toggles soft deactivation of a scheme.
func (r *SchemeRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE schemes SET active = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, active, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set scheme active: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountFormReferences counts enrollment forms that reference a scheme's
// degree and session. A referenced scheme may only be deactivated.
func (r *SchemeRepository) CountFormReferences(ctx context.Context, degreeID, sessionLabel string) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollment_forms WHERE degree_id = $1 AND session_label = $2`
	var total int
	if err := r.db.GetContext(ctx, &total, query, degreeID, sessionLabel); err != nil {
		return 0, fmt.Errorf("count form references: %w", err)
	}
	return total, nil
}
