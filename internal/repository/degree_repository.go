package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-enroll-api/internal/models"
)

// DegreeRepository reads the academic-records degree catalog. The
// enrollment workflow never mutates degrees.
type DegreeRepository struct {
	db *sqlx.DB
}

// NewDegreeRepository constructs the repository.
func NewDegreeRepository(db *sqlx.DB) *DegreeRepository {
	return &DegreeRepository{db: db}
}

// FindByID returns one degree.
func (r *DegreeRepository) FindByID(ctx context.Context, id string) (*models.Degree, error) {
	const query = `SELECT id, name, level, total_semesters, total_sections, credit_ceiling, credit_floor, created_at
        FROM degrees WHERE id = $1 LIMIT 1`
	var degree models.Degree
	if err := r.db.GetContext(ctx, &degree, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find degree by id: %w", err)
	}
	return &degree, nil
}
