package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/student-affairs-api/internal/models"
)

// SectionRepository reads course sections.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// GetByID returns a section by identifier.
func (r *SectionRepository) GetByID(ctx context.Context, id string) (*models.Section, error) {
	const query = `SELECT id, course_id, faculty_id, name, semester, year FROM sections WHERE id = $1`
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get section: %w", err)
	}
	return &section, nil
}
