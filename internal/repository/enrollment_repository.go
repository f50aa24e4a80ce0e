package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/student-affairs-api/internal/models"
	"github.com/noah-isme/student-affairs-api/pkg/database"
)

const enrollmentColumns = `id, student_id, section_id, course_id, enrollment_date, change_count, last_updated_date`

// EnrollmentGuard inspects the locked enrollment for the (student, course)
// pair, nil when none exists, and returns an error to abort the change.
type EnrollmentGuard func(current *models.Enrollment) error

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// EnrollOrChange locks the student's enrollment for the section's course, asks
// guard for a verdict and then inserts a new row or moves the existing one to
// section. The read, the verdict and the write share one transaction.
func (r *EnrollmentRepository) EnrollOrChange(ctx context.Context, studentID string, section models.Section, now time.Time, guard EnrollmentGuard) (*models.EnrollmentResult, error) {
	var result *models.EnrollmentResult
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var current models.Enrollment
		lockQuery := fmt.Sprintf("SELECT %s FROM enrollments WHERE student_id = $1 AND course_id = $2 FOR UPDATE", enrollmentColumns)
		err := tx.GetContext(ctx, &current, lockQuery, studentID, section.CourseID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if err := guard(nil); err != nil {
				return err
			}
			created := models.Enrollment{
				ID:             uuid.NewString(),
				StudentID:      studentID,
				SectionID:      section.ID,
				CourseID:       section.CourseID,
				EnrollmentDate: now,
			}
			const insertQuery = `INSERT INTO enrollments (id, student_id, section_id, course_id, enrollment_date, change_count, last_updated_date)
VALUES (:id, :student_id, :section_id, :course_id, :enrollment_date, :change_count, :last_updated_date)`
			if _, err := tx.NamedExecContext(ctx, insertQuery, created); err != nil {
				return fmt.Errorf("insert enrollment: %w", err)
			}
			result = &models.EnrollmentResult{Enrollment: created, Outcome: models.EnrollmentCreated}
			return nil
		case err != nil:
			return fmt.Errorf("lock enrollment: %w", err)
		}

		if err := guard(&current); err != nil {
			return err
		}
		previous := current.SectionID
		current.SectionID = section.ID
		current.ChangeCount++
		current.LastUpdatedDate = &now
		const updateQuery = `UPDATE enrollments SET section_id = $1, change_count = $2, last_updated_date = $3 WHERE id = $4`
		if _, err := tx.ExecContext(ctx, updateQuery, current.SectionID, current.ChangeCount, now, current.ID); err != nil {
			return fmt.Errorf("update enrollment: %w", err)
		}
		result = &models.EnrollmentResult{Enrollment: current, Outcome: models.EnrollmentChanged, PreviousSectionID: &previous}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListByStudent returns the student's enrollments with section names.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.section_id, e.course_id, e.enrollment_date, e.change_count, e.last_updated_date,
	sec.name AS section_name, sec.faculty_id, u.full_name AS student_name
FROM enrollments e
JOIN sections sec ON sec.id = e.section_id
JOIN users u ON u.id = e.student_id
WHERE e.student_id = $1
ORDER BY e.enrollment_date DESC`
	var items []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &items, query, studentID); err != nil {
		return nil, fmt.Errorf("list enrollments by student: %w", err)
	}
	return items, nil
}

// ListBySection returns the roster of a section.
func (r *EnrollmentRepository) ListBySection(ctx context.Context, sectionID string) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.section_id, e.course_id, e.enrollment_date, e.change_count, e.last_updated_date,
	sec.name AS section_name, sec.faculty_id, u.full_name AS student_name
FROM enrollments e
JOIN sections sec ON sec.id = e.section_id
JOIN users u ON u.id = e.student_id
WHERE e.section_id = $1
ORDER BY u.full_name ASC`
	var items []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &items, query, sectionID); err != nil {
		return nil, fmt.Errorf("list enrollments by section: %w", err)
	}
	return items, nil
}
