package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-affairs-api/internal/models"
	appErrors "github.com/noah-isme/student-affairs-api/pkg/errors"
)

var enrollmentRowColumns = []string{"id", "student_id", "section_id", "course_id", "enrollment_date", "change_count", "last_updated_date"}

const lockEnrollmentQuery = "FROM enrollments WHERE student_id = $1 AND course_id = $2 FOR UPDATE"

func TestEnrollOrChangeInsertsWhenMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockEnrollmentQuery)).
		WithArgs("stu-1", "course-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	seen := &models.Enrollment{}
	res, err := repo.EnrollOrChange(context.Background(), "stu-1", models.Section{ID: "sec-a", CourseID: "course-1"}, now,
		func(current *models.Enrollment) error {
			seen = current
			return nil
		})
	require.NoError(t, err)
	assert.Nil(t, seen)
	assert.Equal(t, models.EnrollmentCreated, res.Outcome)
	assert.Equal(t, 0, res.Enrollment.ChangeCount)
	assert.Equal(t, "course-1", res.Enrollment.CourseID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollOrChangeMovesSection(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)
	enrolled := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	now := enrolled.Add(48 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockEnrollmentQuery)).
		WithArgs("stu-1", "course-1").
		WillReturnRows(sqlmock.NewRows(enrollmentRowColumns).AddRow("enr-1", "stu-1", "sec-a", "course-1", enrolled, 1, nil))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET section_id = $1, change_count = $2, last_updated_date = $3 WHERE id = $4")).
		WithArgs("sec-b", 2, now, "enr-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := repo.EnrollOrChange(context.Background(), "stu-1", models.Section{ID: "sec-b", CourseID: "course-1"}, now,
		func(current *models.Enrollment) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentChanged, res.Outcome)
	require.NotNil(t, res.PreviousSectionID)
	assert.Equal(t, "sec-a", *res.PreviousSectionID)
	assert.Equal(t, 2, res.Enrollment.ChangeCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollOrChangeRollsBackOnGuardError(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)
	enrolled := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockEnrollmentQuery)).
		WillReturnRows(sqlmock.NewRows(enrollmentRowColumns).AddRow("enr-1", "stu-1", "sec-a", "course-1", enrolled, 2, nil))
	mock.ExpectRollback()

	_, err := repo.EnrollOrChange(context.Background(), "stu-1", models.Section{ID: "sec-b", CourseID: "course-1"}, enrolled,
		func(current *models.Enrollment) error { return appErrors.ErrChangeLimitExceeded })
	assert.ErrorIs(t, err, appErrors.ErrChangeLimitExceeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollOrChangeSurfacesUniqueViolation(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockEnrollmentQuery)).WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	_, err := repo.EnrollOrChange(context.Background(), "stu-1", models.Section{ID: "sec-a", CourseID: "course-1"}, time.Now(),
		func(current *models.Enrollment) error { return nil })
	var pqErr *pq.Error
	require.ErrorAs(t, err, &pqErr)
	assert.Equal(t, pq.ErrorCode("23505"), pqErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionGetByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, course_id, faculty_id, name, semester, year FROM sections WHERE id = $1")).
		WithArgs("sec-a").
		WillReturnRows(sqlmock.NewRows([]string{"id", "course_id", "faculty_id", "name", "semester", "year"}).
			AddRow("sec-a", "course-1", "fac-1", "A", 3, 2024))

	section, err := repo.GetByID(context.Background(), "sec-a")
	require.NoError(t, err)
	assert.Equal(t, "course-1", section.CourseID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.AuditLog{Action: models.AuditActionGateExit, Resource: "leave_request"}
	require.NoError(t, repo.CreateAuditLog(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
