package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-affairs-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

var userRowColumns = []string{"id", "external_id", "email", "full_name", "role", "roll_number", "department", "mentor_id", "active", "created_at", "updated_at"}

func TestFindByExternalID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(userRowColumns).
		AddRow("u1", "uid-1", "asha@campus.edu", "Asha", string(models.RoleStudent), "21CS001", "CSE", "m1", true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE external_id = $1 AND active = TRUE LIMIT 1")).
		WithArgs("uid-1").
		WillReturnRows(rows)

	user, err := repo.FindByExternalID(context.Background(), "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "asha@campus.edu", user.Email)
	require.NotNil(t, user.MentorID)
	assert.Equal(t, "m1", *user.MentorID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmailNormalises(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE LOWER(email) = $1")).
		WithArgs("mentor@campus.edu").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), " Mentor@Campus.edu ")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByRollNumber(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE roll_number = $1")).
		WithArgs("21CS001").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("u1", "uid-1", "asha@campus.edu", "Asha", string(models.RoleStudent), "21CS001", nil, nil, true, now, now))

	user, err := repo.FindByRollNumber(context.Background(), "21CS001")
	require.NoError(t, err)
	assert.Nil(t, user.MentorID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
