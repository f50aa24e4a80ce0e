package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/student-affairs-api/internal/models"
)

const userColumns = `id, external_id, email, full_name, role, roll_number, department, mentor_id, active, created_at, updated_at`

// UserRepository resolves identities mirrored from the identity provider.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByExternalID returns the active user carrying the provider uid.
func (r *UserRepository) FindByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	return r.findOne(ctx, "external_id = $1", externalID, "find user by external id")
}

// FindByEmail returns the active user with the given email, case-insensitively.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "LOWER(email) = $1", strings.ToLower(strings.TrimSpace(email)), "find user by email")
}

// FindByID returns a user by internal identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, "id = $1", id, "find user by id")
}

// FindByRollNumber returns the active student with the given roll number.
func (r *UserRepository) FindByRollNumber(ctx context.Context, rollNumber string) (*models.User, error) {
	return r.findOne(ctx, "roll_number = $1", strings.TrimSpace(rollNumber), "find user by roll number")
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg interface{}, op string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE %s AND active = TRUE LIMIT 1", userColumns, where)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}
