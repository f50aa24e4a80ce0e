package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleStudent  UserRole = "STUDENT"
	RoleMentor   UserRole = "MENTOR"
	RoleFaculty  UserRole = "FACULTY"
	RoleHOD      UserRole = "HOD"
	RoleSecurity UserRole = "SECURITY"
	RoleAdmin    UserRole = "ADMIN"
)

// User is an identity mirrored from the identity provider. ExternalID is the
// provider uid carried in access tokens.
type User struct {
	ID         string    `db:"id" json:"id"`
	ExternalID string    `db:"external_id" json:"external_id"`
	Email      string    `db:"email" json:"email"`
	FullName   string    `db:"full_name" json:"full_name"`
	Role       UserRole  `db:"role" json:"role"`
	RollNumber *string   `db:"roll_number" json:"roll_number,omitempty"`
	Department *string   `db:"department" json:"department,omitempty"`
	MentorID   *string   `db:"mentor_id" json:"mentor_id,omitempty"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// IsMentorOf reports whether u is the assigned mentor of student.
func (u *User) IsMentorOf(student *User) bool {
	if u == nil || student == nil || student.MentorID == nil {
		return false
	}
	return *student.MentorID == u.ID
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
