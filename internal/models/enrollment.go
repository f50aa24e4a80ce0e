package models

import "time"

// Section is an offering of a course taught by one faculty member.
type Section struct {
	ID        string `db:"id" json:"id"`
	CourseID  string `db:"course_id" json:"course_id"`
	FacultyID string `db:"faculty_id" json:"faculty_id"`
	Name      string `db:"name" json:"name"`
	Semester  int    `db:"semester" json:"semester"`
	Year      int    `db:"year" json:"year"`
}

// Enrollment is a student's active section for a course. CourseID is copied
// from the section so the (student_id, course_id) pair can be unique.
type Enrollment struct {
	ID              string     `db:"id" json:"id"`
	StudentID       string     `db:"student_id" json:"student_id"`
	SectionID       string     `db:"section_id" json:"section_id"`
	CourseID        string     `db:"course_id" json:"course_id"`
	EnrollmentDate  time.Time  `db:"enrollment_date" json:"enrollment_date"`
	ChangeCount     int        `db:"change_count" json:"change_count"`
	LastUpdatedDate *time.Time `db:"last_updated_date" json:"last_updated_date,omitempty"`
}

// ReferenceTime is the instant the freeze window is measured from.
func (e *Enrollment) ReferenceTime() time.Time {
	if e.LastUpdatedDate != nil {
		return *e.LastUpdatedDate
	}
	return e.EnrollmentDate
}

// EnrollmentDetail enriches Enrollment with section and student info.
type EnrollmentDetail struct {
	Enrollment
	SectionName string `db:"section_name" json:"section_name"`
	FacultyID   string `db:"faculty_id" json:"faculty_id"`
	StudentName string `db:"student_name" json:"student_name"`
}

// EnrollmentOutcome says what an enroll call did.
type EnrollmentOutcome string

const (
	EnrollmentCreated EnrollmentOutcome = "CREATED"
	EnrollmentChanged EnrollmentOutcome = "CHANGED"
)

// EnrollmentResult is returned from a successful enroll call.
type EnrollmentResult struct {
	Enrollment        Enrollment        `json:"enrollment"`
	Outcome           EnrollmentOutcome `json:"outcome"`
	PreviousSectionID *string           `json:"previous_section_id,omitempty"`
	ChangesRemaining  int               `json:"changes_remaining"`
}
