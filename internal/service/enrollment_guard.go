package service

import (
	"fmt"
	"math"
	"time"

	"github.com/noah-isme/student-affairs-api/internal/models"
	appErrors "github.com/noah-isme/student-affairs-api/pkg/errors"
)

// Enrollment policy defaults.
const (
	DefaultMaxSectionChanges = 2
	DefaultFreezeWindow      = 24 * time.Hour
)

// EnrollmentPolicy bounds how often and how quickly a student may move
// between sections of the same course.
type EnrollmentPolicy struct {
	MaxChanges   int
	FreezeWindow time.Duration
}

// NewEnrollmentPolicy fills unset fields with the defaults.
func NewEnrollmentPolicy(maxChanges int, freezeWindow time.Duration) EnrollmentPolicy {
	if maxChanges <= 0 {
		maxChanges = DefaultMaxSectionChanges
	}
	if freezeWindow <= 0 {
		freezeWindow = DefaultFreezeWindow
	}
	return EnrollmentPolicy{MaxChanges: maxChanges, FreezeWindow: freezeWindow}
}

// Check decides whether the student may take sectionID given the current
// enrollment for that course, nil when there is none.
func (p EnrollmentPolicy) Check(current *models.Enrollment, sectionID string, now time.Time) error {
	if current == nil {
		return nil
	}
	if current.SectionID == sectionID {
		return appErrors.ErrAlreadyEnrolled
	}
	if current.ChangeCount >= p.MaxChanges {
		return appErrors.WithDetails(appErrors.ErrChangeLimitExceeded,
			fmt.Sprintf("maximum of %d section changes reached", p.MaxChanges),
			map[string]interface{}{"max_changes": p.MaxChanges, "change_count": current.ChangeCount})
	}
	unfreezeAt := current.ReferenceTime().Add(p.FreezeWindow)
	if now.Before(unfreezeAt) {
		hours := WaitHours(unfreezeAt.Sub(now))
		return appErrors.WithDetails(appErrors.ErrChangeFrozen,
			fmt.Sprintf("section changes are frozen, please wait %d hour(s)", hours),
			map[string]interface{}{"wait_hours": hours, "retry_after": unfreezeAt.UTC().Format(time.RFC3339)})
	}
	return nil
}

// Remaining returns how many changes are left after changeCount.
func (p EnrollmentPolicy) Remaining(changeCount int) int {
	if left := p.MaxChanges - changeCount; left > 0 {
		return left
	}
	return 0
}

// WaitHours rounds a remaining freeze up to whole hours, never below one.
func WaitHours(remaining time.Duration) int {
	hours := int(math.Ceil(remaining.Hours()))
	if hours < 1 {
		return 1
	}
	return hours
}
