package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecision(t *testing.T) {
	d, err := ParseDecision("approved")
	require.NoError(t, err)
	assert.Equal(t, DecisionApprove, d)

	d, err = ParseDecision(" REJECT ")
	require.NoError(t, err)
	assert.Equal(t, DecisionReject, d)

	_, err = ParseDecision("maybe")
	assert.Error(t, err)
}

func TestCoversDateIsInclusive(t *testing.T) {
	leave := LeaveRequest{
		FromDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		ToDate:   time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC),
	}
	assert.False(t, leave.CoversDate(time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)))
	assert.True(t, leave.CoversDate(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)))
	assert.True(t, leave.CoversDate(time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC)))
	assert.False(t, leave.CoversDate(time.Date(2024, 1, 13, 0, 0, 0, 0, time.UTC)))
}

func TestHasOutstandingOTP(t *testing.T) {
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	hash := "h"
	expires := now.Add(time.Minute)
	leave := LeaveRequest{ApprovalOTPHash: &hash, ApprovalOTPExpiresAt: &expires}

	assert.True(t, leave.HasOutstandingOTP(now))
	assert.False(t, leave.HasOutstandingOTP(expires))
	assert.False(t, (&LeaveRequest{}).HasOutstandingOTP(now))
}

func TestEnrollmentReferenceTime(t *testing.T) {
	enrolled := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	e := Enrollment{EnrollmentDate: enrolled}
	assert.Equal(t, enrolled, e.ReferenceTime())

	changed := enrolled.Add(48 * time.Hour)
	e.LastUpdatedDate = &changed
	assert.Equal(t, changed, e.ReferenceTime())
}
