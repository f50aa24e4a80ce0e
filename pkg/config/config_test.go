package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LEAVE_OTP_DELIVERY", "")
	t.Setenv("ENROLLMENT_FREEZE_WINDOW", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.Leave.OTPTTL)
	assert.Equal(t, OTPDeliveryStudentEmail, cfg.Leave.OTPDelivery)
	assert.Equal(t, 2, cfg.Enrollment.MaxChanges)
	assert.Equal(t, 24*time.Hour, cfg.Enrollment.FreezeWindow)
	assert.True(t, cfg.Leave.EnabledDefault)
	assert.Equal(t, 12*time.Hour, cfg.Leave.PassLinkTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LEAVE_OTP_DELIVERY", "MENTOR_RESPONSE")
	t.Setenv("LEAVE_OTP_TTL", "90s")
	t.Setenv("LEAVE_PARENT_LINK_BASE_URL", "https://portal.example.edu/")
	t.Setenv("ENROLLMENT_MAX_CHANGES", "3")
	t.Setenv("PUBLIC_BASE_URL", "https://api.example.edu/api/v1/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, OTPDeliveryMentorResponse, cfg.Leave.OTPDelivery)
	assert.Equal(t, 90*time.Second, cfg.Leave.OTPTTL)
	assert.Equal(t, "https://portal.example.edu", cfg.Leave.ParentLinkBaseURL)
	assert.Equal(t, 3, cfg.Enrollment.MaxChanges)
	assert.Equal(t, "https://api.example.edu/api/v1", cfg.Leave.PublicBaseURL)
}

func TestLocationFallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, LeaveConfig{CampusTimezone: "Not/AZone"}.Location())
	assert.Equal(t, time.UTC, LeaveConfig{}.Location())
}

func TestSplitAndTrim(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a, ,b "))
	assert.Nil(t, splitAndTrim(""))
}
