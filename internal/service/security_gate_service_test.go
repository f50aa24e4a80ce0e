package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-affairs-api/internal/models"
	"github.com/noah-isme/student-affairs-api/pkg/clock"
	appErrors "github.com/noah-isme/student-affairs-api/pkg/errors"
)

type gateFixture struct {
	svc    *SecurityGateService
	repo   *memoryLeaveRepo
	audit  *auditRecorder
	events *eventRecorder
	clock  *clock.Manual
}

func newGateFixture(t *testing.T, now time.Time, location *time.Location) *gateFixture {
	t.Helper()
	student := &models.User{ID: "student-1", ExternalID: "uid-student", FullName: "Asha", Email: "asha@campus.edu",
		Role: models.RoleStudent, RollNumber: strRef("21CS001")}
	guard := &models.User{ID: "guard-1", ExternalID: "uid-guard", FullName: "Gate 1", Role: models.RoleSecurity}
	users := newUserDirectory(student, guard)
	repo := newMemoryLeaveRepo(users)
	audit := &auditRecorder{}
	events := &eventRecorder{}
	clk := clock.NewManual(now)
	svc := NewSecurityGateService(repo, users, location, nil,
		WithGateAudit(audit), WithGateEvents(events), WithGateMetrics(NewMetricsService()), WithGateClock(clk))
	return &gateFixture{svc: svc, repo: repo, audit: audit, events: events, clock: clk}
}

func approvedLeave(id, from, to string) models.LeaveRequest {
	fromDate, _ := time.Parse(models.DateLayout, from)
	toDate, _ := time.Parse(models.DateLayout, to)
	return models.LeaveRequest{
		ID:             id,
		StudentID:      "student-1",
		LeaveType:      "Personal",
		FromDate:       fromDate,
		ToDate:         toDate,
		ParentStatus:   models.ParentStatusApproved,
		MentorStatus:   models.MentorStatusApproved,
		SecurityStatus: models.SecurityStatusNone,
	}
}

func TestGateExitAndEntry(t *testing.T) {
	f := newGateFixture(t, time.Date(2024, 1, 11, 10, 0, 0, 0, time.UTC), time.UTC)
	f.repo.put(approvedLeave("leave-1", "2024-01-10", "2024-01-12"))
	ctx := context.Background()

	active, err := f.svc.GetActiveLeaveForStudent(ctx, "21CS001")
	require.NoError(t, err)
	assert.Equal(t, "leave-1", active.ID)
	assert.Equal(t, "Asha", active.StudentName)

	exited, err := f.svc.RecordExit(ctx, "21CS001", "uid-guard")
	require.NoError(t, err)
	assert.Equal(t, models.SecurityStatusExited, exited.SecurityStatus)
	require.NotNil(t, exited.ExitedAt)

	_, err = f.svc.RecordExit(ctx, "21CS001", "uid-guard")
	assert.ErrorIs(t, err, appErrors.ErrInvalidSecurityTransition)

	f.clock.Advance(30 * time.Hour)
	returned, err := f.svc.RecordEntry(ctx, "21CS001", "uid-guard")
	require.NoError(t, err)
	assert.Equal(t, models.SecurityStatusReturned, returned.SecurityStatus)

	_, err = f.svc.RecordEntry(ctx, "21CS001", "uid-guard")
	assert.ErrorIs(t, err, appErrors.ErrInvalidSecurityTransition)

	assert.Equal(t, []string{models.AuditActionGateExit, models.AuditActionGateEntry}, f.audit.actions())
	require.NotNil(t, f.audit.logs[0].UserID)
	assert.Equal(t, "guard-1", *f.audit.logs[0].UserID)
	assert.Equal(t, []string{EventLeaveExited, EventLeaveReturned}, f.events.types)
}

func TestGateEntryWithoutExit(t *testing.T) {
	f := newGateFixture(t, time.Date(2024, 1, 11, 10, 0, 0, 0, time.UTC), time.UTC)
	f.repo.put(approvedLeave("leave-1", "2024-01-10", "2024-01-12"))

	_, err := f.svc.RecordEntry(context.Background(), "21CS001", "uid-guard")
	assert.ErrorIs(t, err, appErrors.ErrInvalidSecurityTransition)
	_, err = f.svc.RecordSecurityAction(context.Background(), "leave-1", "ENTRY", "uid-guard")
	assert.ErrorIs(t, err, appErrors.ErrInvalidSecurityTransition)
}

func TestGateNoActiveLeave(t *testing.T) {
	f := newGateFixture(t, time.Date(2024, 1, 13, 10, 0, 0, 0, time.UTC), time.UTC)
	f.repo.put(approvedLeave("leave-1", "2024-01-10", "2024-01-12"))
	pending := approvedLeave("leave-2", "2024-01-13", "2024-01-14")
	pending.MentorStatus = models.MentorStatusPending
	f.repo.put(pending)
	ctx := context.Background()

	_, err := f.svc.GetActiveLeaveForStudent(ctx, "21CS001")
	assert.ErrorIs(t, err, appErrors.ErrNoActiveLeave)
	_, err = f.svc.RecordExit(ctx, "21CS001", "uid-guard")
	assert.ErrorIs(t, err, appErrors.ErrNoActiveLeave)
	_, err = f.svc.GetActiveLeaveForStudent(ctx, "99XX999")
	assert.ErrorIs(t, err, appErrors.ErrStudentNotFound)
}

func TestGatePrefersLeaveNotYetReturned(t *testing.T) {
	f := newGateFixture(t, time.Date(2024, 1, 11, 10, 0, 0, 0, time.UTC), time.UTC)
	done := approvedLeave("leave-done", "2024-01-11", "2024-01-11")
	done.SecurityStatus = models.SecurityStatusReturned
	f.repo.put(done)
	f.repo.put(approvedLeave("leave-open", "2024-01-09", "2024-01-12"))

	active, err := f.svc.GetActiveLeaveForStudent(context.Background(), "21CS001")
	require.NoError(t, err)
	assert.Equal(t, "leave-open", active.ID)
}

func TestGateUsesCampusDate(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	// 20:00 UTC on the 12th is already the 13th on campus.
	f := newGateFixture(t, time.Date(2024, 1, 12, 20, 0, 0, 0, time.UTC), ist)
	f.repo.put(approvedLeave("leave-1", "2024-01-10", "2024-01-12"))

	_, err := f.svc.GetActiveLeaveForStudent(context.Background(), "21CS001")
	assert.ErrorIs(t, err, appErrors.ErrNoActiveLeave)
}

func TestRecordSecurityActionByLeaveID(t *testing.T) {
	f := newGateFixture(t, time.Date(2024, 1, 11, 10, 0, 0, 0, time.UTC), time.UTC)
	f.repo.put(approvedLeave("leave-1", "2024-01-10", "2024-01-12"))
	f.repo.put(approvedLeave("leave-future", "2024-02-01", "2024-02-02"))
	ctx := context.Background()

	_, err := f.svc.RecordSecurityAction(ctx, "leave-1", "teleport", "uid-guard")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	_, err = f.svc.RecordSecurityAction(ctx, "missing", "EXIT", "uid-guard")
	assert.ErrorIs(t, err, appErrors.ErrLeaveNotFound)
	_, err = f.svc.RecordSecurityAction(ctx, "leave-future", "EXIT", "uid-guard")
	assert.ErrorIs(t, err, appErrors.ErrInvalidSecurityTransition)

	exited, err := f.svc.RecordSecurityAction(ctx, "leave-1", "exit", "")
	require.NoError(t, err)
	assert.Equal(t, models.SecurityStatusExited, exited.SecurityStatus)
	assert.Nil(t, f.audit.logs[0].UserID)

	returned, err := f.svc.RecordSecurityAction(ctx, "leave-1", "ENTRY", "uid-guard")
	require.NoError(t, err)
	assert.Equal(t, models.SecurityStatusReturned, returned.SecurityStatus)
}
