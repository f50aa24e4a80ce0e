package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-affairs-api/internal/models"
	"github.com/noah-isme/student-affairs-api/pkg/clock"
	appErrors "github.com/noah-isme/student-affairs-api/pkg/errors"
	"github.com/noah-isme/student-affairs-api/pkg/export"
	"github.com/noah-isme/student-affairs-api/pkg/signedurl"
)

type failingRenderer struct{}

func (failingRenderer) Render(doc export.Document) ([]byte, error) {
	return nil, errors.New("font missing")
}

func newPassFixture(t *testing.T) (*LeavePassService, *memoryLeaveRepo) {
	t.Helper()
	student := &models.User{ID: "student-1", ExternalID: "uid-student", FullName: "Asha", Role: models.RoleStudent, RollNumber: strRef("21CS001")}
	users := newUserDirectory(student)
	repo := newMemoryLeaveRepo(users)
	return NewLeavePassService(repo, users, export.NewPDFExporter(), "Campus Institute", nil, nil), repo
}

func TestGatePassAccess(t *testing.T) {
	svc, repo := newPassFixture(t)
	leave := approvedLeave("leave-1", "2024-01-10", "2024-01-12")
	leave.MentorRemarks = strRef("Travel safe")
	repo.put(leave)
	ctx := context.Background()

	pdf, name, err := svc.GatePass(ctx, "leave-1", &models.JWTClaims{UserID: "uid-student", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, "gate-pass-leave-1.pdf", name)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	_, _, err = svc.GatePass(ctx, "leave-1", &models.JWTClaims{UserID: "uid-guard", Role: models.RoleSecurity})
	require.NoError(t, err)

	_, _, err = svc.GatePass(ctx, "leave-1", &models.JWTClaims{UserID: "uid-other", Role: models.RoleStudent})
	assert.ErrorIs(t, err, appErrors.ErrNotOwner)

	_, _, err = svc.GatePass(ctx, "leave-1", nil)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	_, _, err = svc.GatePass(ctx, "missing", &models.JWTClaims{UserID: "uid-student", Role: models.RoleStudent})
	assert.ErrorIs(t, err, appErrors.ErrLeaveNotFound)
}

func TestGatePassRequiresFullApproval(t *testing.T) {
	svc, repo := newPassFixture(t)
	pending := approvedLeave("leave-2", "2024-01-10", "2024-01-12")
	pending.MentorStatus = models.MentorStatusPending
	repo.put(pending)

	_, _, err := svc.GatePass(context.Background(), "leave-2", &models.JWTClaims{UserID: "uid-student", Role: models.RoleStudent})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestGatePassRenderFailure(t *testing.T) {
	student := &models.User{ID: "student-1", ExternalID: "uid-student", Role: models.RoleStudent}
	users := newUserDirectory(student)
	repo := newMemoryLeaveRepo(users)
	repo.put(approvedLeave("leave-1", "2024-01-10", "2024-01-12"))
	svc := NewLeavePassService(repo, users, failingRenderer{}, "", nil, nil)

	_, _, err := svc.GatePass(context.Background(), "leave-1", &models.JWTClaims{UserID: "uid-student", Role: models.RoleStudent})
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestGatePassShareLink(t *testing.T) {
	student := &models.User{ID: "student-1", ExternalID: "uid-student", FullName: "Asha", Role: models.RoleStudent}
	users := newUserDirectory(student)
	repo := newMemoryLeaveRepo(users)
	repo.put(approvedLeave("leave-1", "2024-01-10", "2024-01-12"))
	clk := clock.NewManual(time.Date(2024, 1, 9, 12, 0, 0, 0, time.UTC))
	signer := signedurl.New("pass-secret", 2*time.Hour, clk)
	svc := NewLeavePassService(repo, users, export.NewPDFExporter(), "Campus", nil, nil,
		WithPassLinks(signer, "https://api.campus.edu/api/v1/"), WithPassClock(clk))
	ctx := context.Background()
	owner := &models.JWTClaims{UserID: "uid-student", Role: models.RoleStudent}

	link, err := svc.ShareLink(ctx, "leave-1", owner)
	require.NoError(t, err)
	assert.Equal(t, "https://api.campus.edu/api/v1/passes/"+link.Token, link.URL)

	pdf, name, err := svc.GatePassByLink(ctx, link.Token)
	require.NoError(t, err)
	assert.Equal(t, "gate-pass-leave-1.pdf", name)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	_, err = svc.ShareLink(ctx, "leave-1", &models.JWTClaims{UserID: "uid-other", Role: models.RoleStudent})
	assert.ErrorIs(t, err, appErrors.ErrNotOwner)

	_, _, err = svc.GatePassByLink(ctx, link.Token+"x")
	assert.ErrorIs(t, err, appErrors.ErrPassLinkInvalid)

	clk.Advance(2 * time.Hour)
	_, _, err = svc.GatePassByLink(ctx, link.Token)
	assert.ErrorIs(t, err, appErrors.ErrPassLinkInvalid)

	unsigned := NewLeavePassService(repo, users, export.NewPDFExporter(), "", nil, nil)
	_, err = unsigned.ShareLink(ctx, "leave-1", owner)
	assert.ErrorIs(t, err, appErrors.ErrFeatureDisabled)
}
