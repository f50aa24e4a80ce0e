package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/student-affairs-api/internal/models"
	"github.com/noah-isme/student-affairs-api/pkg/clock"
	appErrors "github.com/noah-isme/student-affairs-api/pkg/errors"
	"github.com/noah-isme/student-affairs-api/pkg/export"
	"github.com/noah-isme/student-affairs-api/pkg/signedurl"
)

type leaveReader interface {
	GetByID(ctx context.Context, id string) (*models.LeaveRequest, error)
}

type passRenderer interface {
	Render(doc export.Document) ([]byte, error)
}

type linkSigner interface {
	Generate(subject, scope string) (string, time.Time, error)
	Parse(token string) (*signedurl.Claims, error)
}

const gatePassScope = "gate-pass"

// PassLink is a session-less download link for a gate pass.
type PassLink struct {
	URL       string    `json:"url"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LeavePassOption configures optional collaborators.
type LeavePassOption func(*LeavePassService)

// WithPassLinks enables signed download links rooted at baseURL.
func WithPassLinks(signer linkSigner, baseURL string) LeavePassOption {
	return func(s *LeavePassService) {
		s.signer = signer
		s.linkBase = strings.TrimRight(baseURL, "/")
	}
}

// WithPassClock overrides the time source used in the footer.
func WithPassClock(c clock.Clock) LeavePassOption {
	return func(s *LeavePassService) { s.clock = c }
}

// LeavePassService renders printable gate passes for approved leave.
type LeavePassService struct {
	leaves      leaveReader
	users       identityLookup
	renderer    passRenderer
	institution string
	clock       clock.Clock
	location    *time.Location
	signer      linkSigner
	linkBase    string
	logger      *zap.Logger
}

// NewLeavePassService constructs the service.
func NewLeavePassService(leaves leaveReader, users identityLookup, renderer passRenderer, institution string, location *time.Location, logger *zap.Logger, opts ...LeavePassOption) *LeavePassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	if institution == "" {
		institution = "Student Affairs"
	}
	svc := &LeavePassService{
		leaves:      leaves,
		users:       users,
		renderer:    renderer,
		institution: institution,
		clock:       clock.System{},
		location:    location,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// GatePass returns the PDF pass and a file name. Only the owning student and
// gate staff may download it, and only once both approvals are in.
func (s *LeavePassService) GatePass(ctx context.Context, leaveID string, actor *models.JWTClaims) ([]byte, string, error) {
	leave, student, err := s.authorize(ctx, leaveID, actor)
	if err != nil {
		return nil, "", err
	}
	s.logger.Debug("gate pass rendered", zap.String("leave_id", leave.ID), zap.String("actor", actor.UserID))
	return s.render(leave, student)
}

// ShareLink issues a signed link that serves the pass without a session, so it
// can be opened from an email or scanned at the gate.
func (s *LeavePassService) ShareLink(ctx context.Context, leaveID string, actor *models.JWTClaims) (*PassLink, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrFeatureDisabled, "gate pass links are not configured")
	}
	leave, _, err := s.authorize(ctx, leaveID, actor)
	if err != nil {
		return nil, err
	}
	tok, expiresAt, err := s.signer.Generate(leave.ID, gatePassScope)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to sign gate pass link")
	}
	return &PassLink{URL: s.linkBase + "/passes/" + tok, Token: tok, ExpiresAt: expiresAt}, nil
}

// GatePassByLink serves the pass behind a signed link. Approval is re-checked
// so a link outlives neither the approval nor its expiry.
func (s *LeavePassService) GatePassByLink(ctx context.Context, tok string) ([]byte, string, error) {
	if s.signer == nil {
		return nil, "", appErrors.ErrPassLinkInvalid
	}
	claims, err := s.signer.Parse(tok)
	if err != nil || claims.Scope != gatePassScope {
		return nil, "", appErrors.ErrPassLinkInvalid
	}
	leave, student, err := s.load(ctx, claims.Subject)
	if err != nil {
		return nil, "", err
	}
	if !leave.FullyApproved() {
		return nil, "", appErrors.Clone(appErrors.ErrConflict, "gate pass is available once the leave is fully approved")
	}
	return s.render(leave, student)
}

func (s *LeavePassService) authorize(ctx context.Context, leaveID string, actor *models.JWTClaims) (*models.LeaveRequest, *models.User, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	leave, student, err := s.load(ctx, leaveID)
	if err != nil {
		return nil, nil, err
	}
	switch actor.Role {
	case models.RoleSecurity, models.RoleAdmin:
	default:
		if student.ExternalID != actor.UserID {
			return nil, nil, appErrors.Clone(appErrors.ErrNotOwner, "gate pass belongs to another student")
		}
	}
	if !leave.FullyApproved() {
		return nil, nil, appErrors.Clone(appErrors.ErrConflict, "gate pass is available once the leave is fully approved")
	}
	return leave, student, nil
}

func (s *LeavePassService) load(ctx context.Context, leaveID string) (*models.LeaveRequest, *models.User, error) {
	leave, err := s.leaves.GetByID(ctx, leaveID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.ErrLeaveNotFound
		}
		return nil, nil, appErrors.Internal(err, "failed to load leave request")
	}
	student, err := s.users.FindByID(ctx, leave.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.ErrStudentNotFound
		}
		return nil, nil, appErrors.Internal(err, "failed to load student")
	}
	return leave, student, nil
}

func (s *LeavePassService) render(leave *models.LeaveRequest, student *models.User) ([]byte, string, error) {
	roll := "-"
	if student.RollNumber != nil {
		roll = *student.RollNumber
	}
	remarks := "-"
	if leave.MentorRemarks != nil {
		remarks = *leave.MentorRemarks
	}
	doc := export.Document{
		Title:    "Gate Pass",
		Subtitle: s.institution,
		Fields: []export.Field{
			{Label: "Pass No.", Value: leave.ID},
			{Label: "Student", Value: student.FullName},
			{Label: "Roll Number", Value: roll},
			{Label: "Leave Type", Value: leave.LeaveType},
			{Label: "From", Value: leave.FromDate.Format(models.DateLayout)},
			{Label: "To", Value: leave.ToDate.Format(models.DateLayout)},
			{Label: "Reason", Value: leave.Reason},
			{Label: "Parent", Value: string(leave.ParentStatus)},
			{Label: "Mentor", Value: string(leave.MentorStatus)},
			{Label: "Mentor Remarks", Value: remarks},
			{Label: "Gate Status", Value: string(leave.SecurityStatus)},
		},
		Footer: "Generated " + s.clock.Now().In(s.location).Format("2006-01-02 15:04 MST"),
	}
	pdf, err := s.renderer.Render(doc)
	if err != nil {
		return nil, "", appErrors.Internal(err, "failed to render gate pass")
	}
	return pdf, fmt.Sprintf("gate-pass-%s.pdf", leave.ID), nil
}
