package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/noah-isme/student-affairs-api/internal/models"
	"github.com/noah-isme/student-affairs-api/pkg/clock"
	appErrors "github.com/noah-isme/student-affairs-api/pkg/errors"
)

type gateRepository interface {
	GetByID(ctx context.Context, id string) (*models.LeaveRequest, error)
	FindActiveForStudent(ctx context.Context, studentID string, day time.Time) (*models.LeaveRequest, error)
	FindExitedForStudent(ctx context.Context, studentID string) (*models.LeaveRequest, error)
	MarkExited(ctx context.Context, id string, day, at time.Time) (*models.LeaveRequest, error)
	MarkReturned(ctx context.Context, id string, at time.Time) (*models.LeaveRequest, error)
}

type gateIdentityLookup interface {
	FindByExternalID(ctx context.Context, externalID string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByRollNumber(ctx context.Context, rollNumber string) (*models.User, error)
}

// SecurityGateOption configures optional collaborators.
type SecurityGateOption func(*SecurityGateService)

// WithGateAudit records scans in the audit log.
func WithGateAudit(audit auditLogger) SecurityGateOption {
	return func(s *SecurityGateService) { s.audit = audit }
}

// WithGateEvents publishes scans to the event bus.
func WithGateEvents(events eventPublisher) SecurityGateOption {
	return func(s *SecurityGateService) { s.events = events }
}

// WithGateMetrics counts scans.
func WithGateMetrics(metrics *MetricsService) SecurityGateOption {
	return func(s *SecurityGateService) { s.metrics = metrics }
}

// WithGateClock overrides the time source.
func WithGateClock(c clock.Clock) SecurityGateOption {
	return func(s *SecurityGateService) { s.clock = c }
}

// SecurityGateService records when students with approved leave leave and
// re-enter campus. "Today" is the calendar date on campus.
type SecurityGateService struct {
	repo     gateRepository
	users    gateIdentityLookup
	audit    auditLogger
	events   eventPublisher
	metrics  *MetricsService
	clock    clock.Clock
	location *time.Location
	tracer   trace.Tracer
	logger   *zap.Logger
}

// NewSecurityGateService constructs the gate service.
func NewSecurityGateService(repo gateRepository, users gateIdentityLookup, location *time.Location, logger *zap.Logger, opts ...SecurityGateOption) *SecurityGateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	svc := &SecurityGateService{
		repo:     repo,
		users:    users,
		clock:    clock.System{},
		location: location,
		tracer:   otel.Tracer("github.com/noah-isme/student-affairs-api/internal/service/security"),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// GetActiveLeaveForStudent returns the fully approved leave covering today for
// the student with rollNumber.
func (s *SecurityGateService) GetActiveLeaveForStudent(ctx context.Context, rollNumber string) (*models.LeaveDetail, error) {
	student, err := s.studentByRoll(ctx, rollNumber)
	if err != nil {
		return nil, err
	}
	leave, err := s.activeLeave(ctx, student)
	if err != nil {
		return nil, err
	}
	return leaveDetail(leave, student), nil
}

// RecordExit marks the student's active leave as EXITED.
func (s *SecurityGateService) RecordExit(ctx context.Context, rollNumber, guardUID string) (detail *models.LeaveDetail, err error) {
	ctx, span := s.tracer.Start(ctx, "security.record_exit", trace.WithAttributes(attribute.String("student.roll_number", rollNumber)))
	defer func() { endSpan(span, err) }()

	student, err := s.studentByRoll(ctx, rollNumber)
	if err != nil {
		return nil, err
	}
	leave, err := s.activeLeave(ctx, student)
	if err != nil {
		return nil, err
	}
	updated, err := s.exit(ctx, leave, guardUID)
	if err != nil {
		return nil, err
	}
	return leaveDetail(updated, student), nil
}

// RecordEntry marks the student's EXITED leave as RETURNED.
func (s *SecurityGateService) RecordEntry(ctx context.Context, rollNumber, guardUID string) (detail *models.LeaveDetail, err error) {
	ctx, span := s.tracer.Start(ctx, "security.record_entry", trace.WithAttributes(attribute.String("student.roll_number", rollNumber)))
	defer func() { endSpan(span, err) }()

	student, err := s.studentByRoll(ctx, rollNumber)
	if err != nil {
		return nil, err
	}
	leave, err := s.repo.FindExitedForStudent(ctx, student.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidSecurityTransition, "student has no recorded exit")
		}
		return nil, appErrors.Internal(err, "failed to load exited leave")
	}
	updated, err := s.enter(ctx, leave, guardUID)
	if err != nil {
		return nil, err
	}
	return leaveDetail(updated, student), nil
}

// RecordSecurityAction applies an EXIT or ENTRY scan to a specific leave.
func (s *SecurityGateService) RecordSecurityAction(ctx context.Context, leaveID, action, guardUID string) (leave *models.LeaveRequest, err error) {
	ctx, span := s.tracer.Start(ctx, "security.record_action", trace.WithAttributes(
		attribute.String("leave.id", leaveID),
		attribute.String("gate.action", action),
	))
	defer func() { endSpan(span, err) }()

	gateAction, err := models.ParseGateAction(action)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "action must be EXIT or ENTRY")
	}
	current, err := s.repo.GetByID(ctx, leaveID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrLeaveNotFound
		}
		return nil, appErrors.Internal(err, "failed to load leave request")
	}

	if gateAction == models.GateActionEntry {
		return s.enter(ctx, current, guardUID)
	}
	if !current.FullyApproved() || !current.CoversDate(s.today()) {
		return nil, appErrors.Clone(appErrors.ErrInvalidSecurityTransition, "leave is not approved for today")
	}
	return s.exit(ctx, current, guardUID)
}

func (s *SecurityGateService) exit(ctx context.Context, leave *models.LeaveRequest, guardUID string) (*models.LeaveRequest, error) {
	if leave.SecurityStatus != models.SecurityStatusNone {
		return nil, appErrors.Clone(appErrors.ErrInvalidSecurityTransition, "exit already recorded for this leave")
	}
	updated, err := s.repo.MarkExited(ctx, leave.ID, s.today(), s.clock.Now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidSecurityTransition, "exit already recorded for this leave")
		}
		return nil, appErrors.Internal(err, "failed to record exit")
	}
	s.recorded(ctx, updated, guardUID, models.GateActionExit)
	return updated, nil
}

func (s *SecurityGateService) enter(ctx context.Context, leave *models.LeaveRequest, guardUID string) (*models.LeaveRequest, error) {
	if leave.SecurityStatus != models.SecurityStatusExited {
		return nil, appErrors.Clone(appErrors.ErrInvalidSecurityTransition, "student has not exited on this leave")
	}
	updated, err := s.repo.MarkReturned(ctx, leave.ID, s.clock.Now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidSecurityTransition, "entry already recorded for this leave")
		}
		return nil, appErrors.Internal(err, "failed to record entry")
	}
	s.recorded(ctx, updated, guardUID, models.GateActionEntry)
	return updated, nil
}

func (s *SecurityGateService) recorded(ctx context.Context, leave *models.LeaveRequest, guardUID string, action models.GateAction) {
	auditAction, eventType := models.AuditActionGateExit, EventLeaveExited
	if action == models.GateActionEntry {
		auditAction, eventType = models.AuditActionGateEntry, EventLeaveReturned
	}
	recordAudit(ctx, s.audit, s.logger, s.guardID(ctx, guardUID), auditAction, "leave_request", leave.ID,
		nil, map[string]interface{}{"security_status": leave.SecurityStatus})
	if s.events != nil {
		s.events.Publish(ctx, eventType, leave.ID, map[string]interface{}{
			"student_id":      leave.StudentID,
			"security_status": leave.SecurityStatus,
		})
	}
	s.metrics.RecordGateEvent(string(action))
	s.logger.Info("gate scan recorded",
		zap.String("leave_id", leave.ID),
		zap.String("action", string(action)),
		zap.String("guard_uid", guardUID),
	)
}

// guardID resolves the scanning guard for the audit trail. Unknown guards are
// recorded without a user.
func (s *SecurityGateService) guardID(ctx context.Context, guardUID string) *string {
	if strings.TrimSpace(guardUID) == "" {
		return nil
	}
	guard, err := s.users.FindByExternalID(ctx, guardUID)
	if err != nil {
		return nil
	}
	return &guard.ID
}

func (s *SecurityGateService) activeLeave(ctx context.Context, student *models.User) (*models.LeaveRequest, error) {
	leave, err := s.repo.FindActiveForStudent(ctx, student.ID, s.today())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNoActiveLeave
		}
		return nil, appErrors.Internal(err, "failed to load active leave")
	}
	return leave, nil
}

func (s *SecurityGateService) studentByRoll(ctx context.Context, rollNumber string) (*models.User, error) {
	rollNumber = strings.TrimSpace(rollNumber)
	if rollNumber == "" {
		return nil, appErrors.ErrStudentNotFound
	}
	student, err := s.users.FindByRollNumber(ctx, rollNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrStudentNotFound
		}
		return nil, appErrors.Internal(err, "failed to load student")
	}
	return student, nil
}

func (s *SecurityGateService) today() time.Time {
	return clock.Today(s.clock, s.location)
}

func leaveDetail(leave *models.LeaveRequest, student *models.User) *models.LeaveDetail {
	return &models.LeaveDetail{
		LeaveRequest:      *leave,
		StudentName:       student.FullName,
		StudentEmail:      student.Email,
		StudentRollNumber: student.RollNumber,
	}
}
