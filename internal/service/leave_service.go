package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"html"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/noah-isme/student-affairs-api/internal/dto"
	"github.com/noah-isme/student-affairs-api/internal/models"
	"github.com/noah-isme/student-affairs-api/pkg/clock"
	"github.com/noah-isme/student-affairs-api/pkg/config"
	appErrors "github.com/noah-isme/student-affairs-api/pkg/errors"
)

type leaveRepository interface {
	Create(ctx context.Context, leave *models.LeaveRequest) error
	GetByID(ctx context.Context, id string) (*models.LeaveRequest, error)
	GetByToken(ctx context.Context, token string) (*models.LeaveRequest, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.LeaveRequest, error)
	ListForMentor(ctx context.Context, mentorID string) ([]models.LeaveDetail, error)
	ApplyParentDecision(ctx context.Context, id, token string, status models.ParentStatus, decidedAt time.Time) (*models.LeaveRequest, error)
	ApplyMentorDecision(ctx context.Context, decision models.MentorDecision) (*models.LeaveRequest, error)
	StoreOTP(ctx context.Context, id, hash string, expiresAt, now time.Time) error
	UpdateDetails(ctx context.Context, id, studentID string, update models.LeaveUpdate, now time.Time) (*models.LeaveRequest, error)
	Delete(ctx context.Context, id, studentID string) error
}

type identityLookup interface {
	FindByExternalID(ctx context.Context, externalID string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type featureGate interface {
	Require(ctx context.Context, key string) error
}

type tokenIssuer interface {
	NewActionToken() string
	NewOTP() (code string, hash string, err error)
	VerifyOTP(hash, code string) bool
}

type eventPublisher interface {
	Publish(ctx context.Context, eventType, subject string, data map[string]interface{})
}

// Leave event types.
const (
	EventLeaveApplied       = "leave.applied"
	EventLeaveParentDecided = "leave.parent_decided"
	EventLeaveMentorDecided = "leave.mentor_decided"
	EventLeaveExited        = "leave.exited"
	EventLeaveReturned      = "leave.returned"
	EventEnrollmentChanged  = "enrollment.changed"
)

// LeaveServiceConfig tunes the leave workflow.
type LeaveServiceConfig struct {
	ParentLinkBaseURL string
	OTPTTL            time.Duration
	OTPDelivery       string
}

// LeaveServiceOption configures optional collaborators.
type LeaveServiceOption func(*LeaveService)

// WithLeaveAudit records transitions in the audit log.
func WithLeaveAudit(audit auditLogger) LeaveServiceOption {
	return func(s *LeaveService) { s.audit = audit }
}

// WithLeaveEvents publishes transitions to the event bus.
func WithLeaveEvents(events eventPublisher) LeaveServiceOption {
	return func(s *LeaveService) { s.events = events }
}

// WithLeaveMetrics counts transitions.
func WithLeaveMetrics(metrics *MetricsService) LeaveServiceOption {
	return func(s *LeaveService) { s.metrics = metrics }
}

// WithLeaveClock overrides the time source.
func WithLeaveClock(c clock.Clock) LeaveServiceOption {
	return func(s *LeaveService) { s.clock = c }
}

// LeaveService drives the leave request state machine: parent approval through
// an emailed token, mentor approval directly or with an approval code.
type LeaveService struct {
	repo      leaveRepository
	users     identityLookup
	flags     featureGate
	tokens    tokenIssuer
	notifier  NotificationPort
	audit     auditLogger
	events    eventPublisher
	metrics   *MetricsService
	clock     clock.Clock
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	tracer    trace.Tracer
	logger    *zap.Logger
	cfg       LeaveServiceConfig
}

// NewLeaveService constructs the leave workflow.
func NewLeaveService(repo leaveRepository, users identityLookup, flags featureGate, tokens tokenIssuer, notifier NotificationPort, validate *validator.Validate, logger *zap.Logger, cfg LeaveServiceConfig, opts ...LeaveServiceOption) *LeaveService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = 5 * time.Minute
	}
	if cfg.OTPDelivery == "" {
		cfg.OTPDelivery = config.OTPDeliveryStudentEmail
	}
	cfg.ParentLinkBaseURL = strings.TrimRight(cfg.ParentLinkBaseURL, "/")
	svc := &LeaveService{
		repo:      repo,
		users:     users,
		flags:     flags,
		tokens:    tokens,
		notifier:  notifier,
		clock:     clock.System{},
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		tracer:    otel.Tracer("github.com/noah-isme/student-affairs-api/internal/service/leave"),
		logger:    logger,
		cfg:       cfg,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Apply files a new leave request and emails the parent an approval link.
func (s *LeaveService) Apply(ctx context.Context, studentUID string, req dto.ApplyLeaveRequest) (leave *models.LeaveRequest, err error) {
	ctx, span := s.tracer.Start(ctx, "leave.apply", trace.WithAttributes(attribute.String("student.uid", studentUID)))
	defer func() { endSpan(span, err) }()

	if err := s.flags.Require(ctx, models.FeatureLeave); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leave payload")
	}
	from, to, err := parseLeaveDates(req.FromDate, req.ToDate)
	if err != nil {
		return nil, err
	}
	reason := s.sanitize(req.Reason)
	if reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "reason is required")
	}

	student, err := s.requireStudent(ctx, studentUID)
	if err != nil {
		return nil, err
	}

	token := s.tokens.NewActionToken()
	leave = &models.LeaveRequest{
		StudentID:         student.ID,
		LeaveType:         s.sanitize(req.LeaveType),
		FromDate:          from,
		ToDate:            to,
		Reason:            reason,
		ParentEmail:       strings.ToLower(strings.TrimSpace(req.ParentEmail)),
		ParentActionToken: &token,
		CreatedAt:         s.clock.Now(),
	}
	if err := s.repo.Create(ctx, leave); err != nil {
		return nil, appErrors.Internal(err, "failed to create leave request")
	}
	span.SetAttributes(attribute.String("leave.id", leave.ID))

	if n, err := parentApprovalNotification(leave, student.FullName, s.parentLink(token)); err != nil {
		s.logger.Error("failed to render parent approval email", zap.String("leave_id", leave.ID), zap.Error(err))
	} else {
		s.notifier.Send(ctx, n)
	}

	s.emitAudit(ctx, &student.ID, models.AuditActionLeaveApply, leave.ID, nil, leave)
	s.publish(ctx, EventLeaveApplied, leave, nil)
	s.metrics.RecordLeaveTransition("applied")
	return leave, nil
}

// ListForStudent returns the student's own requests, newest first.
func (s *LeaveService) ListForStudent(ctx context.Context, studentUID string) ([]models.LeaveRequest, error) {
	student, err := s.requireStudent(ctx, studentUID)
	if err != nil {
		return nil, err
	}
	leaves, err := s.repo.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list leave requests")
	}
	return leaves, nil
}

// GetByToken returns the request behind a parent approval link while the
// parent has not yet decided.
func (s *LeaveService) GetByToken(ctx context.Context, token string) (*models.LeaveDetail, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, appErrors.ErrTokenInvalidOrConsumed
	}
	leave, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrTokenInvalidOrConsumed
		}
		return nil, appErrors.Internal(err, "failed to load leave request")
	}
	detail := &models.LeaveDetail{LeaveRequest: *leave}
	if student, err := s.users.FindByID(ctx, leave.StudentID); err == nil {
		detail.StudentName = student.FullName
		detail.StudentEmail = student.Email
		detail.StudentRollNumber = student.RollNumber
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to load student")
	}
	return detail, nil
}

// ParentAction applies the parent's decision and consumes the token in the
// same statement. A rejection closes the mentor axis and tells the student.
func (s *LeaveService) ParentAction(ctx context.Context, token, action string) (leave *models.LeaveRequest, err error) {
	ctx, span := s.tracer.Start(ctx, "leave.parent_action")
	defer func() { endSpan(span, err) }()

	decision, err := models.ParseDecision(action)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "action must be APPROVE or REJECT")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, appErrors.ErrTokenInvalidOrConsumed
	}
	current, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrTokenInvalidOrConsumed
		}
		return nil, appErrors.Internal(err, "failed to load leave request")
	}
	span.SetAttributes(attribute.String("leave.id", current.ID), attribute.String("leave.decision", string(decision)))

	status := models.ParentStatusApproved
	if decision == models.DecisionReject {
		status = models.ParentStatusRejected
	}
	leave, err = s.repo.ApplyParentDecision(ctx, current.ID, token, status, s.clock.Now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrAlreadyProcessed
		}
		return nil, appErrors.Internal(err, "failed to record parent decision")
	}

	if status == models.ParentStatusRejected {
		remarks := "Your parent has declined this request."
		s.notifyStudent(ctx, leave, "REJECTED (By Parent)", &remarks)
	}

	s.emitAudit(ctx, nil, models.AuditActionParentDecision, leave.ID,
		map[string]string{"parent_status": string(current.ParentStatus)},
		map[string]string{"parent_status": string(leave.ParentStatus), "mentor_status": string(leave.MentorStatus)})
	s.publish(ctx, EventLeaveParentDecided, leave, map[string]interface{}{"parent_status": leave.ParentStatus})
	s.metrics.RecordLeaveTransition("parent_" + strings.ToLower(string(status)))
	return leave, nil
}

// ListPendingForMentor returns requests of the mentor's students that are
// awaiting or have passed parent approval.
func (s *LeaveService) ListPendingForMentor(ctx context.Context, mentorUID string) ([]models.LeaveDetail, error) {
	mentor, err := s.requireMentor(ctx, mentorUID)
	if err != nil {
		return nil, err
	}
	leaves, err := s.repo.ListForMentor(ctx, mentor.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list mentor leave requests")
	}
	return leaves, nil
}

// MentorAction approves or rejects a request directly.
func (s *LeaveService) MentorAction(ctx context.Context, leaveID, mentorUID string, req dto.MentorActionRequest) (leave *models.LeaveRequest, err error) {
	ctx, span := s.tracer.Start(ctx, "leave.mentor_action", trace.WithAttributes(attribute.String("leave.id", leaveID)))
	defer func() { endSpan(span, err) }()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mentor action payload")
	}
	decision, err := models.ParseDecision(req.Action)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "action must be APPROVE or REJECT")
	}

	mentor, current, student, err := s.loadForMentor(ctx, leaveID, mentorUID)
	if err != nil {
		return nil, err
	}
	if err := mentorDecisionAllowed(current); err != nil {
		return nil, err
	}

	status := models.MentorStatusApproved
	if decision == models.DecisionReject {
		status = models.MentorStatusRejected
	}
	leave, err = s.repo.ApplyMentorDecision(ctx, models.MentorDecision{
		LeaveID:   current.ID,
		MentorID:  mentor.ID,
		Status:    status,
		Remarks:   s.sanitizePtr(req.Remarks),
		DecidedAt: s.clock.Now(),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrAlreadyProcessed
		}
		return nil, appErrors.Internal(err, "failed to record mentor decision")
	}

	s.completeMentorDecision(ctx, leave, student, mentor, models.AuditActionMentorDecision)
	s.metrics.RecordLeaveTransition("mentor_" + strings.ToLower(string(status)))
	return leave, nil
}

// GenerateOTP issues a short-lived approval code for the request. Depending on
// the delivery policy the code is emailed to the student or returned here.
func (s *LeaveService) GenerateOTP(ctx context.Context, leaveID, mentorUID string) (issued *dto.OTPIssuedResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "leave.generate_otp", trace.WithAttributes(attribute.String("leave.id", leaveID)))
	defer func() { endSpan(span, err) }()

	mentor, leave, student, err := s.loadForMentor(ctx, leaveID, mentorUID)
	if err != nil {
		return nil, err
	}
	if err := mentorDecisionAllowed(leave); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if leave.HasOutstandingOTP(now) {
		return nil, appErrors.ErrOTPAlreadyIssued
	}

	code, hash, err := s.tokens.NewOTP()
	if err != nil {
		return nil, appErrors.Internal(err, "failed to generate approval code")
	}
	expiresAt := now.Add(s.cfg.OTPTTL)
	if err := s.repo.StoreOTP(ctx, leave.ID, hash, expiresAt, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.explainOTPConflict(ctx, leave.ID, now)
		}
		return nil, appErrors.Internal(err, "failed to store approval code")
	}

	issued = &dto.OTPIssuedResponse{
		LeaveID:   leave.ID,
		ExpiresAt: expiresAt.Format(time.RFC3339),
		Delivery:  s.cfg.OTPDelivery,
	}
	switch s.cfg.OTPDelivery {
	case config.OTPDeliveryMentorResponse:
		issued.Code = code
	default:
		if n, err := approvalOTPNotification(leave, student.Email, code, expiresAt); err != nil {
			s.logger.Error("failed to render approval code email", zap.String("leave_id", leave.ID), zap.Error(err))
		} else {
			s.notifier.Send(ctx, n)
		}
	}

	s.emitAudit(ctx, &mentor.ID, models.AuditActionOTPIssued, leave.ID, nil,
		map[string]string{"expires_at": issued.ExpiresAt, "delivery": issued.Delivery})
	s.metrics.RecordLeaveTransition("otp_issued")
	return issued, nil
}

// VerifyOTPAndApprove approves the request with a previously issued code. It
// lands in the same state as a direct approval and only one of the two can win.
func (s *LeaveService) VerifyOTPAndApprove(ctx context.Context, leaveID, mentorUID string, req dto.VerifyOTPRequest) (leave *models.LeaveRequest, err error) {
	ctx, span := s.tracer.Start(ctx, "leave.verify_otp", trace.WithAttributes(attribute.String("leave.id", leaveID)))
	defer func() { endSpan(span, err) }()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid approval code payload")
	}

	mentor, current, student, err := s.loadForMentor(ctx, leaveID, mentorUID)
	if err != nil {
		return nil, err
	}
	if err := mentorDecisionAllowed(current); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if !current.HasOutstandingOTP(now) || !s.tokens.VerifyOTP(*current.ApprovalOTPHash, strings.TrimSpace(req.OTP)) {
		return nil, appErrors.ErrOTPInvalidOrExpired
	}

	leave, err = s.repo.ApplyMentorDecision(ctx, models.MentorDecision{
		LeaveID:   current.ID,
		MentorID:  mentor.ID,
		Status:    models.MentorStatusApproved,
		Remarks:   s.sanitizePtr(req.Remarks),
		DecidedAt: now,
		OTPHash:   current.ApprovalOTPHash,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.explainVerifyConflict(ctx, current.ID)
		}
		return nil, appErrors.Internal(err, "failed to record approval")
	}

	s.completeMentorDecision(ctx, leave, student, mentor, models.AuditActionOTPApproval)
	s.metrics.RecordLeaveTransition("otp_approved")
	return leave, nil
}

// Update changes the student's own request while the parent has not decided.
func (s *LeaveService) Update(ctx context.Context, leaveID, studentUID string, req dto.UpdateLeaveRequest) (*models.LeaveRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leave payload")
	}
	student, current, err := s.loadForOwner(ctx, leaveID, studentUID)
	if err != nil {
		return nil, err
	}

	update := models.LeaveUpdate{}
	from, to := current.FromDate, current.ToDate
	if req.FromDate != nil {
		parsed, err := time.ParseInLocation(models.DateLayout, *req.FromDate, time.UTC)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid from_date")
		}
		from = parsed
		update.FromDate = &from
	}
	if req.ToDate != nil {
		parsed, err := time.ParseInLocation(models.DateLayout, *req.ToDate, time.UTC)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid to_date")
		}
		to = parsed
		update.ToDate = &to
	}
	if from.After(to) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from_date must not be after to_date")
	}
	if req.LeaveType != nil {
		leaveType := s.sanitize(*req.LeaveType)
		update.LeaveType = &leaveType
	}
	if req.Reason != nil {
		reason := s.sanitize(*req.Reason)
		if reason == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "reason is required")
		}
		update.Reason = &reason
	}

	leave, err := s.repo.UpdateDetails(ctx, current.ID, student.ID, update, s.clock.Now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrAlreadyProcessed
		}
		return nil, appErrors.Internal(err, "failed to update leave request")
	}
	s.emitAudit(ctx, &student.ID, models.AuditActionLeaveUpdate, leave.ID, current, leave)
	s.metrics.RecordLeaveTransition("updated")
	return leave, nil
}

// Delete removes the student's own request while the parent has not decided.
func (s *LeaveService) Delete(ctx context.Context, leaveID, studentUID string) error {
	student, current, err := s.loadForOwner(ctx, leaveID, studentUID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, current.ID, student.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrAlreadyProcessed
		}
		return appErrors.Internal(err, "failed to delete leave request")
	}
	s.emitAudit(ctx, &student.ID, models.AuditActionLeaveDelete, current.ID, current, nil)
	s.metrics.RecordLeaveTransition("deleted")
	return nil
}

func (s *LeaveService) loadForOwner(ctx context.Context, leaveID, studentUID string) (*models.User, *models.LeaveRequest, error) {
	student, err := s.requireStudent(ctx, studentUID)
	if err != nil {
		return nil, nil, err
	}
	leave, err := s.loadLeave(ctx, leaveID)
	if err != nil {
		return nil, nil, err
	}
	if leave.StudentID != student.ID {
		return nil, nil, appErrors.Clone(appErrors.ErrNotOwner, "leave request belongs to another student")
	}
	if leave.ParentStatus != models.ParentStatusPending {
		return nil, nil, appErrors.Clone(appErrors.ErrAlreadyProcessed, "parent has already processed this request")
	}
	return student, leave, nil
}

func (s *LeaveService) loadForMentor(ctx context.Context, leaveID, mentorUID string) (*models.User, *models.LeaveRequest, *models.User, error) {
	mentor, err := s.requireMentor(ctx, mentorUID)
	if err != nil {
		return nil, nil, nil, err
	}
	leave, err := s.loadLeave(ctx, leaveID)
	if err != nil {
		return nil, nil, nil, err
	}
	student, err := s.users.FindByID(ctx, leave.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil, appErrors.ErrStudentNotFound
		}
		return nil, nil, nil, appErrors.Internal(err, "failed to load student")
	}
	if !mentor.IsMentorOf(student) {
		return nil, nil, nil, appErrors.Clone(appErrors.ErrNotOwner, "not the assigned mentor for this student")
	}
	return mentor, leave, student, nil
}

func (s *LeaveService) loadLeave(ctx context.Context, id string) (*models.LeaveRequest, error) {
	leave, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrLeaveNotFound
		}
		return nil, appErrors.Internal(err, "failed to load leave request")
	}
	return leave, nil
}

func (s *LeaveService) requireStudent(ctx context.Context, uid string) (*models.User, error) {
	return findIdentity(ctx, s.users, uid, appErrors.ErrStudentNotFound)
}

func (s *LeaveService) requireMentor(ctx context.Context, uid string) (*models.User, error) {
	return findIdentity(ctx, s.users, uid, appErrors.ErrMentorNotFound)
}

// explainOTPConflict reports why the conditional OTP store matched no row.
func (s *LeaveService) explainOTPConflict(ctx context.Context, leaveID string, now time.Time) error {
	leave, err := s.loadLeave(ctx, leaveID)
	if err != nil {
		return err
	}
	if err := mentorDecisionAllowed(leave); err != nil {
		return err
	}
	if leave.HasOutstandingOTP(now) {
		return appErrors.ErrOTPAlreadyIssued
	}
	return appErrors.ErrAlreadyProcessed
}

// explainVerifyConflict distinguishes a lost race from a code that was replaced
// or expired between verification and the update.
func (s *LeaveService) explainVerifyConflict(ctx context.Context, leaveID string) error {
	leave, err := s.loadLeave(ctx, leaveID)
	if err != nil {
		return err
	}
	if leave.MentorStatus != models.MentorStatusPending {
		return appErrors.ErrAlreadyProcessed
	}
	return appErrors.ErrOTPInvalidOrExpired
}

func (s *LeaveService) completeMentorDecision(ctx context.Context, leave *models.LeaveRequest, student, mentor *models.User, action string) {
	s.notifyStudent(ctx, leave, string(leave.MentorStatus), leave.MentorRemarks)
	s.emitAudit(ctx, &mentor.ID, action, leave.ID,
		map[string]string{"mentor_status": string(models.MentorStatusPending)},
		map[string]interface{}{"mentor_status": leave.MentorStatus, "remarks": leave.MentorRemarks, "student_id": student.ID})
	s.publish(ctx, EventLeaveMentorDecided, leave, map[string]interface{}{"mentor_status": leave.MentorStatus})
}

func (s *LeaveService) notifyStudent(ctx context.Context, leave *models.LeaveRequest, status string, remarks *string) {
	student, err := s.users.FindByID(ctx, leave.StudentID)
	if err != nil {
		s.logger.Warn("cannot notify student", zap.String("leave_id", leave.ID), zap.Error(err))
		return
	}
	n, err := leaveStatusNotification(leave, student.Email, status, remarks)
	if err != nil {
		s.logger.Error("failed to render leave status email", zap.String("leave_id", leave.ID), zap.Error(err))
		return
	}
	s.notifier.Send(ctx, n)
}

func (s *LeaveService) parentLink(token string) string {
	return s.cfg.ParentLinkBaseURL + "/parent-response/" + token
}

// sanitize strips markup but stores plain text; escaping belongs to the
// email and PDF renderers.
func (s *LeaveService) sanitize(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(strings.TrimSpace(v))))
}

func (s *LeaveService) sanitizePtr(v string) *string {
	return strPtr(s.sanitize(v))
}

func (s *LeaveService) publish(ctx context.Context, eventType string, leave *models.LeaveRequest, extra map[string]interface{}) {
	if s.events == nil {
		return
	}
	data := map[string]interface{}{
		"student_id":      leave.StudentID,
		"parent_status":   leave.ParentStatus,
		"mentor_status":   leave.MentorStatus,
		"security_status": leave.SecurityStatus,
	}
	for k, v := range extra {
		data[k] = v
	}
	s.events.Publish(ctx, eventType, leave.ID, data)
}

func (s *LeaveService) emitAudit(ctx context.Context, userID *string, action, leaveID string, oldValues, newValues interface{}) {
	recordAudit(ctx, s.audit, s.logger, userID, action, "leave_request", leaveID, oldValues, newValues)
}

// mentorDecisionAllowed reports whether the mentor axis can still move.
func mentorDecisionAllowed(leave *models.LeaveRequest) error {
	if leave.MentorStatus != models.MentorStatusPending {
		return appErrors.ErrAlreadyProcessed
	}
	if leave.ParentStatus != models.ParentStatusApproved {
		return appErrors.ErrParentApprovalRequired
	}
	return nil
}

func parseLeaveDates(fromRaw, toRaw string) (time.Time, time.Time, error) {
	from, err := time.ParseInLocation(models.DateLayout, fromRaw, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid from_date")
	}
	to, err := time.ParseInLocation(models.DateLayout, toRaw, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid to_date")
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "from_date must not be after to_date")
	}
	return from, to, nil
}

func findIdentity(ctx context.Context, users identityLookup, uid string, notFound *appErrors.Error) (*models.User, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, notFound
	}
	user, err := users.FindByExternalID(ctx, uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	return user, nil
}

func recordAudit(ctx context.Context, audit auditLogger, logger *zap.Logger, userID *string, action, resource, resourceID string, oldValues, newValues interface{}) {
	if audit == nil {
		return
	}
	entry := &models.AuditLog{
		UserID:     userID,
		Action:     action,
		Resource:   resource,
		ResourceID: &resourceID,
		IPAddress:  "system",
		UserAgent:  "workflow",
	}
	if oldValues != nil {
		entry.OldValues, _ = json.Marshal(oldValues)
	}
	if newValues != nil {
		entry.NewValues, _ = json.Marshal(newValues)
	}
	if err := audit.CreateAuditLog(ctx, entry); err != nil {
		logger.Warn("failed to record audit", zap.String("action", action), zap.String("resource_id", resourceID), zap.Error(err))
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
