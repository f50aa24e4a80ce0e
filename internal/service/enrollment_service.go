package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/noah-isme/student-affairs-api/internal/dto"
	"github.com/noah-isme/student-affairs-api/internal/models"
	"github.com/noah-isme/student-affairs-api/internal/repository"
	"github.com/noah-isme/student-affairs-api/pkg/clock"
	"github.com/noah-isme/student-affairs-api/pkg/database"
	appErrors "github.com/noah-isme/student-affairs-api/pkg/errors"
)

type enrollmentStore interface {
	EnrollOrChange(ctx context.Context, studentID string, section models.Section, now time.Time, guard repository.EnrollmentGuard) (*models.EnrollmentResult, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
	ListBySection(ctx context.Context, sectionID string) ([]models.EnrollmentDetail, error)
}

type sectionReader interface {
	GetByID(ctx context.Context, id string) (*models.Section, error)
}

// EnrollmentServiceOption configures optional collaborators.
type EnrollmentServiceOption func(*EnrollmentService)

// WithEnrollmentAudit records changes in the audit log.
func WithEnrollmentAudit(audit auditLogger) EnrollmentServiceOption {
	return func(s *EnrollmentService) { s.audit = audit }
}

// WithEnrollmentEvents publishes section changes.
func WithEnrollmentEvents(events eventPublisher) EnrollmentServiceOption {
	return func(s *EnrollmentService) { s.events = events }
}

// WithEnrollmentMetrics counts attempts by outcome.
func WithEnrollmentMetrics(metrics *MetricsService) EnrollmentServiceOption {
	return func(s *EnrollmentService) { s.metrics = metrics }
}

// WithEnrollmentClock overrides the time source.
func WithEnrollmentClock(c clock.Clock) EnrollmentServiceOption {
	return func(s *EnrollmentService) { s.clock = c }
}

// EnrollmentService enrolls students in sections and applies the change
// limit and freeze window when they switch sections.
type EnrollmentService struct {
	repo      enrollmentStore
	sections  sectionReader
	users     identityLookup
	flags     featureGate
	policy    EnrollmentPolicy
	audit     auditLogger
	events    eventPublisher
	metrics   *MetricsService
	clock     clock.Clock
	validator *validator.Validate
	tracer    trace.Tracer
	logger    *zap.Logger
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(repo enrollmentStore, sections sectionReader, users identityLookup, flags featureGate, policy EnrollmentPolicy, validate *validator.Validate, logger *zap.Logger, opts ...EnrollmentServiceOption) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &EnrollmentService{
		repo:      repo,
		sections:  sections,
		users:     users,
		flags:     flags,
		policy:    NewEnrollmentPolicy(policy.MaxChanges, policy.FreezeWindow),
		clock:     clock.System{},
		validator: validate,
		tracer:    otel.Tracer("github.com/noah-isme/student-affairs-api/internal/service/enrollment"),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Enroll places the student in the requested section, or moves them there from
// another section of the same course when the policy allows it.
func (s *EnrollmentService) Enroll(ctx context.Context, studentUID string, req dto.EnrollRequest) (result *models.EnrollmentResult, err error) {
	ctx, span := s.tracer.Start(ctx, "enrollment.enroll", trace.WithAttributes(attribute.String("section.id", req.SectionID)))
	defer func() {
		s.metrics.RecordEnrollmentAttempt(enrollmentOutcome(result, err))
		endSpan(span, err)
	}()

	if err := s.flags.Require(ctx, models.FeatureRegistration); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	student, err := findIdentity(ctx, s.users, studentUID, appErrors.ErrStudentNotFound)
	if err != nil {
		return nil, err
	}
	section, err := s.loadSection(ctx, req.SectionID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	result, err = s.repo.EnrollOrChange(ctx, student.ID, *section, now, func(current *models.Enrollment) error {
		return s.policy.Check(current, section.ID, now)
	})
	if err != nil {
		var appErr *appErrors.Error
		switch {
		case errors.As(err, &appErr):
			return nil, appErr
		case database.IsUniqueViolation(err):
			return nil, appErrors.ErrAlreadyEnrolled
		default:
			return nil, appErrors.Internal(err, "failed to save enrollment")
		}
	}
	result.ChangesRemaining = s.policy.Remaining(result.Enrollment.ChangeCount)

	if result.Outcome == models.EnrollmentChanged {
		recordAudit(ctx, s.audit, s.logger, &student.ID, models.AuditActionEnrollment, "enrollment", result.Enrollment.ID,
			map[string]interface{}{"section_id": result.PreviousSectionID},
			map[string]interface{}{"section_id": result.Enrollment.SectionID, "change_count": result.Enrollment.ChangeCount})
		if s.events != nil {
			s.events.Publish(ctx, EventEnrollmentChanged, result.Enrollment.ID, map[string]interface{}{
				"student_id":          student.ID,
				"course_id":           result.Enrollment.CourseID,
				"section_id":          result.Enrollment.SectionID,
				"previous_section_id": result.PreviousSectionID,
				"change_count":        result.Enrollment.ChangeCount,
			})
		}
	}
	return result, nil
}

// ListForStudent returns the student's enrollments.
func (s *EnrollmentService) ListForStudent(ctx context.Context, studentUID string) ([]models.EnrollmentDetail, error) {
	student, err := findIdentity(ctx, s.users, studentUID, appErrors.ErrStudentNotFound)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list enrollments")
	}
	return items, nil
}

// ListForSection returns the roster of a section.
func (s *EnrollmentService) ListForSection(ctx context.Context, sectionID string) ([]models.EnrollmentDetail, error) {
	if _, err := s.loadSection(ctx, sectionID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListBySection(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list section enrollments")
	}
	return items, nil
}

func (s *EnrollmentService) loadSection(ctx context.Context, id string) (*models.Section, error) {
	if strings.TrimSpace(id) == "" {
		return nil, appErrors.ErrSectionNotFound
	}
	section, err := s.sections.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrSectionNotFound
		}
		return nil, appErrors.Internal(err, "failed to load section")
	}
	return section, nil
}

func enrollmentOutcome(result *models.EnrollmentResult, err error) string {
	if err != nil {
		return appErrors.FromError(err).Code
	}
	if result == nil {
		return "unknown"
	}
	return strings.ToLower(string(result.Outcome))
}
