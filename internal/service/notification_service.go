package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/student-affairs-api/internal/models"
	appErrors "github.com/noah-isme/student-affairs-api/pkg/errors"
	"github.com/noah-isme/student-affairs-api/pkg/jobs"
	"github.com/noah-isme/student-affairs-api/pkg/mailer"
)

const notificationJobType = "notification"

// NotificationPort delivers messages to parents, students and mentors. Calls
// never fail the caller; delivery problems are logged and counted.
type NotificationPort interface {
	Send(ctx context.Context, n models.Notification)
	SendBulk(ctx context.Context, to []string, subject, body string)
}

type notificationQueue interface {
	Enqueue(job jobs.Job) error
}

type mailSender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// NotificationService hands notifications to the background mail queue.
type NotificationService struct {
	queue   notificationQueue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotificationService constructs the dispatcher.
func NewNotificationService(queue notificationQueue, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{queue: queue, metrics: metrics, logger: logger}
}

// Send enqueues a single notification.
func (s *NotificationService) Send(ctx context.Context, n models.Notification) {
	if len(n.To) == 0 {
		s.logger.Warn("notification without recipients dropped", zap.String("template", n.Template))
		return
	}
	if s.queue == nil {
		s.fail(n, fmt.Errorf("notification queue not configured"))
		return
	}
	job := jobs.Job{Type: notificationJobType, Payload: n}
	if err := s.queue.Enqueue(job); err != nil {
		s.fail(n, err)
	}
}

// SendBulk sends one plain-text message to every recipient.
func (s *NotificationService) SendBulk(ctx context.Context, to []string, subject, body string) {
	s.Send(ctx, models.Notification{To: to, Subject: subject, Body: body, Template: "bulk"})
}

// Exhausted is the queue hook for jobs that ran out of attempts.
func (s *NotificationService) Exhausted(job jobs.Job, err error) {
	n, _ := job.Payload.(models.Notification)
	s.fail(n, err)
}

func (s *NotificationService) fail(n models.Notification, err error) {
	s.metrics.RecordNotificationFailure(n.Template)
	s.logger.Error("notification delivery failed",
		zap.String("template", n.Template),
		zap.Strings("to", n.To),
		zap.String("subject", n.Subject),
		zap.Error(err),
	)
}

// NotificationWorker delivers queued notifications over SMTP.
type NotificationWorker struct {
	sender mailSender
	logger *zap.Logger
}

// NewNotificationWorker constructs the queue handler.
func NewNotificationWorker(sender mailSender, logger *zap.Logger) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{sender: sender, logger: logger}
}

// Handle sends one queued notification.
func (w *NotificationWorker) Handle(ctx context.Context, job jobs.Job) error {
	n, ok := job.Payload.(models.Notification)
	if !ok {
		return fmt.Errorf("unexpected notification payload %T", job.Payload)
	}
	msg := mailer.Message{To: n.To, Subject: n.Subject, Body: n.Body, HTML: n.HTML}
	if err := w.sender.Send(ctx, msg); err != nil {
		return appErrors.Wrap(err, appErrors.ErrNotificationDeliveryFailed.Code, appErrors.ErrNotificationDeliveryFailed.Status, "smtp send failed")
	}
	w.logger.Debug("notification sent", zap.String("template", n.Template), zap.Int("attempt", job.Attempt+1))
	return nil
}
