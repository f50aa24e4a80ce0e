package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-affairs-api/internal/models"
	appErrors "github.com/noah-isme/student-affairs-api/pkg/errors"
	"github.com/noah-isme/student-affairs-api/pkg/jobs"
	"github.com/noah-isme/student-affairs-api/pkg/mailer"
)

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type senderStub struct {
	mu    sync.Mutex
	sent  []mailer.Message
	err   error
	calls int
}

func (s *senderStub) Send(ctx context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *senderStub) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestNotificationServiceEnqueues(t *testing.T) {
	queue := &queueStub{}
	metrics := NewMetricsService()
	svc := NewNotificationService(queue, metrics, nil)

	svc.Send(context.Background(), models.Notification{To: []string{"p@x.com"}, Subject: "hi", Template: TemplateParentApproval})
	svc.SendBulk(context.Background(), []string{"a@x.com", "b@x.com"}, "notice", "body")
	svc.Send(context.Background(), models.Notification{Subject: "nobody"})

	require.Len(t, queue.jobs, 2)
	assert.Equal(t, notificationJobType, queue.jobs[0].Type)
	bulk, ok := queue.jobs[1].Payload.(models.Notification)
	require.True(t, ok)
	assert.Equal(t, "bulk", bulk.Template)
	assert.Len(t, bulk.To, 2)
	assert.Zero(t, testutil.ToFloat64(metrics.notificationFailures.WithLabelValues(TemplateParentApproval)))
}

func TestNotificationServiceCountsEnqueueFailure(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewNotificationService(&queueStub{err: errors.New("queue full")}, metrics, nil)

	svc.Send(context.Background(), models.Notification{To: []string{"s@x.com"}, Template: TemplateLeaveStatus})

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.notificationFailures.WithLabelValues(TemplateLeaveStatus)))
}

func TestNotificationWorkerHandle(t *testing.T) {
	sender := &senderStub{}
	worker := NewNotificationWorker(sender, nil)

	err := worker.Handle(context.Background(), jobs.Job{Payload: models.Notification{To: []string{"s@x.com"}, Subject: "s", Body: "<p>b</p>", HTML: true}})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.True(t, sender.sent[0].HTML)

	assert.Error(t, worker.Handle(context.Background(), jobs.Job{Payload: "garbage"}))

	sender.err = errors.New("relay refused")
	err = worker.Handle(context.Background(), jobs.Job{Payload: models.Notification{To: []string{"s@x.com"}}})
	assert.ErrorIs(t, err, appErrors.ErrNotificationDeliveryFailed)
}

func TestNotificationRetriesThenGivesUp(t *testing.T) {
	metrics := NewMetricsService()
	sender := &senderStub{err: errors.New("smtp down")}
	worker := NewNotificationWorker(sender, nil)

	var svc *NotificationService
	queue := jobs.NewQueue("notifications", worker.Handle, jobs.QueueConfig{
		Workers:     1,
		MaxRetries:  2,
		RetryDelay:  10 * time.Millisecond,
		OnExhausted: func(job jobs.Job, err error) { svc.Exhausted(job, err) },
	})
	svc = NewNotificationService(queue, metrics, nil)
	queue.Start(context.Background())
	t.Cleanup(queue.Stop)

	svc.Send(context.Background(), models.Notification{To: []string{"s@x.com"}, Template: TemplateApprovalOTP})

	counter := metrics.notificationFailures.WithLabelValues(TemplateApprovalOTP)
	require.Eventually(t, func() bool { return testutil.ToFloat64(counter) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 3, sender.callCount())
}
