package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Event is the envelope published for every workflow transition.
type Event struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Subject    string                 `json:"subject"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// Conn is the subset of *nats.Conn used for publishing.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Publisher writes workflow events to NATS. A nil Publisher or one without a
// connection drops events silently.
type Publisher struct {
	conn   Conn
	prefix string
	logger *zap.Logger
}

// Connect dials NATS. An empty url yields a publisher that drops events.
func Connect(url, prefix string, logger *zap.Logger) (*Publisher, func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(url) == "" {
		return NewPublisher(nil, prefix, logger), func() {}, nil
	}

	nc, err := nats.Connect(url,
		nats.Name("student-affairs-api"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect nats: %w", err)
	}
	closeFn := func() {
		if err := nc.Drain(); err != nil {
			logger.Warn("failed to drain nats connection", zap.Error(err))
		}
	}
	return NewPublisher(nc, prefix, logger), closeFn, nil
}

// NewPublisher wraps an existing connection.
func NewPublisher(conn Conn, prefix string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{conn: conn, prefix: strings.Trim(prefix, "."), logger: logger}
}

// Publish emits eventType for subject. Failures are logged and never returned
// to the workflow.
func (p *Publisher) Publish(ctx context.Context, eventType, subject string, data map[string]interface{}) {
	if p == nil || p.conn == nil {
		return
	}
	evt := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Subject:    subject,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		p.logger.Warn("failed to encode event", zap.String("type", eventType), zap.Error(err))
		return
	}
	if err := p.conn.Publish(p.topic(eventType), payload); err != nil {
		p.logger.Warn("failed to publish event", zap.String("type", eventType), zap.String("subject", subject), zap.Error(err))
	}
}

func (p *Publisher) topic(eventType string) string {
	if p.prefix == "" {
		return eventType
	}
	return p.prefix + "." + eventType
}
