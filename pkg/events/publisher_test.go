package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingConn struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (r *recordingConn) Publish(subject string, data []byte) error {
	r.subjects = append(r.subjects, subject)
	r.payloads = append(r.payloads, data)
	return r.err
}

func TestPublishUsesPrefixedSubject(t *testing.T) {
	conn := &recordingConn{}
	p := NewPublisher(conn, "student_affairs.", nil)

	p.Publish(context.Background(), "leave.applied", "leave-1", map[string]interface{}{"student_id": "s-1"})

	require.Len(t, conn.subjects, 1)
	assert.Equal(t, "student_affairs.leave.applied", conn.subjects[0])

	var evt Event
	require.NoError(t, json.Unmarshal(conn.payloads[0], &evt))
	assert.Equal(t, "leave.applied", evt.Type)
	assert.Equal(t, "leave-1", evt.Subject)
	assert.Equal(t, "s-1", evt.Data["student_id"])
	assert.NotEmpty(t, evt.ID)
}

func TestPublishSwallowsFailures(t *testing.T) {
	conn := &recordingConn{err: errors.New("nats: connection closed")}
	p := NewPublisher(conn, "", nil)
	assert.NotPanics(t, func() { p.Publish(context.Background(), "leave.exited", "leave-2", nil) })
	assert.Equal(t, "leave.exited", conn.subjects[0])
}

func TestNilPublisherIsNoop(t *testing.T) {
	var p *Publisher
	assert.NotPanics(t, func() { p.Publish(context.Background(), "leave.applied", "x", nil) })

	disabled, closeFn, err := Connect("", "x", nil)
	require.NoError(t, err)
	defer closeFn()
	assert.NotPanics(t, func() { disabled.Publish(context.Background(), "leave.applied", "x", nil) })
}
