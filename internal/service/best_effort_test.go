package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mcabalar/acadrepo-api/internal/models"
	"github.com/mcabalar/acadrepo-api/pkg/jobs"
)

type recordingQueue struct {
	jobs       []jobs.Job
	enqueueErr error
}

func (q *recordingQueue) Enqueue(job jobs.Job) error {
	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type countingNotificationSink struct {
	created []models.Notification
	err     error
}

func (s *countingNotificationSink) Create(_ context.Context, n *models.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, *n)
	return nil
}

type countingAuditSink struct {
	created []models.AccessLog
}

func (s *countingAuditSink) Create(_ context.Context, entry *models.AccessLog) error {
	s.created = append(s.created, *entry)
	return nil
}

func TestEffectRecorderQueuesWrites(t *testing.T) {
	notifications := &countingNotificationSink{}
	audit := &countingAuditSink{}
	queue := &recordingQueue{}

	recorder := NewEffectRecorder(notifications, audit, nil)
	recorder.UseQueue(queue)

	recorder.Notify(context.Background(), models.Notification{UserID: 7, Title: "hello"})
	recorder.Audit(context.Background(), models.AccessLog{Action: "login"})

	// queued, not written inline
	require.Empty(t, notifications.created)
	require.Empty(t, audit.created)
	require.Len(t, queue.jobs, 2)
	require.Equal(t, EffectJobNotification, queue.jobs[0].Type)
	require.Equal(t, EffectJobAccessLog, queue.jobs[1].Type)

	// draining the queue lands the writes
	for _, job := range queue.jobs {
		require.NoError(t, recorder.HandleEffect(context.Background(), job))
	}
	require.Len(t, notifications.created, 1)
	require.Equal(t, int64(7), notifications.created[0].UserID)
	require.Len(t, audit.created, 1)
}

func TestEffectRecorderFallsBackWhenEnqueueFails(t *testing.T) {
	notifications := &countingNotificationSink{}
	recorder := NewEffectRecorder(notifications, nil, nil)
	recorder.UseQueue(&recordingQueue{enqueueErr: errors.New("queue full")})

	recorder.Notify(context.Background(), models.Notification{UserID: 3, Title: "direct"})

	require.Len(t, notifications.created, 1)
}

func TestHandleEffectRejectsUnknownJob(t *testing.T) {
	recorder := NewEffectRecorder(&countingNotificationSink{}, nil, nil)
	err := recorder.HandleEffect(context.Background(), jobs.Job{ID: "x", Type: "mystery"})
	require.Error(t, err)
}

func TestHandleEffectPropagatesSinkError(t *testing.T) {
	notifications := &countingNotificationSink{err: errors.New("db down")}
	recorder := NewEffectRecorder(notifications, nil, nil)

	err := recorder.HandleEffect(context.Background(), jobs.Job{
		ID:      "n1",
		Type:    EffectJobNotification,
		Payload: &models.Notification{UserID: 1},
	})
	require.Error(t, err)
}
