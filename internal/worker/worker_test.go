package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/opensys-cosc/symposium/internal/models"
	"github.com/opensys-cosc/symposium/pkg/queue"
)

type mockAppender struct{ mock.Mock }

func (m *mockAppender) EnsureSheet(ctx context.Context, sheet string, header []interface{}) error {
	return m.Called(ctx, sheet, header).Error(0)
}

func (m *mockAppender) AppendRows(ctx context.Context, sheet string, rows [][]interface{}) error {
	return m.Called(ctx, sheet, rows).Error(0)
}

// sliceQueue hands out jobs once and records retries.
type sliceQueue struct {
	mu      sync.Mutex
	jobs    []*queue.Job
	retried []*queue.Job
	drained chan struct{}
}

func (q *sliceQueue) Dequeue(ctx context.Context, _ time.Duration) (*queue.Job, string, error) {
	q.mu.Lock()
	if len(q.jobs) == 0 {
		select {
		case <-q.drained:
		default:
			close(q.drained)
		}
		q.mu.Unlock()
		<-ctx.Done()
		return nil, "", ctx.Err()
	}
	j := q.jobs[0]
	q.jobs = q.jobs[1:]
	q.mu.Unlock()
	return j, queue.QueueExports, nil
}

func (q *sliceQueue) Retry(_ context.Context, job *queue.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	job.Attempt++
	q.retried = append(q.retried, job)
	return nil
}

func exportJob(t *testing.T, p queue.ExportPayload) *queue.Job {
	t.Helper()
	body, err := json.Marshal(p)
	require.NoError(t, err)
	return &queue.Job{ID: "job-" + p.DocumentID, Type: queue.JobTypeExport, Payload: body}
}

var duoPayload = queue.ExportPayload{
	Event:        "decipher",
	DocumentID:   "doc-1",
	UserID:       "user_1",
	TeamType:     models.TeamDuo,
	RegisteredAt: time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC),
	Participants: []models.Participant{
		{Name: "Asha", Email: "asha@example.com", College: "CBIT", Phone: "9492532259"},
		{Name: "Ravi", Email: "ravi@example.com", College: "JNTU", Phone: "9000000001"},
	},
}

func TestRows(t *testing.T) {
	rows := Rows(duoPayload)
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], len(Header))
	assert.Equal(t, "2026-02-10T09:00:00Z", rows[0][0])
	assert.Equal(t, 2, rows[1][4])
	assert.Equal(t, "ravi@example.com", rows[1][6])
}

func TestProcess_AppendsToEventSheet(t *testing.T) {
	app := &mockAppender{}
	app.On("EnsureSheet", mock.Anything, "decipher", Header).Return(nil).Once()
	app.On("AppendRows", mock.Anything, "decipher", Rows(duoPayload)).Return(nil).Twice()

	p := NewExportProcessor(app, nil, nil)
	require.NoError(t, p.Process(context.Background(), exportJob(t, duoPayload)))
	require.NoError(t, p.Process(context.Background(), exportJob(t, duoPayload)))
	app.AssertExpectations(t)
}

func TestProcess_SheetCreationFailureIsRetried(t *testing.T) {
	app := &mockAppender{}
	app.On("EnsureSheet", mock.Anything, "decipher", Header).Return(errors.New("quota exceeded")).Once()
	app.On("EnsureSheet", mock.Anything, "decipher", Header).Return(nil).Once()
	app.On("AppendRows", mock.Anything, "decipher", mock.Anything).Return(nil).Once()

	p := NewExportProcessor(app, nil, nil)
	assert.Error(t, p.Process(context.Background(), exportJob(t, duoPayload)))
	require.NoError(t, p.Process(context.Background(), exportJob(t, duoPayload)))
	app.AssertExpectations(t)
}

func TestProcess_RejectsBadJobs(t *testing.T) {
	p := NewExportProcessor(&mockAppender{}, nil, nil)
	assert.Error(t, p.Process(context.Background(), &queue.Job{Type: "email"}))
	assert.Error(t, p.Process(context.Background(), &queue.Job{Type: queue.JobTypeExport, Payload: []byte("{")}))
	assert.Error(t, p.Process(context.Background(), exportJob(t, queue.ExportPayload{DocumentID: "x"})))
}

func TestRun_RetriesFailedJobs(t *testing.T) {
	app := &mockAppender{}
	app.On("EnsureSheet", mock.Anything, "decipher", Header).Return(nil)
	app.On("AppendRows", mock.Anything, "decipher", mock.Anything).Return(errors.New("quota exceeded"))

	q := &sliceQueue{jobs: []*queue.Job{exportJob(t, duoPayload)}, drained: make(chan struct{})}
	p := NewExportProcessor(app, q, nil)
	p.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	select {
	case <-q.drained:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not drain the queue")
	}
	cancel()
	<-done

	q.mu.Lock()
	defer q.mu.Unlock()
	require.Len(t, q.retried, 1)
	assert.Equal(t, 1, q.retried[0].Attempt)
}
