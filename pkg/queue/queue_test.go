package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensys-cosc/symposium/internal/models"
)

// listClient implements the list commands of redis.Cmdable over memory.
type listClient struct {
	redis.Cmdable
	lists map[string][]string
}

func newListClient() *listClient {
	return &listClient{lists: make(map[string][]string)}
}

func (c *listClient) RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	for _, v := range values {
		switch b := v.(type) {
		case []byte:
			c.lists[key] = append(c.lists[key], string(b))
		case string:
			c.lists[key] = append(c.lists[key], b)
		}
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(int64(len(c.lists[key])))
	return cmd
}

func (c *listClient) BLPop(ctx context.Context, _ time.Duration, keys ...string) *redis.StringSliceCmd {
	cmd := redis.NewStringSliceCmd(ctx)
	for _, k := range keys {
		if len(c.lists[k]) > 0 {
			v := c.lists[k][0]
			c.lists[k] = c.lists[k][1:]
			cmd.SetVal([]string{k, v})
			return cmd
		}
	}
	cmd.SetErr(redis.Nil)
	return cmd
}

func TestEnqueueAndDequeueExport(t *testing.T) {
	ctx := context.Background()
	client := newListClient()
	q := NewQueue(client, nil)

	payload := ExportPayload{
		Event:        "decipher",
		DocumentID:   "doc-1",
		UserID:       "user_1",
		TeamType:     models.TeamDuo,
		Participants: []models.Participant{{Name: "A"}, {Name: "B"}},
	}
	require.NoError(t, q.EnqueueExport(ctx, payload))

	job, key, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, QueueExports, key)
	assert.Equal(t, JobTypeExport, job.Type)

	var got ExportPayload
	require.NoError(t, json.Unmarshal(job.Payload, &got))
	assert.Equal(t, "decipher", got.Event)
	assert.Len(t, got.Participants, 2)
}

func TestDequeue_EmptyQueue(t *testing.T) {
	q := NewQueue(newListClient(), nil)
	job, _, err := q.Dequeue(context.Background(), time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestRetry_MovesToDLQAfterMaxRetries(t *testing.T) {
	ctx := context.Background()
	client := newListClient()
	q := NewQueue(client, nil)
	job := &Job{ID: "j1", Type: JobTypeExport}

	for i := 1; i < MaxRetries; i++ {
		require.NoError(t, q.Retry(ctx, job))
		assert.Len(t, client.lists[QueueExports], i)
	}
	require.NoError(t, q.Retry(ctx, job))
	assert.Equal(t, MaxRetries, job.Attempt)
	assert.Len(t, client.lists[QueueDLQ], 1)
}
