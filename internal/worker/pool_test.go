package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetries(t *testing.T) {
	t.Helper()
	prev := retryBaseDelay
	retryBaseDelay = time.Millisecond
	t.Cleanup(func() { retryBaseDelay = prev })
}

func TestWithRetry(t *testing.T) {
	fastRetries(t)
	ctx := context.Background()

	calls := 0
	err := withRetry(ctx, 3, func(int) error {
		calls++
		if calls < 2 {
			return errors.New("smtp timeout")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	err = withRetry(ctx, 3, func(int) error { calls++; return errors.New("still down") })
	assert.EqualError(t, err, "still down")
	assert.Equal(t, 3, calls)

	calls = 0
	err = withRetry(ctx, 3, func(int) error { calls++; return Permanent(errors.New("bad payload")) })
	assert.Error(t, err)
	assert.Equal(t, 1, calls, "permanent errors are not retried")
}

func TestWithRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := withRetry(ctx, 3, func(int) error { return errors.New("x") })
	assert.ErrorIs(t, err, context.Canceled)
}

type handlerFunc func(ctx context.Context, payload json.RawMessage) error

func (f handlerFunc) Process(ctx context.Context, payload json.RawMessage) error { return f(ctx, payload) }

type deadLetter struct {
	jobType  string
	reason   string
	attempts int
}

func testPool(handlers map[string]Handler) (*Pool, *[]deadLetter) {
	var dead []deadLetter
	p := &Pool{handlers: handlers}
	p.deadLetter = func(_ context.Context, _, jobType string, _ json.RawMessage, reason string, attempts int) {
		dead = append(dead, deadLetter{jobType: jobType, reason: reason, attempts: attempts})
	}
	return p, &dead
}

func envelope(t *testing.T, jobType string, payload any) string {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	raw, err := json.Marshal(Job{Type: jobType, Payload: data})
	require.NoError(t, err)
	return string(raw)
}

func TestProcessJob(t *testing.T) {
	fastRetries(t)
	ctx := context.Background()

	var got []json.RawMessage
	ok := handlerFunc(func(_ context.Context, p json.RawMessage) error { got = append(got, p); return nil })
	failing := handlerFunc(func(context.Context, json.RawMessage) error { return errors.New("smtp down") })

	p, dead := testPool(map[string]Handler{"ok": ok, "failing": failing})

	p.processJob(ctx, QueueAlerts, envelope(t, "ok", map[string]string{"a": "b"}))
	require.Len(t, got, 1)
	assert.JSONEq(t, `{"a":"b"}`, string(got[0]))
	assert.Empty(t, *dead)

	p.processJob(ctx, QueueAlerts, envelope(t, "failing", nil))
	require.Len(t, *dead, 1)
	assert.Equal(t, deadLetter{jobType: "failing", reason: "smtp down", attempts: maxAttempts}, (*dead)[0])

	p.processJob(ctx, QueueAlerts, envelope(t, "nobody", nil))
	assert.Equal(t, "no handler for job type", (*dead)[1].reason)

	p.processJob(ctx, QueueAlerts, "{not json")
	assert.Equal(t, "unknown", (*dead)[2].jobType)
}
