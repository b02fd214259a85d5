package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mymmrac/telego"
	"github.com/mymmrac/telego/telegoapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSettings map[int64]time.Duration

func (f fakeSettings) Get(groupID int64) time.Duration {
	return f[groupID]
}

// fakeDeleter records the time of each delete attempt and replies from a
// scripted list of errors (nil meaning success).
type fakeDeleter struct {
	mu       sync.Mutex
	attempts []time.Time
	replies  []error
}

func (f *fakeDeleter) DeleteMessage(ctx context.Context, params *telego.DeleteMessageParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, time.Now())
	if len(f.replies) == 0 {
		return nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply
}

func (f *fakeDeleter) attemptTimes() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.attempts...)
}

func rateLimitErr(retryAfter int) error {
	return &telegoapi.Error{
		ErrorCode:   429,
		Description: "Too Many Requests: retry after",
		Parameters:  &telegoapi.ResponseParameters{RetryAfter: retryAfter},
	}
}

func drain(t *testing.T, s *Scheduler) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
}

func TestDisabledGroupNeverDeletes(t *testing.T) {
	deleter := &fakeDeleter{}
	s := New(deleter, fakeSettings{-100: 0})

	s.OnMessage(-100, 1, time.Now())

	time.Sleep(50 * time.Millisecond)
	drain(t, s)
	assert.Empty(t, deleter.attemptTimes())
}

func TestDeleteFiresNoEarlierThanDelay(t *testing.T) {
	deleter := &fakeDeleter{}
	s := New(deleter, fakeSettings{-100: 100 * time.Millisecond})

	arrival := time.Now()
	s.OnMessage(-100, 1, arrival)

	time.Sleep(300 * time.Millisecond)
	drain(t, s)

	attempts := deleter.attemptTimes()
	require.Len(t, attempts, 1)
	assert.True(t, !attempts[0].Before(arrival.Add(100*time.Millisecond)),
		"delete fired %v after arrival, want >= 100ms", attempts[0].Sub(arrival))
}

func TestRateLimitRetriesExactlyOnce(t *testing.T) {
	deleter := &fakeDeleter{replies: []error{rateLimitErr(1), nil}}
	s := New(deleter, fakeSettings{-100: 10 * time.Millisecond})

	s.OnMessage(-100, 1, time.Now())

	time.Sleep(1500 * time.Millisecond)
	drain(t, s)

	attempts := deleter.attemptTimes()
	require.Len(t, attempts, 2)
	gap := attempts[1].Sub(attempts[0])
	assert.True(t, gap >= time.Second, "retry after %v, want >= 1s", gap)
}

func TestRateLimitedRetryFailureDropsTask(t *testing.T) {
	deleter := &fakeDeleter{replies: []error{rateLimitErr(0), rateLimitErr(0), nil}}
	s := New(deleter, fakeSettings{-100: 10 * time.Millisecond})

	s.OnMessage(-100, 1, time.Now())

	time.Sleep(300 * time.Millisecond)
	drain(t, s)

	// second rate limit terminates the task, no third attempt
	assert.Len(t, deleter.attemptTimes(), 2)
}

func TestNonRateLimitErrorNeverRetries(t *testing.T) {
	deleter := &fakeDeleter{replies: []error{
		&telegoapi.Error{ErrorCode: 400, Description: "Bad Request: message to delete not found"},
		nil,
	}}
	s := New(deleter, fakeSettings{-100: 10 * time.Millisecond})

	s.OnMessage(-100, 1, time.Now())

	time.Sleep(200 * time.Millisecond)
	drain(t, s)

	assert.Len(t, deleter.attemptTimes(), 1)
}

func TestGenericTransportErrorNeverRetries(t *testing.T) {
	deleter := &fakeDeleter{replies: []error{errors.New("connection reset"), nil}}
	s := New(deleter, fakeSettings{-100: 10 * time.Millisecond})

	s.OnMessage(-100, 1, time.Now())

	time.Sleep(200 * time.Millisecond)
	drain(t, s)

	assert.Len(t, deleter.attemptTimes(), 1)
}

func TestShutdownCancelsWaitingTasks(t *testing.T) {
	deleter := &fakeDeleter{}
	s := New(deleter, fakeSettings{-100: time.Hour})

	for i := 0; i < 10; i++ {
		s.OnMessage(-100, i, time.Now())
	}

	drain(t, s)
	assert.Empty(t, deleter.attemptTimes())
}

func TestManyConcurrentTasks(t *testing.T) {
	deleter := &fakeDeleter{}
	s := New(deleter, fakeSettings{-100: 20 * time.Millisecond})

	for i := 0; i < 100; i++ {
		s.OnMessage(-100, i, time.Now())
	}

	time.Sleep(300 * time.Millisecond)
	drain(t, s)
	assert.Len(t, deleter.attemptTimes(), 100)
}
