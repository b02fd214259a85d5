// Package scheduler runs one deletion task per qualifying group message:
// wait out the group's configured delay, delete the message, and back off
// once if Telegram signals a rate limit. Deletion is best-effort; tasks are
// in-memory only and abandoned on restart.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mymmrac/telego"
	"github.com/mymmrac/telego/telegoapi"

	"tg-autodelete/internal/crash"
	"tg-autodelete/internal/logger"
)

// Status is a task's position in its lifecycle:
// pending -> firing -> {completed | failed}, or cancelled on shutdown.
type Status int

const (
	StatusPending Status = iota
	StatusFiring
	StatusCompleted
	StatusCancelled
	StatusFailed
)

// MessageDeleter is the platform surface a task needs, satisfied by *telego.Bot.
type MessageDeleter interface {
	DeleteMessage(ctx context.Context, params *telego.DeleteMessageParams) error
}

// SettingsReader provides the per-group delay, satisfied by *service.SettingsStore.
type SettingsReader interface {
	Get(groupID int64) time.Duration
}

// task is one scheduled deletion, exclusively owned by its goroutine.
type task struct {
	chatID    int64
	messageID int
	fireAt    time.Time
	status    Status
}

// Scheduler spawns an unbounded number of concurrent deletion tasks, one per
// message. It applies no throttling of its own; Telegram's retry-after
// signal is the only backpressure.
type Scheduler struct {
	deleter  MessageDeleter
	settings SettingsReader

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(deleter MessageDeleter, settings SettingsReader) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		deleter:  deleter,
		settings: settings,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// OnMessage schedules deletion of a message at arrival + the group's delay.
// A zero delay means auto-delete is disabled for the group and the message
// is left untouched.
func (s *Scheduler) OnMessage(chatID int64, messageID int, arrival time.Time) {
	delay := s.settings.Get(chatID)
	if delay == 0 {
		return
	}

	t := &task{
		chatID:    chatID,
		messageID: messageID,
		fireAt:    arrival.Add(delay),
		status:    StatusPending,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer crash.RecoverWithStack("deletion-task")
		s.run(t)
	}()
}

// run executes a single task to a terminal status.
func (s *Scheduler) run(t *task) {
	if !s.waitUntil(t.fireAt) {
		t.status = StatusCancelled
		return
	}

	t.status = StatusFiring
	err := s.deleteMessage(t)
	if err == nil {
		t.status = StatusCompleted
		return
	}

	retryAfter, ok := rateLimitWait(err)
	if !ok {
		// Permission loss, already-deleted message, transport failure:
		// all dropped on first occurrence, logged only.
		logger.Infof("Dropping deletion of message %d in chat %d: %v", t.messageID, t.chatID, err)
		t.status = StatusFailed
		return
	}

	logger.Warningf("Rate limited deleting message %d in chat %d, retrying in %v", t.messageID, t.chatID, retryAfter)
	if !s.waitFor(retryAfter) {
		t.status = StatusCancelled
		return
	}

	// Exactly one retry; any failure here ends the task.
	if err := s.deleteMessage(t); err != nil {
		logger.Infof("Dropping deletion of message %d in chat %d after retry: %v", t.messageID, t.chatID, err)
		t.status = StatusFailed
		return
	}
	t.status = StatusCompleted
}

func (s *Scheduler) deleteMessage(t *task) error {
	return s.deleter.DeleteMessage(s.ctx, &telego.DeleteMessageParams{
		ChatID:    telego.ChatID{ID: t.chatID},
		MessageID: t.messageID,
	})
}

// waitUntil sleeps until the deadline, reporting false if the scheduler
// shut down first.
func (s *Scheduler) waitUntil(deadline time.Time) bool {
	return s.waitFor(time.Until(deadline))
}

func (s *Scheduler) waitFor(d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// Shutdown cancels waiting tasks and waits for in-flight ones until the
// context expires.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// rateLimitWait extracts Telegram's mandated pause from a 429 response.
func rateLimitWait(err error) (time.Duration, bool) {
	var apiErr *telegoapi.Error
	if !errors.As(err, &apiErr) {
		return 0, false
	}
	if apiErr.ErrorCode != 429 || apiErr.Parameters == nil {
		return 0, false
	}
	return time.Duration(apiErr.Parameters.RetryAfter) * time.Second, true
}
