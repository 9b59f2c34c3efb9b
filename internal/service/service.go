// Package service contains the business logic.
//
// It sits between the handler and repository layers. Handlers pass in
// already validated input, services persist it through the stores and fire
// the follow-up notifications, and report what happened in a form the
// handlers can render directly.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/yourconsultingltd/ycl-backend/internal/database"
)

// Persistence outcomes reported to the client.
const (
	DatabaseSaved        = "saved"
	DatabaseNotConnected = "not_connected"
)

// Notification outcomes reported to the client. "queued" only means the
// task was handed off; delivery happens later and is never awaited.
const (
	EmailQueued        = "queued"
	EmailNotConfigured = "not_configured"
	EmailNoRecipient   = "no_recipient"
)

// dispatchTimeout bounds the enqueue of a notification once the request
// that triggered it has returned.
const dispatchTimeout = 10 * time.Second

// Dispatcher hands notification tasks to the background queue.
type Dispatcher interface {
	Configured() bool
	Enqueue(ctx context.Context, task *asynq.Task) error
}

// SubmissionResult is the outcome of a contact or application submission.
type SubmissionResult struct {
	Database string
	Email    string
}

// notifier fires tasks without holding up the caller.
type notifier struct {
	dispatcher Dispatcher
	logger     *zerolog.Logger
}

func (n notifier) configured() bool {
	return n.dispatcher != nil && n.dispatcher.Configured()
}

// fire enqueues each built task from a detached goroutine. The request
// context's values (logger, trace) are kept but its cancellation is not.
// Failures are logged and dropped.
func (n notifier) fire(ctx context.Context, build ...func() (*asynq.Task, error)) {
	log := n.log(ctx)
	detached := context.WithoutCancel(ctx)

	go func() {
		ctx, cancel := context.WithTimeout(detached, dispatchTimeout)
		defer cancel()

		for _, b := range build {
			task, err := b()
			if err != nil {
				log.Error().Err(err).Msg("failed to build notification task")
				continue
			}
			if err := n.dispatcher.Enqueue(ctx, task); err != nil {
				log.Error().Err(err).Str("task", task.Type()).Msg("failed to enqueue notification")
			}
		}
	}()
}

// emailStatus fires the tasks when there is a recipient and a configured
// dispatcher, and reports which of those held.
func (n notifier) emailStatus(ctx context.Context, recipient string, build ...func() (*asynq.Task, error)) string {
	switch {
	case !n.configured():
		return EmailNotConfigured
	case recipient == "":
		return EmailNoRecipient
	}
	n.fire(ctx, build...)
	return EmailQueued
}

func (n notifier) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	if n.logger != nil {
		return n.logger
	}
	nop := zerolog.Nop()
	return &nop
}

func unavailable(err error) bool {
	return errors.Is(err, database.ErrUnavailable)
}
