// Package job delivers notifications in the background with asynq.
//
// Request handlers enqueue a task and return; the worker started by
// JobService picks it up and sends the email. Tasks are never retried.
package job

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/yourconsultingltd/ycl-backend/internal/lib/email"
)

// Queue names and their worker weights.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// Mailer is what the task handlers need from the email client.
type Mailer interface {
	Configured() bool
	SendContactAcknowledgement(ctx context.Context, to string, d email.ContactDetails) error
	SendApplicationAcknowledgement(ctx context.Context, to, name, position string) error
	SendNewsletterWelcome(ctx context.Context, to string) error
	SendNewsletterSignupNotice(ctx context.Context, subscriber string) error
}

// JobService holds the asynq client (enqueue side) and server (worker side).
// Both share the application's redis client.
type JobService struct {
	Client *asynq.Client
	server *asynq.Server
	mailer Mailer
	logger *zerolog.Logger
}

// NewJobService builds the client and worker on rdb.
func NewJobService(logger *zerolog.Logger, rdb redis.UniversalClient, mailer Mailer) *JobService {
	j := &JobService{
		Client: asynq.NewClientFromRedisClient(rdb),
		mailer: mailer,
		logger: logger,
	}

	j.server = asynq.NewServerFromRedisClient(rdb, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			QueueCritical: 6,
			QueueDefault:  3,
			QueueLow:      1,
		},
		Logger:       newAsynqLogger(logger),
		ErrorHandler: asynq.ErrorHandlerFunc(j.handleTaskError),
	})

	return j
}

// Configured reports whether enqueued notifications can actually be sent.
func (j *JobService) Configured() bool {
	return j != nil && j.mailer != nil && j.mailer.Configured()
}

// Enqueue pushes task onto its queue.
func (j *JobService) Enqueue(ctx context.Context, task *asynq.Task) error {
	info, err := j.Client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}

	j.logger.Debug().
		Str("task", task.Type()).
		Str("task_id", info.ID).
		Str("queue", info.Queue).
		Msg("task enqueued")
	return nil
}

// Mux routes task types to their handlers.
func (j *JobService) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskContactAck, j.handleContactAckTask)
	mux.HandleFunc(TaskApplicationAck, j.handleApplicationAckTask)
	mux.HandleFunc(TaskNewsletterWelcome, j.handleNewsletterWelcomeTask)
	mux.HandleFunc(TaskNewsletterNotice, j.handleNewsletterNoticeTask)
	return mux
}

// Start launches the workers; it does not block.
func (j *JobService) Start() error {
	j.logger.Info().Msg("starting background job server")
	return j.server.Start(j.Mux())
}

// Stop waits for in-flight tasks and stops the workers. The redis client
// is shared and closed by its owner.
func (j *JobService) Stop() {
	j.logger.Info().Msg("stopping background job server")
	j.server.Shutdown()
}

func (j *JobService) handleTaskError(ctx context.Context, task *asynq.Task, err error) {
	j.logger.Error().
		Err(err).
		Str("task", task.Type()).
		Msg("notification task failed, not retrying")
}
