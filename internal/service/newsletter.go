package service

import (
	"context"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/yourconsultingltd/ycl-backend/internal/errs"
	"github.com/yourconsultingltd/ycl-backend/internal/lib/job"
	"github.com/yourconsultingltd/ycl-backend/internal/model"
)

// NewsletterStore persists newsletter subscriptions.
type NewsletterStore interface {
	Exists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, email string, at time.Time) (*model.NewsletterSubscription, bool, error)
}

// NewsletterResult is the outcome of a subscription request. Database is
// only set when the subscription could not be recorded.
type NewsletterResult struct {
	AlreadySubscribed bool
	Database          string
	Email             string
}

type NewsletterService struct {
	store NewsletterStore
	notifier
	now func() time.Time
}

func NewNewsletterService(store NewsletterStore, dispatcher Dispatcher, logger *zerolog.Logger) *NewsletterService {
	return &NewsletterService{
		store:    store,
		notifier: notifier{dispatcher: dispatcher, logger: logger},
		now:      time.Now,
	}
}

// Subscribe records email once. A repeated address is reported as already
// subscribed, which is not an error. While the database is down nothing is
// recorded and no notification is sent, since uniqueness can't be checked.
func (s *NewsletterService) Subscribe(ctx context.Context, email string) (*NewsletterResult, error) {
	log := s.log(ctx)

	email = strings.TrimSpace(email)
	if email == "" {
		return nil, errs.NewBadRequestError("Email is required.", true, nil, nil)
	}

	exists, err := s.store.Exists(ctx, email)
	if err != nil {
		return s.storeFailure(ctx, err)
	}
	if exists {
		return &NewsletterResult{AlreadySubscribed: true}, nil
	}

	sub, created, err := s.store.Create(ctx, email, s.now())
	if err != nil {
		return s.storeFailure(ctx, err)
	}
	if !created {
		return &NewsletterResult{AlreadySubscribed: true}, nil
	}

	log.Info().Str("subscription_id", sub.ID.String()).Msg("newsletter subscription stored")

	status := s.emailStatus(ctx, email,
		func() (*asynq.Task, error) { return job.NewNewsletterNoticeTask(email) },
		func() (*asynq.Task, error) { return job.NewNewsletterWelcomeTask(email) },
	)

	return &NewsletterResult{Email: status}, nil
}

func (s *NewsletterService) storeFailure(ctx context.Context, err error) (*NewsletterResult, error) {
	if unavailable(err) {
		s.log(ctx).Warn().Msg("database not connected, newsletter subscription not stored")
		return &NewsletterResult{Database: DatabaseNotConnected}, nil
	}

	s.log(ctx).Error().Err(err).Msg("failed to store newsletter subscription")
	return nil, errs.NewOperationFailedError("Failed to subscribe.").WithDetail(err)
}
