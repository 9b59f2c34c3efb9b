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

// ContactStore persists contact submissions.
type ContactStore interface {
	Create(ctx context.Context, sub *model.ContactSubmission) error
}

type ContactService struct {
	store ContactStore
	notifier
	now func() time.Time
}

func NewContactService(store ContactStore, dispatcher Dispatcher, logger *zerolog.Logger) *ContactService {
	return &ContactService{
		store:    store,
		notifier: notifier{dispatcher: dispatcher, logger: logger},
		now:      time.Now,
	}
}

// Submit stores fields as a contact submission and acknowledges the sender.
// The acknowledgement is attempted even when the database is down.
func (s *ContactService) Submit(ctx context.Context, fields model.Document) (*SubmissionResult, error) {
	log := s.log(ctx)
	sub := model.NewContactSubmission(fields, s.now())

	result := &SubmissionResult{Database: DatabaseSaved}

	if err := s.store.Create(ctx, sub); err != nil {
		if !unavailable(err) {
			log.Error().Err(err).Msg("failed to store contact submission")
			return nil, errs.NewOperationFailedError("Failed to process contact form.").WithDetail(err)
		}
		log.Warn().Msg("database not connected, contact submission not stored")
		result.Database = DatabaseNotConnected
	} else {
		log.Info().Str("submission_id", sub.ID.String()).Msg("contact submission stored")
	}

	payload := job.ContactAckPayload{
		To:       sub.Email(),
		Greeting: sub.Fields.FirstOf("firstName", "name"),
		Name:     contactName(sub.Fields),
		Company:  sub.Fields.String("company"),
		Phone:    sub.Fields.String("phone"),
	}
	result.Email = s.emailStatus(ctx, payload.To, func() (*asynq.Task, error) {
		return job.NewContactAckTask(payload)
	})

	return result, nil
}

// contactName joins first and last name, falling back to a single name field.
func contactName(d model.Document) string {
	if full := strings.TrimSpace(d.String("firstName") + " " + d.String("lastName")); full != "" {
		return full
	}
	return d.String("name")
}
