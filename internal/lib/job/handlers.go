package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/yourconsultingltd/ycl-backend/internal/lib/email"
)

func decode(t *asynq.Task, v any) error {
	if err := json.Unmarshal(t.Payload(), v); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %w: %w", t.Type(), err, asynq.SkipRetry)
	}
	return nil
}

// run logs the outcome of a send. Failures are returned so asynq archives
// the task, but they are never retried.
func (j *JobService) run(kind, to string, send func() error) error {
	log := j.logger.With().Str("type", kind).Str("to", to).Logger()

	log.Info().Msg("processing email task")

	if err := send(); err != nil {
		log.Error().Err(err).Msg("failed to send email")
		return err
	}

	log.Info().Msg("successfully sent email")
	return nil
}

func (j *JobService) handleContactAckTask(ctx context.Context, t *asynq.Task) error {
	var p ContactAckPayload
	if err := decode(t, &p); err != nil {
		return err
	}

	return j.run("contact_ack", p.To, func() error {
		return j.mailer.SendContactAcknowledgement(ctx, p.To, email.ContactDetails{
			Greeting: p.Greeting,
			Name:     p.Name,
			Company:  p.Company,
			Email:    p.To,
			Phone:    p.Phone,
		})
	})
}

func (j *JobService) handleApplicationAckTask(ctx context.Context, t *asynq.Task) error {
	var p ApplicationAckPayload
	if err := decode(t, &p); err != nil {
		return err
	}

	return j.run("application_ack", p.To, func() error {
		return j.mailer.SendApplicationAcknowledgement(ctx, p.To, p.Name, p.Position)
	})
}

func (j *JobService) handleNewsletterWelcomeTask(ctx context.Context, t *asynq.Task) error {
	var p NewsletterPayload
	if err := decode(t, &p); err != nil {
		return err
	}

	return j.run("newsletter_welcome", p.Email, func() error {
		return j.mailer.SendNewsletterWelcome(ctx, p.Email)
	})
}

func (j *JobService) handleNewsletterNoticeTask(ctx context.Context, t *asynq.Task) error {
	var p NewsletterPayload
	if err := decode(t, &p); err != nil {
		return err
	}

	return j.run("newsletter_operator", p.Email, func() error {
		return j.mailer.SendNewsletterSignupNotice(ctx, p.Email)
	})
}
