package job

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// Task types stored in redis.
const (
	TaskContactAck        = "email:contact_ack"
	TaskApplicationAck    = "email:application_ack"
	TaskNewsletterWelcome = "email:newsletter_welcome"
	TaskNewsletterNotice  = "email:newsletter_operator"
)

const taskTimeout = 30 * time.Second

// ContactAckPayload carries what the contact acknowledgement shows.
type ContactAckPayload struct {
	To       string `json:"to"`
	Greeting string `json:"greeting"`
	Name     string `json:"name"`
	Company  string `json:"company"`
	Phone    string `json:"phone"`
}

// ApplicationAckPayload carries what the applicant acknowledgement shows.
type ApplicationAckPayload struct {
	To       string `json:"to"`
	Name     string `json:"name"`
	Position string `json:"position"`
}

// NewsletterPayload names the subscriber for both newsletter tasks.
type NewsletterPayload struct {
	Email string `json:"email"`
}

func newTask(typename, queue string, payload any) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		typename,
		body,
		asynq.MaxRetry(0),
		asynq.Queue(queue),
		asynq.Timeout(taskTimeout),
	), nil
}

func NewContactAckTask(p ContactAckPayload) (*asynq.Task, error) {
	return newTask(TaskContactAck, QueueCritical, p)
}

func NewApplicationAckTask(p ApplicationAckPayload) (*asynq.Task, error) {
	return newTask(TaskApplicationAck, QueueCritical, p)
}

func NewNewsletterWelcomeTask(subscriber string) (*asynq.Task, error) {
	return newTask(TaskNewsletterWelcome, QueueDefault, NewsletterPayload{Email: subscriber})
}

func NewNewsletterNoticeTask(subscriber string) (*asynq.Task, error) {
	return newTask(TaskNewsletterNotice, QueueLow, NewsletterPayload{Email: subscriber})
}
