package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/hibiken/asynq"

	"github.com/yourconsultingltd/ycl-backend/internal/database"
	"github.com/yourconsultingltd/ycl-backend/internal/model"
)

var errBoom = errors.New("boom")

type fakeDispatcher struct {
	mu         sync.Mutex
	configured bool
	err        error
	tasks      []*asynq.Task
}

func (d *fakeDispatcher) Configured() bool { return d.configured }

func (d *fakeDispatcher) Enqueue(_ context.Context, task *asynq.Task) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tasks = append(d.tasks, task)
	return d.err
}

func (d *fakeDispatcher) types() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.tasks))
	for _, t := range d.tasks {
		out = append(out, t.Type())
	}
	return out
}

type fakeContactStore struct {
	err     error
	created []*model.ContactSubmission
}

func (s *fakeContactStore) Create(_ context.Context, sub *model.ContactSubmission) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, sub)
	return nil
}

type fakeApplicationStore struct {
	err     error
	created []*model.JobApplication
}

func (s *fakeApplicationStore) Create(_ context.Context, app *model.JobApplication) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, app)
	return nil
}

type fakeNewsletterStore struct {
	mu   sync.Mutex
	err  error
	subs map[string]*model.NewsletterSubscription
}

func newFakeNewsletterStore() *fakeNewsletterStore {
	return &fakeNewsletterStore{subs: map[string]*model.NewsletterSubscription{}}
}

func (s *fakeNewsletterStore) Exists(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	_, ok := s.subs[email]
	return ok, nil
}

func (s *fakeNewsletterStore) Create(_ context.Context, email string, at time.Time) (*model.NewsletterSubscription, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, false, s.err
	}
	if _, ok := s.subs[email]; ok {
		return nil, false, nil
	}
	sub := &model.NewsletterSubscription{Email: email, SubscribedAt: at}
	s.subs[email] = sub
	return sub, true, nil
}

type fakeProbe struct {
	connected bool
	err       error
}

func (p fakeProbe) Connected() bool              { return p.connected }
func (p fakeProbe) Ping(_ context.Context) error { return p.err }

func upload(field, name, body string) Upload {
	return Upload{
		Field: field,
		Name:  name,
		Size:  int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

func unavailableErr() error {
	return database.ErrUnavailable
}
