package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yourconsultingltd/ycl-backend/internal/model"
)

type NewsletterRepository struct {
	store
}

func NewNewsletterRepository(db DBTX, probe StatusProbe) *NewsletterRepository {
	return &NewsletterRepository{store{db: db, probe: probe}}
}

const (
	existsSubscription = `SELECT EXISTS (SELECT 1 FROM newsletter_subscriptions WHERE email = $1)`

	insertSubscription = `
INSERT INTO newsletter_subscriptions (id, email, subscribed_at)
VALUES ($1, $2, $3)
ON CONFLICT (email) DO NOTHING`
)

// Exists reports whether email is already subscribed. Matching is exact.
func (r *NewsletterRepository) Exists(ctx context.Context, email string) (bool, error) {
	if err := r.available(); err != nil {
		return false, err
	}

	var exists bool
	if err := r.db.QueryRow(ctx, existsSubscription, email).Scan(&exists); err != nil {
		return false, wrap("lookup newsletter subscription", err)
	}
	return exists, nil
}

// Create subscribes email. created is false when another request subscribed
// the same address first; that is not an error.
func (r *NewsletterRepository) Create(ctx context.Context, email string, at time.Time) (sub *model.NewsletterSubscription, created bool, err error) {
	if err := r.available(); err != nil {
		return nil, false, err
	}

	sub = &model.NewsletterSubscription{
		ID:           uuid.New(),
		Email:        email,
		SubscribedAt: at.UTC(),
	}

	tag, err := r.db.Exec(ctx, insertSubscription, sub.ID, sub.Email, sub.SubscribedAt)
	if err != nil {
		return nil, false, wrap("insert newsletter subscription", err)
	}

	return sub, tag.RowsAffected() == 1, nil
}
