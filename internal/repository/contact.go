package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/yourconsultingltd/ycl-backend/internal/model"
)

type ContactRepository struct {
	store
}

func NewContactRepository(db DBTX, probe StatusProbe) *ContactRepository {
	return &ContactRepository{store{db: db, probe: probe}}
}

const insertContactSubmission = `
INSERT INTO contact_submissions (id, email, data, submitted_at)
VALUES ($1, $2, $3, $4)`

// Create stores sub and assigns its ID.
func (r *ContactRepository) Create(ctx context.Context, sub *model.ContactSubmission) error {
	if err := r.available(); err != nil {
		return err
	}

	data, err := json.Marshal(sub.Fields)
	if err != nil {
		return fmt.Errorf("encode contact submission: %w", err)
	}

	id := uuid.New()
	if _, err := r.db.Exec(ctx, insertContactSubmission, id, nullable(sub.Email()), data, sub.SubmittedAt); err != nil {
		return wrap("insert contact submission", err)
	}

	sub.ID = id
	return nil
}
