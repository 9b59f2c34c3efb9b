package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/yourconsultingltd/ycl-backend/internal/model"
)

type ApplicationRepository struct {
	store
}

func NewApplicationRepository(db DBTX, probe StatusProbe) *ApplicationRepository {
	return &ApplicationRepository{store{db: db, probe: probe}}
}

const insertJobApplication = `
INSERT INTO job_applications (id, email, data, files, submitted_at)
VALUES ($1, $2, $3, $4, $5)`

// Create stores app and assigns its ID. The files themselves must already
// be in upload storage.
func (r *ApplicationRepository) Create(ctx context.Context, app *model.JobApplication) error {
	if err := r.available(); err != nil {
		return err
	}

	data, err := json.Marshal(app.Fields)
	if err != nil {
		return fmt.Errorf("encode job application: %w", err)
	}
	files, err := json.Marshal(app.Files)
	if err != nil {
		return fmt.Errorf("encode job application files: %w", err)
	}

	id := uuid.New()
	if _, err := r.db.Exec(ctx, insertJobApplication, id, nullable(app.Email()), data, files, app.SubmittedAt); err != nil {
		return wrap("insert job application", err)
	}

	app.ID = id
	return nil
}
