package service

import (
	"context"
	"io"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/yourconsultingltd/ycl-backend/internal/errs"
	"github.com/yourconsultingltd/ycl-backend/internal/lib/job"
	"github.com/yourconsultingltd/ycl-backend/internal/lib/storage"
	"github.com/yourconsultingltd/ycl-backend/internal/model"
)

// File fields accepted on an application and how many files each may carry.
const (
	FieldResume         = "resume"
	FieldAdditionalDocs = "additionalDocs"

	MaxResumeFiles    = 1
	MaxAdditionalDocs = 5
)

// FileLimits maps each accepted file field to its maximum count. Files under
// any other field are ignored.
var FileLimits = map[string]int{
	FieldResume:         MaxResumeFiles,
	FieldAdditionalDocs: MaxAdditionalDocs,
}

// Upload is one file received with an application.
type Upload struct {
	Field       string
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// ApplicationStore persists job applications.
type ApplicationStore interface {
	Create(ctx context.Context, app *model.JobApplication) error
}

type ApplicationService struct {
	store   ApplicationStore
	storage storage.Storage
	notifier
	now func() time.Time
}

func NewApplicationService(store ApplicationStore, files storage.Storage, dispatcher Dispatcher, logger *zerolog.Logger) *ApplicationService {
	return &ApplicationService{
		store:    store,
		storage:  files,
		notifier: notifier{dispatcher: dispatcher, logger: logger},
		now:      time.Now,
	}
}

// Submit stores the uploads, then the application referencing them, and
// acknowledges the applicant. Counts must already be within FileLimits.
//
// If storing a file or the record itself fails, the files saved so far are
// removed again. When the database is down the files are kept and the
// record is skipped.
func (s *ApplicationService) Submit(ctx context.Context, fields model.Document, uploads []Upload) (*SubmissionResult, error) {
	log := s.log(ctx)

	files, err := s.saveFiles(ctx, uploads)
	if err != nil {
		log.Error().Err(err).Msg("failed to store application files")
		return nil, errs.NewOperationFailedError("Failed to save application.").WithDetail(err)
	}

	app := model.NewJobApplication(fields, files, s.now())
	result := &SubmissionResult{Database: DatabaseSaved}

	if err := s.store.Create(ctx, app); err != nil {
		if !unavailable(err) {
			log.Error().Err(err).Msg("failed to store job application")
			s.removeFiles(ctx, files)
			return nil, errs.NewOperationFailedError("Failed to save application.").WithDetail(err)
		}
		log.Warn().Int("files", countFiles(files)).Msg("database not connected, job application not stored")
		result.Database = DatabaseNotConnected
	} else {
		log.Info().
			Str("application_id", app.ID.String()).
			Int("files", countFiles(files)).
			Msg("job application stored")
	}

	payload := job.ApplicationAckPayload{
		To:       app.Email(),
		Name:     app.Fields.FirstOf("name", "fullName", "firstName"),
		Position: app.Fields.String("position"),
	}
	result.Email = s.emailStatus(ctx, payload.To, func() (*asynq.Task, error) {
		return job.NewApplicationAckTask(payload)
	})

	return result, nil
}

func (s *ApplicationService) saveFiles(ctx context.Context, uploads []Upload) (map[string][]model.FileRef, error) {
	files := map[string][]model.FileRef{}

	for _, u := range uploads {
		if _, ok := FileLimits[u.Field]; !ok {
			continue
		}

		ref, err := s.saveFile(ctx, u)
		if err != nil {
			s.removeFiles(ctx, files)
			return nil, err
		}
		files[u.Field] = append(files[u.Field], ref)
	}

	return files, nil
}

func (s *ApplicationService) saveFile(ctx context.Context, u Upload) (model.FileRef, error) {
	body, err := u.Open()
	if err != nil {
		return model.FileRef{}, err
	}
	defer body.Close()

	return s.storage.Save(ctx, u.Name, body, u.Size, u.ContentType)
}

func (s *ApplicationService) removeFiles(ctx context.Context, files map[string][]model.FileRef) {
	for _, refs := range files {
		for _, ref := range refs {
			if err := s.storage.Delete(ctx, ref.StoredName); err != nil {
				s.log(ctx).Warn().Err(err).Str("file", ref.StoredName).Msg("failed to remove orphaned upload")
			}
		}
	}
}

func countFiles(files map[string][]model.FileRef) int {
	n := 0
	for _, refs := range files {
		n += len(refs)
	}
	return n
}
