package handler

import (
	"fmt"
	"io"
	"mime/multipart"

	"github.com/labstack/echo/v4"

	"github.com/yourconsultingltd/ycl-backend/internal/model"
	"github.com/yourconsultingltd/ycl-backend/internal/server"
	"github.com/yourconsultingltd/ycl-backend/internal/service"
	"github.com/yourconsultingltd/ycl-backend/internal/validation"
)

// fileFields is the order accepted file fields are checked and stored in.
var fileFields = []string{service.FieldResume, service.FieldAdditionalDocs}

// ApplyRequest is a job application: free-form fields plus the files
// posted under the accepted file fields.
type ApplyRequest struct {
	Fields model.Document
	Files  map[string][]*multipart.FileHeader

	maxMemory int64
}

func (r *ApplyRequest) Bind(c echo.Context) error {
	doc, files, err := readForm(c, r.maxMemory)
	if err != nil {
		return err
	}
	r.Fields = doc
	r.Files = files
	return nil
}

// Validate rejects the request when a file field carries more files than
// it accepts, before any of them is stored.
func (r *ApplyRequest) Validate() error {
	var fieldErrors validation.CustomValidationErrors
	for _, field := range fileFields {
		limit := service.FileLimits[field]
		if n := len(r.Files[field]); n > limit {
			fieldErrors = append(fieldErrors, validation.CustomValidationError{
				Field:   field,
				Message: fmt.Sprintf("accepts at most %d file(s), got %d", limit, n),
			})
		}
	}
	if len(fieldErrors) > 0 {
		return fieldErrors
	}
	return nil
}

// Uploads lists the accepted files in field order. Other file fields are
// dropped.
func (r *ApplyRequest) Uploads() []service.Upload {
	var uploads []service.Upload
	for _, field := range fileFields {
		for _, fh := range r.Files[field] {
			uploads = append(uploads, service.Upload{
				Field:       field,
				Name:        fh.Filename,
				Size:        fh.Size,
				ContentType: fh.Header.Get(echo.HeaderContentType),
				Open: func() (io.ReadCloser, error) {
					return fh.Open()
				},
			})
		}
	}
	return uploads
}

type ApplyHandler struct {
	Handler
	applications *service.ApplicationService
}

func NewApplyHandler(s *server.Server, applications *service.ApplicationService) *ApplyHandler {
	return &ApplyHandler{
		Handler:      NewHandler(s),
		applications: applications,
	}
}

func (h *ApplyHandler) NewRequest() *ApplyRequest {
	return &ApplyRequest{maxMemory: h.server.Config.Uploads.MaxMemory}
}

// Submit handles POST /api/apply.
func (h *ApplyHandler) Submit(c echo.Context, req *ApplyRequest) (*SubmissionResponse, error) {
	uploads := req.Uploads()

	res, err := h.applications.Submit(c.Request().Context(), req.Fields, uploads)
	if err != nil {
		return nil, err
	}

	message := "Application submitted successfully!"
	if len(uploads) > 0 {
		message = "Application with files submitted successfully!"
	}
	return newSubmissionResponse(message, res), nil
}
