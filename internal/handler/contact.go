package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/yourconsultingltd/ycl-backend/internal/model"
	"github.com/yourconsultingltd/ycl-backend/internal/server"
	"github.com/yourconsultingltd/ycl-backend/internal/service"
)

// ContactRequest accepts any set of fields.
type ContactRequest struct {
	Fields model.Document

	maxMemory int64
}

func (r *ContactRequest) Bind(c echo.Context) error {
	doc, _, err := readForm(c, r.maxMemory)
	if err != nil {
		return err
	}
	r.Fields = doc
	return nil
}

func (r *ContactRequest) Validate() error {
	return nil
}

type ContactHandler struct {
	Handler
	contact *service.ContactService
}

func NewContactHandler(s *server.Server, contact *service.ContactService) *ContactHandler {
	return &ContactHandler{
		Handler: NewHandler(s),
		contact: contact,
	}
}

func (h *ContactHandler) NewRequest() *ContactRequest {
	return &ContactRequest{maxMemory: h.server.Config.Uploads.MaxMemory}
}

// Submit handles POST /api/contact.
func (h *ContactHandler) Submit(c echo.Context, req *ContactRequest) (*SubmissionResponse, error) {
	res, err := h.contact.Submit(c.Request().Context(), req.Fields)
	if err != nil {
		return nil, err
	}
	return newSubmissionResponse("Contact form submitted successfully!", res), nil
}
