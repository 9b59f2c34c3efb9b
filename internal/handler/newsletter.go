package handler

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/yourconsultingltd/ycl-backend/internal/server"
	"github.com/yourconsultingltd/ycl-backend/internal/service"
	"github.com/yourconsultingltd/ycl-backend/internal/validation"
)

type NewsletterRequest struct {
	Email string `json:"email" form:"email"`
}

func (r *NewsletterRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" {
		return validation.CustomValidationErrors{{Field: "email", Message: "is required"}}
	}
	return nil
}

// NewsletterResponse is returned by POST /api/newsletter. Database is only
// present when the subscription could not be recorded.
type NewsletterResponse struct {
	Success           bool   `json:"success"`
	AlreadySubscribed bool   `json:"alreadySubscribed"`
	Message           string `json:"message"`
	Database          string `json:"database,omitempty"`
}

type NewsletterHandler struct {
	Handler
	newsletter *service.NewsletterService
}

func NewNewsletterHandler(s *server.Server, newsletter *service.NewsletterService) *NewsletterHandler {
	return &NewsletterHandler{
		Handler:    NewHandler(s),
		newsletter: newsletter,
	}
}

func (h *NewsletterHandler) NewRequest() *NewsletterRequest {
	return &NewsletterRequest{}
}

// Subscribe handles POST /api/newsletter.
func (h *NewsletterHandler) Subscribe(c echo.Context, req *NewsletterRequest) (*NewsletterResponse, error) {
	res, err := h.newsletter.Subscribe(c.Request().Context(), req.Email)
	if err != nil {
		return nil, err
	}

	resp := &NewsletterResponse{
		Success:           true,
		AlreadySubscribed: res.AlreadySubscribed,
		Database:          res.Database,
	}
	switch {
	case res.AlreadySubscribed:
		resp.Message = "Email already subscribed."
	case res.Database == service.DatabaseNotConnected:
		resp.Message = "Subscription received."
	default:
		resp.Message = "Successfully subscribed to newsletter!"
	}
	return resp, nil
}
