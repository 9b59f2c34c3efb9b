// Package handler is the HTTP layer. It binds and validates requests,
// calls the service layer and shapes the JSON responses the website
// forms read.
package handler

import (
	"github.com/yourconsultingltd/ycl-backend/internal/server"
	"github.com/yourconsultingltd/ycl-backend/internal/service"
)

// Handlers groups every HTTP handler for the router.
type Handlers struct {
	Root       *RootHandler
	Health     *HealthHandler
	Contact    *ContactHandler
	Apply      *ApplyHandler
	Newsletter *NewsletterHandler
	Uploads    *UploadsHandler
	OpenAPI    *OpenAPIHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Root:       NewRootHandler(s),
		Health:     NewHealthHandler(s, services.Health),
		Contact:    NewContactHandler(s, services.Contact),
		Apply:      NewApplyHandler(s, services.Application),
		Newsletter: NewNewsletterHandler(s, services.Newsletter),
		Uploads:    NewUploadsHandler(s),
		OpenAPI:    NewOpenAPIHandler(s),
	}
}
