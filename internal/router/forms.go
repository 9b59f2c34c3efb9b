package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yourconsultingltd/ycl-backend/internal/handler"
)

// registerFormRoutes registers the endpoints the website forms post to.
func registerFormRoutes(r *echo.Echo, h *handler.Handlers) {
	api := r.Group("/api")

	api.POST("/contact", handler.Handle(h.Contact.Handler, h.Contact.Submit, http.StatusOK, h.Contact.NewRequest))
	api.POST("/apply", handler.Handle(h.Apply.Handler, h.Apply.Submit, http.StatusOK, h.Apply.NewRequest))
	api.POST("/newsletter", handler.Handle(h.Newsletter.Handler, h.Newsletter.Subscribe, http.StatusOK, h.Newsletter.NewRequest))
}
