package router

import (
	"github.com/labstack/echo/v4"

	"github.com/yourconsultingltd/ycl-backend/internal/handler"
)

// registerSystemRoutes registers the endpoints that aren't form handling:
// the descriptor, health, uploaded files and the API docs.
func registerSystemRoutes(r *echo.Echo, h *handler.Handlers) {
	r.GET("/", h.Root.Describe)
	r.GET("/api/health", h.Health.CheckHealth)

	r.GET("/uploads/:name", handler.HandleStream(h.Uploads.Handler, h.Uploads.Serve, h.Uploads.NewRequest))

	r.Static("/static", "static")
	r.GET("/docs", h.OpenAPI.ServeOpenAPIUI)
}
