package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yourconsultingltd/ycl-backend/internal/server"
	"github.com/yourconsultingltd/ycl-backend/internal/service"
)

type HealthHandler struct {
	Handler
	health *service.HealthService
}

func NewHealthHandler(s *server.Server, health *service.HealthService) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
		health:  health,
	}
}

// CheckHealth handles GET /api/health. It answers 200 whenever the process
// can respond; dependency state is in the body.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, h.health.Check(c.Request().Context()))
}
