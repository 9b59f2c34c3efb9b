package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yourconsultingltd/ycl-backend/internal/server"
)

// Endpoints lists the public routes.
type Endpoints struct {
	Health     string `json:"health"`
	Contact    string `json:"contact"`
	Apply      string `json:"apply"`
	Newsletter string `json:"newsletter"`
	Uploads    string `json:"uploads"`
	Docs       string `json:"docs"`
}

// Descriptor is the body of GET /.
type Descriptor struct {
	Message   string    `json:"message"`
	Version   string    `json:"version"`
	Endpoints Endpoints `json:"endpoints"`
}

var endpoints = Endpoints{
	Health:     "/api/health",
	Contact:    "/api/contact",
	Apply:      "/api/apply",
	Newsletter: "/api/newsletter",
	Uploads:    "/uploads/:name",
	Docs:       "/docs",
}

type RootHandler struct {
	Handler
}

func NewRootHandler(s *server.Server) *RootHandler {
	return &RootHandler{Handler: NewHandler(s)}
}

// Describe handles GET /.
func (h *RootHandler) Describe(c echo.Context) error {
	return c.JSON(http.StatusOK, Descriptor{
		Message:   "YCL Backend API is running",
		Version:   h.server.Config.Primary.Version,
		Endpoints: endpoints,
	})
}
