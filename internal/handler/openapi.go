package handler

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"

	"github.com/yourconsultingltd/ycl-backend/internal/errs"
	"github.com/yourconsultingltd/ycl-backend/internal/server"
)

// OpenAPIPage is the docs UI, relative to the working directory. It
// renders static/openapi.json.
const OpenAPIPage = "static/openapi.html"

type OpenAPIHandler struct {
	Handler
}

func NewOpenAPIHandler(s *server.Server) *OpenAPIHandler {
	return &OpenAPIHandler{
		Handler: NewHandler(s),
	}
}

// ServeOpenAPIUI handles GET /docs. The page is never cached so doc changes
// show up on reload. A deployment without the static directory answers 404.
func (h *OpenAPIHandler) ServeOpenAPIUI(c echo.Context) error {
	page, err := os.ReadFile(OpenAPIPage)
	if errors.Is(err, fs.ErrNotExist) {
		return errs.NewNotFoundError("API docs not available", true, nil)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", OpenAPIPage, err)
	}

	c.Response().Header().Set("Cache-Control", "no-cache")
	return c.HTMLBlob(http.StatusOK, page)
}
