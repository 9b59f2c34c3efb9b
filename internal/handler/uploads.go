package handler

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/yourconsultingltd/ycl-backend/internal/errs"
	"github.com/yourconsultingltd/ycl-backend/internal/lib/storage"
	"github.com/yourconsultingltd/ycl-backend/internal/server"
	"github.com/yourconsultingltd/ycl-backend/internal/validation"
)

type UploadRequest struct {
	Name string `param:"name" json:"name" validate:"required"`
}

func (r *UploadRequest) Validate() error {
	return validation.Struct(r)
}

type UploadsHandler struct {
	Handler
}

func NewUploadsHandler(s *server.Server) *UploadsHandler {
	return &UploadsHandler{Handler: NewHandler(s)}
}

func (h *UploadsHandler) NewRequest() *UploadRequest {
	return &UploadRequest{}
}

// Serve handles GET /uploads/:name.
func (h *UploadsHandler) Serve(c echo.Context, req *UploadRequest) (*storage.Object, error) {
	obj, err := h.server.Storage.Open(c.Request().Context(), req.Name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, errs.NewNotFoundError("File not found", true, nil)
	}
	if err != nil {
		return nil, err
	}
	return obj, nil
}
