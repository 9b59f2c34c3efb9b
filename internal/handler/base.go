package handler

import (
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/yourconsultingltd/ycl-backend/internal/lib/storage"
	"github.com/yourconsultingltd/ycl-backend/internal/middleware"
	"github.com/yourconsultingltd/ycl-backend/internal/server"
	"github.com/yourconsultingltd/ycl-backend/internal/validation"
)

// uploadCSP is sent with every upload except PDFs, which browsers refuse
// to render in a sandbox.
const uploadCSP = "default-src 'none'; img-src 'self'; style-src 'unsafe-inline'; sandbox"

// Handler carries the shared dependencies every handler embeds.
type Handler struct {
	server *server.Server
}

func NewHandler(s *server.Server) Handler {
	return Handler{server: s}
}

// HandlerFunc is an endpoint receiving a bound, validated request.
// Req is a pointer type.
type HandlerFunc[Req validation.Validatable, Res any] func(c echo.Context, req Req) (Res, error)

// ResponseHandler writes a successful result and describes it for logs
// and traces.
type ResponseHandler interface {
	Handle(c echo.Context, result interface{}) error
	GetOperation() string
	AddAttributes(txn *newrelic.Transaction, result interface{})
}

// JSONResponseHandler writes the result as JSON.
type JSONResponseHandler struct {
	status int
}

func (h JSONResponseHandler) Handle(c echo.Context, result interface{}) error {
	return c.JSON(h.status, result)
}

func (h JSONResponseHandler) GetOperation() string {
	return "handler"
}

func (h JSONResponseHandler) AddAttributes(txn *newrelic.Transaction, result interface{}) {
	// http.status_code is set by EnhanceTracing.
}

// StreamResponseHandler copies a *storage.Object to the client and closes it.
// Uploads are client content: anything storage doesn't allow inline is sent
// as an attachment under a sandbox CSP.
type StreamResponseHandler struct {
	status int
}

func (h StreamResponseHandler) Handle(c echo.Context, result interface{}) error {
	obj := result.(*storage.Object)
	defer obj.Body.Close()

	header := c.Response().Header()
	disposition := "attachment"
	if obj.Inline() {
		disposition = "inline"
	}
	if obj.Name != "" {
		disposition = mime.FormatMediaType(disposition, map[string]string{"filename": obj.Name})
	}
	header.Set(echo.HeaderContentDisposition, disposition)
	if obj.ContentType != "application/pdf" {
		header.Set(echo.HeaderContentSecurityPolicy, uploadCSP)
	}
	header.Set(echo.HeaderXContentTypeOptions, "nosniff")

	if obj.Size > 0 {
		header.Set(echo.HeaderContentLength, strconv.FormatInt(obj.Size, 10))
	}
	return c.Stream(h.status, obj.ContentType, obj.Body)
}

func (h StreamResponseHandler) GetOperation() string {
	return "handler_stream"
}

func (h StreamResponseHandler) AddAttributes(txn *newrelic.Transaction, result interface{}) {
	if obj, ok := result.(*storage.Object); ok && obj != nil {
		txn.AddAttribute("file.content_type", obj.ContentType)
		txn.AddAttribute("file.size_bytes", obj.Size)
	}
}

// handleRequest is the pipeline every typed endpoint runs through: bind and
// validate, call the endpoint, write the result. Errors are returned for the
// global error handler to render. Each phase is timed in the logs and, when
// New Relic is on, on the transaction.
func handleRequest[Req validation.Validatable](
	c echo.Context,
	req Req,
	handler func(c echo.Context, req Req) (interface{}, error),
	responseHandler ResponseHandler,
) error {
	start := time.Now()
	route := c.Path()

	txn := newrelic.FromContext(c.Request().Context())
	if txn != nil {
		txn.AddAttribute("handler.name", route)
	}

	logger := middleware.GetLogger(c).With().
		Str("operation", responseHandler.GetOperation()).
		Str("route", route).
		Logger()

	logger.Debug().Msg("handling request")

	validationStart := time.Now()
	if err := validation.BindAndValidate(c, req); err != nil {
		validationDuration := time.Since(validationStart)

		logger.Warn().
			Err(err).
			Dur("validation_duration", validationDuration).
			Msg("request validation failed")

		if txn != nil {
			txn.NoticeError(nrpkgerrors.Wrap(err))
			txn.AddAttribute("validation.status", "failed")
			txn.AddAttribute("validation.duration_ms", validationDuration.Milliseconds())
		}
		return err
	}

	validationDuration := time.Since(validationStart)
	if txn != nil {
		txn.AddAttribute("validation.status", "success")
		txn.AddAttribute("validation.duration_ms", validationDuration.Milliseconds())
	}

	handlerStart := time.Now()
	result, err := handler(c, req)
	handlerDuration := time.Since(handlerStart)

	if err != nil {
		logger.Error().
			Err(err).
			Dur("handler_duration", handlerDuration).
			Dur("total_duration", time.Since(start)).
			Msg("handler execution failed")

		if txn != nil {
			txn.NoticeError(nrpkgerrors.Wrap(err))
			txn.AddAttribute("handler.status", "error")
			txn.AddAttribute("handler.duration_ms", handlerDuration.Milliseconds())
		}
		return err
	}

	if txn != nil {
		txn.AddAttribute("handler.status", "success")
		txn.AddAttribute("handler.duration_ms", handlerDuration.Milliseconds())
		txn.AddAttribute("total.duration_ms", time.Since(start).Milliseconds())
		responseHandler.AddAttributes(txn, result)
	}

	logger.Info().
		Dur("handler_duration", handlerDuration).
		Dur("validation_duration", validationDuration).
		Dur("total_duration", time.Since(start)).
		Msg("request completed successfully")

	return responseHandler.Handle(c, result)
}

// Handle adapts a typed endpoint to echo. newReq is called once per request
// so concurrent requests never share a payload.
//
//	e.POST("/api/newsletter", handler.Handle(h.Handler, h.Subscribe, http.StatusOK, newNewsletterRequest))
func Handle[Req validation.Validatable, Res any](
	h Handler,
	handler HandlerFunc[Req, Res],
	status int,
	newReq func() Req,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		return handleRequest(c, newReq(), func(c echo.Context, req Req) (interface{}, error) {
			return handler(c, req)
		}, JSONResponseHandler{status: status})
	}
}

// HandleStream adapts an endpoint that returns an opened upload.
func HandleStream[Req validation.Validatable](
	h Handler,
	handler HandlerFunc[Req, *storage.Object],
	newReq func() Req,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		return handleRequest(c, newReq(), func(c echo.Context, req Req) (interface{}, error) {
			return handler(c, req)
		}, StreamResponseHandler{status: http.StatusOK})
	}
}
