package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrecho-v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/yourconsultingltd/ycl-backend/internal/server"
)

// TracingMiddleware owns the New Relic middleware. Without an application
// both of its middlewares pass requests straight through.
type TracingMiddleware struct {
	server *server.Server
	nrApp  *newrelic.Application
}

func NewTracingMiddleware(s *server.Server, nrApp *newrelic.Application) *TracingMiddleware {
	return &TracingMiddleware{
		server: s,
		nrApp:  nrApp,
	}
}

// NewRelicMiddleware starts a transaction per request.
func (tm *TracingMiddleware) NewRelicMiddleware() echo.MiddlewareFunc {
	if tm.nrApp == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}
	return nrecho.Middleware(tm.nrApp)
}

// EnhanceTracing tags the transaction with the request id, client and
// body details, and the final status. Only server-side failures are noticed
// as errors; a rejected form is an expected outcome. It must run after
// NewRelicMiddleware and RequestID.
func (tm *TracingMiddleware) EnhanceTracing() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			txn := newrelic.FromContext(c.Request().Context())
			if txn == nil {
				return next(c)
			}

			req := c.Request()
			txn.AddAttribute("request.id", GetRequestID(c))
			txn.AddAttribute("client.ip", c.RealIP())
			txn.AddAttribute("client.user_agent", req.UserAgent())
			txn.AddAttribute("service.environment", tm.server.Config.Primary.Env)
			if ct := req.Header.Get(echo.HeaderContentType); ct != "" {
				txn.AddAttribute("request.content_type", ct)
				txn.AddAttribute("request.content_length", req.ContentLength)
			}

			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = statusOf(err)
				if status >= http.StatusInternalServerError {
					txn.NoticeError(nrpkgerrors.Wrap(err))
				}
			}
			txn.AddAttribute("http.status_code", status)

			return err
		}
	}
}
