// Package router builds the echo instance: global middleware, the error
// handler and every route.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/yourconsultingltd/ycl-backend/internal/handler"
	"github.com/yourconsultingltd/ycl-backend/internal/middleware"
	"github.com/yourconsultingltd/ycl-backend/internal/server"
)

// NewRouter wires the middleware chain and registers the routes.
//
// Order matters: the request id comes first so traces and the request
// logger can carry it, the New Relic transaction must exist before the
// context logger reads its trace ids, and CORS runs before the body limit
// so preflight requests are answered regardless of size.
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	mw := middleware.NewMiddlewares(s)

	r := echo.New()
	r.HideBanner = true
	r.HidePort = true
	r.HTTPErrorHandler = mw.Global.GlobalErrorHandler

	r.Use(
		middleware.RequestID(),
		mw.Tracing.NewRelicMiddleware(),
		mw.Tracing.EnhanceTracing(),
		mw.ContextEnhancer.EnhanceContext(),
		mw.Global.RequestLogger(),
		mw.Global.Recover(),
		mw.Global.Secure(),
		mw.Global.CORS(),
		mw.Global.BodyLimit(),
	)

	registerSystemRoutes(r, h)
	registerFormRoutes(r, h)

	return r
}
