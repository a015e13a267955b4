package http

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewRouter builds the echo instance serving s.
//
//	GET  /health
//	GET  /metrics
//	POST /api/v1/orders
//	GET  /api/v1/orders/active?customer=<ref>
//	GET  /api/v1/orders/:id
//	POST /api/v1/operator/actions
//	POST /api/v1/operator/telegram
//	GET  /api/v1/openapi.json
func NewRouter(s *Server, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(echo.WrapMiddleware(otelhttp.NewMiddleware("fulfillment")))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURIPath: true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"path", v.URIPath,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			logger.DebugContext(c.Request().Context(), "HTTP request", attrs...)
			return nil
		},
	}))

	e.GET("/health", s.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	api.POST("/orders", s.CreateOrder)
	api.GET("/orders/active", s.GetActiveOrders)
	api.GET("/orders/:id", s.GetOrder)
	api.POST("/operator/actions", s.HandleOperatorAction)
	api.POST("/operator/telegram", s.HandleTelegramUpdate)
	api.GET("/openapi.json", s.OpenAPIDocument)

	return e
}
