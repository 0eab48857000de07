// Package api exposes the asset chaincode over REST. Writes are submitted
// asynchronously: the handlers answer 202 with a transaction id as soon as
// the broadcast is accepted, and clients poll the transaction status
// endpoint for the commit outcome.
package api

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ledgerbridge/asset-gateway/internal/infra/fabric"
)

// Ledger is the slice of the submission layer the handlers drive.
type Ledger interface {
	Submit(ctx context.Context, name string, args ...string) (string, error)
	Evaluate(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Server provides the REST endpoints plus health and metrics.
type Server struct {
	echo    *echo.Echo
	ledger  Ledger
	querier fabric.LedgerQuerier
	port    int
	apiKey  string
}

// NewServer wires routes and middleware. An empty apiKey disables
// authentication; health and metrics endpoints are always open.
func NewServer(port int, apiKey string, ledger Ledger, querier fabric.LedgerQuerier) *Server {
	s := &Server{
		echo:    echo.New(),
		ledger:  ledger,
		querier: querier,
		port:    port,
		apiKey:  apiKey,
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.New().String() },
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogURI:       true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("Request handled",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"requestID", v.RequestID,
			)
			return nil
		},
	}))

	api := e.Group("/api")
	if apiKey != "" {
		api.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-Api-Key",
			Validator: func(key string, c echo.Context) (bool, error) {
				return subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) == 1, nil
			},
		}))
	}

	api.POST("/assets", s.createAsset)
	api.GET("/assets", s.getAllAssets)
	api.GET("/assets/:assetId", s.getAsset)
	api.PUT("/assets/:assetId", s.updateAsset)
	api.DELETE("/assets/:assetId", s.deleteAsset)
	api.GET("/transactions/:txId", s.getTransaction)

	e.GET("/healthz", s.healthz)
	e.GET("/readyz", s.readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return s
}

// Start serves until the listener fails or Stop is called.
func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%d", s.port))
}

// Stop drains in-flight requests and shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the routed handler for tests that bind their own listener.
func (s *Server) Handler() http.Handler {
	return s.echo
}
