package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/zabank/ledger-api/docs"
	"github.com/zabank/ledger-api/internal/api/handler"
	"github.com/zabank/ledger-api/internal/api/middleware"
	"github.com/zabank/ledger-api/internal/core/ports"
	"github.com/zabank/ledger-api/internal/infrastructure/http/handlers"
)

// Dependencies are the services and settings the router wires into handlers.
type Dependencies struct {
	Registration ports.RegistrationService
	Auth         ports.AuthService
	Ledger       ports.LedgerService
	Revoker      ports.TokenRevoker
	JWTSecret    string
	Currency     string
	HealthChecks []handlers.Check
	Log          zerolog.Logger

	// Registry receives the HTTP metrics and backs /metrics. Nil uses the
	// process-wide default registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(metricsConfig(deps.Registry)))

	authHandler := handler.NewAuthHandler(deps.Registration, deps.Auth, deps.Currency)
	ledgerHandler := handler.NewLedgerHandler(deps.Ledger, deps.Currency)
	requireAuth := middleware.Auth(deps.JWTSecret, deps.Revoker, deps.Log)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout, requireAuth)

	// --- Ledger routes (JWT required) ---
	v1 := e.Group("/v1", requireAuth)
	v1.GET("/account", ledgerHandler.Account)
	v1.POST("/deposit", ledgerHandler.Deposit)
	v1.POST("/withdraw", ledgerHandler.Withdraw)
	v1.POST("/transfer", ledgerHandler.Transfer)
	v1.GET("/transactions", ledgerHandler.History)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.HealthChecks...)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Operations ---
	e.GET("/metrics", metricsHandler(deps.Registry))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func metricsConfig(reg *prometheus.Registry) echoprometheus.MiddlewareConfig {
	cfg := echoprometheus.MiddlewareConfig{Subsystem: "bank"}
	if reg != nil {
		cfg.Registerer = reg
	}
	return cfg
}

func metricsHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}
