// Package app contains the application setup for the pharmacy backend.
package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	catalogservice "github.com/pharmacart/backend/internal/catalog/service"
	catalogstore "github.com/pharmacart/backend/internal/catalog/store"
	catalogrest "github.com/pharmacart/backend/internal/catalog/transport/rest"
	"github.com/pharmacart/backend/internal/checkout/gateway"
	checkoutservice "github.com/pharmacart/backend/internal/checkout/service"
	checkoutstore "github.com/pharmacart/backend/internal/checkout/store"
	checkoutrest "github.com/pharmacart/backend/internal/checkout/transport/rest"
	"github.com/pharmacart/backend/internal/config"
	"github.com/pharmacart/backend/pkg/server"
)

type Dependencies struct {
	CatalogService  catalogservice.MedicineService
	CheckoutService checkoutservice.CheckoutService
	Logger          *slog.Logger
}

func SetupDependencies(dbPool *pgxpool.Pool, gw gateway.Gateway, logger *slog.Logger) *Dependencies {
	cService := catalogservice.NewService(catalogstore.NewPgStore(dbPool))
	oService := checkoutservice.NewService(checkoutstore.NewPgStore(dbPool), gw)

	return &Dependencies{
		CatalogService:  cService,
		CheckoutService: oService,
		Logger:          logger,
	}
}

// SetupHttpHandler initializes the HTTP routes for the pharmacy backend.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes mounts the catalog and checkout handlers on the shared
// medicine subrouter.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	catalogHandler := catalogrest.NewHandler(deps.CatalogService, deps.Logger)
	checkoutHandler := checkoutrest.NewHandler(deps.CheckoutService, deps.Logger)

	mux.Route("/pharma/medicine", func(r chi.Router) {
		catalogHandler.RegisterRoutes(r)
		checkoutHandler.RegisterRoutes(r)
	})
	mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

// SetupHttpServer creates and configures an HTTP server for the pharmacy backend.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {

	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}
