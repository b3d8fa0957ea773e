// internal/wire/wire.go
package wire

import (
	"net/http"

	"smart-bus/internal/adaptor"
	"smart-bus/internal/data/repository"
	"smart-bus/internal/location"
	"smart-bus/internal/usecase"
	"smart-bus/pkg/middleware"
	"smart-bus/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App holds the assembled HTTP surface.
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// guards are the per-route middleware shared by every area.
type guards struct {
	auth       func(http.Handler) http.Handler
	admin      func(http.Handler) http.Handler
	driver     func(http.Handler) http.Handler
	idempotent func(http.Handler) http.Handler
}

// Wiring builds services and handlers on top of the coordinator and
// mounts every route. rdb may be nil; idempotency is then disabled.
func Wiring(
	coord *usecase.Coordinator,
	repo *repository.Repository,
	tracker *location.Tracker,
	rdb *redis.Client,
	config *utils.Config,
	logger *zap.Logger,
) *App {
	service := usecase.NewService(coord, repo, tracker, config, logger)
	handler := adaptor.NewHandler(service, logger)

	g := guards{
		auth:       middleware.JWTAuth([]byte(config.JWT.Secret), logger),
		admin:      middleware.RequireRole(logger, utils.RoleAdmin),
		driver:     middleware.RequireRole(logger, utils.RoleDriver, utils.RoleAdmin),
		idempotent: middleware.Idempotency(rdb, logger),
	}

	return &App{
		Router:  setupRouter(handler, g, logger),
		Service: service,
	}
}

func setupRouter(handler *adaptor.Handler, g guards, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Metrics)

	wireBooking(r, handler.Booking, g)
	wirePayment(r, handler.Payment, g)
	wireWallet(r, handler.Wallet, g)
	wireRun(r, handler.Seat, handler.Location, g)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
	})

	return r
}
