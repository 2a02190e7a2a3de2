package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stockroomhq/stockroom-backend/api/controllers"
	"github.com/stockroomhq/stockroom-backend/api/middleware"
	"github.com/stockroomhq/stockroom-backend/internal/inventory"
	"github.com/stockroomhq/stockroom-backend/pkg/config"
	"github.com/stockroomhq/stockroom-backend/pkg/db"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
	"github.com/stockroomhq/stockroom-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	inventoryService inventory.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1/inventory", func(r chi.Router) {
		r.Post("/adjustments", controllers.AdjustStock(inventoryService, logg))
		r.Post("/reservations", controllers.ReserveStock(inventoryService, logg))
		r.Post("/releases", controllers.ReleaseStock(inventoryService, logg))
		r.Get("/stock-levels", controllers.GetStockLevels(inventoryService, logg))
		r.Route("/items/{productId}/{warehouseId}", func(r chi.Router) {
			r.Get("/", controllers.GetInventoryItem(inventoryService, logg))
			r.Get("/transactions", controllers.ListInventoryTransactions(inventoryService, logg))
		})
	})

	return r
}
