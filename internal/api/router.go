package api

import (
	"net/http"

	"order-board-service/internal/api/handlers"
	"order-board-service/internal/platform/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	routeHealth      = "/health"
	routeMetrics     = "/metrics"
	routeOrders      = "/manager/orders"
	routeProducts    = "/manager/products"
	routeRestaurants = "/manager/restaurants"
	routeRegister    = "/api/order"
	routeCatalog     = "/api/products"
)

var routes = map[string]struct{}{
	routeHealth:      {},
	routeMetrics:     {},
	routeOrders:      {},
	routeProducts:    {},
	routeRestaurants: {},
	routeRegister:    {},
	routeCatalog:     {},
}

// Deps are the services the HTTP layer is built on.
type Deps struct {
	Console handlers.ManagerConsole
	Intake  handlers.OrderRegistrar
	Catalog handlers.ProductCatalog
	DB      handlers.Pinger
	Metrics *metrics.Metrics

	// MetricsHandler serves /metrics; defaults to the default Prometheus registry.
	MetricsHandler http.Handler
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Handlers stay unaware of concrete adapters.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	health := &handlers.HealthHandler{DB: d.DB}
	manager := &handlers.ManagerHandler{Console: d.Console}
	orders := handlers.NewOrderHandler(d.Intake)
	catalog := &handlers.CatalogHandler{Catalog: d.Catalog}

	metricsHandler := d.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	mux.HandleFunc(routeHealth, health.Health)
	mux.Handle(routeMetrics, metricsHandler)
	mux.HandleFunc(routeOrders, manager.Orders)
	mux.HandleFunc(routeProducts, manager.Products)
	mux.HandleFunc(routeRestaurants, manager.Restaurants)
	mux.HandleFunc(routeRegister, orders.Register)
	mux.HandleFunc(routeCatalog, catalog.Products)

	return requestIDMiddleware(loggingMiddleware(d.Metrics, recoverMiddleware(mux)))
}
