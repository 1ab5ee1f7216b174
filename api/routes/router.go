package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avelichko/vitrina-storefront/api/controllers"
	"github.com/avelichko/vitrina-storefront/api/middleware"
	"github.com/avelichko/vitrina-storefront/internal/cart"
	"github.com/avelichko/vitrina-storefront/internal/catalog"
	"github.com/avelichko/vitrina-storefront/internal/session"
	"github.com/avelichko/vitrina-storefront/pkg/config"
	"github.com/avelichko/vitrina-storefront/pkg/logger"
	"github.com/avelichko/vitrina-storefront/pkg/shopapi"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Pingers  map[string]controllers.Pinger
	Registry *cart.Registry
	Catalog  catalog.Service
	Guard    *session.Guard
	Shop     *shopapi.Client
	Gatherer prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(logg))
		r.Use(middleware.Bearer(deps.Guard, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductsList(deps.Catalog, logg))
			r.Get("/search", controllers.ProductsSearch(deps.Catalog, logg))
			r.Get("/new", controllers.ProductsNew(deps.Catalog, logg))
			r.Get("/featured", controllers.ProductsFeatured(deps.Catalog, logg))
			r.Get("/sale", controllers.ProductsSale(deps.Catalog, logg))
			r.Get("/category/{category}", controllers.ProductsByCategory(deps.Catalog, logg))
			r.Get("/{productID}", controllers.ProductsGet(deps.Catalog, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(deps.Registry, logg))
			r.Post("/items", controllers.CartAddItem(deps.Registry, deps.Catalog, logg))
			r.Put("/items", controllers.CartUpdateItem(deps.Registry, logg))
			r.Delete("/items/{productID}", controllers.CartRemoveItem(deps.Registry, logg))
			r.Delete("/", controllers.CartClear(deps.Registry, logg))
			r.Post("/coupon", controllers.CouponApply(deps.Registry, logg))
			r.Delete("/coupon", controllers.CouponRemove(deps.Registry, logg))
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", controllers.Login(deps.Guard, logg))
			r.Post("/register", controllers.Register(deps.Guard, logg))
			r.Post("/logout", controllers.Logout(deps.Guard, deps.Registry, logg))
			r.With(middleware.RequireSession(deps.Guard, logg)).Get("/me", controllers.Me(deps.Guard, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(deps.Guard, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", controllers.OrdersCreate(deps.Shop, deps.Registry, logg))
				r.Get("/", controllers.OrdersList(deps.Shop, logg))
				r.Get("/{orderID}", controllers.OrdersGet(deps.Shop, logg))
				r.Put("/{orderID}/cancel", controllers.OrdersCancel(deps.Shop, logg))
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", controllers.WishlistList(deps.Shop, logg))
				r.Post("/add", controllers.WishlistAdd(deps.Shop, logg))
				r.Delete("/remove/{productID}", controllers.WishlistRemove(deps.Shop, logg))
				r.Get("/check/{productID}", controllers.WishlistCheck(deps.Shop, logg))
			})
		})
	})

	return r
}
