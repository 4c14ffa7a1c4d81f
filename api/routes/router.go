package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zaliant/storefront-backend/api/controllers"
	"github.com/zaliant/storefront-backend/api/middleware"
	announcementsvc "github.com/zaliant/storefront-backend/internal/announcements"
	cartsvc "github.com/zaliant/storefront-backend/internal/cart"
	checkoutsvc "github.com/zaliant/storefront-backend/internal/checkout"
	invoicesvc "github.com/zaliant/storefront-backend/internal/invoices"
	licensesvc "github.com/zaliant/storefront-backend/internal/licenses"
	ordersvc "github.com/zaliant/storefront-backend/internal/orders"
	productsvc "github.com/zaliant/storefront-backend/internal/products"
	"github.com/zaliant/storefront-backend/pkg/config"
	"github.com/zaliant/storefront-backend/pkg/db"
	"github.com/zaliant/storefront-backend/pkg/logger"
	"github.com/zaliant/storefront-backend/pkg/redis"
)

// Services bundles everything the HTTP surface depends on.
type Services struct {
	Products      productsvc.Service
	Cart          cartsvc.Service
	Checkout      checkoutsvc.Service
	Orders        ordersvc.Service
	Licenses      licensesvc.Service
	Invoices      invoicesvc.Service
	Announcements announcementsvc.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	// A typed nil would defeat the middleware nil checks.
	var idemStore redis.IdempotencyStore
	var limiterStore middleware.RateLimiterStore
	var redisPinger db.Pinger
	if redisClient != nil {
		idemStore = redisClient
		limiterStore = redisClient
		redisPinger = redisClient
	}

	activationPolicy := middleware.NewRateLimitPolicy(
		"activation",
		cfg.RateLimit.ActivationWindow,
		cfg.RateLimit.ActivationIPLimit,
	).WithBodyField("key", cfg.RateLimit.ActivationKeyLimit)
	lookupPolicy := middleware.NewRateLimitPolicy(
		"order-lookup",
		cfg.RateLimit.LookupWindow,
		cfg.RateLimit.LookupIPLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/products", controllers.ListProducts(svcs.Products, logg))
		r.Get("/products/{slug}", controllers.GetProduct(svcs.Products, logg))
		r.Get("/announcement", controllers.ActiveAnnouncement(svcs.Announcements, logg))
		r.With(middleware.RateLimit(activationPolicy, limiterStore, logg)).
			Post("/licenses/activate", controllers.ActivateLicense(svcs.Licenses, logg))
		r.With(middleware.RateLimit(lookupPolicy, limiterStore, logg)).
			Get("/orders/lookup", controllers.GuestOrderLookup(svcs.Orders, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Cart and checkout serve guests and signed-in buyers alike: a valid
		// bearer token binds the cart to the account, its absence falls back
		// to the X-Cart-Token header.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, logg))
			r.Use(middleware.CartToken(logg))
			r.Use(middleware.Idempotency(idemStore, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartView(svcs.Cart, logg))
				r.Put("/", controllers.CartReplace(svcs.Cart, logg))
				r.Post("/items", controllers.CartAddItem(svcs.Cart, logg))
				r.Patch("/items/{itemId}", controllers.CartUpdateItem(svcs.Cart, logg))
				r.Delete("/items/{itemId}", controllers.CartRemoveItem(svcs.Cart, logg))
				r.Post("/promo", controllers.CartApplyPromo(svcs.Cart, logg))
				r.Delete("/promo", controllers.CartRemovePromo(svcs.Cart, logg))
			})
			r.Post("/checkout", controllers.Checkout(svcs.Checkout, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Get("/orders", controllers.MyOrders(svcs.Orders, logg))
			r.Get("/licenses", controllers.MyLicenses(svcs.Licenses, logg))
			r.Get("/invoices", controllers.MyInvoices(svcs.Invoices, logg))
			r.Get("/invoices/{orderId}", controllers.MyInvoiceByOrder(svcs.Invoices, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole("admin", logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Get("/stats", controllers.AdminStats(svcs.Orders, svcs.Licenses, logg))
		r.Get("/orders", controllers.AdminOrders(svcs.Orders, logg))
		r.Get("/licenses", controllers.AdminLicenses(svcs.Licenses, logg))
		r.Post("/licenses/{id}/revoke", controllers.AdminRevokeLicense(svcs.Licenses, logg))
		r.Post("/clear-stats", controllers.AdminClearStats(svcs.Orders, logg))
		r.Post("/products", controllers.AdminCreateProduct(svcs.Products, logg))
		r.Put("/announcement", controllers.AdminSetAnnouncement(svcs.Announcements, logg))
	})

	return r
}
