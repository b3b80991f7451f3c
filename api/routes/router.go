package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/snaapconnections/storefront/api/controllers"
	"github.com/snaapconnections/storefront/api/middleware"
	"github.com/snaapconnections/storefront/internal/admin"
	"github.com/snaapconnections/storefront/internal/advisor"
	"github.com/snaapconnections/storefront/internal/cart"
	"github.com/snaapconnections/storefront/internal/catalog"
	checkoutsvc "github.com/snaapconnections/storefront/internal/checkout"
	"github.com/snaapconnections/storefront/internal/reviews"
	"github.com/snaapconnections/storefront/internal/search"
	"github.com/snaapconnections/storefront/pkg/config"
	"github.com/snaapconnections/storefront/pkg/logger"
	pkgredis "github.com/snaapconnections/storefront/pkg/redis"
	"github.com/snaapconnections/storefront/pkg/storefrontapi"
)

// RateLimitStore counts login attempts per fixed window.
type RateLimitStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Services groups the domain services the HTTP layer drives.
type Services struct {
	Cart     cart.Service
	Checkout checkoutsvc.Service
	Catalog  catalog.Service
	Search   *search.Service
	Reviews  reviews.Service
	Admin    admin.Service
	Advisor  advisor.Service
}

// Dependencies are the infrastructure handles shared by middleware. The
// Redis-backed stores may be nil, which disables login throttling and
// response replay.
type Dependencies struct {
	Idempotency pkgredis.IdempotencyStore
	RateLimit   RateLimitStore
	Ready       map[string]controllers.Pinger
	Metrics     http.Handler
}

func NewRouter(cfg *config.Config, logg *logger.Logger, svc Services, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy("admin-login", cfg.Admin.LoginWindow, cfg.Admin.LoginIPLimit)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, logg, deps.Ready))
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Get("/api/public/ping", controllers.PublicPing())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(logg, cfg.Session.SecureCookie))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(svc.Cart, logg))
			r.Delete("/", controllers.CartClear(svc.Cart, logg))
			r.Get("/whatsapp", controllers.CartWhatsApp(svc.Cart, cfg.Checkout.WhatsAppNumber, logg))
			r.Post("/items", controllers.CartAddItem(svc.Cart, logg))
			r.Patch("/items/{itemId}", controllers.CartUpdateItem(svc.Cart, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(svc.Cart, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", controllers.CheckoutStart(svc.Checkout, logg))
			r.Get("/", controllers.CheckoutState(svc.Checkout, logg))
			r.Put("/delivery", controllers.CheckoutDelivery(svc.Checkout, logg))
			r.Put("/payment", controllers.CheckoutPayment(svc.Checkout, logg))
			r.Post("/next", controllers.CheckoutNext(svc.Checkout, logg))
			r.Post("/back", controllers.CheckoutBack(svc.Checkout, logg))
			r.Post("/submit", controllers.CheckoutSubmit(svc.Checkout, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductsList(svc.Catalog, logg))
			r.Get("/featured", controllers.ProductsCollection(svc.Catalog, catalog.PresetFeatured, logg))
			r.Get("/pocket-friendly", controllers.ProductsCollection(svc.Catalog, catalog.PresetPocketFriendly, logg))
			r.Get("/deals", controllers.ProductsCollection(svc.Catalog, catalog.PresetDeals, logg))
			r.Get("/{productId}", controllers.ProductGet(svc.Catalog, logg))
			r.Get("/{productId}/reviews", controllers.ProductReviews(svc.Reviews, logg))
			r.Post("/{productId}/reviews", controllers.ReviewSubmit(svc.Reviews, logg))
		})

		r.Get("/reviews/recent", controllers.ReviewsRecent(svc.Reviews, logg))
		r.Get("/categories", controllers.CategoriesList(svc.Catalog, logg))
		r.Get("/brands", controllers.BrandsList(svc.Catalog, logg))
		r.Get("/facets", controllers.FacetsGet(svc.Catalog, logg))
		r.Get("/search", controllers.SearchProducts(svc.Search, logg))
		r.Post("/advisor", controllers.AdvisorAsk(svc.Advisor, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.RateLimit, logg)).Post("/auth/login", controllers.AdminLogin(svc.Admin, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logg))
			r.Use(middleware.Idempotency(deps.Idempotency, logg))

			r.Get("/auth/verify", controllers.AdminVerify(svc.Admin, logg))
			for path, resource := range map[string]storefrontapi.Resource{
				"/products":   storefrontapi.ResourceProducts,
				"/categories": storefrontapi.ResourceCategories,
				"/brands":     storefrontapi.ResourceBrands,
			} {
				r.Post(path, controllers.AdminCreate(svc.Admin, resource, logg))
				r.Put(path+"/{id}", controllers.AdminUpdate(svc.Admin, resource, logg))
				r.Delete(path+"/{id}", controllers.AdminDelete(svc.Admin, resource, logg))
			}

			r.Get("/customers", controllers.AdminCustomers(svc.Admin, logg))
			r.Put("/customers/{id}", controllers.AdminUpdateCustomer(svc.Admin, logg))

			r.Get("/orders", controllers.AdminOrders(svc.Admin, logg))
			r.Get("/orders/{id}", controllers.AdminOrder(svc.Admin, logg))
			r.Patch("/orders/{id}/status", controllers.AdminSetOrderStatus(svc.Admin, logg))
			r.Delete("/orders/{id}", controllers.AdminDeleteOrder(svc.Admin, logg))

			r.Get("/reviews", controllers.AdminReviews(svc.Reviews, logg))
			r.Patch("/reviews/{id}/approve", controllers.AdminApproveReview(svc.Reviews, logg))
			r.Delete("/reviews/{id}", controllers.AdminDeleteReview(svc.Reviews, logg))

			r.Get("/dashboard", controllers.AdminDashboard(svc.Admin, logg))
		})
	})

	return r
}
