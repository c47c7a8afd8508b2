package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront/api/controllers"
	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/discounts"
	"github.com/angelmondragon/storefront/internal/products"
	"github.com/angelmondragon/storefront/internal/wishlist"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/redis"
)

type quoteService interface {
	Quote(ctx context.Context, product products.Product, variant *products.Variant, quantity int) (discounts.Quote, error)
}

type searchService interface {
	Recent(ctx context.Context, userID string) ([]string, error)
	Record(ctx context.Context, userID, query string) ([]string, error)
	Clear(ctx context.Context, userID string) error
}

type rateCounter interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(parts ...string) string
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	gatherer prometheus.Gatherer,
	dbP db.Pinger,
	redisClient *redis.Client,
	quotes quoteService,
	cartService cart.Service,
	wishlistService wishlist.Service,
	searchesService searchService,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	var deps []controllers.Dependency
	var counter rateCounter
	if dbP != nil {
		deps = append(deps, controllers.Dependency{Name: "database", Pinger: dbP})
	}
	if redisClient != nil {
		deps = append(deps, controllers.Dependency{Name: "redis", Pinger: redisClient})
		counter = redisClient
	}

	apiPolicy := middleware.NewRateLimitPolicy("api", cfg.RateLimit.Window, cfg.RateLimit.PerUser)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps...))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RateLimit(apiPolicy, counter, logg))

		r.Post("/discounts/quote", controllers.DiscountQuote(quotes, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartItems(cartService, logg))
			r.Delete("/", controllers.CartClear(cartService, logg))
			r.Post("/items", controllers.CartAddItem(cartService, logg))
			r.Patch("/items/{itemId}", controllers.CartUpdateItem(cartService, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(cartService, logg))
			r.Get("/pricing", controllers.CartPricing(cartService, logg))
			r.Post("/checkout-totals", controllers.CartCheckoutTotals(cartService, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistItems(wishlistService, logg))
			r.Delete("/", controllers.WishlistClear(wishlistService, logg))
			r.Post("/items", controllers.WishlistAddItem(wishlistService, logg))
			r.Delete("/items/{itemId}", controllers.WishlistRemoveItem(wishlistService, logg))
		})

		r.Route("/searches/recent", func(r chi.Router) {
			r.Get("/", controllers.RecentSearches(searchesService, logg))
			r.Post("/", controllers.RecordSearch(searchesService, logg))
			r.Delete("/", controllers.ClearSearches(searchesService, logg))
		})
	})

	return r
}
