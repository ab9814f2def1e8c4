package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/cart"
	reviewcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/reviews"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/follows"
	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/reviews"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

const cartAddIdempotencyTTL = 24 * time.Hour

// Dependencies carries everything the router wires into handlers. Redis backed
// fields are nil when redis is not configured; rate limiting and replay
// protection are then skipped.
type Dependencies struct {
	DB          controllers.Pinger
	Redis       controllers.Pinger
	RateLimiter pkgredis.RateLimiter
	Idempotency pkgredis.IdempotencyStore

	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics

	AuthService     auth.Service
	RegisterService auth.RegisterService
	UserService     users.Service
	ProductService  products.Service
	CartService     cart.Service
	ReviewService   reviews.Service
	FollowService   follows.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
		middleware.CORS(cfg.CORS),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": deps.Redis,
		}))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, deps.RateLimiter, logg)).Post("/login", controllers.AuthLogin(deps.AuthService, logg))
			r.With(middleware.AuthRateLimit(registerPolicy, deps.RateLimiter, logg)).Post("/register", controllers.AuthRegister(deps.RegisterService, logg))
		})

		// Public catalog and social reads.
		r.Get("/products", controllers.ProductList(deps.ProductService, logg))
		r.Get("/products/{productId}", controllers.ProductDetail(deps.ProductService, logg))
		r.Get("/products/{productId}/reviews", reviewcontrollers.ReviewList(deps.ReviewService, logg))
		r.Get("/engagement/products", reviewcontrollers.ProductEngagement(deps.ReviewService, logg))
		r.Get("/users/{userId}/followers", controllers.ListFollowers(deps.FollowService, logg))
		r.Get("/users/{userId}/following", controllers.ListFollowing(deps.FollowService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			// URL params are only resolved once a route matched, so the
			// ownership check is attached per route rather than with Use.
			self := middleware.SelfOrAdmin("userId", logg)

			r.Get("/users/{userId}", controllers.UserGet(deps.UserService, logg))
			r.With(self).Put("/users/{userId}/profile", controllers.UserUpdateProfile(deps.UserService, logg))
			r.With(self).Delete("/users/{userId}", controllers.UserDelete(deps.UserService, logg))
			r.Post("/users/{userId}/follow", controllers.FollowUser(deps.FollowService, logg))
			r.Delete("/users/{userId}/follow", controllers.UnfollowUser(deps.FollowService, logg))

			cartAddReplay := middleware.Idempotency(deps.Idempotency, logg, middleware.IdempotencyOptions{TTL: cartAddIdempotencyTTL})
			r.Route("/cart", func(r chi.Router) {
				r.With(self).Get("/{userId}", cartcontrollers.CartFetch(deps.CartService, logg))
				r.With(self, cartAddReplay).Post("/add/{userId}", cartcontrollers.CartAddItem(deps.CartService, logg))
				r.With(self).Delete("/item/{userId}/{itemId}", cartcontrollers.CartRemoveItem(deps.CartService, logg))
				r.With(self).Put("/item/{userId}", cartcontrollers.CartUpdateItem(deps.CartService, logg))
				r.With(self).Delete("/clear/{userId}", cartcontrollers.CartClear(deps.CartService, logg))
			})

			r.Post("/products/{productId}/reviews", reviewcontrollers.ReviewCreate(deps.ReviewService, logg))
			r.Get("/reviews/{reviewId}", reviewcontrollers.ReviewGet(deps.ReviewService, logg))
			r.Put("/reviews/{reviewId}", reviewcontrollers.ReviewUpdate(deps.ReviewService, logg))
			r.Delete("/reviews/{reviewId}", reviewcontrollers.ReviewDelete(deps.ReviewService, logg))
			r.Post("/reviews/{reviewId}/replies", reviewcontrollers.ReplyCreate(deps.ReviewService, logg))
			r.Delete("/replies/{replyId}", reviewcontrollers.ReplyDelete(deps.ReviewService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
				r.Post("/products", controllers.AdminCreateProduct(deps.ProductService, logg))
				r.Put("/products/{productId}", controllers.AdminUpdateProduct(deps.ProductService, logg))
				r.Delete("/products/{productId}", controllers.AdminDeleteProduct(deps.ProductService, logg))
				r.Patch("/reviews/{reviewId}/visibility", reviewcontrollers.ReviewSetVisibility(deps.ReviewService, logg))
			})
		})
	})

	return r
}
