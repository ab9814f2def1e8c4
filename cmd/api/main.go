package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/follows"
	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/reviews"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/instance"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
		Instance:    instance.GetID(),
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	deps := routes.Dependencies{DB: dbClient}

	var cache redis.JSONCache
	if cfg.Redis.Enabled() {
		redisClient, rerr := redis.New(ctx, cfg.Redis, logg)
		if rerr != nil {
			return rerr
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
		deps.Redis = redisClient
		deps.RateLimiter = redisClient
		deps.Idempotency = redisClient
		cache = redisClient
	} else {
		logg.Warn(ctx, "redis not configured; rate limiting, idempotency and engagement cache disabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps.Gatherer = reg
	deps.HTTPMetrics = metrics.NewHTTPMetrics(reg)

	if err := buildServices(cfg, logg, dbClient, cache, metrics.NewCartMetrics(reg), &deps); err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logg.Info(gctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownWait)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	cache redis.JSONCache,
	cartMetrics *metrics.CartMetrics,
	deps *routes.Dependencies,
) error {
	conn := dbClient.DB()
	userRepo := users.NewRepository(conn)
	productRepo := products.NewRepository(conn)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:  userRepo,
		JWTConfig: cfg.JWT,
	})
	if err != nil {
		return err
	}
	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return err
	}
	userService, err := users.NewService(userRepo, dbClient)
	if err != nil {
		return err
	}
	productService, err := products.NewService(productRepo, dbClient)
	if err != nil {
		return err
	}
	cartService, err := cart.NewService(cart.NewRepository(conn), productRepo, dbClient, logg, cartMetrics)
	if err != nil {
		return err
	}
	reviewService, err := reviews.NewService(reviews.ServiceParams{
		Repo:            reviews.NewRepository(conn),
		Products:        productRepo,
		Tx:              dbClient,
		Cache:           cache,
		Logger:          logg,
		EngagementLimit: cfg.Catalog.EngagementLimit,
	})
	if err != nil {
		return err
	}
	followService, err := follows.NewService(follows.NewRepository(conn))
	if err != nil {
		return err
	}

	deps.AuthService = authService
	deps.RegisterService = registerService
	deps.UserService = userService
	deps.ProductService = productService
	deps.CartService = cartService
	deps.ReviewService = reviewService
	deps.FollowService = followService
	return nil
}
