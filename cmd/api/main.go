package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shelfwise/bookstore/internal/command"
	"github.com/shelfwise/bookstore/internal/config"
	"github.com/shelfwise/bookstore/internal/events"
	"github.com/shelfwise/bookstore/internal/handler"
	"github.com/shelfwise/bookstore/internal/logger"
	"github.com/shelfwise/bookstore/internal/middleware"
	"github.com/shelfwise/bookstore/internal/query"
	"github.com/shelfwise/bookstore/internal/redis"
	"github.com/shelfwise/bookstore/internal/store"
	"github.com/shelfwise/bookstore/internal/store/memory"
	"github.com/shelfwise/bookstore/internal/store/mongo"
	"github.com/shelfwise/bookstore/internal/store/postgres"
	"github.com/shelfwise/bookstore/internal/token"
	"github.com/shelfwise/bookstore/internal/utils"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New("bookstore-api", logger.ParseLevel(cfg.LogLevel))
	slog.SetDefault(log)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("api server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			log.Warn("failed to close store", "error", err)
		}
	}()

	hasher, err := utils.NewPasswordHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}
	tokens, err := token.NewManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpires)
	if err != nil {
		return err
	}

	var (
		publisher    events.Emitter = events.NopPublisher{}
		limiter      middleware.RateLimiter
		bookCmdCache command.BookCache
		bookQryCache query.BookCache
		rdb          *redis.Client
	)
	if cfg.RedisEnabled() {
		rdb, err = redis.Connect(ctx, cfg.Redis)
		if err != nil {
			log.Warn("redis unavailable, running without cache, events and shared rate limits", "error", err)
			rdb = nil
		}
	}
	if rdb != nil {
		defer rdb.Close()
		cache := rdb.BookCache(log)
		bookCmdCache, bookQryCache = cache, cache
		publisher = events.NewPublisher(rdb.Client)
		limiter = rdb.RateLimiter(log)
	} else {
		limiter = middleware.NewMemoryRateLimiter()
	}
	defer limiter.Close()

	userCmds := command.NewUserCommandService(st, hasher, tokens, publisher, log)

	var subscribers sync.WaitGroup
	if rdb != nil {
		hostname, _ := os.Hostname()
		sub := events.NewSubscriber(rdb.Client, events.SubscriberConfig{
			Group:    "bookstore-audit",
			Consumer: hostname,
			Stream:   events.UserEventsStream,
			Handler:  userCmds.HandleUserEvent,
			Logger:   log,
		})
		subscribers.Add(1)
		go func() {
			defer subscribers.Done()
			if err := sub.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("user event subscriber stopped", "error", err)
			}
		}()
	}

	bookCmds := command.NewBookCommandService(st, bookCmdCache, publisher, middleware.Validator(), log)
	authQrys := query.NewAuthQueryService(st, hasher, tokens)
	bookQrys := query.NewBookQueryService(st, bookQryCache)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := handler.NewRouter(handler.RouterDeps{
		Auth:       handler.NewAuthHandler(userCmds, authQrys, log),
		Books:      handler.NewBookHandler(bookCmds, bookQrys, log),
		Tokens:     tokens,
		Metrics:    middleware.NewMetrics(reg),
		Limiter:    limiter,
		AuthLimit:  cfg.Auth.RateLimit,
		AuthWindow: cfg.Auth.RateWindow,
		Log:        log,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr, "store", cfg.Store.Driver, "redis", cfg.RedisEnabled())
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		subscribers.Wait()
		log.Info("api server stopped")
		return nil
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pg, err := postgres.Open(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if cfg.Store.MigrateOnStart {
			migrator, err := postgres.NewMigrator(pg.DB(), log)
			if err == nil {
				err = migrator.Up(ctx)
			}
			if err != nil {
				_ = pg.Close(ctx)
				return nil, err
			}
		}
		return pg, nil
	case config.DriverMongo:
		mg, err := mongo.Connect(ctx, cfg.Store.MongoURI, cfg.Store.MongoDB)
		if err != nil {
			return nil, err
		}
		return mg, nil
	case config.DriverMemory:
		log.Warn("using in-memory store, data is lost on restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
