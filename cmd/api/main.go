package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/aws"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/cart"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/catalog"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/checkout"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/handlers"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/idempotency"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/logging"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/orders"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/session"
	"github.com/redis/go-redis/v9"
)

func setupRouter(cfg handlers.HandlerConfig, breaker *catalog.GuardedReader) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		body := gin.H{"status": "ok"}
		if breaker != nil {
			body["catalog"] = breaker.State()
		}
		c.JSON(http.StatusOK, body)
	})

	handlers.RegisterRoutes(r, cfg)

	return r
}

func main() {
	ctx := context.Background()
	log := logging.New()
	slog.SetDefault(log)
	cfg := loadConfig()
	gin.SetMode(cfg.GinMode)

	if cfg.MigrateOnStart {
		if err := catalog.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Error("catalog migrations failed", "err", err)
			os.Exit(1)
		}
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to open catalog pool", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	catalogStore := catalog.NewStore(log, pool)
	guarded := catalog.NewGuardedReader(catalogStore, log, catalog.BreakerConfig{})

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	defer rdb.Close()

	clients, err := aws.NewAWSClients(ctx)
	if err != nil {
		log.Error("failed to init aws clients", "err", err)
		os.Exit(1)
	}

	ordersStore := orders.NewStore(clients.DynamoDB, cfg.OrdersTable)
	opts := []checkout.Option{checkout.WithLogger(log)}
	if cfg.OrdersQueueURL != "" {
		opts = append(opts, checkout.WithNotifier(orders.NewNotifier(aws.NewPublisher(clients.SQS, cfg.OrdersQueueURL))))
	}

	var verifier *session.Verifier
	if cfg.JWTSecret != "" {
		verifier = session.NewVerifier(cfg.JWTSecret)
	} else {
		log.Warn("AUTH_JWT_SECRET not set, every request is anonymous")
	}

	r := setupRouter(handlers.HandlerConfig{
		Checkout:    checkout.NewValidator(guarded, session.ContextResolver{}, ordersStore, opts...),
		Idempotency: idempotency.NewStore(clients.DynamoDB, cfg.IdempotencyTable, cfg.IdempotencyTTL),
		Carts:       cart.NewRedisSlots(rdb, cfg.CartTTL),
		Catalog:     catalogStore,
		Orders:      ordersStore,
		Verifier:    verifier,
		Logger:      log,
	}, guarded)

	if cfg.RunLocal {
		log.Info("running local server", "addr", cfg.HTTPAddr)
		if err := r.Run(cfg.HTTPAddr); err != nil {
			log.Error("local server stopped", "err", err)
			os.Exit(1)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
