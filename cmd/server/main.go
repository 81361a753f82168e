package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/fekuna/omnipos-storefront-service/config"
	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"github.com/fekuna/omnipos-storefront-service/internal/bootstrap"
	"github.com/fekuna/omnipos-storefront-service/internal/httpresp"
	"github.com/fekuna/omnipos-storefront-service/internal/jobs"
	"github.com/fekuna/omnipos-storefront-service/internal/order"
	"github.com/fekuna/omnipos-storefront-service/internal/server"
	"github.com/fekuna/omnipos-storefront-service/pkg/broker"
	"github.com/fekuna/omnipos-storefront-service/pkg/cache"
	"github.com/fekuna/omnipos-storefront-service/pkg/database/postgres"
	"github.com/fekuna/omnipos-storefront-service/pkg/search"
	"github.com/fekuna/omnipos-storefront-service/pkg/worker"

	catH "github.com/fekuna/omnipos-storefront-service/internal/category/handler"
	catRepoPkg "github.com/fekuna/omnipos-storefront-service/internal/category/repository"
	catUCPkg "github.com/fekuna/omnipos-storefront-service/internal/category/usecase"

	cartH "github.com/fekuna/omnipos-storefront-service/internal/cart/handler"
	cartRepoPkg "github.com/fekuna/omnipos-storefront-service/internal/cart/repository"
	cartUCPkg "github.com/fekuna/omnipos-storefront-service/internal/cart/usecase"

	invH "github.com/fekuna/omnipos-storefront-service/internal/inventory/handler"
	invRepoPkg "github.com/fekuna/omnipos-storefront-service/internal/inventory/repository"
	invUCPkg "github.com/fekuna/omnipos-storefront-service/internal/inventory/usecase"

	orderH "github.com/fekuna/omnipos-storefront-service/internal/order/handler"
	orderListenerPkg "github.com/fekuna/omnipos-storefront-service/internal/order/listener"
	orderPubPkg "github.com/fekuna/omnipos-storefront-service/internal/order/publisher"
	orderRepoPkg "github.com/fekuna/omnipos-storefront-service/internal/order/repository"
	orderUCPkg "github.com/fekuna/omnipos-storefront-service/internal/order/usecase"

	payRepoPkg "github.com/fekuna/omnipos-storefront-service/internal/payment/repository"

	prodH "github.com/fekuna/omnipos-storefront-service/internal/product/handler"
	prodRepoPkg "github.com/fekuna/omnipos-storefront-service/internal/product/repository"
	prodUCPkg "github.com/fekuna/omnipos-storefront-service/internal/product/usecase"

	userH "github.com/fekuna/omnipos-storefront-service/internal/user/handler"
	userRepoPkg "github.com/fekuna/omnipos-storefront-service/internal/user/repository"
	userUCPkg "github.com/fekuna/omnipos-storefront-service/internal/user/usecase"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	if err := bootstrap.I18n(cfg); err != nil {
		log.Printf("Failed to load locale overrides: %v", err)
	}

	// 2. Initialize Logger
	appLogger := bootstrap.Logger(cfg)
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := bootstrap.Postgres(cfg)
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))
	txManager := postgres.NewTxManager(db)

	// 4. Initialize Repositories
	prodRepo := prodRepoPkg.NewPGRepository(db)
	catRepo := catRepoPkg.NewPGRepository(db)
	invRepo := invRepoPkg.NewPGRepository(db)
	cartRepo := cartRepoPkg.NewPGRepository(db)
	orderRepo := orderRepoPkg.NewPGRepository(db)
	payRepo := payRepoPkg.NewPGRepository(db)
	userRepo := userRepoPkg.NewPGRepository(db)

	// 5. Initialize Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 6. Initialize Kafka
	var orderPublisher order.Publisher
	if cfg.Kafka.EnableEvents {
		producer := broker.NewProducer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.OrderTopic,
		})
		defer producer.Close()
		orderPublisher = orderPubPkg.NewKafkaPublisher(producer)
		appLogger.Info("Kafka producer ready", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.OrderTopic))
	}

	// 7. Initialize Elasticsearch
	var index prodUCPkg.SearchIndex
	if cfg.Elastic.Enabled {
		esClient, err := search.NewClient(&search.Config{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
		})
		if err != nil {
			// Search falls back to the database.
			appLogger.Warn("Could not connect to Elasticsearch", zap.Error(err))
		} else {
			index = esClient
			appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
		}
	}

	// 8. Blob storage, payments and worker pool
	blobStore, err := bootstrap.Blob(cfg.Blob)
	if err != nil {
		appLogger.Fatal("Invalid blob storage config", zap.Error(err))
	}
	authorizer, err := bootstrap.Authorizer(cfg.Payment)
	if err != nil {
		appLogger.Fatal("Invalid payment config", zap.Error(err))
	}
	appLogger.Info("Payment provider ready", zap.String("provider", authorizer.Name()))

	pool, err := worker.NewPool(cfg.Worker.PoolSize, appLogger)
	if err != nil {
		appLogger.Fatal("Could not start worker pool", zap.Error(err))
	}
	defer pool.Release()

	validator := httpresp.NewValidator()
	tokens := auth.NewTokenManager(cfg.JWT.SecretKey, cfg.JWT.TTL)
	revocations := auth.NewRevocationList(redisClient)

	// 9. Initialize UseCases
	prodUC := prodUCPkg.NewProductUseCase(prodUCPkg.Deps{
		Repo:      prodRepo,
		Tx:        txManager,
		Movements: invRepo,
		Cache:     redisClient,
		Index:     index,
		Blob:      blobStore,
		Pool:      pool,
		Logger:    appLogger,
	})
	catUC := catUCPkg.NewCategoryUseCase(catRepo, redisClient, appLogger)
	invUC := invUCPkg.NewInventoryUseCase(invRepo, txManager, redisClient, appLogger)
	cartUC := cartUCPkg.NewCartUseCase(cartRepo, prodRepo, appLogger)
	orderUC := orderUCPkg.NewOrderUseCase(orderUCPkg.Deps{
		Repo:       orderRepo,
		Carts:      cartRepo,
		Inventory:  invRepo,
		Payments:   payRepo,
		Authorizer: authorizer,
		Tx:         txManager,
		Locker:     redisClient,
		Publisher:  orderPublisher,
		Catalog:    prodUC,
		Pool:       pool,
		Validator:  validator,
		Checkout:   cfg.Checkout,
		Logger:     appLogger,
	})
	userUC := userUCPkg.NewUserUseCase(userUCPkg.Deps{
		Repo:      userRepo,
		Tokens:    tokens,
		Revoker:   revocations,
		Blob:      blobStore,
		Validator: validator,
		Logger:    appLogger,
	})

	// 10. Initialize Handlers
	prodHandler := prodH.NewProductHandler(prodUC, appLogger)
	catHandler := catH.NewCategoryHandler(catUC, appLogger)
	invHandler := invH.NewInventoryHandler(invUC, appLogger)
	cartHandler := cartH.NewCartHandler(cartUC, appLogger)
	orderHandler := orderH.NewOrderHandler(orderUC, appLogger)
	userHandler := userH.NewUserHandler(userUC, appLogger)

	uploadsDir := ""
	if cfg.Blob.Driver == "" || cfg.Blob.Driver == "local" {
		uploadsDir = cfg.Blob.LocalDir
	}
	e := server.New(server.Options{
		Tokens:     tokens,
		Revocation: revocations,
		Public:     []server.PublicRoutes{prodHandler, catHandler, userHandler},
		Session:    []server.SessionRoutes{cartHandler, orderHandler, userHandler},
		Admin:      []server.AdminRoutes{prodHandler, catHandler, orderHandler, invHandler},
		UploadsDir: uploadsDir,
		Logger:     appLogger,
	})

	// 11. Scheduler
	scheduler, err := jobs.NewScheduler(cfg.Scheduler, invUC, appLogger)
	if err != nil {
		appLogger.Fatal("Invalid scheduler config", zap.Error(err))
	}

	// 12. gRPC health and reflection
	grpcPort := cfg.Server.GRPCPort
	if !strings.HasPrefix(grpcPort, ":") {
		grpcPort = ":" + grpcPort
	}
	lis, err := net.Listen("tcp", grpcPort)
	if err != nil {
		appLogger.Fatal("failed to listen", zap.Error(err))
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	httpPort := cfg.Server.HTTPPort
	if !strings.HasPrefix(httpPort, ":") {
		httpPort = ":" + httpPort
	}
	g.Go(func() error {
		appLogger.Info("Starting HTTP server", zap.String("port", httpPort))
		return server.Serve(gctx, e, httpPort, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
	})

	g.Go(func() error {
		appLogger.Info("Starting gRPC server", zap.String("port", grpcPort))
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		<-gctx.Done()
		healthServer.Shutdown()
		grpcServer.GracefulStop()
		return nil
	})

	if cfg.Kafka.EnableListen {
		consumer := broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.PaymentTopic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer consumer.Close()
		paymentListener := orderListenerPkg.NewPaymentListener(consumer, orderUC, appLogger)
		g.Go(func() error {
			paymentListener.Start(gctx)
			return nil
		})
	}

	scheduler.Start()
	g.Go(func() error {
		<-gctx.Done()
		scheduler.Stop(context.Background())
		return nil
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("Server stopped with error", zap.Error(err))
		return
	}
	appLogger.Info("Server stopped")
}
