package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/clearpath/warehouse-flow/config"
	"github.com/clearpath/warehouse-flow/internal/auth"
	"github.com/clearpath/warehouse-flow/internal/eventlog"
	"github.com/clearpath/warehouse-flow/pkg/broker"
	"github.com/clearpath/warehouse-flow/pkg/cache"
	"github.com/clearpath/warehouse-flow/pkg/database/postgres"
	"github.com/clearpath/warehouse-flow/pkg/grpcjson"
	"github.com/clearpath/warehouse-flow/pkg/logger"
	"github.com/clearpath/warehouse-flow/pkg/search"

	checkinH "github.com/clearpath/warehouse-flow/internal/checkin/handler"
	checkinRepoPkg "github.com/clearpath/warehouse-flow/internal/checkin/repository"
	checkinUCPkg "github.com/clearpath/warehouse-flow/internal/checkin/usecase"

	checkoutH "github.com/clearpath/warehouse-flow/internal/checkout/handler"
	checkoutRepoPkg "github.com/clearpath/warehouse-flow/internal/checkout/repository"
	checkoutUCPkg "github.com/clearpath/warehouse-flow/internal/checkout/usecase"

	lotH "github.com/clearpath/warehouse-flow/internal/lot/handler"
	lotRepoPkg "github.com/clearpath/warehouse-flow/internal/lot/repository"
	lotUCPkg "github.com/clearpath/warehouse-flow/internal/lot/usecase"

	prodH "github.com/clearpath/warehouse-flow/internal/product/handler"
	prodRepoPkg "github.com/clearpath/warehouse-flow/internal/product/repository"
	prodUCPkg "github.com/clearpath/warehouse-flow/internal/product/usecase"

	recH "github.com/clearpath/warehouse-flow/internal/reconciliation/handler"
	recUCPkg "github.com/clearpath/warehouse-flow/internal/reconciliation/usecase"

	shipH "github.com/clearpath/warehouse-flow/internal/shipment/handler"
	shipListenerPkg "github.com/clearpath/warehouse-flow/internal/shipment/listener"
	shipRepoPkg "github.com/clearpath/warehouse-flow/internal/shipment/repository"
	shipUCPkg "github.com/clearpath/warehouse-flow/internal/shipment/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	loc, err := time.LoadLocation(cfg.Reconciliation.Timezone)
	if err != nil {
		appLogger.Fatal("Invalid reconciliation timezone", zap.String("timezone", cfg.Reconciliation.Timezone), zap.Error(err))
	}

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	txManager := postgres.NewTxManager(db)

	// 4. Initialize Repositories
	prodRepo := prodRepoPkg.NewPGRepository(db)
	lotRepo := lotRepoPkg.NewPGRepository(db)
	checkinRepo := checkinRepoPkg.NewPGRepository(db)
	checkoutRepo := checkoutRepoPkg.NewPGRepository(db)
	shipRepo := shipRepoPkg.NewPGRepository(db)

	// 5. Initialize Redis. Without it locks are process local.
	var redisClient *cache.RedisClient
	var locker cache.Locker = cache.NewMemoryLocker()
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		locker = cache.NewRedisLocker(redisClient, cfg.Inventory.LockTTL, cfg.Inventory.LockRetries, cfg.Inventory.LockRetryDelay)
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	} else {
		appLogger.Warn("Redis disabled, using in-process locks")
	}

	// 6. Initialize Elasticsearch
	var esClient *search.Client
	if cfg.Elastic.Enabled {
		esClient, err = search.NewClient(&search.Config{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Elasticsearch, product search falls back to the database", zap.Error(err))
			esClient = nil
		} else {
			appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
		}
	}

	// 7. Initialize Kafka producer
	var events broker.Publisher
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.EventsTopic,
		})
		defer producer.Close()
		events = producer
	}

	// 8. Initialize UseCases
	prodUC := prodUCPkg.NewProductUseCase(prodRepo, redisClient, esClient, appLogger)
	lotUC := lotUCPkg.NewLotUseCase(lotRepo, txManager, locker, appLogger)
	shipUC := shipUCPkg.NewShipmentUseCase(shipUCPkg.Deps{
		Repo:     shipRepo,
		Products: prodRepo,
		Lots:     lotUC,
		Tx:       txManager,
		Locker:   locker,
		Notifier: prodUC,
		Logger:   appLogger,
	})
	checkinUC := checkinUCPkg.NewCheckInUseCase(checkinUCPkg.Deps{
		Repo:     checkinRepo,
		Products: prodRepo,
		Lots:     lotUC,
		Tx:       txManager,
		Locker:   locker,
		Notifier: prodUC,
		Events:   events,
		Logger:   appLogger,
	})
	checkoutUC := checkoutUCPkg.NewCheckOutUseCase(checkoutRepo, prodRepo, shipUC, locker, appLogger)
	recUC := recUCPkg.NewReconciliationUseCase(
		eventlog.NewReader(checkinRepo, checkoutRepo),
		loc,
		cfg.Reconciliation.MinorThreshold,
		appLogger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 9. Start shipment listener
	if cfg.Kafka.Enabled {
		consumer := broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.ShipmentTopic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer consumer.Close()
		appLogger.Info("Connected to Kafka Consumer", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.ShipmentTopic))

		go shipListenerPkg.NewShipmentListener(consumer, shipUC, appLogger).Start(ctx)
	}

	// 10. Start gRPC Server
	port := cfg.Server.GRPCPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	lis, err := net.Listen("tcp", port)
	if err != nil {
		appLogger.Fatal("failed to listen", zap.String("port", port), zap.Error(err))
	}

	grpcServer := grpc.NewServer(
		grpc.ForceServerCodec(grpcjson.Codec()),
		grpc.UnaryInterceptor(auth.UnaryInterceptor(recH.MethodPrefix)),
	)

	prodH.Register(grpcServer, prodH.NewProductHandler(prodUC, appLogger))
	lotH.Register(grpcServer, lotH.NewInventoryHandler(lotUC, appLogger))
	checkinH.Register(grpcServer, checkinH.NewCheckInHandler(checkinUC, appLogger))
	checkoutH.Register(grpcServer, checkoutH.NewCheckOutHandler(checkoutUC, appLogger))
	shipH.Register(grpcServer, shipH.NewShipmentHandler(shipUC, appLogger))
	recH.Register(grpcServer, recH.NewReconciliationHandler(recUC, appLogger))

	appLogger.Info("Starting gRPC server", zap.String("port", port))

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}
