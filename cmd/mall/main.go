package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	cartapp "github.com/wyfcoding/ecommerce/internal/cart/application"
	carthttp "github.com/wyfcoding/ecommerce/internal/cart/interfaces/http"
	catalogapp "github.com/wyfcoding/ecommerce/internal/catalog/application"
	catalogdomain "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	catalogmysql "github.com/wyfcoding/ecommerce/internal/catalog/infrastructure/persistence/mysql"
	cataloghttp "github.com/wyfcoding/ecommerce/internal/catalog/interfaces/http"
	interactionapp "github.com/wyfcoding/ecommerce/internal/interaction/application"
	interactiondomain "github.com/wyfcoding/ecommerce/internal/interaction/domain"
	"github.com/wyfcoding/ecommerce/internal/interaction/infrastructure/messaging"
	interactionmysql "github.com/wyfcoding/ecommerce/internal/interaction/infrastructure/persistence/mysql"
	orderapp "github.com/wyfcoding/ecommerce/internal/order/application"
	orderdomain "github.com/wyfcoding/ecommerce/internal/order/domain"
	ordermysql "github.com/wyfcoding/ecommerce/internal/order/infrastructure/persistence/mysql"
	orderhttp "github.com/wyfcoding/ecommerce/internal/order/interfaces/http"
	recoapp "github.com/wyfcoding/ecommerce/internal/recommendation/application"
	"github.com/wyfcoding/ecommerce/internal/recommendation/infrastructure/scorer"
	recohttp "github.com/wyfcoding/ecommerce/internal/recommendation/interfaces/http"
	"github.com/wyfcoding/ecommerce/pkg/cache"
	"github.com/wyfcoding/ecommerce/pkg/config"
	"github.com/wyfcoding/ecommerce/pkg/db"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/metrics"
	"github.com/wyfcoding/ecommerce/pkg/middleware"
	"github.com/wyfcoding/ecommerce/pkg/mq"
)

var configPath = flag.String("config", "configs/mall/config.toml", "config file path")

func main() {
	flag.Parse()

	// 1. 初始化配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. 初始化日志
	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	ctx := context.Background()
	logger.Info(ctx, "Starting service",
		"service", cfg.ServiceName,
		"version", cfg.Version,
		"environment", cfg.Environment,
	)

	// 3. 初始化指标
	m := metrics.New(cfg.ServiceName)
	if cfg.Metrics.Enabled {
		if err := m.Register(); err != nil {
			logger.Fatal(ctx, "Failed to register metrics", "error", err)
		}
		if err := metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Fatal(ctx, "Failed to start metrics server", "error", err)
		}
	}

	// 4. 初始化基础设施
	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to connect database", "error", err)
	}
	defer database.Close()

	// Auto Migrate（仅用于开发方便）
	if cfg.Environment == "dev" {
		if err := database.AutoMigrate(
			&catalogdomain.Product{},
			&orderdomain.Order{},
			&orderdomain.Item{},
			&interactiondomain.Interaction{},
		); err != nil {
			logger.Error(ctx, "Failed to migrate database", "error", err)
		}
	}

	// 缓存：Redis 连不上时退化为 Noop，正确性不依赖缓存
	var store cache.Store
	redisStore, err := cache.NewRedis(cache.Config{
		Host:        cfg.Redis.Host,
		Port:        cfg.Redis.Port,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		MaxPoolSize: cfg.Redis.MaxPoolSize,
		OpTimeout:   time.Duration(cfg.Redis.OpTimeout) * time.Millisecond,
	})
	if err != nil {
		logger.Warn(ctx, "Redis unavailable, running without cache", "error", err)
		store = cache.NewNoop()
	} else {
		store = redisStore
		defer redisStore.Close()
	}

	// Kafka（可选）：未启用时行为事件只落库
	var publisher interactiondomain.EventPublisher
	if cfg.Kafka.Enabled {
		producer, err := mq.NewProducer(mq.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: cfg.Kafka.RetryBackoff,
		})
		if err != nil {
			logger.Fatal(ctx, "Failed to create Kafka producer", "error", err)
		}
		defer producer.Close()
		publisher = messaging.NewKafkaEventPublisher(producer, cfg.Kafka.InteractionTopic)
	}

	// 5. 初始化仓储
	productRepo := catalogmysql.NewProductRepository(database.DB)
	orderRepo := ordermysql.NewOrderRepository(database.DB)
	interactionRepo := interactionmysql.NewInteractionRepository(database.DB)

	// 6. 初始化应用服务
	recorder := interactionapp.NewAsyncRecorder(interactionRepo, publisher, m)

	catalogSvc := catalogapp.NewService(productRepo, store, recorder, m, catalogapp.Config{
		ProductTTL: time.Duration(cfg.Cache.ProductTTL) * time.Second,
		ListTTL:    time.Duration(cfg.Cache.ProductListTTL) * time.Second,
	})
	cartSvc := cartapp.NewService(productRepo, store, recorder, time.Duration(cfg.Cache.CartTTL)*time.Second)
	orderSvc := orderapp.NewService(orderRepo, productRepo, cartSvc, recorder, m)

	recoScorer := scorer.NewRestyScorer(cfg.Recommender.BaseURL, time.Duration(cfg.Recommender.Timeout)*time.Millisecond)
	recoSvc := recoapp.NewService(recoScorer, productRepo, store, m, recoapp.Config{
		TTL: time.Duration(cfg.Cache.RecommendationTTL) * time.Second,
	})

	// 7. 初始化接口层
	gin.SetMode(gin.ReleaseMode)
	if cfg.Environment == "dev" {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(
		middleware.GinLoggingMiddleware(),
		middleware.GinRecoveryMiddleware(),
		middleware.GinCORSMiddleware(),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.ServiceName, "version": cfg.Version})
	})

	cataloghttp.NewProductHandler(catalogSvc).RegisterRoutes(router)
	carthttp.NewCartHandler(cartSvc).RegisterRoutes(router)
	orderhttp.NewOrderHandler(orderSvc).RegisterRoutes(router)
	recohttp.NewRecommendationHandler(recoSvc).RegisterRoutes(router)

	// 8. 启动 HTTP 服务
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info(ctx, "HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "HTTP server failed", "error", err)
		}
	}()

	// 9. 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Server forced to shutdown", "error", err)
	}
	logger.Info(ctx, "Server exited")
}
