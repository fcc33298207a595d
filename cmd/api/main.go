package main

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"unimarket/internal/adapter/api"
	"unimarket/internal/adapter/api/handler"
	apimiddleware "unimarket/internal/adapter/api/middleware"
	"unimarket/internal/adapter/api/router"
	"unimarket/internal/adapter/repository"
	domainrepo "unimarket/internal/domain/repository"
	"unimarket/internal/infrastructure/websocket"
	"unimarket/internal/usecase"
	"unimarket/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var (
		roomRepo    domainrepo.ChatRoomRepository
		messageRepo domainrepo.MessageRepository
		products    domainrepo.ProductDirectory
		users       domainrepo.UserDirectory
		roomLocker  domainrepo.RoomLocker
	)

	if cfg.DatabaseURL != "" {
		pool, err := repository.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		defer pool.Close()

		roomRepo = repository.NewPostgresChatRoomRepository(pool)
		messageRepo = repository.NewPostgresMessageRepository(pool)
		products = repository.NewPostgresProductDirectory(pool)
		users = repository.NewPostgresUserDirectory(pool)
		roomLocker = repository.NewPostgresRoomLocker(pool)
		log.Printf("Using Postgres store")
	} else {
		db, err := repository.NewSQLiteDB(ctx, cfg.SQLitePath)
		if err != nil {
			log.Fatalf("Failed to open SQLite database: %v", err)
		}
		defer db.Close()

		roomRepo = repository.NewSQLiteChatRoomRepository(db)
		messageRepo = repository.NewSQLiteMessageRepository(db)
		products = repository.NewSQLiteProductDirectory(db)
		users = repository.NewSQLiteUserDirectory(db)
		roomLocker = repository.NewLocalRoomLocker()
		log.Printf("Using SQLite store at %s", cfg.SQLitePath)
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Invalid REDIS_URL: %v", err)
		}
		rdb = redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rdb.Close()
		log.Printf("Cross-instance fan-out enabled via Redis")
	}

	wsManager := websocket.NewManager(rdb, cfg.MaxMessageLength)
	chatUseCase := usecase.NewChatUseCase(roomRepo, messageRepo, products, users, wsManager, roomLocker)
	wsManager.SetMessageService(chatUseCase)
	wsManager.Start(ctx)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(apimiddleware.Metrics)

	e.Validator = api.NewValidator()

	chatHandler := handler.NewChatHandler(chatUseCase)
	wsHandler := handler.NewWebSocketHandler(wsManager, time.Duration(cfg.PongWaitSeconds)*time.Second)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	router.SetupChatRouter(e, chatHandler)
	router.SetupWebSocketRouter(e, wsHandler)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
