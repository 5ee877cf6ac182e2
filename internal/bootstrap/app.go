package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	httpHandler "github.com/Alschn/Beerdegu/internal/handler/http"
	wsHandler "github.com/Alschn/Beerdegu/internal/handler/websocket"
	"github.com/Alschn/Beerdegu/internal/hub"
	gormpersistence "github.com/Alschn/Beerdegu/internal/infra/persistence/gorm"
	"github.com/Alschn/Beerdegu/internal/infra/setup"
	redisstate "github.com/Alschn/Beerdegu/internal/infra/state/redis"
	"github.com/Alschn/Beerdegu/internal/middleware"
	"github.com/Alschn/Beerdegu/internal/service"
	"github.com/Alschn/Beerdegu/internal/worker"
)

// App holds every long-lived component.
type App struct {
	Config      *Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	Worker      *worker.WorkerServer
	Hub         *hub.Hub
	HttpServer  *http.Server

	stopHub context.CancelFunc
}

// NewApp creates and wires the application.
func NewApp() (*App, error) {
	// 1. config
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, err
	}

	// 2. logger; packages log through the standard logrus logger
	log := logrus.StandardLogger()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
	}
	logLevel, _ := logrus.ParseLevel(cfg.LogLevel)
	log.SetLevel(logLevel)
	log.SetOutput(os.Stdout)
	log.Infof("Logger initialized (Level: %s, Format: %T)", logLevel.String(), log.Formatter)

	// 3. infrastructure
	db, err := setup.InitDB(cfg.DBOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to init DB: %w", err)
	}
	if cfg.DBAutoMigrate {
		if err := setup.MigrateDB(db); err != nil {
			return nil, fmt.Errorf("failed to migrate DB: %w", err)
		}
	}
	redisClient, err := setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}
	redisClientOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	// 4. repositories
	userRepo := gormpersistence.NewGormUserRepository(db)
	roomRepo := gormpersistence.NewGormRoomRepository(db)
	beerRepo := gormpersistence.NewGormBeerRepository(db)
	flightRepo := gormpersistence.NewGormFlightRepository(db)
	ratingRepo := gormpersistence.NewGormRatingRepository(db)

	// 5. services
	authService, err := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiryHours)
	if err != nil {
		return nil, fmt.Errorf("failed to create AuthService: %w", err)
	}
	roomService := service.NewRoomService(roomRepo, flightRepo, beerRepo, cfg.MemberPruneTimeout)
	ratingService := service.NewRatingService(ratingRepo, roomRepo, flightRepo)
	reportService := service.NewReportService(roomRepo, ratingService)
	beerService := service.NewBeerService(beerRepo)

	// 6. hub
	var fanout hub.Fanout
	if cfg.WSFanout == "redis" {
		fanout = redisstate.NewRedisFanout(redisClient, cfg.KeyPrefix)
		log.Info("WebSocket fan-out through Redis enabled")
	}
	hubInstance := hub.NewHub(roomService, ratingService, fanout)

	// 7. handlers
	authHandler := httpHandler.NewAuthHandler(authService)
	beerHandler := httpHandler.NewBeerHandler(beerService)
	roomHandler := httpHandler.NewRoomHandler(roomService, reportService, hubInstance)
	ratingHandler := httpHandler.NewRatingHandler(ratingService)
	socketHandler := wsHandler.NewWebSocketHandler(hubInstance, roomService, cfg.WSOrigins())

	// 8. worker
	workerServer := worker.NewWorkerServer(redisClientOpt, roomService, worker.Options{
		Schedule: cfg.MemberEvictionSchedule,
		IdleFor:  cfg.MemberIdleTimeout,
	}, log)

	// 9. router
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log))
	router.Use(CORSMiddleware(cfg.CORSAllowedOrigin))

	auth := middleware.Auth(cfg.JWTSecret)
	limit := middleware.RateLimit(redisClient, cfg.KeyPrefix, cfg.RateLimitMax, cfg.RateLimitWindow)
	registerRoutes(router, routeHandlers{
		auth:    authHandler,
		beers:   beerHandler,
		rooms:   roomHandler,
		ratings: ratingHandler,
		socket:  socketHandler,
	}, auth, limit)

	// 10. HTTP server
	httpServer := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		Config:      cfg,
		Log:         log,
		DB:          db,
		RedisClient: redisClient,
		Worker:      workerServer,
		Hub:         hubInstance,
		HttpServer:  httpServer,
	}, nil
}

type routeHandlers struct {
	auth    *httpHandler.AuthHandler
	beers   *httpHandler.BeerHandler
	rooms   *httpHandler.RoomHandler
	ratings *httpHandler.RatingHandler
	socket  *wsHandler.WebSocketHandler
}

func registerRoutes(router *gin.Engine, h routeHandlers, auth, limit gin.HandlerFunc) {
	api := router.Group("/api", limit)

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", h.auth.Register)
		authRoutes.POST("/login", h.auth.Login)
	}

	beerRoutes := api.Group("/beers", auth)
	{
		beerRoutes.GET("/", h.beers.List)
		beerRoutes.POST("/", h.beers.Create)
		beerRoutes.GET("/:id/", h.beers.Get)
	}

	roomRoutes := api.Group("/rooms", auth)
	{
		roomRoutes.GET("/", h.rooms.List)
		roomRoutes.POST("/", h.rooms.Create)
		roomRoutes.GET("/:name/", h.rooms.Get)
		roomRoutes.GET("/:name/in/", h.rooms.In)
		roomRoutes.PUT("/:name/join/", h.rooms.Join)
		roomRoutes.DELETE("/:name/leave/", h.rooms.Leave)
		roomRoutes.GET("/:name/beers/", h.rooms.ListBeers)
		roomRoutes.PUT("/:name/beers/", h.rooms.AddBeer)
		roomRoutes.DELETE("/:name/beers/", h.rooms.RemoveBeer)
		roomRoutes.PATCH("/:name/state/", h.rooms.ChangeState)
		roomRoutes.GET("/:name/report/", h.rooms.Report)
	}

	ratingRoutes := api.Group("/ratings", auth)
	{
		ratingRoutes.GET("/", h.ratings.List)
		ratingRoutes.GET("/:id/", h.ratings.Get)
		ratingRoutes.PATCH("/:id/", h.ratings.Update)
		ratingRoutes.DELETE("/:id/", h.ratings.Delete)
	}

	router.GET("/ws/room/:name", auth, h.socket.HandleConnection)
	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
}

// Start runs the hub, the worker and the HTTP server in the background.
func (a *App) Start() {
	hubCtx, cancel := context.WithCancel(context.Background())
	a.stopHub = cancel
	go a.Hub.Run(hubCtx)

	go a.Worker.Start()

	go func() {
		a.Log.Infof("HTTP server starting to listen on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
}

// Shutdown stops accepting requests, hangs up sockets and closes connections.
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("Error shutting down HTTP server: %v", err)
	}

	// hijacked WebSocket connections are not covered by Shutdown
	if a.stopHub != nil {
		a.stopHub()
	}

	if a.Worker != nil {
		a.Worker.Shutdown()
	}

	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("Error closing Redis connection: %v", err)
		}
	}

	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.Log.Errorf("Error closing database connection: %v", err)
			}
		}
	}

	a.Log.Info("Application shutdown complete.")
}

// CORSMiddleware answers preflight requests for the configured origin.
func CORSMiddleware(allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-RateLimit-Limit, X-RateLimit-Remaining")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// LoggerMiddleware logs each request through logrus.
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		latency := time.Since(startTime)
		statusCode := c.Writer.Status()
		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" && c.Query("token") == "" {
			path = path + "?" + c.Request.URL.RawQuery
		}
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		entry := log.WithFields(logrus.Fields{
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   c.ClientIP(),
			"method":      c.Request.Method,
			"path":        path,
		})

		switch {
		case errorMessage != "":
			entry.Error(errorMessage)
		case statusCode >= 500:
			entry.Error("Server error")
		case statusCode >= 400:
			entry.Warn("Client error")
		default:
			entry.Info("Request handled")
		}
	}
}
