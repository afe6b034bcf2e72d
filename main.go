package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"roomsync-service/internal/config"
	"roomsync-service/internal/db"
	"roomsync-service/internal/handlers"
	"roomsync-service/internal/logging"
	"roomsync-service/internal/middleware"
	"roomsync-service/internal/observability"
	"roomsync-service/internal/rabbitmq"
	"roomsync-service/internal/repositories"
	"roomsync-service/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLogger := logging.New("info")
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}
	logger := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.OTLPEndpoint, cfg.Environment)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init tracing")
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("tracing shutdown failed")
		}
	}()

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to db")
	}
	defer database.Close()

	roomRepo := repositories.NewRoomRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	profileRepo := repositories.NewProfileRepo(database)

	hub := ws.NewHub(logger)

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
	defer publisher.Close()

	if !rabbitmq.IsNoop(publisher) {
		consumer, err := rabbitmq.NewConsumer(cfg.AMQPURL, cfg.AMQPExchange, hub.Broadcast, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to start event consumer")
		}
		defer consumer.Close()
		go func() {
			if err := consumer.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("event consumer stopped")
			}
		}()
	}

	roomHandler := handlers.NewRoomHandler(roomRepo, messageRepo, publisher, hub, logger)
	profileHandler := handlers.NewProfileHandler(profileRepo, cfg, logger)
	roomWS := ws.NewRoomWebSocketHandler(hub, roomRepo, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("roomsync-service"))
	router.Use(observability.HTTPMetricsMiddleware())

	optionalAuth := middleware.OptionalAuth(cfg.JWTSecret)
	requireAuth := middleware.RequireAuth(cfg.JWTSecret)

	router.POST("/rooms", optionalAuth, roomHandler.CreateRoom)
	router.GET("/rooms", roomHandler.ResolveRoom)
	router.GET("/rooms/:room_id/messages", roomHandler.GetRoomMessages)
	router.POST("/rooms/:room_id/messages", optionalAuth, roomHandler.PostRoomMessage)

	router.GET("/profiles", profileHandler.GetProfiles)
	router.PUT("/profiles/me", requireAuth, profileHandler.UpsertMyProfile)

	router.GET("/ws/rooms/:room_id", optionalAuth, roomWS.Handle)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	server := &http.Server{Addr: cfg.Addr, Handler: router}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Msg("starting roomsync server")
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		logger.Info().Msg("shutting down http server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown failed")
		}
	}
}
