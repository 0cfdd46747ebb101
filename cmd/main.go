package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"exercise-service/internal/config"
	"exercise-service/internal/database/mongo"
	"exercise-service/internal/database/redis"
	"exercise-service/internal/event"
	"exercise-service/internal/grading"
	"exercise-service/internal/handlers"
	"exercise-service/internal/jobs"
	"exercise-service/internal/logging"
	"exercise-service/internal/repository"
	"exercise-service/internal/runner"
	"exercise-service/internal/service"
	"exercise-service/pkg/discovery"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.ServiceConfig

	logFile, err := logging.Setup(cfg.Server.LogDir)
	if err != nil {
		log.Printf("Logging to stderr: %v", err)
	} else {
		defer logFile.Close()
	}

	database, err := mongo.Connect(cfg.MongoDB)
	if err != nil {
		log.Fatalf("Fatal error connecting to MongoDB: %s", err)
	}
	redisClient := redis.Connect(cfg.Redis)

	exerciseRepo := repository.NewExerciseRepository(database)
	resultRepo := repository.NewResultRepository(database)
	draftRepo := repository.NewDraftRepository(redisClient, cfg.Exercise.DraftTTL)
	leaderboardRepo := repository.NewLeaderboardRepository(redisClient)

	indexCtx, indexCancel := context.WithTimeout(context.Background(), cfg.MongoDB.Timeout)
	if err := exerciseRepo.EnsureIndexes(indexCtx); err != nil {
		logging.Error("Failed to create exercise indexes: %v", err)
	}
	if err := resultRepo.EnsureIndexes(indexCtx); err != nil {
		logging.Error("Failed to create result indexes: %v", err)
	}
	indexCancel()

	eventPublisher, err := event.NewEventPublisher(cfg.RabbitMQ.URI, cfg.RabbitMQ.Exchange)
	if err != nil {
		logging.Error("Failed to initialize event publisher, events are disabled: %v", err)
		eventPublisher, _ = event.NewEventPublisher("", cfg.RabbitMQ.Exchange)
	}

	normalizer := grading.DefaultNormalizer
	if cfg.Exercise.FoldDiacritics {
		normalizer = grading.FoldDiacritics
	}
	grader := grading.NewGrader(grading.NewMatcher(normalizer))

	authoringService := service.NewAuthoringService(exerciseRepo, draftRepo, eventPublisher)
	gradingService := service.NewGradingService(exerciseRepo, resultRepo, leaderboardRepo, eventPublisher, grader)
	registry := runner.NewRegistry(grader, cfg.Exercise.AutoAdvanceDelay, gradingService.OnCompletion)
	sessionService := service.NewSessionService(exerciseRepo, registry)

	scheduler, err := jobs.NewScheduler(cfg.Exercise, sessionService, leaderboardRepo)
	if err != nil {
		log.Fatalf("Failed to set up scheduler: %v", err)
	}
	scheduler.Start()

	r := gin.New()
	r.Use(gin.LoggerWithWriter(log.Writer()), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With", "X-User-ID", "X-User-Permissions"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		body := gin.H{"status": "Exercise Service is healthy", "mongo": mongo.IsConnected(), "redis": redis.IsConnected(c.Request.Context())}
		if !mongo.IsConnected() {
			status = http.StatusServiceUnavailable
			body["status"] = "MongoDB unreachable"
		}
		c.JSON(status, body)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.NewExerciseHandler(authoringService).RegisterRoutes(r)
	handlers.NewDraftHandler(authoringService).RegisterRoutes(r)
	handlers.NewGradeHandler(gradingService).RegisterRoutes(r)
	handlers.NewSessionHandler(sessionService).RegisterRoutes(r)

	if cfg.Consul.Enabled {
		registryClient, err := discovery.NewServiceRegistry(cfg.Consul, cfg.Server)
		if err != nil {
			logging.Error("Service discovery unavailable: %v", err)
		} else if err := registryClient.Register(); err != nil {
			logging.Error("%v", err)
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	shutdownChan := make(chan os.Signal, 1)
	doneChan := make(chan bool, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logging.Info("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Error starting server: %v", err)
		}
		doneChan <- true
	}()

	<-shutdownChan
	logging.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Error shutting down HTTP server: %v", err)
	}

	<-scheduler.Stop().Done()
	registry.Sweep(-time.Second)

	if err := eventPublisher.Close(); err != nil {
		logging.Error("Error closing event publisher: %v", err)
	}

	redis.Close()
	mongo.DisconnectMongo()

	if discovery.ServiceDiscovery != nil {
		if err := discovery.ServiceDiscovery.Deregister(); err != nil {
			logging.Error("Error deregistering from service discovery: %v", err)
		}
	}

	<-doneChan
	logging.Info("Server shutdown complete")
}
