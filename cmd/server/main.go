package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kinetix/backend/internal/api"
	"kinetix/backend/internal/config"
	"kinetix/backend/internal/repository/mongo"
	"kinetix/backend/internal/scheduler"
	"kinetix/backend/internal/service"
	"kinetix/backend/internal/storage"
	"kinetix/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		panic("could not load config: " + err.Error())
	}

	var log *logger.Logger
	if cfg.Server.Mode == "debug" {
		log = logger.NewDevelopment()
	} else {
		log = logger.New()
	}
	defer log.Sync()

	log.Infow("starting kinetix server", "address", cfg.Server.Address, "mode", cfg.Server.Mode)

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalw("could not connect to MongoDB", "error", err)
	}
	defer func() {
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Errorw("failed to disconnect MongoDB", "error", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Infow("database connection established", "database", cfg.Database.Name)

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		ensure := []struct {
			name string
			fn   func() error
		}{
			{"users", func() error { return mongo.EnsureUserIndexes(ctx, appDB.Collection("users")) }},
			{"trainer_profiles", func() error { return mongo.EnsureTrainerProfileIndexes(ctx, appDB.Collection("trainer_profiles")) }},
			{"client_profiles", func() error { return mongo.EnsureClientProfileIndexes(ctx, appDB.Collection("client_profiles")) }},
			{"weekly_plans", func() error { return mongo.EnsureWeeklyPlanIndexes(ctx, appDB.Collection("weekly_plans")) }},
			{"workout_logs", func() error { return mongo.EnsureWorkoutLogIndexes(ctx, appDB.Collection("workout_logs")) }},
			{"checkins", func() error { return mongo.EnsureCheckInIndexes(ctx, appDB.Collection("checkins")) }},
			{"penalty_records", func() error { return mongo.EnsurePenaltyRecordIndexes(ctx, appDB.Collection("penalty_records")) }},
		}
		for _, e := range ensure {
			if err := e.fn(); err != nil {
				log.Errorw("index creation failed", "collection", e.name, "error", err)
			}
		}
		log.Infow("index creation completed")
	}()

	// --- File Storage ---
	fileStorage, err := storage.NewS3Storage(cfg.S3, log)
	if err != nil {
		log.Fatalw("failed to initialize S3 storage", "error", err)
	}

	// --- Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	trainerRepo := mongo.NewMongoTrainerProfileRepository(appDB)
	clientRepo := mongo.NewMongoClientProfileRepository(appDB)
	planRepo := mongo.NewMongoWeeklyPlanRepository(appDB)
	logRepo := mongo.NewMongoWorkoutLogRepository(appDB)
	checkInRepo := mongo.NewMongoCheckInRepository(appDB)
	penaltyRepo := mongo.NewMongoPenaltyRecordRepository(appDB)

	// --- Services ---
	authService := service.NewAuthService(userRepo, trainerRepo, clientRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	guardService := service.NewSubscriptionGuardService(clientRepo, trainerRepo)
	trainerService := service.NewTrainerService(userRepo, trainerRepo, clientRepo, checkInRepo)
	workoutLogService := service.NewWorkoutLogService(logRepo, clientRepo, log)
	planService := service.NewPlanService(planRepo, trainerRepo, clientRepo, workoutLogService, log)
	checkInService := service.NewCheckInService(checkInRepo, clientRepo, trainerRepo, fileStorage)
	gamificationService := service.NewGamificationService(clientRepo, logRepo, penaltyRepo, log)
	syncService := service.NewTrainingSyncService(logRepo, workoutLogService, checkInService, checkInRepo, log)

	// --- Scheduler ---
	jobs := &scheduler.Jobs{
		Gamification: gamificationService,
		WorkoutLogs:  workoutLogService,
		TrainerRepo:  trainerRepo,
		Log:          log,
	}
	var sched scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(log)
		if err := jobs.RegisterAll(sched); err != nil {
			log.Fatalw("failed to register scheduled jobs", "error", err)
		}
		sched.Start()
	}

	// --- HTTP Server ---
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	api.SetupRoutes(router, &cfg, api.Services{
		Auth:         authService,
		Guard:        guardService,
		Trainer:      trainerService,
		Plan:         planService,
		WorkoutLog:   workoutLogService,
		CheckIn:      checkInService,
		Gamification: gamificationService,
		Sync:         syncService,
		ClientRepo:   clientRepo,
		TrainerRepo:  trainerRepo,
		Jobs:         jobs,
	})

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Infow("server listening", "address", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server error", "error", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infow("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if sched != nil {
		if err := sched.Stop(ctx); err != nil {
			log.Errorw("scheduler shutdown error", "error", err)
		}
	}
	if err := server.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}
	log.Infow("server exited")
}
