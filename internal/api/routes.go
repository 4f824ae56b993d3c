package api

import (
	"net/http"

	"kinetix/backend/internal/config"
	"kinetix/backend/internal/domain"
	"kinetix/backend/internal/repository"
	"kinetix/backend/internal/scheduler"
	"kinetix/backend/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Services groups everything the route table needs.
type Services struct {
	Auth         service.AuthService
	Guard        service.SubscriptionGuardService
	Trainer      service.TrainerService
	Plan         service.PlanService
	WorkoutLog   service.WorkoutLogService
	CheckIn      service.CheckInService
	Gamification service.GamificationService
	Sync         service.TrainingSyncService

	ClientRepo  repository.ClientProfileRepository
	TrainerRepo repository.TrainerProfileRepository
	Jobs        *scheduler.Jobs
}

// SetupRoutes wires the full HTTP surface under /api/v1.
func SetupRoutes(router *gin.Engine, cfg *config.Config, svc Services) {
	authHandler := NewAuthHandler(svc.Auth)
	trainerHandler := NewTrainerHandler(svc.Trainer, svc.CheckIn, svc.WorkoutLog)
	planHandler := NewPlanHandler(svc.Plan)
	clientHandler := NewClientHandler(svc.ClientRepo, svc.Plan, svc.WorkoutLog, svc.CheckIn, svc.Gamification, svc.Sync)
	adminHandler := NewAdminHandler(svc.TrainerRepo, svc.Jobs)

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	if cfg.RateLimit.RequestsPerSecond > 0 {
		router.Use(RateLimitMiddleware(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	}

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")

	authGroup := apiV1.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(cfg.JWT.Secret))
	{
		protected.GET("/me", authHandler.Me)

		trainerGroup := protected.Group("/trainer")
		trainerGroup.Use(RoleMiddleware(domain.RoleTrainer))
		{
			trainerGroup.GET("/profile", trainerHandler.GetProfile)
			trainerGroup.PUT("/profile", trainerHandler.UpdateProfile)
			trainerGroup.POST("/subscription/upgrade", trainerHandler.UpgradeSubscription)

			trainerGroup.GET("/clients", trainerHandler.GetManagedClients)
			trainerGroup.POST("/clients", trainerHandler.AddClientByEmail)
			trainerGroup.DELETE("/clients/:clientId", trainerHandler.RemoveClient)
			trainerGroup.GET("/clients/:clientId/logs", trainerHandler.GetClientLogs)

			trainerGroup.POST("/plans", planHandler.CreatePlan)
			trainerGroup.GET("/plans", planHandler.ListPlans)
			trainerGroup.GET("/plans/:planId", planHandler.GetPlan)
			trainerGroup.PUT("/plans/:planId", planHandler.UpdatePlan)
			trainerGroup.DELETE("/plans/:planId", planHandler.DeletePlan)
			trainerGroup.POST("/plans/:planId/duplicate", planHandler.DuplicatePlan)
			trainerGroup.POST("/plans/:planId/assign", planHandler.AssignPlan)

			trainerGroup.GET("/checkins", trainerHandler.ListCheckIns)
			trainerGroup.POST("/checkins/:checkInId/verify", trainerHandler.VerifyCheckIn)
		}

		// Every client route sits behind the subscription guard: a client
		// whose trainer's subscription lapsed is locked out until renewal.
		clientGroup := protected.Group("/client")
		clientGroup.Use(RoleMiddleware(domain.RoleClient), SubscriptionGuardMiddleware(svc.Guard))
		{
			clientGroup.GET("/profile", clientHandler.GetProfile)
			clientGroup.PUT("/profile", clientHandler.UpdateProfile)

			clientGroup.GET("/plan", clientHandler.GetCurrentPlan)
			clientGroup.GET("/logs", clientHandler.ListLogs)
			clientGroup.GET("/logs/today", clientHandler.GetTodayLog)
			clientGroup.POST("/logs/:logId/complete", clientHandler.CompleteWorkout)

			clientGroup.POST("/checkins/upload-url", clientHandler.RequestCheckInUpload)
			clientGroup.POST("/checkins", clientHandler.SubmitCheckIn)
			clientGroup.GET("/checkins", clientHandler.ListCheckIns)

			clientGroup.GET("/penalties", clientHandler.ListPenalties)
			clientGroup.POST("/sync", clientHandler.SyncBatch)
		}

		adminGroup := protected.Group("/admin")
		adminGroup.Use(RoleMiddleware(domain.RoleAdmin))
		{
			adminGroup.GET("/trainers", adminHandler.ListTrainers)
			adminGroup.POST("/jobs/:name/run", adminHandler.RunJob)
		}
	}
}
