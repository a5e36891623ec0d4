package router

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"carepay/config"
	"carepay/internal/domain"
	"carepay/internal/handler"
	"carepay/internal/middleware"
	"carepay/internal/refdata"
	"carepay/internal/repository"
	"carepay/internal/service"
	"carepay/pkg/chek"
)

func Setup(cfg *config.Config, db *gorm.DB, source refdata.Source) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewRateLimiter(100, 60*time.Second)))

	// Repositories
	allocationRepo := repository.NewAllocationRepository(db)
	careDayRepo := repository.NewCareDayRepository(db)
	lumpSumRepo := repository.NewLumpSumRepository(db)
	rateRepo := repository.NewRateRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	// Services
	chekClient := chek.NewClient(cfg.Chek.BaseURL, cfg.Chek.AccountID, cfg.Chek.APIKey, cfg.Chek.WriteKey)
	paymentSvc := service.NewPaymentService(cfg, allocationRepo, careDayRepo, lumpSumRepo, paymentRepo, settingsRepo, chekClient, source)
	allocationSvc, err := service.NewAllocationService(cfg, allocationRepo, careDayRepo, lumpSumRepo, rateRepo, source, paymentSvc)
	if err != nil {
		log.Fatalf("allocation service: %v", err)
	}

	// Handlers
	allocationHandler := handler.NewAllocationHandler(allocationSvc, source)
	paymentHandler := handler.NewPaymentHandler(paymentSvc, allocationSvc, careDayRepo, lumpSumRepo, paymentRepo)
	onboardingHandler := handler.NewOnboardingHandler(paymentSvc, settingsRepo)

	authMw := middleware.AuthRequired(&cfg.JWT)
	adminMw := middleware.RequireRole(domain.RoleAdmin)

	api := r.Group("/api/v1")
	{
		api.GET("/children/:childId/allocation", authMw, allocationHandler.GetOrCreate)

		allocations := api.Group("/allocations", authMw)
		{
			allocations.GET("/:id", allocationHandler.Get)
			allocations.POST("/:id/care-days", allocationHandler.CreateCareDay)
			allocations.POST("/:id/lump-sums", allocationHandler.CreateLumpSum)
			allocations.GET("/:id/payments", paymentHandler.ListForAllocation)
		}

		careDays := api.Group("/care-days", authMw)
		{
			careDays.DELETE("/:careDayId", allocationHandler.DeleteCareDay)
			careDays.POST("/:careDayId/restore", allocationHandler.RestoreCareDay)
		}

		api.POST("/allocation-runs", authMw, adminMw, allocationHandler.RunBatch)
		api.POST("/rates", authMw, adminMw, allocationHandler.SetRate)

		payments := api.Group("/payments", authMw, adminMw)
		{
			payments.POST("", paymentHandler.Process)
			payments.POST("/intents/:intentId/retry", paymentHandler.Retry)
			payments.GET("/intents/:intentId", paymentHandler.IntentStatus)
		}

		providers := api.Group("/providers", authMw)
		{
			providers.POST("/:providerId/onboard", adminMw, onboardingHandler.OnboardProvider)
			providers.POST("/:providerId/refresh", onboardingHandler.RefreshProvider)
			providers.POST("/:providerId/payment-method", paymentHandler.SetPaymentMethod)
		}

		families := api.Group("/families", authMw)
		{
			families.POST("/:familyId/onboard", adminMw, onboardingHandler.OnboardFamily)
			families.POST("/:familyId/refresh", onboardingHandler.RefreshFamily)
			families.POST("/:familyId/reclaim", adminMw, onboardingHandler.ReclaimFamily)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
