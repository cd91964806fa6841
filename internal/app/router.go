package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"commute/internal/handler"
	"commute/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	RequestHandler  *handler.RequestHandler
	ContractHandler *handler.ContractHandler
	TripHandler     *handler.TripHandler
	FleetHandler    *handler.FleetHandler
	Verifier        middleware.TokenVerifier
	RedisClient     *redis.Client
	NewRelicApp     *newrelic.Application
	MetricsEnabled  bool
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	if deps.MetricsEnabled {
		router.Use(middleware.MetricsMiddleware())
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(deps.Verifier))
	v1.Use(middleware.NewRelicActorMiddleware())
	v1.Use(middleware.IdempotencyMiddleware(deps.RedisClient))
	{
		requests := v1.Group("/requests")
		{
			requests.POST("", deps.RequestHandler.CreateRequest)
			requests.GET("", deps.RequestHandler.ListMine)
			requests.GET("/:id", deps.RequestHandler.GetRequest)
			requests.PUT("/:id", deps.RequestHandler.UpdateRequest)
			requests.DELETE("/:id", deps.RequestHandler.DeleteRequest)
			requests.POST("/:id/cancel", deps.RequestHandler.CancelRequest)
		}

		contracts := v1.Group("/contracts")
		{
			contracts.GET("/price", deps.ContractHandler.QuotePrice)
			contracts.POST("", deps.ContractHandler.ProposeContract)
			contracts.GET("/pending", deps.ContractHandler.ListPending)
			contracts.GET("/mine", deps.ContractHandler.ListMine)
			contracts.GET("/:id", deps.ContractHandler.GetContract)
			contracts.GET("/:id/trips", deps.TripHandler.ListByContract)
			contracts.POST("/:id/accept", deps.ContractHandler.AcceptContract)
			contracts.POST("/:id/reject", deps.ContractHandler.RejectContract)
		}

		trips := v1.Group("/trips")
		{
			trips.POST("", deps.TripHandler.CreateTrip)
			trips.GET("/mine", deps.TripHandler.ListMine)
			trips.GET("/:id", deps.TripHandler.GetTrip)
			trips.POST("/:id/start", deps.TripHandler.StartTrip)
			trips.POST("/:id/end", deps.TripHandler.EndTrip)
		}

		v1.GET("/company/me", deps.FleetHandler.MyCompany)

		companies := v1.Group("/companies")
		{
			companies.GET("/:id/vehicles", deps.FleetHandler.ListVehicles)
			companies.GET("/:id/drivers", deps.FleetHandler.ListDrivers)
			companies.GET("/:id/revenue", deps.FleetHandler.CompanyRevenue)
		}

		vehicles := v1.Group("/vehicles")
		{
			vehicles.POST("", deps.FleetHandler.AddVehicle)
			vehicles.PUT("/:id", deps.FleetHandler.UpdateVehicle)
		}

		v1.PUT("/drivers/:id/availability", deps.FleetHandler.SetDriverAvailability)

		admin := v1.Group("/admin")
		{
			admin.GET("/requests", deps.RequestHandler.ListAll)
			admin.GET("/companies", deps.FleetHandler.ListCompanies)
			admin.GET("/companies/:id/vehicles", deps.FleetHandler.ListVehicles)
			admin.GET("/companies/:id/drivers", deps.FleetHandler.ListDrivers)
		}
	}

	return router
}
