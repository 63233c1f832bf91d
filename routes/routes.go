package routes

import (
	"safiri-mazao-api/handlers"
	"safiri-mazao-api/middleware"
	"safiri-mazao-api/models"

	"github.com/gin-gonic/gin"
)

// Deps carries everything the route table needs
type Deps struct {
	JWTSecret    []byte
	LoginLimiter *middleware.RateLimiter

	Meta         *handlers.MetaHandler
	Auth         *handlers.AuthHandler
	Orders       *handlers.OrderHandler
	Transporters *handlers.TransporterHandler
	Reports      *handlers.ReportHandler
	Cargo        *handlers.CargoHandler
	USSD         *handlers.USSDHandler
}

func SetupRoutes(r *gin.Engine, d Deps) {
	handlers.RegisterValidators()

	r.GET("/health", d.Meta.Health)
	r.GET("/", d.Meta.Welcome)

	// ── Partner & gateway callbacks ────────────────────────────────
	r.POST("/cargo-request", d.Cargo.CreateRequest)
	r.GET("/cargo-request/:id", d.Cargo.GetRequest)
	r.POST("/callback", d.Cargo.Callback)
	r.POST("/ussd", d.USSD.Callback)
	r.GET("/ussd", d.USSD.Callback)

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		login := []gin.HandlerFunc{d.Auth.Login}
		if d.LoginLimiter != nil {
			login = append([]gin.HandlerFunc{d.LoginLimiter.Limit()}, login...)
		}
		public.POST("/auth/login", login...)

		// State machine info (great for docs/Postman)
		public.GET("/state-machine", d.Meta.GetStateMachineInfo)
	}

	// ── Admin console routes ───────────────────────────────────────
	admin := r.Group("/api")
	admin.Use(middleware.AuthRequired(d.JWTSecret), middleware.RoleRequired(models.RoleAdmin))
	{
		admin.GET("/profile", d.Auth.Profile)

		admin.GET("/orders", d.Orders.ListOrders)
		admin.POST("/orders", d.Orders.CreateOrder)
		admin.GET("/orders/track/:trackNumber", d.Orders.TrackOrder)
		admin.GET("/orders/:id", d.Orders.GetOrder)
		admin.PATCH("/orders/:id/status", d.Orders.UpdateOrderStatus)
		admin.PUT("/orders/:id/status", d.Orders.UpdateOrderStatus)

		admin.GET("/transporters", d.Transporters.ListTransporters)
		admin.POST("/transporters", d.Transporters.CreateTransporter)
		admin.GET("/transporters/:id", d.Transporters.GetTransporter)
		admin.PATCH("/transporters/:id", d.Transporters.UpdateTransporter)
		admin.DELETE("/transporters/:id", d.Transporters.RemoveTransporter)

		admin.GET("/reports/orders-summary", d.Reports.OrdersSummary)
		admin.GET("/reports/orders-over-time", d.Reports.OrdersOverTime)
		admin.GET("/dashboard", d.Reports.Dashboard)
	}
}
