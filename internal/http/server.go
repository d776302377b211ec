// README: HTTP server wiring — middleware chain and route table.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"freteiro/internal/http/handlers"
	"freteiro/internal/http/middleware"
	"freteiro/internal/infra"
)

// RoleTransporter is the custom claim required for driver-facing endpoints.
const RoleTransporter = "transporter"

type ServerDeps struct {
	Deliveries    handlers.DeliveryAPI
	Dispatcher    handlers.Dispatcher
	Orders        handlers.OrderAPI
	Profiles      handlers.AvailabilityStore
	LiveIndex     handlers.LiveIndex
	NearbyIndex   handlers.NearbyIndex
	Mirror        handlers.PositionMirror
	Publisher     handlers.SampleSink
	Verifier      infra.TokenVerifier
	WebhookSecret string
}

type Server struct {
	deps ServerDeps
}

func NewServer(deps ServerDeps) *Server {
	return &Server{deps: deps}
}

func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Logging())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	deliveryH := handlers.NewDeliveryHandler(s.deps.Deliveries, s.deps.Dispatcher)
	orderH := handlers.NewOrderHandler(s.deps.Orders)
	driverH := handlers.NewDriverHandler(s.deps.Profiles, s.deps.LiveIndex, s.deps.Mirror)
	locationH := handlers.NewLocationHandler(s.deps.Publisher, s.deps.NearbyIndex)
	webhookH := handlers.NewWebhookHandler(s.deps.Deliveries)

	// Marketplace automation; shared-secret auth, no user token.
	hooks := r.Group("/api/webhooks", middleware.WebhookAuth(s.deps.WebhookSecret))
	hooks.POST("/transport", webhookH.TransportAction)

	api := r.Group("/api", middleware.Auth(s.deps.Verifier))

	api.POST("/orders", orderH.Create)
	api.GET("/orders/:id", orderH.Get)

	api.GET("/deliveries/:id", deliveryH.Get)
	api.GET("/drivers/nearby", locationH.Nearby)

	// Driver-facing routes require the transporter role claim.
	drv := api.Group("", middleware.RequireRole(RoleTransporter))
	drv.GET("/deliveries", deliveryH.Queue)
	drv.POST("/deliveries/:id/accept", deliveryH.Accept)
	drv.POST("/deliveries/:id/status", deliveryH.UpdateStatus)
	drv.GET("/drivers/me/delivery", deliveryH.Active)
	drv.GET("/drivers/me/history", deliveryH.History)
	drv.PUT("/drivers/me/availability", driverH.SetAvailability)
	drv.POST("/drivers/me/location", locationH.Update)

	return r
}
