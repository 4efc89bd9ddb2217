package web

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/diasporabridge/bridge/internal/core"
	"github.com/diasporabridge/bridge/internal/stripe"
)

// Platform defines the platform operations the handlers use
type Platform interface {
	CreateCheckout(ctx context.Context, req core.CheckoutRequest) (string, error)
	HandlePaymentEvent(ctx context.Context, event stripe.Event) error

	ListPublicProfiles(ctx context.Context) ([]core.Profile, error)
	GetPublicProfile(ctx context.Context, code string) (*core.Profile, error)

	CreateProfile(ctx context.Context, input core.ProfileInput) (*core.Profile, error)
	UpdateProfile(ctx context.Context, id string, input core.ProfileInput) (*core.Profile, error)
	PatchProfile(ctx context.Context, id string, patch core.ProfilePatch) (*core.Profile, error)
	GetProfile(ctx context.Context, id string) (*core.Profile, error)
	ListProfiles(ctx context.Context) ([]core.Profile, error)

	CreateDelivery(ctx context.Context, input core.DeliveryInput) (*core.Delivery, error)
	ListDeliveries(ctx context.Context) ([]core.DeliveryWithProfile, error)

	GetStats(ctx context.Context) (*core.Stats, error)
	UploadPhoto(ctx context.Context, data []byte, contentType string) (string, error)
}

// Server is the platform web server
type Server struct {
	platform      Platform
	auth          core.AuthContext
	webhookSecret string
	router        *gin.Engine
	log           *slog.Logger
}

// NewServer creates a new web server
func NewServer(platform Platform, auth core.AuthContext, cfg core.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	router := gin.Default()

	s := &Server{
		platform:      platform,
		auth:          auth,
		webhookSecret: cfg.StripeWebhookSecret,
		router:        router,
		log:           logger,
	}

	s.registerRoutes(router)

	return s
}

func (s *Server) registerRoutes(router *gin.Engine) {
	// Public API routes
	api := router.Group("/api")
	{
		api.GET("/profiles", s.handleListProfiles)
		api.GET("/profiles/:code", s.handleGetProfile)
		api.POST("/checkout", s.handleCheckout)
		api.POST("/webhooks/stripe", s.handleStripeWebhook)
	}

	// Admin API routes
	admin := router.Group("/api/admin")
	admin.Use(requireAdmin(s.auth))
	{
		admin.GET("/profiles", s.handleAdminListProfiles)
		admin.POST("/profiles", s.handleAdminCreateProfile)
		admin.GET("/profiles/:id", s.handleAdminGetProfile)
		admin.PUT("/profiles/:id", s.handleAdminUpdateProfile)
		admin.PATCH("/profiles/:id", s.handleAdminPatchProfile)
		admin.GET("/deliveries", s.handleAdminListDeliveries)
		admin.POST("/deliveries", s.handleAdminCreateDelivery)
		admin.GET("/stats", s.handleAdminStats)
		admin.POST("/upload", s.handleAdminUpload)
	}
}

// Run starts the web server
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}
