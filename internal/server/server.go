package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/farellandr/eventreg/internal/handlers"
	"github.com/farellandr/eventreg/internal/middleware"
	"github.com/farellandr/eventreg/internal/models"
	"github.com/farellandr/eventreg/internal/services"
	"github.com/farellandr/eventreg/internal/storage"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Deps are the services the routes are served by.
type Deps struct {
	Events        *services.EventService
	Registrations *services.RegistrationService
	Auth          *services.AuthService
	Files         *storage.FileStore
}

type Options struct {
	AllowedOrigins []string
	MediaURL       string
	MaxUploadBytes int64
}

type Server struct {
	http *http.Server
	log  *zerolog.Logger
}

func New(addr string, router http.Handler, log *zerolog.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func NewRouter(deps Deps, opts Options, log *zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(log), gin.Recovery())
	r.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	setupRoutes(r, deps, opts, log)
	return r
}

func setupRoutes(r *gin.Engine, deps Deps, opts Options, log *zerolog.Logger) {
	mediaURL := "/" + strings.Trim(opts.MediaURL, "/")
	if mediaURL == "/" {
		mediaURL = "/media"
	}

	events := handlers.NewEventHandler(deps.Events, mediaURL, opts.MaxUploadBytes, log)
	registrations := handlers.NewRegistrationHandler(deps.Registrations, opts.MaxUploadBytes, log)
	auth := handlers.NewAuthHandler(deps.Auth, log)

	// Only event media is public; registration documents go through the admin
	// download route.
	r.StaticFS(mediaURL+"/"+storage.KindEventMedia, deps.Files.HTTPDir(storage.KindEventMedia))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	public := r.Group("/v1")
	{
		public.POST("/auth/login", auth.Login)

		eventPublic := public.Group("/events")
		{
			eventPublic.GET("", events.ListEvents)
			eventPublic.GET("/:event_id", events.GetEvent)
			eventPublic.GET("/:event_id/payment-methods", events.GetPaymentMethods)
			eventPublic.GET("/:event_id/calculate_total_amount", registrations.CalculateTotalAmount)
			eventPublic.POST("/:event_id/register", registrations.Register)
		}

		registrationPublic := public.Group("/registrations")
		{
			registrationPublic.GET("/check", registrations.CheckCredential)
			registrationPublic.GET("/pass", registrations.GetPass)
		}
	}

	admin := r.Group("/v1/admin")
	admin.Use(middleware.JWTAuthMiddleware(deps.Auth), middleware.RequireRole(models.RoleAdmin, models.RoleOrganizer))
	{
		eventAdmin := admin.Group("/events")
		{
			eventAdmin.POST("", events.CreateEvent)
			eventAdmin.PATCH("/:event_id", events.UpdateEvent)
			eventAdmin.DELETE("/:event_id", events.DeleteEvent)
		}

		registrationAdmin := admin.Group("/registrations")
		{
			registrationAdmin.GET("", registrations.ListRegistrations)
			registrationAdmin.POST("/verify-pass", registrations.VerifyPass)
			registrationAdmin.GET("/:id", registrations.GetRegistration)
			registrationAdmin.GET("/:id/files/:kind", registrations.DownloadFile)
			registrationAdmin.PATCH("/:id/approve", registrations.ApproveRegistration)
		}
	}
}

func corsConfig(origins []string) cors.Config {
	config := cors.DefaultConfig()
	config.AllowHeaders = append(config.AllowHeaders, "Authorization", middleware.RequestIDHeader)
	config.ExposeHeaders = []string{middleware.RequestIDHeader, "Content-Disposition"}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		config.AllowAllOrigins = true
		return config
	}
	config.AllowOrigins = origins
	return config
}
