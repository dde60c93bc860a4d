package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/filevault-be/internal/api/handlers"
	"github.com/isdelr/filevault-be/internal/auth"
	"github.com/isdelr/filevault-be/internal/services"
	"github.com/isdelr/filevault-be/internal/websocket"
)

// Options carries the HTTP-level settings of the router.
type Options struct {
	AllowedOrigins []string
	SecureCookies  bool
	SessionTTL     time.Duration
	MaxUploadBytes int64
}

// NewRouter creates and configures a new Chi router.
func NewRouter(
	hub *websocket.Hub,
	identityService services.IdentityServiceProvider,
	fileService services.FileServiceProvider,
	eventService services.EventServiceProvider,
	systemService services.SystemServiceProvider,
	opts Options,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", auth.SessionHeader},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(identityService, opts.SecureCookies, opts.SessionTTL)
	fileHandler := handlers.NewFileHandler(fileService, opts.MaxUploadBytes)
	eventHandler := handlers.NewEventHandler(eventService)
	systemHandler := handlers.NewSystemHandler(systemService)
	wsHandler := handlers.NewWebSocketHandler(hub, opts.AllowedOrigins)

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/register", userHandler.Register)
		r.Post("/auth/login", userHandler.Login)
		r.Post("/auth/forgot-password", userHandler.ForgotPassword)
		r.Post("/auth/reset-password", userHandler.ResetPassword)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth.SessionMiddleware(identityService))

			r.Post("/auth/logout", userHandler.Logout)
			r.Get("/ws", wsHandler.Serve)

			r.Get("/users/me", userHandler.GetMe)
			r.Put("/users/me/email", userHandler.UpdateEmail)

			r.Route("/files", func(r chi.Router) {
				r.Post("/list", fileHandler.List)
				r.Post("/folders", fileHandler.CreateFolder)
				r.Post("/delete", fileHandler.Delete)
				r.Post("/upload", fileHandler.Upload)
				r.Get("/download", fileHandler.Download)
			})

			r.Get("/events", eventHandler.GetRecent)
			r.Get("/system/storage", systemHandler.GetStorage)
		})
	})

	return r
}
