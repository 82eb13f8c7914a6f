// Package server provides the HTTP server of the /v1 JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/foodisave/backend/internal/infrastructure/config"
	"github.com/foodisave/backend/internal/infrastructure/http/handlers"
	"github.com/foodisave/backend/internal/infrastructure/http/middleware"
	"github.com/foodisave/backend/internal/infrastructure/http/render"
	"github.com/foodisave/backend/internal/infrastructure/monitoring"
	"github.com/foodisave/backend/internal/infrastructure/security"
	"github.com/foodisave/backend/internal/ports/inbound"
	apperrors "github.com/foodisave/backend/pkg/errors"
	"github.com/foodisave/backend/pkg/healthcheck"
)

const msgRateLimited = "För många förfrågningar, försök igen senare"

// Services are the application services the routes call into.
type Services struct {
	Recipes     inbound.RecipeService
	UserRecipes inbound.UserRecipeService
	AI          inbound.AIService
	Users       inbound.UserService
	Items       inbound.ItemService
	Social      inbound.SocialService
}

// Server represents the HTTP server
type Server struct {
	config   *config.Config
	logger   *zap.Logger
	services Services
	metrics  *monitoring.Metrics
	health   *healthcheck.HealthCheck
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a new HTTP server instance. metrics may be nil when disabled.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	services Services,
	metrics *monitoring.Metrics,
	health *healthcheck.HealthCheck,
) *Server {
	s := &Server{
		config:   cfg,
		logger:   logger.Named("http"),
		services: services,
		metrics:  metrics,
		health:   health,
	}

	s.router = s.setupRouter()

	var handler http.Handler = s.router
	if cfg.Monitoring.EnableTracing {
		handler = otelhttp.NewHandler(handler, cfg.App.Name,
			otelhttp.WithFilter(func(r *http.Request) bool {
				return r.URL.Path != "/health" && r.URL.Path != "/metrics"
			}),
		)
	}

	s.server = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    cfg.Server.MaxHeaderBytes,
	}

	return s
}

// Handler returns the routed handler without the listener, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRouter configures the HTTP router with middleware and routes
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Security())
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.Error(w, r, s.logger, apperrors.NewNotFoundError("Sidan hittades inte"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		render.Error(w, r, s.logger, apperrors.NewAppError(apperrors.CodeBadRequest, "Metoden stöds inte", r.Method))
	})

	if s.health != nil {
		r.Get("/health", s.health.Handler())
		r.Get("/health/live", s.health.LivenessHandler())
		r.Get("/health/ready", s.health.ReadinessHandler())
	}
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.Server.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		if s.config.Server.RateLimitPerMinute > 0 {
			r.Use(httprate.Limit(
				s.config.Server.RateLimitPerMinute,
				time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					render.Error(w, r, s.logger, apperrors.NewAppError(apperrors.CodeTooManyRequests, msgRateLimited, ""))
				}),
			))
		}
		if s.config.Server.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(s.config.Server.RequestTimeout))
		}
		if s.config.Server.EnableCompression {
			r.Use(newCompressor().Handler)
		}
		s.setupAPIRoutes(r)
	})

	return r
}

// newCompressor compresses JSON answers with brotli when the client accepts it,
// falling back to gzip and deflate.
func newCompressor() *chimiddleware.Compressor {
	c := chimiddleware.NewCompressor(5, "application/json", "text/plain")
	c.SetEncoder("br", func(w io.Writer, level int) io.Writer {
		return brotli.NewWriterLevel(w, level)
	})
	return c
}

// setupAPIRoutes configures the /v1 routes
func (s *Server) setupAPIRoutes(r chi.Router) {
	validator := security.NewValidationService()
	maxUpload := s.config.Server.MaxUploadBytes
	log := s.logger

	recipes := handlers.NewRecipeHandlers(s.services.Recipes, s.services.UserRecipes, validator, maxUpload, log)
	ai := handlers.NewAIAPIHandlers(s.services.AI, validator, maxUpload, log)
	auth := handlers.NewAuthAPIHandlers(s.services.Users, validator, log)
	items := handlers.NewItemHandlers(s.services.Items, validator, log)
	social := handlers.NewSocialHandlers(s.services.Social, validator, log)

	// Public
	r.Group(func(r chi.Router) {
		r.Get("/search/recipe", recipes.Search)
		r.Get("/random/recipe", recipes.Random)
		r.Get("/recipe/{id}", recipes.Get)
		r.Get("/user/recipe/{user_id}", recipes.ListUserRecipes)

		r.Get("/shopping-list/{id}", ai.ShoppingList)
		r.Get("/suggest-recipe/{id}", ai.SuggestSimilar)
		r.Get("/change-ingredients/{id}", ai.ChangeIngredients)
		r.Get("/add-ingredients/{id}", ai.AddIngredients)

		r.Post("/user", auth.Register)
		r.Post("/auth/token", auth.Login)
		r.Post("/auth/password-reset/request", auth.RequestPasswordReset)
		r.Post("/auth/password-reset/confirm", auth.ConfirmPasswordReset)
		r.Post("/auth/activate/confirm", auth.ConfirmActivation)

		r.Get("/user-recipe/{id}/comments", social.Comments)
		r.Get("/recipe/{id}/reviews", social.Reviews)
		r.Get("/users/{id}/followers", social.Followers)
		r.Get("/users/{id}/following", social.Following)
	})

	// Authenticated
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(s.services.Users, log))

		r.Post("/recipe/saved", recipes.Save)
		r.Delete("/recipe/saved", recipes.Unsave)
		r.Post("/recipe/saved/check", recipes.CheckSaved)
		r.Get("/saved/recipe", recipes.ListSaved)

		r.Post("/user/recipe", recipes.CreateUserRecipe)
		r.Post("/ai/recipe", recipes.CreateAIRecipe)
		r.Patch("/user/recipe/update/{id}", recipes.UpdateUserRecipe)
		r.Delete("/user/recipe/delete/{id}", recipes.DeleteUserRecipe)
		r.Post("/user-recipe/saved", recipes.SaveUserRecipe)
		r.Delete("/user-recipe/saved", recipes.UnsaveUserRecipe)
		r.Post("/user-recipe/saved/check", recipes.CheckUserRecipeSaved)
		r.Get("/saved/user-recipe", recipes.ListSavedUserRecipes)
		r.Post("/upload-image", recipes.UploadImage)
		r.Post("/upload-image/", recipes.UploadImage)
		r.Get("/images/{user_recipe_id}", recipes.Image)

		r.Post("/suggest_recipe_from_image", ai.SuggestFromImage)
		r.Post("/suggest-recipe-from-plateimage", ai.SuggestFromPlateImage)
		r.Post("/save-bought-items", ai.SaveBoughtItems)
		r.Post("/chat", ai.Chat)
		r.Post("/classify-image", ai.ClassifyImage)

		r.Post("/saved-items", items.Create)
		r.Get("/saved-items", items.List)
		r.Put("/saved-items/{id}", items.Update)
		r.Delete("/saved-items/{id}", items.Delete)

		r.Post("/auth/logout", auth.Logout)
		r.Get("/me", auth.Me)
		r.Put("/profile", auth.UpdateProfile)
		r.Put("/change-password", auth.ChangePassword)
		r.Delete("/user", auth.DeleteAccount)
		r.Get("/user", auth.ListUsers)
		r.Put("/admin/profile/{id}", auth.AdminUpdate)

		r.Post("/user-recipe/{id}/comments", social.Comment)
		r.Post("/recipe/{id}/reviews", social.Review)
		r.Post("/users/{id}/follow", social.Follow)
		r.Delete("/users/{id}/follow", social.Unfollow)
		r.Post("/messages", social.SendMessage)
		r.Get("/messages", social.Messages)
	})
}

// Start starts the HTTP server and blocks until it stops. A graceful shutdown is not an error.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server",
		zap.String("address", s.server.Addr),
		zap.String("environment", s.config.App.Environment),
	)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
