package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/tasksync/tasksync-api/internal/api"
	apiMiddleware "github.com/tasksync/tasksync-api/internal/api/middleware"
	"github.com/tasksync/tasksync-api/internal/metrics"
	"github.com/tasksync/tasksync-api/internal/ratelimit"
	"github.com/tasksync/tasksync-api/internal/service"
)

// apiBasePath is where the API is mounted in addition to the root.
const apiBasePath = "/api/auth/v1"

// routerDeps are the collaborators the HTTP layer needs.
type routerDeps struct {
	Logger         *slog.Logger
	Users          service.UserService
	Tasks          service.TaskService
	Metrics        *metrics.Metrics
	LoginLimiter   *ratelimit.Limiter
	AllowedOrigins []string
	TrustProxy     bool
}

// setupRouter builds the router from the application's dependencies.
func (app *application) setupRouter() http.Handler {
	origins := append([]string{}, app.config.CORS.AllowedOrigins...)
	if app.config.App.FrontendURL != "" {
		origins = append(origins, app.config.App.FrontendURL)
	}
	return newRouter(routerDeps{
		Logger:         app.logger,
		Users:          app.userService,
		Tasks:          app.taskService,
		Metrics:        app.metrics,
		LoginLimiter:   app.loginLimiter,
		AllowedOrigins: origins,
		TrustProxy:     app.config.Server.TrustProxy,
	})
}

// newRouter registers middleware, the API routes under both the root and
// apiBasePath, and the operational endpoints.
func newRouter(deps routerDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if deps.TrustProxy {
		// Forwarded headers are client-controlled unless a proxy rewrites
		// them, and the login limiter keys on the resulting address.
		r.Use(middleware.RealIP)
	}
	r.Use(apiMiddleware.TraceMiddleware(deps.Logger))
	r.Use(apiMiddleware.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(deps.Metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Trace-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	routes := apiRoutes(deps)
	r.Group(routes)
	r.Route(apiBasePath, routes)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			deps.Logger.Error("failed to write health check response", slog.String("error", err.Error()))
		}
	})
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	return r
}

// apiRoutes returns a function registering the user and task endpoints.
func apiRoutes(deps routerDeps) func(r chi.Router) {
	userHandler := api.NewUserHandler(deps.Users, deps.Logger)
	taskHandler := api.NewTaskHandler(deps.Tasks, deps.Logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(deps.Users, deps.Metrics.IncAuthFailure, deps.Logger)
	loginLimit := ratelimit.Middleware(deps.LoginLimiter, func() {
		deps.Metrics.IncRateLimitRejection("login")
	})

	return func(r chi.Router) {
		// Public endpoints
		r.Post("/users/signup", userHandler.Signup)
		r.With(loginLimit).Post("/users/login", userHandler.Login)
		r.Get("/users/allmanagers", userHandler.AllManagers)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/users/logout", userHandler.Logout)
			r.Get("/users/profile", userHandler.Profile)
			r.Get("/users/allusers", userHandler.AllUsers)
			r.Get("/users/getmanagerusers", userHandler.ManagerUsers)

			r.Post("/tasks/createtask", taskHandler.CreateTask)
			r.Get("/tasks/listtasks", taskHandler.ListTasks)
			r.Put("/tasks/updatetask/{id}", taskHandler.UpdateTask)
			r.Put("/tasks/updatestatus/{id}", taskHandler.UpdateStatus)
			r.Put("/tasks/updatepriority/{id}", taskHandler.UpdatePriority)
			r.Put("/tasks/assigntask/{id}", taskHandler.AssignTask)
			r.Delete("/tasks/deletetask/{id}", taskHandler.DeleteTask)
		})
	}
}
