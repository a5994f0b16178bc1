// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"docket/config"
	"docket/internal/delivery/api/middleware"
	"docket/internal/delivery/api/router/handler"
	"docket/internal/infra/metrics"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	UserHandler    *handler.UserHandler
	TaskHandler    *handler.TaskHandler
	AuthMiddleware *middleware.AuthMiddleware
	Config         *config.Config
	Registry       *prometheus.Registry `optional:"true"`
}

// router holds all the handlers that need to be registered.
type router struct {
	userHandler    *handler.UserHandler
	taskHandler    *handler.TaskHandler
	authMiddleware *middleware.AuthMiddleware
	config         *config.Config
	registry       *prometheus.Registry
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		userHandler:    params.UserHandler,
		taskHandler:    params.TaskHandler,
		authMiddleware: params.AuthMiddleware,
		config:         params.Config,
		registry:       params.Registry,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.HealthCheck)

	api := e.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", r.userHandler.Register)
		authGroup.POST("/login", r.userHandler.Login)
		authGroup.POST("/refresh-token", r.userHandler.RefreshToken)
	}

	// Everything below requires an access token.
	userGroup := api.Group("/users", r.authMiddleware.Authenticate)
	{
		userGroup.GET("/me", r.userHandler.Me)
	}

	tasksGroup := api.Group("/tasks", r.authMiddleware.Authenticate)
	{
		tasksGroup.GET("", r.taskHandler.ListTasks)
		tasksGroup.POST("", r.taskHandler.CreateTask)
		tasksGroup.GET("/:id", r.taskHandler.GetTask)
		tasksGroup.PUT("/:id", r.taskHandler.UpdateTask)
		tasksGroup.DELETE("/:id", r.taskHandler.DeleteTask)
	}
}

// RegisterMetricsRoute exposes the Prometheus registry when metrics are enabled.
func (r *router) RegisterMetricsRoute(e *echo.Echo) {
	if !r.config.Metrics.Enabled || r.registry == nil {
		return
	}

	e.GET(r.config.Metrics.Path, echo.WrapHandler(metrics.Handler(r.registry)))
}
