package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"taskflow/internal/controller"
	"taskflow/internal/metrics"
	"taskflow/internal/middleware"
)

// Options carries what the router needs besides the handlers.
type Options struct {
	JWTSecret string
	Users     middleware.UserSyncer
	// StreamLimiter throttles stream connection attempts; nil disables it.
	StreamLimiter *middleware.RateLimiter
}

func Router(h *controller.Handler, opts Options) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), metrics.Middleware())

	// Health for load balancers and K8s probes
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Protected: JWT required
	api := router.Group("")
	api.Use(middleware.Auth(opts.JWTSecret, opts.Users))
	{
		api.GET("/boards", h.ListBoards)
		api.POST("/boards", h.CreateBoard)
		api.GET("/boards/:id", h.GetBoard)
		api.PATCH("/boards/:id", h.UpdateBoard)
		api.DELETE("/boards/:id", h.DeleteBoard)

		api.GET("/boards/:id/lists", h.GetLists)
		api.POST("/boards/:id/lists", h.CreateList)
		api.PUT("/boards/:id/lists/order", h.ReorderLists)

		api.GET("/boards/:id/members", h.ListMembers)
		api.POST("/boards/:id/members", h.AddMember)
		api.DELETE("/boards/:id/members", h.RemoveMember)

		api.GET("/boards/:id/activity", h.GetActivity)
		api.GET("/boards/:id/search", h.SearchTasks)
		api.GET("/boards/:id/labels", h.ListLabels)
		api.POST("/boards/:id/labels", h.CreateLabel)

		api.PATCH("/lists/:listId", h.UpdateList)
		api.DELETE("/lists/:listId", h.DeleteList)

		api.POST("/tasks", h.CreateTask)
		api.GET("/tasks/:taskId", h.GetTask)
		api.PATCH("/tasks/:taskId", h.UpdateTask)
		api.DELETE("/tasks/:taskId", h.DeleteTask)
		api.PATCH("/tasks/:taskId/move", h.MoveTask)
		api.POST("/tasks/:taskId/assign", h.AssignUser)
		api.DELETE("/tasks/:taskId/assign", h.UnassignUser)
		api.POST("/tasks/:taskId/labels", h.AttachLabel)
		api.DELETE("/tasks/:taskId/labels", h.DetachLabel)
	}

	streams := api.Group("")
	if opts.StreamLimiter != nil {
		streams.Use(opts.StreamLimiter.Middleware())
	}
	{
		streams.GET("/boards/:id/events", h.Events)
		streams.GET("/boards/:id/ws", h.WebSocket)
	}

	return router
}
