package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/tasky/internal/session"
	"github.com/adanyl0v/tasky/internal/state"
)

type Handler interface {
	HandleLogin(c *gin.Context)
	HandleRegister(c *gin.Context)
	HandleLogout(c *gin.Context)
	HandleGetSession(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)

	HandleGetProfile(c *gin.Context)
	HandleUpdateProfile(c *gin.Context)
	HandleRefreshProfile(c *gin.Context)

	HandleCreateTask(c *gin.Context)
	HandleGetTasks(c *gin.Context)
	HandleUpdateTask(c *gin.Context)
	HandleSetTaskStatus(c *gin.Context)
	HandleDeleteTask(c *gin.Context)
	HandleGetStats(c *gin.Context)
}

type handlerImpl struct {
	logger   zerolog.Logger
	holder   *session.Holder
	profiles *state.ProfileSlice
	tasks    *state.TaskSlice
}

func New(
	logger zerolog.Logger,
	holder *session.Holder,
	profiles *state.ProfileSlice,
	tasks *state.TaskSlice,
) Handler {
	return &handlerImpl{
		logger:   logger,
		holder:   holder,
		profiles: profiles,
		tasks:    tasks,
	}
}

// RegisterRoutes mounts the API under the given group.
func RegisterRoutes(group *gin.RouterGroup, h Handler) {
	authGroup := group.Group("/auth")
	{
		authGroup.POST("/login", h.HandleLogin)
		authGroup.POST("/register", h.HandleRegister)
		authGroup.POST("/logout", h.HandleLogout)
	}
	group.GET("/session", h.HandleGetSession)

	protected := group.Group("", h.HandleAuthMiddleware)
	{
		protected.GET("/profile", h.HandleGetProfile)
		protected.PATCH("/profile", h.HandleUpdateProfile)
		protected.POST("/profile/refresh", h.HandleRefreshProfile)

		protected.GET("/tasks", h.HandleGetTasks)
		protected.POST("/tasks", h.HandleCreateTask)
		protected.PATCH("/tasks/:id", h.HandleUpdateTask)
		protected.PATCH("/tasks/:id/status", h.HandleSetTaskStatus)
		protected.DELETE("/tasks/:id", h.HandleDeleteTask)

		protected.GET("/stats", h.HandleGetStats)
	}
}
