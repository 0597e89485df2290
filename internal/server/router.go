package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/paulexconde/formdeck/internal/handlers"
	"github.com/paulexconde/formdeck/internal/logger"
)

func NewRouter(log *logger.Logger, formH *handlers.FormHandler, pageH *handlers.PageHandler, condH *handlers.ConditionHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	forms := r.Group("/forms")
	forms.GET("", formH.List)
	forms.POST("", formH.Create)
	forms.GET("/:form_id", formH.Get)
	forms.PATCH("/:form_id", formH.Update)
	forms.DELETE("/:form_id", formH.Delete)
	forms.POST("/:form_id/make_live", formH.MakeLive)
	forms.GET("/:form_id/live", formH.Live)
	forms.GET("/:form_id/draft", formH.Draft)
	forms.GET("/:form_id/versions", formH.Versions)

	pages := forms.Group("/:form_id/pages")
	pages.GET("", pageH.List)
	pages.POST("", pageH.Create)
	pages.GET("/:page_id", pageH.Get)
	pages.PATCH("/:page_id", pageH.Update)
	pages.DELETE("/:page_id", pageH.Delete)
	pages.POST("/:page_id/move_up", pageH.MoveUp)
	pages.POST("/:page_id/move_down", pageH.MoveDown)
	pages.POST("/:page_id/next", pageH.ResolveNext)
	pages.GET("/:page_id/conditions", condH.List)
	pages.POST("/:page_id/conditions", condH.Create)

	return r
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	reqLog := log.With("component", "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		reqLog.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
