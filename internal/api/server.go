// Package api exposes the tutoring service over HTTP with gin.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rcliao/agent-tutor/internal/logging"
	"github.com/rcliao/agent-tutor/internal/tutor"
)

// Options configures the router.
type Options struct {
	AllowedOrigins []string
	MaxUploadBytes int64
}

// Handler serves the tutoring API.
type Handler struct {
	svc       *tutor.Service
	log       *logging.Logger
	maxUpload int64
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(svc *tutor.Service, log *logging.Logger, opts Options) *gin.Engine {
	if log == nil {
		log = logging.Nop()
	}
	h := &Handler{svc: svc, log: log, maxUpload: opts.MaxUploadBytes}
	if h.maxUpload <= 0 {
		h.maxUpload = 20 << 20
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(log), Metrics(), CORS(opts.AllowedOrigins))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/login", h.login)
		api.POST("/logout", h.logout)
		api.GET("/me", h.me)
		api.POST("/speech", h.speech)
	}

	courses := api.Group("/courses", RequireAuth(svc))
	{
		courses.GET("", h.listCourses)
		courses.POST("", h.createCourse)
		courses.GET("/:id", h.getCourse)
		courses.PUT("/:id", h.updateCourse)
		courses.DELETE("/:id", h.deleteCourse)
		courses.GET("/:id/workspace", h.workspace)
		courses.GET("/:id/context", h.context)

		courses.GET("/:id/folders", h.listFolders)
		courses.POST("/:id/folders", h.createFolder)
		courses.PUT("/:id/folders/:name", h.renameFolder)
		courses.DELETE("/:id/folders/:name", h.deleteFolder)
		courses.POST("/:id/folders/:name/toggle", h.toggleFolder)
		courses.PUT("/:id/target", h.setTarget)

		courses.GET("/:id/materials", h.listMaterials)
		courses.POST("/:id/materials", h.uploadMaterial)
		courses.DELETE("/:id/materials/:mid", h.removeMaterial)
		courses.POST("/:id/research", h.research)

		courses.GET("/:id/sessions", h.listSessions)
		courses.POST("/:id/sessions", h.createSession)
		courses.PUT("/:id/sessions/:sid", h.renameSession)
		courses.DELETE("/:id/sessions/:sid", h.deleteSession)
		courses.POST("/:id/sessions/:sid/activate", h.activateSession)
		courses.POST("/:id/sessions/:sid/messages", h.sendMessage)
		courses.GET("/:id/sessions/:sid/transcript", h.transcript)

		courses.GET("/:id/synthesis", h.getSynthesis)
		courses.POST("/:id/synthesis", h.generateSynthesis)
	}
	return r
}

// Serve runs the router on bind until ctx is cancelled, then shuts down
// gracefully.
func Serve(ctx context.Context, bind string, handler http.Handler, log *logging.Logger) error {
	srv := &http.Server{
		Addr:              bind,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("api listening", "bind", bind)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("api stopped")
	return nil
}
