package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BuildInfo сведения о сборке для /version.
type BuildInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
}

// NewRouter создаёт gin-роутер с маршрутами API.
func NewRouter(mode string, handler *InpaintHandler, maxUpload int64, build BuildInfo, logger *zap.Logger) *gin.Engine {
	gin.SetMode(mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(Logger(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"version": build.Version,
		})
	})
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, build)
	})

	api := r.Group("/api/v1")
	api.Use(BodyLimit(maxUpload))
	{
		api.POST("/inpaint", handler.Inpaint)
	}
	return r
}

// Serve обслуживает HTTP до отмены ctx, затем корректно останавливает сервер.
func Serve(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	logger.Info("server shutting down")
	return srv.Shutdown(shutdownCtx)
}
