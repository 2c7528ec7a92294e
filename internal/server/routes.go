// Package server exposes the book list over HTTP.
//
// All writes go through a books.Repository, which serialises them, so the
// list keeps a single writer however many requests arrive at once. Clients
// that want to follow the list subscribe to the websocket change feed and
// receive the full snapshot after every committed change.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/ugur10/go-bookshelf/internal/books"
	"github.com/ugur10/go-bookshelf/internal/metrics"
)

// Options wires the router to its collaborators. Hub and Metrics may be nil.
type Options struct {
	Repo        books.Repository
	Hub         *Hub
	Metrics     *metrics.Collector
	MetricsPath string
	Logger      *slog.Logger
}

// NewRouter builds the gin engine serving the book list.
func NewRouter(opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	h := &handlers{repo: opts.Repo, metrics: opts.Metrics, logger: logger}

	router.GET("/health", healthHandler)
	if opts.Metrics != nil && opts.MetricsPath != "" {
		router.GET(opts.MetricsPath, gin.WrapH(opts.Metrics.Handler()))
	}

	api := router.Group("/api/books")
	{
		api.GET("", h.list)
		api.POST("", h.create)
		api.POST("/delete", h.remove)
		api.POST("/move", h.move)
		if opts.Hub != nil {
			api.GET("/ws", opts.Hub.ServeWS(opts.Repo))
		}
		api.GET("/:id", h.get)
		api.PATCH("/:id", h.edit)
	}

	return router
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// Run serves handler on addr until ctx is cancelled, then shuts down
// gracefully. onShutdown runs before the server stops accepting requests,
// e.g. to close long-lived websocket connections.
func Run(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger, onShutdown func()) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		if onShutdown != nil {
			onShutdown()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
