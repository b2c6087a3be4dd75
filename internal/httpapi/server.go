// Package httpapi exposes a read-only status/SSE surface over the job
// coordinator, audio engine, and list model for an external GUI or IPC
// collaborator to poll or stream from (SPEC_FULL.md §A "CLI glue" /
// §B "External status interface"). It never drives the UI itself — the
// desktop front end is out of scope — only reports state.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/tphakala/waves-previewer/internal/engine"
	"github.com/tphakala/waves-previewer/internal/jobs"
	"github.com/tphakala/waves-previewer/internal/listmodel"
)

// Server is the Echo application serving the read-only status API.
type Server struct {
	echo  *echo.Echo
	eng   *engine.Engine
	list  *listmodel.List
	coord *jobs.Coordinator
}

// New constructs an Echo app with the status/SSE routes registered.
func New(eng *engine.Engine, list *listmodel.List, coord *jobs.Coordinator) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(requestLogger())

	s := &Server{echo: e, eng: eng, list: list, coord: coord}
	s.registerRoutes()
	return s
}

// requestLogger logs each HTTP request via slog, quieting the noisy
// polling endpoints to debug level.
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			path := req.URL.Path
			fields := []any{
				"method", req.Method,
				"path", path,
				"status", c.Response().Status,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if path == "/health" || path == "/api/engine" {
				slog.Debug("http request", fields...)
			} else {
				slog.Info("http request", fields...)
			}
			return nil
		}
	}
}

// Echo exposes the underlying Echo instance for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/api/engine", s.handleEngineState)
	s.echo.GET("/api/list", s.handleListState)
	s.echo.GET("/api/transcript", s.handleTranscript)
	s.echo.GET("/api/events", s.handleEventStream)
}

// Run starts Echo and blocks until ctx cancellation or startup failure
// (same shape as rustyguts-bken's internal/httpapi.Server.Run: start in a
// goroutine, select on the error or the context, shut down gracefully).
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		err := s.echo.Start(addr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("shutting down status http server")
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.echo.Shutdown(shutCtx)
		slog.Info("status http server stopped")
		return nil
	}
}
