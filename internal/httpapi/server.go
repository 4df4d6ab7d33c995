// Package httpapi serves the latest pipeline results over HTTP. The
// server is read-only: it exposes the report, the canonical event set,
// duplicate matches, and schedule conflicts from the most recent run,
// plus Prometheus metrics.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/event"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/globaltime"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/pipeline"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/report"
)

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type Server struct {
	logger zerolog.Logger
	opts   Options

	mu     sync.RWMutex
	latest *pipeline.Result
}

func NewServer(logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8090
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	return &Server{
		logger: logger,
		opts: Options{
			Host:            host,
			Port:            port,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
	}
}

// SetResult publishes a pipeline run's output to the API.
func (s *Server) SetResult(res *pipeline.Result) {
	s.mu.Lock()
	s.latest = res
	s.mu.Unlock()
}

func (s *Server) result() *pipeline.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := s.buildEcho()

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("event api server started")
	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("event api server stopped")
	return nil
}

func (s *Server) buildEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}
			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)
	api.GET("/report", s.handleReport)
	api.GET("/events", s.handleEvents)
	api.GET("/events/:id", s.handleEventDetail)
	api.GET("/duplicates", s.handleDuplicates)
	api.GET("/conflicts", s.handleConflicts)
	return e
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		message = err.Error()
	}

	if status >= 500 {
		_ = internalError(c, "Internal server error")
		return
	}
	_ = fail(c, status, message, nil)
}

func (s *Server) handleHealth(c echo.Context) error {
	return success(c, map[string]any{
		"service": "matsuri",
		"time":    globaltime.Now().UTC(),
	})
}

func (s *Server) handleReport(c echo.Context) error {
	res := s.result()
	if res == nil || res.Report == nil {
		return failNotFound(c, "No pipeline run available yet")
	}
	return success(c, res.Report)
}

func (s *Server) handleEvents(c echo.Context) error {
	res := s.result()
	if res == nil {
		return failNotFound(c, "No pipeline run available yet")
	}

	category := strings.TrimSpace(c.QueryParam("category"))
	level := strings.TrimSpace(c.QueryParam("quality"))
	events := filterEvents(res.Events, category, level)
	return success(c, map[string]any{
		"run_id": res.RunID,
		"count":  len(events),
		"events": events,
	})
}

func (s *Server) handleEventDetail(c echo.Context) error {
	res := s.result()
	if res == nil {
		return failNotFound(c, "No pipeline run available yet")
	}
	id := c.Param("id")
	for _, rec := range res.Events {
		if rec.ID == id {
			return success(c, rec)
		}
	}
	return failNotFound(c, "Event not found")
}

func (s *Server) handleDuplicates(c echo.Context) error {
	res := s.result()
	if res == nil || res.Report == nil {
		return failNotFound(c, "No pipeline run available yet")
	}
	return success(c, res.Report.Duplicates)
}

func (s *Server) handleConflicts(c echo.Context) error {
	res := s.result()
	if res == nil || res.Report == nil {
		return failNotFound(c, "No pipeline run available yet")
	}
	conflicts := res.Report.Conflicts
	if conflicts == nil {
		conflicts = []report.ConflictSummary{}
	}
	return success(c, map[string]any{
		"run_id":    res.RunID,
		"count":     len(conflicts),
		"conflicts": conflicts,
	})
}

func filterEvents(events []*event.Record, category, level string) []*event.Record {
	if category == "" && level == "" {
		return events
	}
	var out []*event.Record
	for _, rec := range events {
		if category != "" && string(rec.Category) != category {
			continue
		}
		if level != "" && string(rec.QualityLevel) != level {
			continue
		}
		out = append(out, rec)
	}
	return out
}
