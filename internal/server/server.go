// Package server exposes the store as a local JSON API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gracebooks/gracebooks/internal/accounts"
	"github.com/gracebooks/gracebooks/internal/buildinfo"
	"github.com/gracebooks/gracebooks/internal/closing"
	"github.com/gracebooks/gracebooks/internal/journal"
	"github.com/gracebooks/gracebooks/internal/memo"
	"github.com/gracebooks/gracebooks/internal/store"
	"github.com/gracebooks/gracebooks/internal/tracker"
)

// Server serves the API for one store.
type Server struct {
	store  *store.Store
	log    *slog.Logger
	engine *gin.Engine
}

// New builds the gin engine with request logging and all routes.
func New(st *store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{store: st, log: logger}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())

	v1 := r.Group("/api/v1")
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": buildinfo.Version})
	})
	s.registerBooks(v1)
	s.registerReports(v1)
	s.registerTrackers(v1)

	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("api listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("api shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
		}
		switch {
		case status >= 500:
			s.log.Error("http request", attrs...)
		case status >= 400:
			s.log.Warn("http request", attrs...)
		default:
			s.log.Info("http request", attrs...)
		}
	}
}

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, accounts.ErrNotFound),
		errors.Is(err, journal.ErrNotFound),
		errors.Is(err, tracker.ErrNotFound),
		errors.Is(err, memo.ErrNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, accounts.ErrDuplicateID),
		errors.Is(err, accounts.ErrInUse),
		errors.Is(err, journal.ErrDuplicate),
		errors.Is(err, memo.ErrDuplicate),
		errors.Is(err, store.ErrDuplicate),
		errors.Is(err, store.ErrNoActiveProfile),
		errors.Is(err, closing.ErrAlreadyClosed),
		errors.Is(err, tracker.ErrInvalidTransition):
		return http.StatusConflict

	case errors.Is(err, journal.ErrInvalid),
		errors.Is(err, accounts.ErrInvalid),
		errors.Is(err, tracker.ErrInvalidItem),
		errors.Is(err, tracker.ErrUnbalanced),
		errors.Is(err, tracker.ErrNothingToGenerate),
		errors.Is(err, tracker.ErrSynthesized),
		errors.Is(err, tracker.ErrNoExpenseAccount),
		errors.Is(err, closing.ErrNothingToClose),
		errors.Is(err, closing.ErrEquityAccountMissing),
		errors.Is(err, memo.ErrEmpty),
		errors.Is(err, store.ErrInvalidState),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

var errBadRequest = errors.New("bad request")

func (s *Server) fail(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusOf(err), gin.H{"error": err.Error()})
}
