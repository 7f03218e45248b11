// Package server exposes the catalog and comparison operations over HTTP.
//
// Routes:
//
//	GET  /healthz
//	GET  /catalog/databases
//	GET  /catalog/databases/{database}/schemas
//	GET  /catalog/databases/{database}/schemas/{schema}/tables
//	GET  /catalog/databases/{database}/schemas/{schema}/tables/{table}/columns
//	POST /compare/tables
//	POST /compare/schemas
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/koustreak/tablecompare/internal/catalog"
	"github.com/koustreak/tablecompare/internal/compare"
	"github.com/koustreak/tablecompare/internal/database"
	"github.com/koustreak/tablecompare/internal/logger"
	"github.com/koustreak/tablecompare/internal/report"
)

// Options configures a Server.
type Options struct {
	Compare compare.Options

	// Workers is the default fan-out; requests may lower or raise it up to
	// MaxWorkers.
	Workers    int
	MaxWorkers int

	// RequestTimeout bounds a comparison request. When it expires the
	// response carries a truncated report.
	RequestTimeout time.Duration

	// Exporter, when set, lets compare requests ask for an upload.
	Exporter *report.Exporter

	Logger *logger.Logger
}

// Server serves one warehouse handle.
type Server struct {
	db      database.DB
	catalog *catalog.Accessor
	opts    Options
	log     *logger.Logger
	router  chi.Router
}

// New builds the router for db.
func New(db database.DB, opts Options) *Server {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.MaxWorkers < opts.Workers {
		opts.MaxWorkers = opts.Workers
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	s := &Server{
		db:      db,
		catalog: catalog.New(db, nil),
		opts:    opts,
		log:     log,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)

	r.Route("/catalog/databases", func(r chi.Router) {
		r.Get("/", s.listDatabases)
		r.Get("/{database}/schemas", s.listSchemas)
		r.Get("/{database}/schemas/{schema}/tables", s.listTables)
		r.Get("/{database}/schemas/{schema}/tables/{table}/columns", s.listColumns)
	})

	r.Route("/compare", func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))
		r.Post("/tables", s.compareTables)
		r.Post("/schemas", s.compareSchemas)
	})

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully, giving in-flight requests up to grace to finish.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout, grace time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.InfoWith("http server listening", map[string]any{"addr": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("http server stopped")
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"dialect": s.db.Dialect().String(),
	})
}

// requestLogger logs one line per request through the zerolog wrapper.
func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r.WithContext(log.With().Str("request_id", middleware.GetReqID(r.Context())).Logger().WithContext(r.Context())))

			log.HTTPEvent().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}
