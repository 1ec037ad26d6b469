// Package httpapi serves the result tables of a run as read-only JSON for
// the external visualization layer.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/KaramelBytes/shortform-signals/internal/logger"
	"github.com/KaramelBytes/shortform-signals/internal/report"
)

// ProblemDetails is an RFC 7807 error body.
type ProblemDetails struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Render implements the render.Renderer interface
func (pd *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, pd.Status)
	return nil
}

func notFound(detail string) *ProblemDetails {
	return &ProblemDetails{Type: "about:blank", Title: "Not Found", Status: http.StatusNotFound, Detail: detail}
}

// TableInfo describes one table in the listing.
type TableInfo struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    int      `json:"rows"`
}

type handler struct {
	tables *report.Set
	runID  string
	log    *logger.Logger
}

// NewRouter exposes GET /healthz, GET /tables and GET /tables/{name}.
// /tables/{name}?shape=records returns column-keyed objects instead of
// the column/row form.
func NewRouter(tables *report.Set, runID string, log *logger.Logger) http.Handler {
	h := &handler{tables: tables, runID: runID, log: logger.OrNop(log)}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Use(h.logRequests)

	r.Get("/healthz", h.health)
	r.Route("/tables", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/{name}", h.table)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = render.Render(w, r, notFound("no route for "+r.URL.Path))
	})
	return r
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.Debug("http request", "method", r.Method, "path", r.URL.Path, "status", ww.Status(),
			"elapsed", time.Since(start), "request_id", middleware.GetReqID(r.Context()))
	})
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status": "ok",
		"run_id": h.runID,
		"tables": len(h.tables.Tables()),
	})
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	out := []TableInfo{}
	for _, name := range h.tables.Names() {
		t, _ := h.tables.Get(name)
		out = append(out, TableInfo{Name: t.Name, Columns: t.Columns, Rows: len(t.Rows)})
	}
	render.JSON(w, r, out)
}

func (h *handler) table(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	t, ok := h.tables.Get(name)
	if !ok {
		_ = render.Render(w, r, notFound("unknown table "+name))
		return
	}
	if r.URL.Query().Get("shape") == "records" {
		render.JSON(w, r, t.Records())
		return
	}
	render.JSON(w, r, t)
}

// Serve runs an HTTP server on addr until ctx is cancelled, then shuts it
// down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler, log *logger.Logger) error {
	log = logger.OrNop(log)
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("serving result tables", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		log.Info("server stopped")
		return nil
	}
}
