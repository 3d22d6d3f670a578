// Package server exposes an enrichment result over a read-only HTTP API.
//
//	GET /healthz
//	GET /records                      all records; ?owner= filters
//	GET /records/{key}                one record; key is path-escaped
//	GET /entries                      all catalog entries
//	GET /entries/{slug}/duplicates    an entry's duplicates; slug is path-escaped
//
// Responses are JSON. Errors use {"error": "..."} with a matching status.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/holly-cummins/extensions.io/pkg/catalog"
	"github.com/holly-cummins/extensions.io/pkg/enrich"
)

const shutdownTimeout = 10 * time.Second

// Server answers queries against one result, indexed at construction.
type Server struct {
	result  *enrich.Result
	records map[string]*enrich.Record
	entries map[string]*catalog.Entry
	logger  *log.Logger
}

// New indexes res. A nil logger means log.Default().
func New(res *enrich.Result, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		result:  res,
		records: make(map[string]*enrich.Record, len(res.Records)),
		entries: make(map[string]*catalog.Entry, len(res.Entries)),
		logger:  logger,
	}
	for _, r := range res.Records {
		s.records[r.Key] = r
	}
	for _, e := range res.Entries {
		slug := e.Slug
		if slug == "" {
			slug = catalog.Slug(e.Artifact)
		}
		s.entries[slug] = e
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.health)
	r.Route("/records", func(r chi.Router) {
		r.Get("/", s.listRecords)
		r.Get("/{key}", s.getRecord)
	})
	r.Route("/entries", func(r chi.Router) {
		r.Get("/", s.listEntries)
		r.Get("/{slug}/duplicates", s.getDuplicates)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "no such route")
	})
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("serving records", "addr", addr, "records", len(s.records), "run", s.result.RunID)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"run_id":       s.result.RunID,
		"generated_at": s.result.StartedAt,
		"records":      len(s.records),
	})
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	out := make([]*enrich.Record, 0, len(s.result.Records))
	for _, rec := range s.result.Records {
		if owner == "" || strings.EqualFold(rec.Owner, owner) {
			out = append(out, rec)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getRecord(w http.ResponseWriter, r *http.Request) {
	key, ok := pathParam(w, r, "key")
	if !ok {
		return
	}
	rec, found := s.records[key]
	if !found {
		writeError(w, http.StatusNotFound, "no record for "+key)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) listEntries(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.result.Entries)
}

func (s *Server) getDuplicates(w http.ResponseWriter, r *http.Request) {
	slug, ok := pathParam(w, r, "slug")
	if !ok {
		return
	}
	e, found := s.entries[strings.ToLower(slug)]
	if !found {
		writeError(w, http.StatusNotFound, "no entry "+slug)
		return
	}
	dups := e.Duplicates
	if dups == nil {
		dups = []catalog.DuplicateRelation{}
	}
	writeJSON(w, http.StatusOK, dups)
}

// pathParam returns the unescaped URL parameter name. Keys and slugs hold
// slashes, so clients escape them as %2F.
func pathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v, err := url.PathUnescape(chi.URLParam(r, name))
	if err != nil || v == "" {
		writeError(w, http.StatusBadRequest, "malformed "+name)
		return "", false
	}
	return v, true
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "took", time.Since(start), "id", middleware.GetReqID(r.Context()))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
