// Package server exposes the query façade over HTTP. Error bodies are
// {"detail": "..."} with the status derived from the outcome kind.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"umlsd/internal/outcome"
	"umlsd/internal/query"
)

// Server wires the HTTP routes to the query façade.
type Server struct {
	svc    *query.Service
	log    *logrus.Logger
	router *mux.Router
}

// New builds the server and its route table.
func New(svc *query.Service, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{svc: svc, log: log, router: mux.NewRouter()}
	s.routes()
	return s
}

// Router returns the configured handler, for serving and for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.observe)

	r.HandleFunc("/terms", s.handle(s.searchTerms)).Methods(http.MethodGet)
	r.HandleFunc("/cuis", s.handle(s.searchCUIs)).Methods(http.MethodGet)
	r.HandleFunc("/cuis/{cui}", s.handle(s.getConcept)).Methods(http.MethodGet)
	r.HandleFunc("/cuis/{cui}/depth", s.handle(s.getDepth)).Methods(http.MethodGet)
	r.HandleFunc("/cuis/{cui}/ancestors", s.handle(s.getAncestors)).Methods(http.MethodGet)
	r.HandleFunc("/cuis/{cui}/parents", s.handle(s.getParents)).Methods(http.MethodGet)
	r.HandleFunc("/cuis/{cui}/codes", s.handle(s.getCodes)).Methods(http.MethodGet)
	r.HandleFunc("/cuis/{cui}/hpo", s.handle(s.getHPOTerm)).Methods(http.MethodGet)
	r.HandleFunc("/cuis/{a}/{b}/lca", s.handle(s.getLCA)).Methods(http.MethodGet)
	r.HandleFunc("/cuis/{a}/{b}/similarity/wu-palmer", s.handle(s.getWuPalmer)).Methods(http.MethodGet)
	r.HandleFunc("/ontologies/{source}/{code}/cui", s.handle(s.codeToCUI)).Methods(http.MethodGet)
	r.HandleFunc("/ontologies/{from}/{code}/map/{to}", s.handle(s.mapCode)).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handle(s.healthz)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

// handlerFunc is a handler that returns a body or a tagged error; handle
// turns it into a plain http.HandlerFunc with uniform encoding.
type handlerFunc func(r *http.Request) (any, error)

func (s *Server) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := fn(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, body)
	}
}

// statusFor maps outcome kinds onto HTTP statuses.
func statusFor(err error) int {
	switch outcome.KindOf(err) {
	case outcome.InvalidArgument:
		return http.StatusBadRequest
	case outcome.NotFound, outcome.NoCommonAncestor:
		return http.StatusNotFound
	case outcome.Timeout:
		return http.StatusGatewayTimeout
	case outcome.ResourceExceeded, outcome.StoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	detail := err.Error()
	var oe *outcome.Error
	if errors.As(err, &oe) && oe.Err != nil {
		detail = oe.Err.Error()
	}
	if status == http.StatusInternalServerError {
		s.log.WithFields(logrus.Fields{"path": r.URL.Path}).Error(err)
		detail = "internal server error"
	}
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("http server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
