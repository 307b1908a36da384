// Package control exposes a running session over HTTP: a graphql API for the lifecycle
// and uploads, PNG renderings of the waveform and the input scope, and Prometheus metrics.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/graphql-go/graphql"

	"github.com/peragwin/autopilot/gfx/scope"
	"github.com/peragwin/autopilot/gfx/waveform"
	"github.com/peragwin/autopilot/session"
)

// Server routes HTTP requests to a Session.
type Server struct {
	sess    *session.Session
	layers  *waveform.Layers
	scope   *scope.Scope
	metrics *Metrics
	static  string
	uploads string

	schema graphql.Schema
	mux    *http.ServeMux
}

// Option configures NewServer.
type Option func(*Server)

// WithScope serves the input scope at /scope.png.
func WithScope(sc *scope.Scope) Option {
	return func(s *Server) { s.scope = sc }
}

// WithMetrics serves m at /metrics.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithStatic serves files under dir at /.
func WithStatic(dir string) Option {
	return func(s *Server) { s.static = dir }
}

// WithUploadDir allows uploadReference to load files below dir.
func WithUploadDir(dir string) Option {
	return func(s *Server) { s.uploads = dir }
}

// NewServer builds the schema and routes.
func NewServer(sess *session.Session, layers *waveform.Layers, opts ...Option) (*Server, error) {
	s := &Server{sess: sess, layers: layers, mux: http.NewServeMux()}
	for _, o := range opts {
		o(s)
	}
	if err := s.initGraphql(); err != nil {
		return nil, err
	}

	s.mux.HandleFunc("/api/v1/graphql", s.handleQuery)
	s.mux.HandleFunc("/api/v2/graphql", s.handleApollo)
	s.mux.HandleFunc("/waveform.png", s.handleWaveform)
	if s.scope != nil {
		s.mux.HandleFunc("/scope.png", s.handleScope)
	}
	if s.metrics != nil {
		s.mux.Handle("/metrics", s.metrics.Handler())
	}
	if s.static != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.static)))
	}
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s}
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	glog.Infof("control listening on %s", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if glog.V(2) {
		glog.Info(query)
	}
	s.writeResult(w, s.Query(r.Context(), query, nil))
}

type apolloQuery struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

func (s *Server) handleApollo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST a graphql query", http.StatusMethodNotAllowed)
		return
	}
	var q apolloQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if glog.V(2) {
		glog.Infof("%s %v", q.Query, q.Variables)
	}
	s.writeResult(w, s.Query(r.Context(), q.Query, q.Variables))
}

func (s *Server) writeResult(w http.ResponseWriter, res *graphql.Result) {
	for _, err := range res.Errors {
		glog.Errorf("graphql: %v", err)
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		glog.Errorf("failed to write graphql result: %v", err)
	}
}

func (s *Server) handleWaveform(w http.ResponseWriter, r *http.Request) {
	v := s.sess.View()
	s.layers.Update(&v)
	w.Header().Set("Content-Type", "image/png")
	if err := s.layers.WritePNG(w); err != nil {
		glog.Errorf("failed to write waveform: %v", err)
	}
}

func (s *Server) handleScope(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	if err := s.scope.WritePNG(w); err != nil {
		glog.Errorf("failed to write scope: %v", err)
	}
}
