// Package httpserve exposes the filter engine over HTTP: POST /filter
// evaluates an expression against a JSON record, GET /metrics reports
// Prometheus counters, and every failure is wrapped with samber/oops before
// it is logged or written back to the caller.
package httpserve

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"

	"filterexpr/filter"
)

type metrics struct {
	compileTotal *prometheus.CounterVec
	runTotal     *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		compileTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "filterexpr_compile_total",
			Help: "Compile attempts against /filter by outcome.",
		}, []string{"outcome"}),
		runTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "filterexpr_run_total",
			Help: "Evaluations against /filter by verdict.",
		}, []string{"verdict"}),
	}
	reg.MustRegister(m.compileTotal, m.runTotal)
	return m
}

// Server is the serve subcommand's HTTP demo: a filter-expression evaluator
// with a small compiled-program cache, keyed on the raw expression text.
type Server struct {
	addr         string
	maxExprBytes int
	maxJSONBytes int
	registry     *prometheus.Registry
	metrics      *metrics

	mu    sync.RWMutex
	cache map[string]*filter.Program
}

func New(addr string, maxExprBytes, maxJSONBytes int) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Server{
		addr:         addr,
		maxExprBytes: maxExprBytes,
		maxJSONBytes: maxJSONBytes,
		registry:     registry,
		metrics:      newMetrics(registry),
		cache:        make(map[string]*filter.Program),
	}
}

type filterRequest struct {
	Expression string          `json:"expression"`
	Record     json.RawMessage `json:"record"`
}

type filterResponse struct {
	Match bool `json:"match"`
}

func (s *Server) compile(expr string) (*filter.Program, error) {
	s.mu.RLock()
	p, ok := s.cache[expr]
	s.mu.RUnlock()
	if ok {
		return p, nil
	}

	p, err := filter.Compile(expr)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[expr] = p
	s.mu.Unlock()
	return p, nil
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	limit := int64(s.maxExprBytes+s.maxJSONBytes) + 1024
	body, err := io.ReadAll(io.LimitReader(r.Body, limit))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, oops.Code("FILTER_READ_BODY").Wrap(err))
		return
	}

	var req filterRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, oops.Code("FILTER_BAD_JSON").Wrap(err))
		return
	}
	if len(req.Expression) > s.maxExprBytes {
		s.writeError(w, http.StatusBadRequest, oops.Code("FILTER_EXPR_TOO_LARGE").Errorf("expression exceeds %d bytes", s.maxExprBytes))
		return
	}
	if len(req.Record) > s.maxJSONBytes {
		s.writeError(w, http.StatusBadRequest, oops.Code("FILTER_RECORD_TOO_LARGE").Errorf("record exceeds %d bytes", s.maxJSONBytes))
		return
	}

	prog, err := s.compile(req.Expression)
	if err != nil {
		s.metrics.compileTotal.WithLabelValues("error").Inc()
		s.writeError(w, http.StatusBadRequest, oops.Code("FILTER_COMPILE_FAILED").With("expression", req.Expression).Wrap(err))
		return
	}
	s.metrics.compileTotal.WithLabelValues("ok").Inc()

	match := prog.Run(req.Record)
	if match {
		s.metrics.runTotal.WithLabelValues("true").Inc()
	} else {
		s.metrics.runTotal.WithLabelValues("false").Inc()
	}

	slog.Debug("evaluated filter", "expression", req.Expression, "match", match)
	s.writeJSON(w, http.StatusOK, filterResponse{Match: match})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	slog.Warn("filter request failed", "error", err)
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /filter", s.handleFilter)
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return mux
}

// ListenAndServe blocks until ctx is cancelled, then closes the listener.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	slog.Info("filterexpr serve listening", "addr", s.addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return oops.Code("SERVE_LISTEN_FAILED").Wrap(err)
	}
	return nil
}
