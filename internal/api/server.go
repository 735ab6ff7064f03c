// Package api exposes the backtest engine, ticker search, and price data
// over HTTP, plus the static frontend.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"dca-backtest-lab/internal/marketdata"
	"dca-backtest-lab/internal/observability"
	"dca-backtest-lab/internal/storage"
)

// Server routes API requests to the ticker catalog, the price providers,
// and the backtest engine.
type Server struct {
	tickers   storage.TickerStore
	prices    marketdata.Provider
	staticDir string
	logger    *log.Logger
}

// NewServer creates the API server. staticDir may be empty to disable the
// frontend routes.
func NewServer(tickers storage.TickerStore, prices marketdata.Provider, staticDir string, logger *log.Logger) *Server {
	return &Server{
		tickers:   tickers,
		prices:    prices,
		staticDir: staticDir,
		logger:    logger,
	}
}

// Handler builds the routed handler with CORS and request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/data/{market}/{code}", s.handleData)
	mux.HandleFunc("POST /api/backtest", s.handleBacktest)
	mux.HandleFunc("POST /api/backtest-multiple", s.handleBacktestMultiple)

	mux.Handle("GET /metrics", observability.Handler())

	if s.staticDir != "" {
		mux.HandleFunc("GET /app", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, filepath.Join(s.staticDir, "index.html"))
		})
		mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, filepath.Join(s.staticDir, "favicon.ico"))
		})
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(s.staticDir))))
	}

	return s.withCORS(s.withRequestLog(mux))
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "DCA backtest API"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// withCORS allows browser frontends served from other origins.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response code for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		began := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(began)
		if s.logger != nil {
			s.logger.Printf("%s %s -> %d (%v)", r.Method, r.URL.Path, rec.status, elapsed)
		}
		observability.RecordHTTPRequest(r.URL.Path, strconv.Itoa(rec.status), elapsed)
	})
}

// writeJSON writes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a {"detail": ...} error body.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
