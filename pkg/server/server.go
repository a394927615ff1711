// Package server exposes the ledger report over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ArionMiles/grabledger/pkg/api"
	"github.com/ArionMiles/grabledger/pkg/metrics"
	"github.com/ArionMiles/grabledger/pkg/report"
	csvwriter "github.com/ArionMiles/grabledger/pkg/writer/csv"
	jsonwriter "github.com/ArionMiles/grabledger/pkg/writer/json"
)

// ShutdownTimeout bounds how long Serve waits for in-flight requests.
const ShutdownTimeout = 30 * time.Second

// Loader runs the pipeline and returns the daily ledger.
type Loader interface {
	Load(ctx context.Context) ([]api.LedgerRow, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) ([]api.LedgerRow, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context) ([]api.LedgerRow, error) {
	return f(ctx)
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter creates the HTTP router. m may be nil, in which case /metrics is
// not mounted.
func NewRouter(loader Loader, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "http")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthzHandler())
	if m != nil {
		r.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/report", reportHandler(loader, logger))
	})

	return r
}

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// reportHandler serves GET /v1/report?start=YYYY-MM-DD&end=YYYY-MM-DD&format=json|csv.
// Bounds are validated before the mailbox is touched.
func reportHandler(loader Loader, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		format := q.Get("format")
		if format == "" {
			format = "json"
		}
		if format != "json" && format != "csv" {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
			return
		}

		start, err := parseBound(q.Get("start"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
			return
		}
		end, err := parseBound(q.Get("end"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "end must be YYYY-MM-DD")
			return
		}

		rows, err := loader.Load(r.Context())
		if err != nil {
			logger.Error("loading ledger", "error", err, "request_id", middleware.GetReqID(r.Context()))
			writeError(w, http.StatusBadGateway, "unable to load data")
			return
		}

		start, end = report.Resolve(rows, start, end)
		rep := report.Build(rows, start, end)
		switch format {
		case "csv":
			w.Header().Set("Content-Type", "text/csv; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			err = csvwriter.New(w, logger).Write(rep)
		default:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			err = jsonwriter.New(w, jsonwriter.Config{}, logger).Write(rep)
		}
		if err != nil {
			logger.Warn("writing report", "error", err, "format", format)
		}
	}
}

// parseBound parses an optional range bound. An empty s yields the zero time.
func parseBound(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return report.ParseDate(s)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Serve runs h on addr until ctx is canceled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return serve(ctx, ln, h, logger)
}

func serve(ctx context.Context, ln net.Listener, h http.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving http: %w", err)
	}
	return nil
}
