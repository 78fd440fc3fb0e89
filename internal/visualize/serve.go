package visualize

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/quincunx271/nickeltools/internal/bench"
	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
	"github.com/quincunx271/nickeltools/internal/logfields"
)

// Loader returns the current results.
type Loader func(ctx context.Context) (bench.Results, error)

// Handler serves the chart page at / and the Markdown tables at /markdown,
// reloading the results on every request.
func Handler(load Loader) http.Handler {
	mux := http.NewServeMux()
	serve := func(format Format, contentType string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			results, err := load(r.Context())
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			var buf bytes.Buffer
			if err := Render(&buf, format, results); err != nil {
				status := http.StatusInternalServerError
				if ferrors.HasCategory(err, ferrors.CategoryValidation) {
					status = http.StatusUnprocessableEntity
				}
				http.Error(w, err.Error(), status)
				return
			}
			w.Header().Set("Content-Type", contentType)
			_, _ = w.Write(buf.Bytes())
		}
	}
	mux.HandleFunc("GET /{$}", serve(FormatChart, "text/html; charset=utf-8"))
	mux.HandleFunc("GET /markdown", serve(FormatMarkdown, "text/markdown; charset=utf-8"))
	mux.HandleFunc("GET /benchfmt", serve(FormatBenchfmt, "text/plain; charset=utf-8"))
	return mux
}

// Serve listens on addr until ctx is canceled.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Serving benchmark charts", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return ferrors.NetworkError("chart server failed").WithCause(err).
				Fatal().WithContext("addr", addr).Build()
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Chart server shutdown failed", logfields.Error(err))
		}
		return nil
	}
}
