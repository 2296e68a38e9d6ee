// Package pprofserver serves the pprof handlers on a loopback-only listener
// so profiling is never exposed on the public address.
package pprofserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
)

// Handle registers the pprof handlers on mux.
func Handle(mux *http.ServeMux) {
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
}

// Launch starts a pprof server on the ipv6 loopback address ::1 and the
// given port in a background goroutine.
func Launch(port string, logger *slog.Logger) {
	mux := http.NewServeMux()
	Handle(mux)
	srv := &http.Server{
		Addr:    fmt.Sprintf("[::1]%s", port),
		Handler: mux,
	}
	go func() {
		logger.Info("starting pprof server", "addr", srv.Addr)
		err := srv.ListenAndServe()
		logger.Error(err.Error())
		os.Exit(0)
	}()
}
