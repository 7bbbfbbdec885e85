// Package server wires the HTTP listener, the REST API and the health and
// metrics endpoints together.
package server // import "jobwatch.app/internal/http/server"

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"jobwatch.app/internal/api"
	"jobwatch.app/internal/config"
	"jobwatch.app/internal/http/middleware"
	"jobwatch.app/internal/http/mux"
	"jobwatch.app/internal/metric"
	"jobwatch.app/internal/storage"
	"jobwatch.app/internal/version"
)

// Listener returns a pre-bound listener for systemd socket activation or a
// Unix socket listen address, or nil when the server should bind a TCP port
// itself.
func Listener() (net.Listener, error) {
	if !config.Opts.HasHTTPService() {
		return nil, nil
	}

	var listener net.Listener
	listenAddr := config.Opts.ListenAddr()

	switch {
	case os.Getenv("LISTEN_PID") == strconv.Itoa(os.Getpid()):
		f := os.NewFile(3, "systemd socket")
		l, err := net.FileListener(f)
		if err != nil {
			return nil, fmt.Errorf(
				"http/server: create listener from systemd socket: %w", err)
		}
		listener = l
	case strings.HasPrefix(listenAddr, "/"):
		l, err := unixListener(listenAddr, 0o666)
		if err != nil {
			return nil, fmt.Errorf("create unix listener on %q: %w",
				listenAddr, err)
		}
		listener = l
	}
	return listener, nil
}

func unixListener(path string, mode uint32) (*net.UnixListener, error) {
	if err := unlinkStaleUnix(path); err != nil {
		return nil, err
	}

	laddr, err := net.ResolveUnixAddr("unix", path)
	if err != nil {
		return nil, fmt.Errorf("http/server: resolve unix address: %w", err)
	}

	l, err := net.ListenUnix("unix", laddr)
	if err != nil {
		return nil, fmt.Errorf("http/server: listen unix: %w", err)
	}

	l.SetUnlinkOnClose(true)
	if mode == 0 {
		return l, nil
	}

	if err := os.Chmod(path, os.FileMode(mode)); err != nil {
		return nil, fmt.Errorf(
			"http/server: change socket mode to %O: %w", mode, err)
	}
	return l, nil
}

func unlinkStaleUnix(path string) error {
	sockdir := filepath.Dir(path)
	stat, err := os.Stat(sockdir)
	switch {
	case err != nil && os.IsNotExist(err):
		if err := os.MkdirAll(sockdir, 0o755); err != nil {
			return fmt.Errorf("http/server: cannot mkdir %q: %w", sockdir, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("http/server: cannot stat(2) %q: %w", sockdir, err)
	case !stat.IsDir():
		return fmt.Errorf("http/server: not a directory: %q", sockdir)
	}

	_, err = os.Stat(path)
	switch {
	case err == nil:
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("http/server: cannot remove stale socket: %w",
				err)
		}
	case !os.IsNotExist(err):
		return fmt.Errorf("http/server: cannot stat(2): %w", err)
	}
	return nil
}

// StartWebServer starts serving HTTP on the errgroup and returns the server
// for later graceful shutdown.
func StartWebServer(store *storage.Storage, deps *api.Deps,
	g *errgroup.Group, listener net.Listener,
) *http.Server {
	listenAddr := config.Opts.ListenAddr()
	server := &http.Server{
		ReadTimeout:  config.Opts.HTTPServerTimeout(),
		WriteTimeout: config.Opts.HTTPServerTimeout(),
		IdleTimeout:  config.Opts.HTTPServerTimeout(),
		Handler:      setupHandler(store, deps),
	}

	switch {
	case os.Getenv("LISTEN_PID") == strconv.Itoa(os.Getpid()):
		startSystemdSocketServer(server, listener, g)
	case strings.HasPrefix(listenAddr, "/"):
		startUnixSocketServer(server, listenAddr, listener, g)
	default:
		server.Addr = listenAddr
		startHTTPServer(server, g)
	}
	return server
}

func startSystemdSocketServer(server *http.Server, listener net.Listener,
	g *errgroup.Group,
) {
	g.Go(func() error {
		defer listener.Close()
		slog.Info(`Starting server using systemd socket`)
		if err := server.Serve(listener); err != http.ErrServerClosed {
			slog.Error("failed serve on systemd socket", slog.Any("error", err))
			return fmt.Errorf(
				"http/server: failed serve on systemd socket: %w", err)
		}
		return nil
	})
}

func startUnixSocketServer(server *http.Server, path string,
	listener net.Listener, g *errgroup.Group,
) {
	g.Go(func() error {
		defer listener.Close()
		slog.Info("Starting server using a Unix socket",
			slog.String("socket", path))
		if err := server.Serve(listener); err != http.ErrServerClosed {
			slog.Error("failed serve on unix socket",
				slog.String("socket", path), slog.Any("error", err))
			return fmt.Errorf(
				"http/server: failed serve on unix socket %q: %w", path, err)
		}
		return nil
	})
}

func startHTTPServer(server *http.Server, g *errgroup.Group) {
	g.Go(func() error {
		slog.Info("Starting HTTP server",
			slog.String("listen_address", server.Addr))
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("failed serve plain HTTP server", slog.Any("error", err))
			return fmt.Errorf(
				"http/server: failed serve plain HTTP server: %w", err)
		}
		return nil
	})
}

func setupHandler(store *storage.Storage, deps *api.Deps) http.Handler {
	serveMux := mux.New()

	// These routes do not take the base path into consideration and are
	// always available at the root of the server.
	readinessProbe := makeReadinessProbe(store)
	serveMux.HandleFunc("/liveness", livenessProbe).
		HandleFunc("/healthz", livenessProbe).
		HandleFunc("/readiness", readinessProbe).
		HandleFunc("/readyz", readinessProbe)

	m := serveMux
	if config.Opts.BasePath() != "" {
		m = serveMux.PrefixGroup(config.Opts.BasePath())
	}
	m.HandleFunc("/healthcheck", readinessProbe)
	m.HandleFunc("/version", handleVersion)

	m.Use(middleware.Gzip, middleware.RequestId, middleware.ClientIP)

	if config.Opts.HasMetricsCollector() {
		m.Handle("/metrics", metric.Handler(store))
	}

	m.Use(middleware.WithAccessLog(), middleware.WithPanic)

	api.Serve(m, store, deps)
	return serveMux
}

func handleVersion(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte(version.Version))
}
