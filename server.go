package display

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-barry/display/core"
)

const shutdownTimeout = 5 * time.Second

type RuntimeConfig struct {
	Env         string
	Debug       bool
	EnableCache bool
	Addr        string
	ConfigPath  string
}

// App is the fully wired site: page router, static files and, in dev, the
// live reload endpoint.
type App struct {
	Config   core.Config
	router   *core.Router
	reloader core.LiveReloaderInterface
}

func New(cfg RuntimeConfig) *App {
	configPath := cfg.ConfigPath
	if configPath == "" {
		configPath = core.DefaultConfigPath
	}

	config := core.LoadConfig(configPath)
	config.CacheEnabled = cfg.EnableCache
	if cfg.Addr != "" {
		config.Addr = cfg.Addr
	}

	return newApp(config, cfg)
}

func newApp(config core.Config, cfg RuntimeConfig) *App {
	app := &App{Config: config}
	dev := cfg.Env == "dev"

	ctx := core.RuntimeContext{
		Env:   cfg.Env,
		Debug: cfg.Debug,
	}
	if dev {
		app.reloader = core.NewLiveReloader()
		ctx.EnableWatch = true
		ctx.OnReload = app.reloader.BroadcastReload
	}

	app.router = core.NewRouter(config, ctx)

	cacheControl := "public, max-age=31536000, immutable"
	if dev {
		cacheControl = "no-store"
		app.router.Handle(core.ReloadPath, http.HandlerFunc(app.reloader.Handler))
	}

	app.router.Handle("/static/*", makeStaticHandler(config.StaticDir, config.OutputDir, dev))
	app.router.Handle("/favicon.ico", makeRootFileHandler(config.StaticDir, "favicon.ico", cacheControl))
	app.router.Handle("/robots.txt", makeRootFileHandler(config.StaticDir, "robots.txt", cacheControl))

	return app
}

func (a *App) Handler() http.Handler {
	return a.router
}

func (a *App) Close() error {
	return a.router.Close()
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully.
var Start = func(cfg RuntimeConfig) error {
	fmt.Println("Starting display in", cfg.Env, "mode...")

	app := New(cfg)
	defer app.Close()

	srv := &http.Server{
		Addr:              app.Config.Addr,
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", srv.Addr, "env", cfg.Env, "debug", cfg.Debug)
		fmt.Printf("✅ display running at http://%s\n", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to serve on %s: %w", srv.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}

	slog.Info("shutdown complete")
	return nil
}

func makeStaticHandler(staticDir, cacheDir string, dev bool) http.Handler {
	cacheStaticDir := filepath.Join(cacheDir, "static")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		trimmed := strings.TrimPrefix(r.URL.Path, "/static/")
		if trimmed == "" || strings.Contains(trimmed, "..") {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}

		if dev {
			publicFile := filepath.Join(staticDir, trimmed)
			if fileExists(publicFile) {
				serveFileWithHeaders(w, r, publicFile, "no-store")
				return
			}
			http.NotFound(w, r)
			return
		}

		cachedFile := filepath.Join(cacheStaticDir, trimmed)
		if core.AcceptsGzip(r) && fileExists(cachedFile+".gz") {
			w.Header().Set("Content-Type", detectMimeType(cachedFile))
			w.Header().Set("Content-Encoding", "gzip")
			w.Header().Set("Vary", "Accept-Encoding")
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
			http.ServeFile(w, r, cachedFile+".gz")
			return
		}

		for _, candidate := range []string{cachedFile, filepath.Join(staticDir, trimmed)} {
			if fileExists(candidate) {
				serveFileWithHeaders(w, r, candidate, "public, max-age=31536000, immutable")
				return
			}
		}

		http.NotFound(w, r)
	})
}

func makeRootFileHandler(staticDir, name, cacheControl string) http.Handler {
	path := filepath.Join(staticDir, name)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !fileExists(path) {
			http.NotFound(w, r)
			return
		}
		serveFileWithHeaders(w, r, path, cacheControl)
	})
}

func serveFileWithHeaders(w http.ResponseWriter, r *http.Request, path, cacheControl string) {
	w.Header().Set("Content-Type", detectMimeType(path))
	w.Header().Set("Cache-Control", cacheControl)
	http.ServeFile(w, r, path)
}

func detectMimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".css":
		return "text/css"
	case ".js":
		return "application/javascript"
	case ".html":
		return "text/html; charset=utf-8"
	case ".json":
		return "application/json"
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".ico":
		return "image/x-icon"
	case ".woff":
		return "font/woff"
	case ".woff2":
		return "font/woff2"
	default:
		return "application/octet-stream"
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
