package display

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-barry/display/core"
	"github.com/gorilla/websocket"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func setupSite(t *testing.T) core.Config {
	t.Helper()
	root := t.TempDir()
	cfg := core.Config{
		Addr:        "127.0.0.1:0",
		TemplateDir: filepath.Join(root, "templates"),
		StaticDir:   filepath.Join(root, "static"),
		OutputDir:   filepath.Join(root, "cache"),
	}
	writeFile(t, filepath.Join(cfg.TemplateDir, core.IndexTemplate), `<html><body><h1>Welcome</h1></body></html>`)
	writeFile(t, filepath.Join(cfg.TemplateDir, core.FormTemplate), `<html><body><p id="name">{{ .name }}</p><p id="password">{{ .password }}</p></body></html>`)
	writeFile(t, filepath.Join(cfg.StaticDir, "js", "app.js"), "console.log('app')")
	writeFile(t, filepath.Join(cfg.StaticDir, "robots.txt"), "User-agent: *")
	return cfg
}

func TestDetectMimeType(t *testing.T) {
	tests := map[string]string{
		"file.css":     "text/css",
		"script.js":    "application/javascript",
		"image.webp":   "image/webp",
		"icon.svg":     "image/svg+xml",
		"photo.png":    "image/png",
		"photo.JPEG":   "image/jpeg",
		"font.woff":    "font/woff",
		"font.woff2":   "font/woff2",
		"favicon.ico":  "image/x-icon",
		"robots.txt":   "text/plain; charset=utf-8",
		"unknown.file": "application/octet-stream",
	}

	for filename, expected := range tests {
		t.Run(filename, func(t *testing.T) {
			if mime := detectMimeType(filename); mime != expected {
				t.Errorf("got %s, want %s", mime, expected)
			}
		})
	}
}

func TestServeFileWithHeaders(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "test.dat")
	content := "Hello, display!"
	writeFile(t, filePath, content)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/static/test.dat", nil)

	serveFileWithHeaders(rec, req, filePath, "no-cache")

	resp := rec.Result()
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "application/octet-stream" {
		t.Errorf("unexpected content-type: %s", ct)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("unexpected cache-control: %s", cc)
	}

	body, _ := io.ReadAll(resp.Body)
	if string(body) != content {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestMakeStaticHandlerReturns404ForMissingFile(t *testing.T) {
	for _, dev := range []bool{true, false} {
		handler := makeStaticHandler(t.TempDir(), t.TempDir(), dev)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/missing.txt", nil))

		if rec.Code != http.StatusNotFound {
			t.Errorf("dev=%v: expected 404, got %d", dev, rec.Code)
		}
	}
}

func TestMakeStaticHandlerServesPublicFile(t *testing.T) {
	staticDir := t.TempDir()
	expected := "Hello from static!"
	writeFile(t, filepath.Join(staticDir, "hello.txt"), expected)

	tests := map[string]struct {
		dev          bool
		cacheControl string
	}{
		"dev":  {true, "no-store"},
		"prod": {false, "public, max-age=31536000, immutable"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			handler := makeStaticHandler(staticDir, t.TempDir(), tc.dev)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/hello.txt", nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200 OK, got %d", rec.Code)
			}
			if rec.Body.String() != expected {
				t.Errorf("expected body %q, got %q", expected, rec.Body.String())
			}
			if cc := rec.Header().Get("Cache-Control"); cc != tc.cacheControl {
				t.Errorf("expected Cache-Control %q, got %q", tc.cacheControl, cc)
			}
		})
	}
}

func TestMakeStaticHandlerRejectsTraversal(t *testing.T) {
	handler := makeStaticHandler(t.TempDir(), t.TempDir(), false)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/../secrets.txt", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 Bad Request, got %d", rec.Code)
	}
}

func TestMakeStaticHandlerServesGzipFromCache(t *testing.T) {
	staticDir := t.TempDir()
	cacheDir := t.TempDir()

	gzPath := filepath.Join(cacheDir, "static", "app.min.js.gz")
	writeFile(t, gzPath, "fake-gzip-bytes")

	handler := makeStaticHandler(staticDir, cacheDir, false)

	req := httptest.NewRequest(http.MethodGet, "/static/app.min.js", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Errorf("expected gzip encoding")
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/javascript" {
		t.Errorf("expected javascript content type, got %q", ct)
	}
	if rec.Body.String() != "fake-gzip-bytes" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestApp_ServesPagesAndStatic(t *testing.T) {
	cfg := setupSite(t)
	app := newApp(cfg, RuntimeConfig{Env: "prod"})
	defer app.Close()

	server := httptest.NewServer(app.Handler())
	defer server.Close()

	tests := []struct {
		method string
		path   string
		form   url.Values
		want   int
		body   string
	}{
		{http.MethodGet, "/", nil, http.StatusOK, "Welcome"},
		{http.MethodGet, "/a", nil, http.StatusOK, ""},
		{http.MethodPost, "/a", url.Values{"name": {"Alice"}, "password": {"secret"}}, http.StatusOK, "secret"},
		{http.MethodGet, "/static/js/app.js", nil, http.StatusOK, "console.log"},
		{http.MethodGet, "/robots.txt", nil, http.StatusOK, "User-agent"},
		{http.MethodGet, "/favicon.ico", nil, http.StatusNotFound, ""},
		{http.MethodGet, "/unknown", nil, http.StatusNotFound, ""},
		{http.MethodDelete, "/a", nil, http.StatusMethodNotAllowed, ""},
	}

	for _, tc := range tests {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			var body io.Reader
			if tc.form != nil {
				body = strings.NewReader(tc.form.Encode())
			}
			req, err := http.NewRequest(tc.method, server.URL+tc.path, body)
			if err != nil {
				t.Fatal(err)
			}
			if tc.form != nil {
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			}

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.StatusCode)
			}
			data, _ := io.ReadAll(resp.Body)
			if tc.body != "" && !strings.Contains(string(data), tc.body) {
				t.Errorf("expected %q in body, got: %s", tc.body, data)
			}
		})
	}
}

func TestApp_DevLiveReloadEndpoint(t *testing.T) {
	cfg := setupSite(t)
	app := newApp(cfg, RuntimeConfig{Env: "dev", Debug: true})
	defer app.Close()

	server := httptest.NewServer(app.Handler())
	defer server.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+server.URL[len("http"):]+core.ReloadPath, nil)
	if err != nil {
		t.Fatalf("failed to connect to reload endpoint: %v", err)
	}
	defer ws.Close()

	time.Sleep(50 * time.Millisecond)

	writeFile(t, filepath.Join(cfg.TemplateDir, core.IndexTemplate), `<html><body>v2</body></html>`)

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("expected reload message: %v", err)
	}
	if string(msg) != "reload" {
		t.Errorf("expected 'reload', got %q", msg)
	}
}

func TestApp_ProdHasNoReloadEndpoint(t *testing.T) {
	app := newApp(setupSite(t), RuntimeConfig{Env: "prod"})
	defer app.Close()

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, core.ReloadPath, nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestNew_AppliesRuntimeOverrides(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "display.config.yml")
	writeFile(t, configPath, "addr: 127.0.0.1:7000\ncache: false\ntemplateDir: "+filepath.Join(dir, "tpl")+"\n")

	app := New(RuntimeConfig{Env: "prod", EnableCache: true, Addr: "127.0.0.1:8000", ConfigPath: configPath})
	defer app.Close()

	if app.Config.Addr != "127.0.0.1:8000" {
		t.Errorf("expected addr override, got %q", app.Config.Addr)
	}
	if !app.Config.CacheEnabled {
		t.Error("expected cache override to be applied")
	}
	if app.Config.TemplateDir != filepath.Join(dir, "tpl") {
		t.Errorf("expected templateDir from file, got %q", app.Config.TemplateDir)
	}

	app2 := New(RuntimeConfig{Env: "prod", ConfigPath: configPath})
	defer app2.Close()
	if app2.Config.Addr != "127.0.0.1:7000" {
		t.Errorf("expected addr from file, got %q", app2.Config.Addr)
	}
}
