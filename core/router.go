package core

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	IndexTemplate = "index.html"
	FormTemplate  = "form.html"

	maxFormMemory = 32 << 20
)

type RuntimeContext struct {
	Env         string
	Debug       bool
	EnableWatch bool
	OnReload    func()
}

// FormInput holds the fields posted to /a. Both are optional and default to
// the empty string.
type FormInput struct {
	Name     string
	Password string
}

// ReadFormInput parses a url-encoded or multipart body. Missing fields are
// left empty. Url-encoded pairs with bad escapes are dropped rather than
// failing the request; only a broken multipart body is an error.
func ReadFormInput(req *http.Request) (FormInput, error) {
	if err := req.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return FormInput{}, err
	}

	return FormInput{
		Name:     req.PostForm.Get("name"),
		Password: req.PostForm.Get("password"),
	}, nil
}

func (f FormInput) Bindings() map[string]interface{} {
	return map[string]interface{}{
		"name":     f.Name,
		"password": f.Password,
	}
}

type Router struct {
	config   Config
	env      string
	debug    bool
	renderer *Renderer
	mux      *chi.Mux
	watcher  *Watcher
}

func NewRouter(config Config, ctx RuntimeContext) *Router {
	r := &Router{
		config:   config,
		env:      ctx.Env,
		debug:    ctx.Debug,
		renderer: NewRenderer(config, ctx.Env),
		mux:      chi.NewRouter(),
	}

	r.mux.Use(RequestID)
	if config.DebugLogs || ctx.Debug {
		r.mux.Use(RequestLogger(slog.Default()))
	}
	r.mux.Use(Recoverer(ctx.Debug))
	r.mux.Use(middleware.GetHead)

	r.mux.Get("/", r.handleIndex)
	r.mux.Get("/a", r.handleFormGet)
	r.mux.Post("/a", r.handleFormPost)

	if ctx.EnableWatch {
		w, err := NewWatcher([]string{config.TemplateDir, config.StaticDir}, func(path string) {
			slog.Info("change detected", "path", path)
			r.renderer.Invalidate()
			if ctx.OnReload != nil {
				ctx.OnReload()
			}
		})
		if err != nil {
			slog.Warn("file watching disabled", "error", err)
		} else {
			r.watcher = w
		}
	}

	return r
}

// Close stops the file watcher, if one is running.
func (r *Router) Close() error {
	if r.watcher == nil {
		return nil
	}
	return r.watcher.Close()
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Handle registers an extra handler, such as static files, behind the same
// middleware stack.
func (r *Router) Handle(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) handleIndex(w http.ResponseWriter, req *http.Request) {
	r.servePage(w, req, IndexTemplate, nil, true)
}

func (r *Router) handleFormGet(w http.ResponseWriter, req *http.Request) {
	r.servePage(w, req, FormTemplate, FormInput{}.Bindings(), true)
}

func (r *Router) handleFormPost(w http.ResponseWriter, req *http.Request) {
	input, err := ReadFormInput(req)
	if err != nil {
		writeError(w, req, r.debug, http.StatusBadRequest, "Form parsing error: "+err.Error())
		return
	}

	r.servePage(w, req, FormTemplate, input.Bindings(), false)
}

func (r *Router) cacheable() bool {
	return r.env == "prod" && r.config.CacheEnabled
}

func (r *Router) servePage(w http.ResponseWriter, req *http.Request, name string, data interface{}, cacheable bool) {
	cacheable = cacheable && r.cacheable()

	if cacheable && r.serveCached(w, req, name) {
		return
	}

	html, err := r.renderer.Render(name, data)
	if err != nil {
		msg := "render failed"
		if IsTemplateNotFound(err) {
			msg = "template missing"
		}
		slog.Error(msg, "template", name, "error", err, "request_id", RequestIDFrom(req.Context()))
		writeError(w, req, r.debug, http.StatusInternalServerError, "Template error: "+err.Error())
		return
	}

	if cacheable {
		if err := SaveCachedHTML(r.config, req.URL.Path, html); err != nil {
			slog.Warn("failed to cache page", "path", req.URL.Path, "error", err)
		}
	}

	r.writeHTML(w, name, html)
}

func (r *Router) serveCached(w http.ResponseWriter, req *http.Request, name string) bool {
	if AcceptsGzip(req) {
		if gzPath, ok := GetCachedGzipPath(r.config, req.URL.Path); ok {
			if content, err := os.ReadFile(gzPath); err == nil {
				w.Header().Set("Content-Encoding", "gzip")
				w.Header().Set("Vary", "Accept-Encoding")
				r.writeHTML(w, name, content)
				return true
			}
		}
	}

	if content, ok := GetCachedHTML(r.config, req.URL.Path); ok {
		r.writeHTML(w, name, content)
		return true
	}

	return false
}

func (r *Router) writeHTML(w http.ResponseWriter, name string, html []byte) {
	if r.config.DebugHeaders {
		w.Header().Set("X-Display-Template", name)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(html); err != nil {
		slog.Error("failed to write page", "template", name, "error", err)
	}
}

func AcceptsGzip(req *http.Request) bool {
	return strings.Contains(req.Header.Get("Accept-Encoding"), "gzip")
}
