package core

import (
	"bufio"
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	ReloadPath   = "/__display_reload"
	layoutPrefix = "<!-- layout:"
	layoutSuffix = "-->"
)

const reloadScript = `<script>(function(){var p=location.protocol==="https:"?"wss://":"ws://";` +
	`var ws=new WebSocket(p+location.host+"` + ReloadPath + `");` +
	`ws.onmessage=function(e){if(e.data==="reload"){location.reload();}};})();</script>`

type page struct {
	tmpl   *template.Template
	entry  string
	layout string
}

// Renderer turns a template file name plus bindings into HTML. In prod parsed
// templates are kept for the life of the process; in dev every call re-reads
// the files from disk.
type Renderer struct {
	dir    string
	env    string
	assets Assets
	pages  sync.Map
}

func NewRenderer(config Config, env string) *Renderer {
	return &Renderer{
		dir: config.TemplateDir,
		env: env,
		assets: Assets{
			Env:       env,
			StaticDir: config.StaticDir,
			CacheDir:  config.OutputDir,
		},
	}
}

// Render executes the named template. Missing files are reported as
// ErrTemplateNotFound.
func (r *Renderer) Render(name string, data interface{}) ([]byte, error) {
	p, err := r.load(name)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, p.entry, data); err != nil {
		return nil, fmt.Errorf("execute %s: %w", name, err)
	}

	out := buf.Bytes()
	switch r.env {
	case "prod":
		out = MinifyHTML(out)
	case "dev":
		out = injectReloadScript(out)
	}
	return out, nil
}

// Layout reports the layout file a template declares, if any.
func (r *Renderer) Layout(name string) (string, error) {
	p, err := r.load(name)
	if err != nil {
		return "", err
	}
	return p.layout, nil
}

// Invalidate drops every cached template.
func (r *Renderer) Invalidate() {
	r.pages.Clear()
}

func (r *Renderer) load(name string) (*page, error) {
	if r.env == "prod" {
		if cached, ok := r.pages.Load(name); ok {
			return cached.(*page), nil
		}
	}

	p, err := r.parse(name)
	if err != nil {
		return nil, err
	}

	if r.env == "prod" {
		r.pages.Store(name, p)
	}
	return p, nil
}

func (r *Renderer) parse(name string) (*page, error) {
	pagePath := filepath.Join(r.dir, name)
	if _, err := os.Stat(pagePath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, pagePath)
	}

	layout, err := readLayoutDirective(pagePath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", pagePath, err)
	}

	files := []string{pagePath}
	entry := filepath.Base(pagePath)

	if layout != "" {
		layoutPath := filepath.Join(r.dir, layout)
		if _, err := os.Stat(layoutPath); err != nil {
			return nil, fmt.Errorf("%w: layout %s", ErrTemplateNotFound, layoutPath)
		}

		components, err := filepath.Glob(filepath.Join(r.dir, "components", "*.html"))
		if err != nil {
			return nil, err
		}

		files = append([]string{layoutPath, pagePath}, components...)
		entry = "layout"
	}

	tmpl, err := template.New(filepath.Base(files[0])).Funcs(r.assets.TemplateFuncs()).ParseFiles(files...)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}

	return &page{tmpl: tmpl, entry: entry, layout: layout}, nil
}

// readLayoutDirective returns the layout named by a leading
// <!-- layout: file.html --> comment. Blank lines before it are skipped.
func readLayoutDirective(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, layoutPrefix) && strings.HasSuffix(line, layoutSuffix) {
			return strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(line, layoutPrefix), layoutSuffix)), nil
		}
		return "", nil
	}
	return "", scanner.Err()
}

func injectReloadScript(html []byte) []byte {
	idx := bytes.LastIndex(html, []byte("</body>"))
	if idx == -1 {
		return append(html, []byte(reloadScript)...)
	}

	out := make([]byte, 0, len(html)+len(reloadScript))
	out = append(out, html[:idx]...)
	out = append(out, reloadScript...)
	out = append(out, html[idx:]...)
	return out
}
