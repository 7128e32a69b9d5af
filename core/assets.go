package core

import (
	"bytes"
	"compress/gzip"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/sprig/v3"
	"github.com/tdewolff/minify/v2"
	mincss "github.com/tdewolff/minify/v2/css"
	minhtml "github.com/tdewolff/minify/v2/html"
	minjs "github.com/tdewolff/minify/v2/js"
)

// Assets resolves /static/ URLs against the static and cache directories.
type Assets struct {
	Env       string
	StaticDir string
	CacheDir  string
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", mincss.Minify)
	m.AddFunc("application/javascript", minjs.Minify)
	m.AddFunc("text/html", minhtml.Minify)
	return m
}

// MinifyHTML minifies a rendered page. The input is returned untouched when
// the minifier rejects it.
func MinifyHTML(page []byte) []byte {
	var buf bytes.Buffer
	if err := newMinifier().Minify("text/html", &buf, bytes.NewReader(page)); err != nil {
		return page
	}
	return buf.Bytes()
}

// MinifyAsset writes a minified, gzipped copy of a css or js file into the
// cache directory and returns its versioned URL. Outside prod it returns path.
func (a Assets) MinifyAsset(path string) string {
	if a.Env != "prod" {
		return path
	}

	ext := filepath.Ext(path)
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, ext)

	if ext != ".css" && ext != ".js" {
		return path
	}

	if strings.Contains(name, ".min") {
		return path
	}

	rel := strings.TrimPrefix(path, "/static/")
	src := filepath.Join(a.StaticDir, rel)
	min := filepath.Join(a.CacheDir, "static", fmt.Sprintf("%s.min%s", name, ext))

	original, err := os.ReadFile(src)
	if err != nil {
		return path
	}

	mediaType := "text/css"
	if ext == ".js" {
		mediaType = "application/javascript"
	}

	var buf bytes.Buffer
	if err := newMinifier().Minify(mediaType, &buf, bytes.NewReader(original)); err != nil {
		return path
	}
	minified := buf.Bytes()

	versioned := fmt.Sprintf("/static/%s.min%s?v=%s", name, ext, shortHash(minified))

	if existing, err := os.ReadFile(min); err == nil && bytes.Equal(existing, minified) && fileExists(min+".gz") {
		return versioned
	}

	if err := os.MkdirAll(filepath.Dir(min), os.ModePerm); err != nil {
		return path
	}
	if err := writeFileAtomic(min, minified); err != nil {
		return path
	}
	if err := writeGzip(min+".gz", minified); err != nil {
		return path
	}

	return versioned
}

// Versioned appends a content hash to a /static/ URL so browsers refetch
// the file whenever it changes.
func (a Assets) Versioned(path string) string {
	if !strings.HasPrefix(path, "/static/") {
		return path
	}

	rel := strings.TrimPrefix(path, "/static/")
	locations := []string{
		filepath.Join(a.StaticDir, rel),
		filepath.Join(a.CacheDir, "static", rel),
	}

	for _, file := range locations {
		if content, err := os.ReadFile(file); err == nil {
			return fmt.Sprintf("/static/%s?v=%s", rel, shortHash(content))
		}
	}

	return path
}

// TemplateFuncs returns the sprig functions plus the site helpers. Site
// helpers win on name clashes.
func (a Assets) TemplateFuncs() template.FuncMap {
	funcs := sprig.FuncMap()

	funcs["minify"] = a.MinifyAsset
	funcs["versioned"] = a.Versioned
	funcs["staticURL"] = func(rel string) string {
		return "/static/" + strings.TrimPrefix(rel, "/")
	}
	funcs["props"] = func(values ...interface{}) (map[string]interface{}, error) {
		if len(values)%2 != 0 {
			return nil, fmt.Errorf("props must be called with an even number of arguments")
		}
		m := make(map[string]interface{}, len(values)/2)
		for i := 0; i < len(values); i += 2 {
			key, ok := values[i].(string)
			if !ok {
				return nil, fmt.Errorf("props keys must be strings, got %T", values[i])
			}
			m[key] = values[i+1]
		}
		return m, nil
	}
	funcs["safeHTML"] = func(s interface{}) template.HTML {
		switch val := s.(type) {
		case template.HTML:
			return val
		case string:
			return template.HTML(val)
		default:
			return ""
		}
	}

	return funcs
}

func shortHash(content []byte) string {
	sum := md5.Sum(content)
	return hex.EncodeToString(sum[:])[:6]
}

func writeGzip(path string, content []byte) error {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(content); err != nil {
		gz.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}
	return writeFileAtomic(path, buf.Bytes())
}

// writeFileAtomic writes to a temp file in the same directory and renames it
// into place, so readers see either the old or the new content.
func writeFileAtomic(path string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
