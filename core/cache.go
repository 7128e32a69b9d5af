package core

import (
	"os"
	"path/filepath"
)

// cacheKey maps a request path to a directory under OutputDir. The root page
// lives in OutputDir itself.
func cacheKey(route string) string {
	route = filepath.Clean("/" + route)
	if route == "/" {
		return ""
	}
	return route[1:]
}

func CachedHTMLPath(config Config, route string) string {
	return filepath.Join(config.OutputDir, cacheKey(route), "index.html")
}

func GetCachedHTML(config Config, route string) ([]byte, bool) {
	content, err := os.ReadFile(CachedHTMLPath(config, route))
	if err != nil {
		return nil, false
	}
	return content, true
}

// GetCachedGzipPath returns the gzip copy of a cached page if one exists.
func GetCachedGzipPath(config Config, route string) (string, bool) {
	gzPath := CachedHTMLPath(config, route) + ".gz"
	if _, err := os.Stat(gzPath); err != nil {
		return "", false
	}
	return gzPath, true
}

func SaveCachedHTML(config Config, route string, html []byte) error {
	htmlPath := CachedHTMLPath(config, route)
	if err := os.MkdirAll(filepath.Dir(htmlPath), os.ModePerm); err != nil {
		return err
	}

	if err := writeFileAtomic(htmlPath, html); err != nil {
		return err
	}

	return writeGzip(htmlPath+".gz", html)
}
