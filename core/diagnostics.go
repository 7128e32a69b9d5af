package core

import (
	"html/template"
	"log/slog"
	"net/http"
)

var diagnosticPage = template.Must(template.New("diagnostic").Parse(`<!DOCTYPE html>
<html>
<head><title>{{ .Status }} {{ .StatusText }}</title></head>
<body>
<h1>{{ .Status }} {{ .StatusText }}</h1>
<p>{{ .Method }} {{ .Path }}</p>
<pre>{{ .Detail }}</pre>
<p><small>request id: {{ .RequestID }}</small></p>
</body>
</html>
`))

type diagnostic struct {
	Status     int
	StatusText string
	Method     string
	Path       string
	Detail     string
	RequestID  string
}

// writeError answers with status. With debug on the detail is expanded
// into an HTML page; otherwise only the status text is sent.
func writeError(w http.ResponseWriter, req *http.Request, debugMode bool, status int, detail string) {
	if !debugMode {
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)

	d := diagnostic{
		Status:     status,
		StatusText: http.StatusText(status),
		Method:     req.Method,
		Path:       req.URL.Path,
		Detail:     detail,
		RequestID:  RequestIDFrom(req.Context()),
	}
	if execErr := diagnosticPage.Execute(w, d); execErr != nil {
		slog.Error("failed to write diagnostic page", "error", execErr)
	}
}
