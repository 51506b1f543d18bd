package http

import (
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"edudash/pkg/contracts"
)

var fallbackPage = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="zh-CN">
<head>
    <meta charset="utf-8">
    <title>教育数据仪表盘</title>
    <style>
        body { font-family: sans-serif; margin: 40px; }
        .status { padding: 10px; margin: 10px 0; border-radius: 4px; background-color: #d1ecf1; color: #0c5460; }
    </style>
</head>
<body>
    <h1>教育数据仪表盘</h1>
    <div class="status">
        <strong>服务运行中</strong> (API {{.APIVersion}})
        <br><strong>时间:</strong> {{.Now}}
    </div>
    <h2>接口</h2>
    <ul>
        <li><a href="/api/datasets">/api/datasets</a></li>
        <li><a href="/api/views">/api/views</a></li>
        <li><a href="/api/regions">/api/regions</a></li>
        <li><a href="/api/map">/api/map</a></li>
        <li><a href="/api/health/ready">/api/health/ready</a></li>
        <li>/ws</li>
    </ul>
</body>
</html>
`))

// StaticHandler serves the dashboard page and its assets from a directory. Without
// an index.html it renders a status page instead.
func StaticHandler(webDir string) http.Handler {
	files := http.FileServer(http.Dir(webDir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setPageHeaders(w)
		if r.URL.Path == "/" || r.URL.Path == "/index.html" {
			if _, err := os.Stat(filepath.Join(webDir, "index.html")); err != nil {
				serveFallback(w)
				return
			}
		}
		files.ServeHTTP(w, r)
	})
}

func serveFallback(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := fallbackPage.Execute(w, map[string]string{
		"APIVersion": contracts.APIVersion,
		"Now":        time.Now().Format("2006-01-02 15:04:05"),
	})
	if err != nil {
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
	}
}

func setPageHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
}
