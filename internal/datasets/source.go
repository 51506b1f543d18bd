package datasets

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"edudash/internal/config"
)

// Source opens the raw bytes of a data file such as "q1.csv" or "china.json".
type Source interface {
	Open(ctx context.Context, file string) (io.ReadCloser, error)
	// Describe names the source in logs.
	Describe() string
}

// StatusError is returned by HTTPSource for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %s", e.URL, e.Status)
}

// NewSource builds the source selected by cfg.
func NewSource(cfg config.DataConfig) (Source, error) {
	switch cfg.Source {
	case config.SourceFile:
		return NewDirSource(cfg.Dir), nil
	case config.SourceHTTP:
		return NewHTTPSource(cfg.BaseURL, cfg.FetchTimeout), nil
	default:
		return nil, fmt.Errorf("unsupported data source %q", cfg.Source)
	}
}

// DirSource reads files from a local directory.
type DirSource struct {
	dir string
}

// NewDirSource returns a source rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// Open opens dir/file. Only bare file names are accepted.
func (s *DirSource) Open(ctx context.Context, file string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validFileName(file) {
		return nil, fmt.Errorf("invalid data file name %q: %w", file, fs.ErrInvalid)
	}
	return os.Open(filepath.Join(s.dir, file))
}

func (s *DirSource) Describe() string { return "dir:" + s.dir }

// HTTPSource fetches files from <baseURL>/data/<file>, the layout the page is served with.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSource creates a source with a per-request timeout.
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Open performs the GET and returns the body on a 2xx response.
func (s *HTTPSource) Open(ctx context.Context, file string) (io.ReadCloser, error) {
	if !validFileName(file) {
		return nil, fmt.Errorf("invalid data file name %q: %w", file, fs.ErrInvalid)
	}
	url := s.baseURL + "/data/" + file
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return resp.Body, nil
}

func (s *HTTPSource) Describe() string { return "http:" + s.baseURL }

// MapSource serves files from memory.
type MapSource map[string]string

// Open returns the named entry or fs.ErrNotExist.
func (s MapSource) Open(ctx context.Context, file string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, ok := s[file]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", file, fs.ErrNotExist)
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func (s MapSource) Describe() string { return "memory" }

func validFileName(file string) bool {
	return file != "" && file != "." && file != ".." && filepath.Base(file) == file && !strings.ContainsAny(file, `/\`)
}
