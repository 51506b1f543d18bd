package datasets

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"edudash/internal/csvtable"
	"edudash/internal/geomap"
)

// DefaultGeoJSONFile is the map file name under the data directory.
const DefaultGeoJSONFile = "china.json"

// preloadConcurrency bounds parallel fetches during LoadAll.
const preloadConcurrency = 4

// Info summarises one cached dataset.
type Info struct {
	Name     string    `json:"name"`
	File     string    `json:"file"`
	Loaded   bool      `json:"loaded"`
	Records  int       `json:"records"`
	Columns  []string  `json:"columns,omitempty"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
}

type entry struct {
	dataset  *csvtable.Dataset
	loadedAt time.Time
}

// Catalog caches parsed datasets and the map. Failed loads are not cached.
type Catalog struct {
	loader  *Loader
	geoFile string
	logger  *slog.Logger

	mu      sync.RWMutex
	entries map[string]entry
	geo     *geomap.Map
}

// NewCatalog creates an empty catalog over loader.
func NewCatalog(loader *Loader, geoFile string, logger *slog.Logger) *Catalog {
	if geoFile == "" {
		geoFile = DefaultGeoJSONFile
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		loader:  loader,
		geoFile: geoFile,
		logger:  logger.With(slog.String("component", "catalog")),
		entries: make(map[string]entry),
	}
}

// Load returns the cached dataset, loading it on first use.
func (c *Catalog) Load(ctx context.Context, name string) (*csvtable.Dataset, error) {
	c.mu.RLock()
	e, ok := c.entries[name]
	c.mu.RUnlock()
	if ok {
		return e.dataset, nil
	}

	ds, err := c.loader.Load(ctx, name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if existing, ok := c.entries[name]; ok {
		ds = existing.dataset
	} else {
		c.entries[name] = entry{dataset: ds, loadedAt: time.Now()}
	}
	c.mu.Unlock()
	return ds, nil
}

// Map returns the cached GeoJSON map, loading it on first use.
func (c *Catalog) Map(ctx context.Context) (*geomap.Map, error) {
	c.mu.RLock()
	m := c.geo
	c.mu.RUnlock()
	if m != nil {
		return m, nil
	}

	data, err := c.loader.LoadRaw(ctx, c.geoFile)
	if err != nil {
		return nil, err
	}
	m, err = geomap.Parse(data)
	if err != nil {
		return nil, &csvtable.LoadError{Dataset: c.geoFile, Op: "parse", Message: "地图GeoJSON解析失败", Err: err}
	}

	c.mu.Lock()
	if c.geo == nil {
		c.geo = m
	}
	m = c.geo
	c.mu.Unlock()
	return m, nil
}

// LoadAll loads every dataset and the map concurrently. The first failure cancels
// the rest and is returned; datasets loaded before it stay cached.
func (c *Catalog) LoadAll(ctx context.Context) error {
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(preloadConcurrency)

	for _, name := range Names() {
		g.Go(func() error {
			_, err := c.Load(gctx, name)
			return err
		})
	}
	g.Go(func() error {
		_, err := c.Map(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("preload datasets: %w", err)
	}
	c.logger.InfoContext(ctx, "datasets preloaded",
		slog.Int("datasets", len(Names())),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// Reload drops the cache and loads everything again. On failure the previous
// contents are restored.
func (c *Catalog) Reload(ctx context.Context) error {
	c.mu.Lock()
	previous, previousGeo := c.entries, c.geo
	c.entries = make(map[string]entry)
	c.geo = nil
	c.mu.Unlock()

	if err := c.LoadAll(ctx); err != nil {
		c.mu.Lock()
		c.entries, c.geo = previous, previousGeo
		c.mu.Unlock()
		c.logger.WarnContext(ctx, "reload failed, keeping previous datasets", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// Info lists every known dataset with its cache state.
func (c *Catalog) Info() []Info {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := Names()
	out := make([]Info, 0, len(names))
	for _, name := range names {
		spec := specs[name]
		info := Info{Name: name, File: spec.File}
		if e, ok := c.entries[name]; ok {
			info.Loaded = true
			info.Records = e.dataset.Len()
			info.Columns = e.dataset.Columns
			info.LoadedAt = e.loadedAt
		}
		out = append(out, info)
	}
	return out
}

// Ready reports whether every dataset and the map are cached.
func (c *Catalog) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.geo != nil && len(c.entries) == len(specs)
}

// Loader returns the underlying loader.
func (c *Catalog) Loader() *Loader { return c.loader }
