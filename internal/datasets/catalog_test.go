package datasets

import (
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edudash/internal/shared/testutil"
)

// countingSource counts opens per file.
type countingSource struct {
	MapSource
	mu     sync.Mutex
	counts map[string]int
	total  atomic.Int32
}

func newCountingSource(files map[string]string) *countingSource {
	return &countingSource{MapSource: MapSource(files), counts: map[string]int{}}
}

func (s *countingSource) Open(ctx context.Context, file string) (io.ReadCloser, error) {
	s.mu.Lock()
	s.counts[file]++
	s.mu.Unlock()
	s.total.Add(1)
	return s.MapSource.Open(ctx, file)
}

func (s *countingSource) count(file string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[file]
}

func TestCatalogLoadCaches(t *testing.T) {
	src := newCountingSource(testutil.DatasetFiles())
	c := NewCatalog(NewLoader(src, nil, nil, nil), "", nil)

	first, err := c.Load(context.Background(), Q1)
	require.NoError(t, err)
	second, err := c.Load(context.Background(), Q1)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, src.count("q1.csv"))
	assert.False(t, c.Ready())
}

func TestCatalogLoadAll(t *testing.T) {
	src := newCountingSource(testutil.DatasetFiles())
	c := NewCatalog(NewLoader(src, nil, nil, nil), "china.json", nil)

	require.NoError(t, c.LoadAll(context.Background()))
	assert.True(t, c.Ready())
	assert.EqualValues(t, len(Names())+1, src.total.Load())

	m, err := c.Map(context.Background())
	require.NoError(t, err)
	assert.True(t, m.Has("北京市"))

	for _, info := range c.Info() {
		assert.True(t, info.Loaded, info.Name)
		assert.NotZero(t, info.Records, info.Name)
		assert.False(t, info.LoadedAt.IsZero())
	}
}

func TestCatalogFailuresAreNotCached(t *testing.T) {
	files := testutil.DatasetFiles()
	delete(files, "university.csv")
	src := newCountingSource(files)
	c := NewCatalog(NewLoader(src, nil, nil, nil), "", nil)

	err := c.LoadAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "university.csv")

	_, err = c.Load(context.Background(), University)
	require.Error(t, err)

	src.MapSource["university.csv"] = testutil.UniversityCSV
	ds, err := c.Load(context.Background(), University)
	require.NoError(t, err)
	assert.Equal(t, 5, ds.Len())
}

func TestCatalogReloadKeepsPreviousOnFailure(t *testing.T) {
	src := newCountingSource(testutil.DatasetFiles())
	c := NewCatalog(NewLoader(src, nil, nil, nil), "", nil)
	require.NoError(t, c.LoadAll(context.Background()))

	before, err := c.Load(context.Background(), Q2)
	require.NoError(t, err)

	src.MapSource["q3.csv"] = ""
	require.Error(t, c.Reload(context.Background()))

	after, err := c.Load(context.Background(), Q2)
	require.NoError(t, err)
	assert.Same(t, before, after)
	assert.True(t, c.Ready())

	src.MapSource["q3.csv"] = strings.Replace(testutil.Q3CSV, "30.5%", "31%", 1)
	require.NoError(t, c.Reload(context.Background()))
	q3, err := c.Load(context.Background(), Q3)
	require.NoError(t, err)
	v, _ := q3.Records[0].Float(ColTierOne)
	assert.InDelta(t, 31, v, 1e-9)
}

func TestCatalogBadGeoJSON(t *testing.T) {
	files := testutil.DatasetFiles()
	files["china.json"] = `{"type":"FeatureCollection","features":[]}`
	c := NewCatalog(NewLoader(MapSource(files), nil, nil, nil), "", nil)

	_, err := c.Map(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GeoJSON")
}
