package views

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edudash/internal/chart"
	"edudash/internal/coordinator"
	"edudash/internal/csvtable"
	"edudash/internal/datasets"
	"edudash/internal/shared/testutil"
	"edudash/pkg/contracts/events"
)

type harness struct {
	deps    Deps
	rec     *chart.Recorder
	bus     *coordinator.Bus
	catalog *datasets.Catalog
	visible map[string]bool
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// newHarness wires views over the fixture files, with the given files removed.
func newHarness(t *testing.T, without ...string) *harness {
	t.Helper()
	files := testutil.DatasetFiles()
	for _, f := range without {
		delete(files, f)
	}
	return newHarnessWith(t, files)
}

func newHarnessWith(t *testing.T, files map[string]string) *harness {
	t.Helper()
	logger := quietLogger()
	loader := datasets.NewLoader(datasets.MapSource(files), nil, nil, logger)
	catalog := datasets.NewCatalog(loader, datasets.DefaultGeoJSONFile, logger)
	surface, rec := chart.NewRecordingSurface()
	bus := coordinator.New(logger)

	h := &harness{rec: rec, bus: bus, catalog: catalog, visible: map[string]bool{}}
	h.deps = Deps{
		Data:    catalog,
		Geo:     catalog,
		Bus:     bus,
		Surface: surface,
		Active:  func(view string) bool { return h.visible[view] },
		Logger:  logger,
	}
	return h
}

func (h *harness) option(t *testing.T, id string) chart.Option {
	t.Helper()
	opt, ok := h.rec.LastOption(id)
	require.True(t, ok, "no option for %s", id)
	return opt
}

func (h *harness) lastMessage(t *testing.T, id string) events.ChartCommand {
	t.Helper()
	cmd, ok := h.rec.Last(id, events.CommandShowMessage)
	require.True(t, ok, "no message for %s", id)
	return cmd
}

func (h *harness) allData(t *testing.T) *csvtable.Dataset {
	t.Helper()
	ds, err := h.catalog.Load(context.Background(), datasets.AllData)
	require.NoError(t, err)
	return ds
}

func values(items []chart.DataItem) []any {
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = it.Value
	}
	return out
}

func names(items []chart.DataItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func TestCatalog(t *testing.T) {
	infos := Catalog()
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
		assert.NotEmpty(t, info.Title, info.Name)
		assert.NotEmpty(t, info.Datasets, info.Name)
	}
	assert.Equal(t, []string{NameMap, NameQ1, NameQ2, NameQ3, NameComparison, NameAttainment, NameTeacher, NameUniversity}, names)

	q2, ok := LookupInfo(NameQ2)
	require.True(t, ok)
	assert.True(t, q2.Scatter)
	assert.Equal(t, "地区师生比与重点中学比例关系", q2.Title)

	_, ok = LookupInfo("nope")
	assert.False(t, ok)
}
