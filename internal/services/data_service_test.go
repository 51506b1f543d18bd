package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"edudash/internal/datasets"
	"edudash/internal/rangefilter"
	"edudash/internal/router"
	"edudash/internal/shared/testutil"
	"edudash/pkg/contracts/events"
)

// MockBroadcaster is a mock for the websocket hub
type MockBroadcaster struct {
	mock.Mock
}

func (m *MockBroadcaster) Broadcast(msgType events.MessageType, data interface{}) {
	m.Called(msgType, data)
}

func newTestDataService(t *testing.T, files map[string]string, hub Broadcaster) *DataService {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	loader := datasets.NewLoader(datasets.MapSource(files), nil, nil, logger)
	catalog := datasets.NewCatalog(loader, datasets.DefaultGeoJSONFile, logger)
	return NewDataService(catalog, hub, logger)
}

func TestDataServiceDataset(t *testing.T) {
	svc := newTestDataService(t, testutil.DatasetFiles(), nil)
	ctx := context.Background()

	ds, err := svc.Dataset(ctx, datasets.AllData)
	require.NoError(t, err)
	assert.Equal(t, 4, ds.Len())

	_, err = svc.Dataset(ctx, "nope")
	assert.ErrorIs(t, err, datasets.ErrUnknownDataset)
}

func TestDataServiceRecordsFiltered(t *testing.T) {
	svc := newTestDataService(t, testutil.DatasetFiles(), nil)
	ctx := context.Background()

	_, records, err := svc.Records(ctx, datasets.AllData, rangefilter.Filters{
		datasets.ColTierOne: {Min: 20, Max: 100},
	})
	require.NoError(t, err)
	regions := make([]string, len(records))
	for i, rec := range records {
		regions[i] = rec.Text(datasets.ColRegion)
	}
	assert.Equal(t, []string{"北京", "上海"}, regions)

	// 西藏 has no expenditure and passes the expenditure filter.
	_, records, err = svc.Records(ctx, datasets.AllData, rangefilter.Filters{
		datasets.ColExpenditure: {Min: 4e8, Max: 5e8},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "广东", records[0].Text(datasets.ColRegion))
	assert.Equal(t, "西藏", records[1].Text(datasets.ColRegion))
}

func TestDataServiceRecordsUnknownColumn(t *testing.T) {
	svc := newTestDataService(t, testutil.DatasetFiles(), nil)

	_, _, err := svc.Records(context.Background(), datasets.Q2, rangefilter.Filters{"一本率": {Min: 0, Max: 1}})
	assert.ErrorIs(t, err, rangefilter.ErrUnknownColumn)
}

func TestDataServiceBounds(t *testing.T) {
	svc := newTestDataService(t, testutil.DatasetFiles(), nil)
	ctx := context.Background()

	b, err := svc.Bounds(ctx, datasets.AllData, datasets.ColTierOne)
	require.NoError(t, err)
	assert.True(t, b.PercentLike)
	assert.Equal(t, 8.0, b.Min)
	assert.Equal(t, 31.0, b.Max)
	assert.Equal(t, 4, b.Values)

	b, err = svc.Bounds(ctx, datasets.AllData, datasets.ColExpenditure)
	require.NoError(t, err)
	assert.False(t, b.PercentLike)
	assert.Equal(t, 2.8e8, b.Min)
	assert.Equal(t, 4.5e8, b.Max)
	assert.Equal(t, 3, b.Values)

	_, err = svc.Bounds(ctx, datasets.AllData, "missing")
	assert.ErrorIs(t, err, rangefilter.ErrUnknownColumn)
}

func TestDataServiceRegions(t *testing.T) {
	svc := newTestDataService(t, testutil.DatasetFiles(), nil)

	regions, err := svc.Regions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"上海", "北京", "广东", "西藏"}, regions)
}

func TestDataServiceTrend(t *testing.T) {
	svc := newTestDataService(t, testutil.DatasetFiles(), nil)
	ctx := context.Background()

	trend, err := svc.Trend(ctx, "q3", nil)
	require.NoError(t, err)
	assert.Equal(t, "地区一本率与重点中学比例关系", trend.Title)
	require.Len(t, trend.Points, 3)
	assert.Equal(t, RegionPoint{Region: "北京", X: 30.5, Y: 45}, trend.Points[0])
	assert.Greater(t, trend.Line.Slope, 0.0)
	require.Len(t, trend.Line.Endpoints, 2)
	assert.Equal(t, 12.3, trend.Line.Endpoints[0].X)
	assert.Equal(t, 30.5, trend.Line.Endpoints[1].X)
	assert.Len(t, trend.Filters, 2)

	trend, err = svc.Trend(ctx, "q3", rangefilter.Filters{datasets.ColTierOne: {Min: 20, Max: 100}})
	require.NoError(t, err)
	assert.Len(t, trend.Points, 2)
}

func TestDataServiceTrendErrors(t *testing.T) {
	svc := newTestDataService(t, testutil.DatasetFiles(), nil)
	ctx := context.Background()

	_, err := svc.Trend(ctx, "comparison", nil)
	assert.ErrorIs(t, err, ErrNotScatterView)

	_, err = svc.Trend(ctx, "nope", nil)
	assert.ErrorIs(t, err, router.ErrUnknownView)

	_, err = svc.Trend(ctx, "q1", rangefilter.Filters{"师生比": {Min: 0, Max: 1}})
	assert.ErrorIs(t, err, rangefilter.ErrUnknownColumn)
}

func TestDataServiceMap(t *testing.T) {
	svc := newTestDataService(t, testutil.DatasetFiles(), nil)

	summary, err := svc.Map(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Features)
	require.Len(t, summary.Regions, 3)
	for _, region := range summary.Regions {
		assert.True(t, region.HasData, region.Name)
	}
	assert.Equal(t, []string{"西藏"}, summary.Unmatched)

	raw, err := svc.GeoJSON(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "FeatureCollection")
}

func TestDataServiceReloadBroadcasts(t *testing.T) {
	hub := new(MockBroadcaster)
	hub.On("Broadcast", events.MessageTypeDatasetsReloaded, mock.MatchedBy(func(ev events.DatasetsReloadedEvent) bool {
		return len(ev.Datasets) == len(datasets.Names()) && !ev.At.IsZero()
	})).Once()

	svc := newTestDataService(t, testutil.DatasetFiles(), hub)
	infos, err := svc.Reload(context.Background())
	require.NoError(t, err)
	assert.Len(t, infos, len(datasets.Names()))
	assert.True(t, svc.Ready())
	hub.AssertExpectations(t)
}

func TestDataServiceReloadFailureDoesNotBroadcast(t *testing.T) {
	hub := new(MockBroadcaster)
	files := testutil.DatasetFiles()
	delete(files, "teacher.csv")

	svc := newTestDataService(t, files, hub)
	_, err := svc.Reload(context.Background())
	require.Error(t, err)
	assert.False(t, svc.Ready())
	hub.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything)
}

func TestDataServiceReloadInProgress(t *testing.T) {
	svc := newTestDataService(t, testutil.DatasetFiles(), nil)
	svc.reloading.Store(true)

	_, err := svc.Reload(context.Background())
	assert.True(t, errors.Is(err, ErrReloadInProgress))
}

func TestDataServiceExports(t *testing.T) {
	svc := newTestDataService(t, testutil.DatasetFiles(), nil)
	ctx := context.Background()

	var xlsx bytes.Buffer
	require.NoError(t, svc.ExportWorkbook(ctx, &xlsx, datasets.Q2, rangefilter.Filters{datasets.ColRatio: {Min: 13, Max: 20}}))
	f, err := excelize.OpenReader(&xlsx)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(datasets.Q2)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "上海", rows[1][0])

	var csvBuf bytes.Buffer
	require.NoError(t, svc.ExportCSV(ctx, &csvBuf, datasets.Q3, nil))
	assert.Contains(t, csvBuf.String(), "地区,一本率,重点中学比例")

	var png bytes.Buffer
	require.NoError(t, svc.RenderScatter(ctx, &png, "q2", nil))
	assert.True(t, bytes.HasPrefix(png.Bytes(), []byte("\x89PNG")))

	assert.ErrorIs(t, svc.RenderScatter(ctx, &png, "teacher", nil), ErrNotScatterView)
}

func TestTrendResultPlot(t *testing.T) {
	tr := &TrendResult{
		Title:  "t",
		Points: []RegionPoint{{Region: "北京", X: 1, Y: 2}},
	}
	sp := tr.Plot()
	assert.Equal(t, []string{"北京"}, sp.Labels)
	assert.Equal(t, 1.0, sp.Points[0].X)
}
