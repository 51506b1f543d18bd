package views

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edudash/internal/chart"
)

func TestAggregateUniversities(t *testing.T) {
	h := newHarness(t)
	ds, err := h.catalog.Load(context.Background(), "university")
	require.NoError(t, err)

	stats := AggregateUniversities(ds.Records)
	require.Len(t, stats, 2, "rows without a province are skipped")

	bj := stats["北京"]
	assert.Equal(t, 3, bj.Total)
	assert.Equal(t, map[string]int{"综合": 2, "理工": 1}, bj.Types)
	assert.Equal(t, map[string]int{Project985: 1, Project211: 1, ProjectDual: 1, ProjectNonKey: 2}, bj.KeyProjects)

	sh := stats["上海"]
	assert.Equal(t, 2, sh.Total)
	assert.Equal(t, map[string]int{"综合": 1, "未知类型": 1}, sh.Types)
	assert.Equal(t, map[string]int{"公办": 1, "民办": 1}, sh.PublicPrivate)
}

func TestUniversityInit(t *testing.T) {
	h := newHarness(t)
	v := NewUniversity(h.deps)
	require.NoError(t, v.Init(context.Background()))

	opt := h.option(t, "university.bars")
	assert.Equal(t, "各地区高校类型分布", opt.Title.Text)
	assert.Equal(t, []string{"上海", "北京"}, opt.XAxis[0].Data)
	assert.Equal(t, []string{"未知类型", "理工", "综合"}, opt.Legend.Data)
	assert.Equal(t, []any{1, 0}, values(opt.Series[0].Data))
	assert.Equal(t, []any{1, 2}, values(opt.Series[2].Data))
	assert.Equal(t, "total", opt.Series[0].Stack)

	info, ok := h.rec.LastPanel("university.info")
	require.True(t, ok)
	assert.Equal(t, UniversityInfo{Region: "请选择地区", Total: "-", C985: "-", C211: "-", Dual: "-"}, info)

	table, _ := h.rec.LastPanel("university.table")
	assert.Equal(t, "请选择一个地区以查看高校列表。", table.(UniversityTable).Message)
	assert.Equal(t, "请选择地区查看详情", h.option(t, "university.pie").Title.Text)
}

func TestUniversityKeyProjectGrouping(t *testing.T) {
	h := newHarness(t)
	v := NewUniversity(h.deps)
	require.NoError(t, v.Init(context.Background()))

	require.NoError(t, v.Control(context.Background(), "group", GroupKeyProject))
	opt := h.option(t, "university.bars")
	assert.Equal(t, "各地区重点高校建设情况", opt.Title.Text)
	assert.Equal(t, []string{"985高校数", "211高校数", "双一流高校数"}, opt.Legend.Data)
	assert.Empty(t, opt.Series[0].Stack)
	assert.Equal(t, "重点高校数量", opt.YAxis[0].Name)
	assert.Equal(t, []any{1, 1}, values(opt.Series[0].Data))

	assert.ErrorIs(t, v.Control(context.Background(), "group", "size"), ErrInvalidControlValue)
}

func TestUniversitySidePanel(t *testing.T) {
	h := newHarness(t)
	v := NewUniversity(h.deps)
	require.NoError(t, v.Init(context.Background()))

	require.NoError(t, v.Control(context.Background(), "pie", GroupLevel))
	assert.Equal(t, "请先选择地区，再选择饼图显示方式", h.option(t, "university.pie").Title.Text)

	require.NoError(t, v.Control(context.Background(), "region", "北京"))
	info, _ := h.rec.LastPanel("university.info")
	assert.Equal(t, UniversityInfo{Region: "北京", Total: "3", C985: "1", C211: "1", Dual: "1"}, info)

	pie := h.option(t, "university.pie")
	assert.Equal(t, "北京 - 办学层次分布", pie.Title.Text)
	assert.Equal(t, []string{"专科", "本科"}, names(pie.Series[0].Data))
	assert.Equal(t, "60%", pie.Series[0].Radius)

	require.NoError(t, v.Control(context.Background(), "pie", GroupKeyProject))
	pie = h.option(t, "university.pie")
	assert.Equal(t, []string{Project985, Project211, ProjectDual}, names(pie.Series[0].Data))

	table, _ := h.rec.LastPanel("university.table")
	got := table.(UniversityTable)
	assert.Equal(t, []string{"学校名称", "类型", "本或专科", "公或民办", "985", "211", "双一流"}, got.Headers)
	require.Len(t, got.Rows, 3)
	assert.Equal(t, []string{"北京大学", "综合", "本科", "公办", "1", "1", "双一流"}, got.Rows[0])
	assert.Equal(t, "-", got.Rows[1][6])
}

func TestUniversityPublicPrivatePie(t *testing.T) {
	h := newHarness(t)
	v := NewUniversity(h.deps)
	require.NoError(t, v.Init(context.Background()))

	require.NoError(t, v.Control(context.Background(), "region", "上海"))
	require.NoError(t, v.Control(context.Background(), "pie", GroupPublicPrivate))
	pie := h.option(t, "university.pie")
	assert.Equal(t, []string{"公办", "民办"}, names(pie.Series[0].Data))
	assert.Equal(t, "办学性质", pie.Series[0].Name)
}

func TestUniversityFollowsGlobalRegion(t *testing.T) {
	h := newHarness(t)
	h.visible[NameUniversity] = true
	v := NewUniversity(h.deps)
	require.NoError(t, v.Init(context.Background()))
	h.rec.Reset()

	h.bus.PublishRegionChanged("北京")

	info, _ := h.rec.LastPanel("university.info")
	assert.Equal(t, "北京", info.(UniversityInfo).Region)

	actions := h.rec.Actions("university.bars")
	// downplay, one highlight per type series, then the tooltip.
	require.Len(t, actions, 5)
	assert.Equal(t, chart.ActionShowTip, actions[4].Type)
	assert.Equal(t, 1, *actions[4].DataIndex)

	h.bus.PublishRegionChanged("西藏")
	info, _ = h.rec.LastPanel("university.info")
	assert.Equal(t, "请选择地区", info.(UniversityInfo).Region)
}

func TestUniversityRows(t *testing.T) {
	h := newHarness(t)
	ds, err := h.catalog.Load(context.Background(), "university")
	require.NoError(t, err)

	assert.Equal(t, "列表数据加载中或无数据...", UniversityRows(nil, "北京").Message)
	assert.Equal(t, "请选择一个地区以查看高校列表。", UniversityRows(ds, "").Message)
	assert.Equal(t, "“西藏”地区没有高校数据。", UniversityRows(ds, "西藏").Message)
	assert.Len(t, UniversityRows(ds, "上海").Rows, 2)
}

func TestUniversityLoadFailure(t *testing.T) {
	h := newHarness(t, "university.csv")
	v := NewUniversity(h.deps)
	require.Error(t, v.Init(context.Background()))

	table, ok := h.rec.LastPanel("university.table")
	require.True(t, ok)
	assert.Equal(t, "高校列表数据加载错误: university.csv加载失败: 文件不存在", table.(UniversityTable).Message)
	assert.True(t, h.lastMessage(t, "university.bars").IsError)
}
