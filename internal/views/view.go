package views

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"edudash/internal/chart"
	"edudash/internal/coordinator"
	"edudash/internal/csvtable"
	"edudash/internal/geomap"
	"edudash/internal/rangefilter"
)

// View names.
const (
	NameMap        = "map"
	NameQ1         = "q1"
	NameQ2         = "q2"
	NameQ3         = "q3"
	NameComparison = "comparison"
	NameAttainment = "attainment"
	NameTeacher    = "teacher"
	NameUniversity = "university"
)

// DefaultView is shown when a page connects.
const DefaultView = NameQ1

var (
	// ErrUnknownControl is returned for a control name the view does not own.
	ErrUnknownControl = errors.New("unknown control")
	// ErrInvalidControlValue is returned when a control value cannot be applied.
	ErrInvalidControlValue = errors.New("invalid control value")
	// ErrNotInitialized is returned when a control arrives before Init succeeded.
	ErrNotInitialized = errors.New("view not initialized")
)

// View is one dashboard section.
type View interface {
	Name() string
	Title() string
	// Init loads data, renders the first frame and subscribes to region changes.
	// It is called once, on first activation.
	Init(ctx context.Context) error
	Resize() error
	// Control applies a change to one of the view's own controls and re-renders.
	Control(ctx context.Context, name, value string) error
	// Bounds returns the current range-filter state, if the view has one.
	Bounds() []rangefilter.ControlState
}

// Loader returns parsed datasets by name. datasets.Catalog and datasets.Loader
// both satisfy it.
type Loader interface {
	Load(ctx context.Context, name string) (*csvtable.Dataset, error)
}

// MapSource returns the region geometry for the choropleth.
type MapSource interface {
	Map(ctx context.Context) (*geomap.Map, error)
}

// Deps are the collaborators shared by every view of one page.
type Deps struct {
	Data    Loader
	Geo     MapSource
	Bus     *coordinator.Bus
	Surface *chart.Surface
	// Active reports whether the named view is visible. Nil means always visible.
	Active func(view string) bool
	Logger *slog.Logger
}

type base struct {
	name   string
	title  string
	label  string
	deps   Deps
	logger *slog.Logger
	ready  bool
}

func newBase(name, title, label string, deps Deps) base {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return base{
		name:   name,
		title:  title,
		label:  label,
		deps:   deps,
		logger: logger.With(slog.String("view", name)),
	}
}

func (b *base) Name() string  { return b.name }
func (b *base) Title() string { return b.title }

func (b *base) Bounds() []rangefilter.ControlState { return nil }

func (b *base) active() bool {
	return b.deps.Active == nil || b.deps.Active(b.name)
}

func (b *base) chart(part string) chart.Chart {
	return b.deps.Surface.Chart(b.name + "." + part)
}

func (b *base) panel(part string) chart.Panel {
	return b.deps.Surface.Panel(b.name + "." + part)
}

func (b *base) region() string {
	if b.deps.Bus == nil {
		return coordinator.AllRegions
	}
	return b.deps.Bus.LastRegion()
}

// load fetches dataset with a loading indicator on c. On failure the error replaces
// the chart area and is returned.
func (b *base) load(ctx context.Context, c chart.Chart, dataset, loadingText string) (*csvtable.Dataset, error) {
	if chart.Guard(c) {
		_ = c.ShowLoading(loadingText)
	}
	ds, err := b.deps.Data.Load(ctx, dataset)
	if chart.Guard(c) {
		_ = c.HideLoading()
	}
	if err != nil {
		b.fail(c, err)
		return nil, err
	}
	return ds, nil
}

func (b *base) fail(c chart.Chart, err error) {
	b.logger.Warn("view data unavailable", slog.String("error", err.Error()))
	if chart.Guard(c) {
		_ = c.ShowMessage(fmt.Sprintf("%s数据加载错误: %s", b.label, errorText(err)), true)
	}
}

func (b *base) requireReady() error {
	if !b.ready {
		return fmt.Errorf("%s: %w", b.name, ErrNotInitialized)
	}
	return nil
}

func (b *base) unknownControl(name string) error {
	return fmt.Errorf("%s control %q: %w", b.name, name, ErrUnknownControl)
}

func invalidValue(control, value string) error {
	return fmt.Errorf("%s=%q: %w", control, value, ErrInvalidControlValue)
}

// errorText prefers the human-readable message of a load error.
func errorText(err error) string {
	var loadErr *csvtable.LoadError
	if errors.As(err, &loadErr) && loadErr.Message != "" {
		return loadErr.Message
	}
	return err.Error()
}

// applyRangeControl handles "<column>.min" and "<column>.max" for set.
func applyRangeControl(set *rangefilter.Set, name, value string) (bool, error) {
	column, bound, ok := cutLast(name, ".")
	if !ok || !set.Has(column) {
		return false, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return true, invalidValue(name, value)
	}
	switch bound {
	case "min":
		return true, set.SetMin(column, f)
	case "max":
		return true, set.SetMax(column, f)
	default:
		return false, nil
	}
}

func cutLast(s, sep string) (before, after string, found bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}

func oneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

func indexOf(items []string, v string) int {
	for i, item := range items {
		if item == v {
			return i
		}
	}
	return -1
}

// splitList parses a comma separated control value, dropping blanks.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func round(f float64, digits int) float64 {
	s := strconv.FormatFloat(f, 'f', digits, 64)
	r, _ := strconv.ParseFloat(s, 64)
	return r
}

func placeholder(c chart.Chart, text string) {
	if !chart.Guard(c) {
		return
	}
	_ = c.Clear()
	_ = c.SetOption(chart.Option{Title: &chart.Title{Text: text, Left: "center", Top: "center"}}, false)
}

func categoryAxis(data []string, rotate int) chart.Axis {
	return chart.Axis{Type: "category", Data: data, AxisLabel: &chart.AxisLabel{Interval: chart.Int(0), Rotate: rotate}}
}

func shadowTooltip() *chart.Tooltip {
	return &chart.Tooltip{Trigger: "axis", AxisPointer: &chart.AxisPointer{Type: "shadow"}}
}

// highlightRow downplays everything, then highlights dataIndex across the given
// number of series when region is a concrete selection.
func highlightRow(c chart.Chart, categories []string, region string, seriesCount int, showTip bool) {
	if !chart.Guard(c) {
		return
	}
	_ = c.DispatchAction(chart.Downplay())
	if region == "" || region == coordinator.AllRegions {
		return
	}
	idx := indexOf(categories, region)
	if idx < 0 {
		return
	}
	for i := 0; i < seriesCount; i++ {
		_ = c.DispatchAction(chart.HighlightPoint(chart.ActionHighlight, i, idx))
	}
	if showTip {
		_ = c.DispatchAction(chart.HighlightPoint(chart.ActionShowTip, 0, idx))
	}
}
