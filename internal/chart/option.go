package chart

// Option is the declarative chart description sent with setOption. Field names
// follow the charting library's option schema.
type Option struct {
	Title     *Title     `json:"title,omitempty"`
	Tooltip   *Tooltip   `json:"tooltip,omitempty"`
	Legend    *Legend    `json:"legend,omitempty"`
	Grid      *Grid      `json:"grid,omitempty"`
	XAxis     []Axis     `json:"xAxis,omitempty"`
	YAxis     []Axis     `json:"yAxis,omitempty"`
	VisualMap *VisualMap `json:"visualMap,omitempty"`
	Geo       *Geo       `json:"geo,omitempty"`
	Series    []Series   `json:"series"`
}

type Title struct {
	Text    string `json:"text"`
	Subtext string `json:"subtext,omitempty"`
	Left    string `json:"left,omitempty"`
	Top     string `json:"top,omitempty"`
}

type Tooltip struct {
	Trigger     string       `json:"trigger,omitempty"`
	AxisPointer *AxisPointer `json:"axisPointer,omitempty"`
	Formatter   string       `json:"formatter,omitempty"`
}

type AxisPointer struct {
	Type string `json:"type"`
}

type Legend struct {
	Data   []string `json:"data,omitempty"`
	Bottom any      `json:"bottom,omitempty"`
	Top    any      `json:"top,omitempty"`
	Type   string   `json:"type,omitempty"`
	Orient string   `json:"orient,omitempty"`
	Left   string   `json:"left,omitempty"`
}

type Grid struct {
	Left         string `json:"left,omitempty"`
	Right        string `json:"right,omitempty"`
	Bottom       string `json:"bottom,omitempty"`
	Top          string `json:"top,omitempty"`
	ContainLabel bool   `json:"containLabel,omitempty"`
}

type Axis struct {
	Type      string     `json:"type"`
	Name      string     `json:"name,omitempty"`
	Data      []string   `json:"data,omitempty"`
	Min       *float64   `json:"min,omitempty"`
	Max       *float64   `json:"max,omitempty"`
	Scale     bool       `json:"scale,omitempty"`
	Position  string     `json:"position,omitempty"`
	Offset    int        `json:"offset,omitempty"`
	AxisLabel *AxisLabel `json:"axisLabel,omitempty"`
	SplitLine *SplitLine `json:"splitLine,omitempty"`
}

type AxisLabel struct {
	Interval  *int   `json:"interval,omitempty"`
	Rotate    int    `json:"rotate,omitempty"`
	Formatter string `json:"formatter,omitempty"`
}

type SplitLine struct {
	Show bool `json:"show"`
}

type VisualMap struct {
	Min        float64  `json:"min"`
	Max        float64  `json:"max"`
	Left       string   `json:"left,omitempty"`
	Bottom     string   `json:"bottom,omitempty"`
	Text       []string `json:"text,omitempty"`
	Calculable bool     `json:"calculable,omitempty"`
	InRange    *InRange `json:"inRange,omitempty"`
}

type InRange struct {
	Color []string `json:"color"`
}

type Geo struct {
	Map          string `json:"map"`
	Roam         bool   `json:"roam,omitempty"`
	SelectedMode string `json:"selectedMode,omitempty"`
}

type Series struct {
	Name       string     `json:"name,omitempty"`
	Type       string     `json:"type"`
	Stack      string     `json:"stack,omitempty"`
	Data       []DataItem `json:"data"`
	Label      *Label     `json:"label,omitempty"`
	Emphasis   *Emphasis  `json:"emphasis,omitempty"`
	Radius     any        `json:"radius,omitempty"`
	Center     []string   `json:"center,omitempty"`
	SymbolSize float64    `json:"symbolSize,omitempty"`
	ShowSymbol *bool      `json:"showSymbol,omitempty"`
	LineStyle  *LineStyle `json:"lineStyle,omitempty"`
	YAxisIndex int        `json:"yAxisIndex,omitempty"`
	GeoIndex   *int       `json:"geoIndex,omitempty"`
	BarGap     string     `json:"barGap,omitempty"`
	ItemStyle  *ItemStyle `json:"itemStyle,omitempty"`
}

type Label struct {
	Show      bool   `json:"show"`
	Position  string `json:"position,omitempty"`
	Formatter string `json:"formatter,omitempty"`
}

type Emphasis struct {
	Focus string `json:"focus,omitempty"`
}

type LineStyle struct {
	Type  string  `json:"type,omitempty"`
	Width float64 `json:"width,omitempty"`
}

type ItemStyle struct {
	Color string `json:"color,omitempty"`
}

// DataItem is one series datum. Value is a number, a pair, or nil for a gap.
type DataItem struct {
	Name    string       `json:"name,omitempty"`
	Value   any          `json:"value"`
	Label   *Label       `json:"label,omitempty"`
	Tooltip *ItemTooltip `json:"tooltip,omitempty"`
}

// ItemTooltip carries pre-rendered tooltip text for one datum.
type ItemTooltip struct {
	Formatter string `json:"formatter"`
}

// Action is a dispatchAction payload (highlight, downplay, select, showTip).
type Action struct {
	Type        string `json:"type"`
	SeriesIndex any    `json:"seriesIndex,omitempty"`
	DataIndex   *int   `json:"dataIndex,omitempty"`
	Name        string `json:"name,omitempty"`
}

// Action types.
const (
	ActionHighlight = "highlight"
	ActionDownplay  = "downplay"
	ActionSelect    = "select"
	ActionShowTip   = "showTip"
	ActionHideTip   = "hideTip"
)

// Float returns a pointer to f, for optional axis bounds.
func Float(f float64) *float64 { return &f }

// Int returns a pointer to i.
func Int(i int) *int { return &i }

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// Downplay clears emphasis on every series.
func Downplay() Action { return Action{Type: ActionDownplay} }

// HighlightPoint targets one datum of one series by index.
func HighlightPoint(actionType string, seriesIndex, dataIndex int) Action {
	return Action{Type: actionType, SeriesIndex: seriesIndex, DataIndex: Int(dataIndex)}
}

// HighlightName targets a datum by name, as map series need.
func HighlightName(actionType string, seriesIndex int, name string) Action {
	return Action{Type: actionType, SeriesIndex: seriesIndex, Name: name}
}
