// Package chart is the seam between the views and the charting library that lives
// in the page. A Chart mirrors the library's instance methods; every call becomes
// an events.ChartCommand delivered through an Emitter.
package chart

import (
	"errors"
	"strings"
	"sync"

	"edudash/pkg/contracts/events"
)

// ErrDisposed is returned by every call on a disposed chart.
var ErrDisposed = errors.New("chart disposed")

// Chart is one chart instance in the page.
type Chart interface {
	ID() string
	SetOption(opt Option, notMerge bool) error
	DispatchAction(action Action) error
	Resize() error
	Clear() error
	ShowLoading(text string) error
	HideLoading() error
	// ShowMessage replaces the chart area with an inline message.
	ShowMessage(text string, isError bool) error
	RegisterMap(name string, geoJSON []byte) error
	Dispose() error
	IsDisposed() bool
}

// Panel is a non-chart page area such as a side info box, a table or a selector.
type Panel interface {
	ID() string
	Update(data any) error
}

// Guard reports whether c can still be drawn on.
func Guard(c Chart) bool {
	return c != nil && !c.IsDisposed()
}

// Emitter delivers one command to the page.
type Emitter func(cmd events.ChartCommand) error

// Observer is told about every command that was emitted successfully.
type Observer func(view, command string)

// Surface hands out the charts and panels of one page. Charts are created on first
// request and reused afterwards.
type Surface struct {
	emit     Emitter
	observer Observer

	mu     sync.Mutex
	charts map[string]*Remote
	panels map[string]*remotePanel
}

// NewSurface creates a surface that emits through emit. observer may be nil.
func NewSurface(emit Emitter, observer Observer) *Surface {
	return &Surface{
		emit:     emit,
		observer: observer,
		charts:   make(map[string]*Remote),
		panels:   make(map[string]*remotePanel),
	}
}

// Chart returns the chart with id, creating it if needed.
func (s *Surface) Chart(id string) Chart {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.charts[id]; ok {
		return c
	}
	c := &Remote{id: id, view: viewOf(id), surface: s}
	s.charts[id] = c
	return c
}

// Panel returns the panel with id, creating it if needed.
func (s *Surface) Panel(id string) Panel {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.panels[id]; ok {
		return p
	}
	p := &remotePanel{id: id, surface: s}
	s.panels[id] = p
	return p
}

// Dispose disposes every chart created so far.
func (s *Surface) Dispose() {
	s.mu.Lock()
	charts := make([]*Remote, 0, len(s.charts))
	for _, c := range s.charts {
		charts = append(charts, c)
	}
	s.mu.Unlock()

	for _, c := range charts {
		_ = c.Dispose()
	}
}

func (s *Surface) send(view string, cmd events.ChartCommand) error {
	if err := s.emit(cmd); err != nil {
		return err
	}
	if s.observer != nil {
		s.observer(view, cmd.Command)
	}
	return nil
}

// viewOf maps a chart id such as "teacher.education-pie" to its view name.
func viewOf(id string) string {
	view, _, _ := strings.Cut(id, ".")
	return view
}
