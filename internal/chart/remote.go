package chart

import (
	"sync"

	"edudash/pkg/contracts/events"
)

// Remote is a Chart whose calls are emitted as commands.
type Remote struct {
	id      string
	view    string
	surface *Surface

	mu       sync.Mutex
	disposed bool
}

func (c *Remote) ID() string { return c.id }

func (c *Remote) send(cmd events.ChartCommand) error {
	c.mu.Lock()
	disposed := c.disposed
	c.mu.Unlock()
	if disposed {
		return ErrDisposed
	}
	cmd.Chart = c.id
	return c.surface.send(c.view, cmd)
}

func (c *Remote) SetOption(opt Option, notMerge bool) error {
	return c.send(events.ChartCommand{Command: events.CommandSetOption, Option: opt, NotMerge: notMerge})
}

func (c *Remote) DispatchAction(action Action) error {
	return c.send(events.ChartCommand{Command: events.CommandDispatchAction, Action: action})
}

func (c *Remote) Resize() error {
	return c.send(events.ChartCommand{Command: events.CommandResize})
}

func (c *Remote) Clear() error {
	return c.send(events.ChartCommand{Command: events.CommandClear})
}

func (c *Remote) ShowLoading(text string) error {
	return c.send(events.ChartCommand{Command: events.CommandShowLoading, Text: text})
}

func (c *Remote) HideLoading() error {
	return c.send(events.ChartCommand{Command: events.CommandHideLoading})
}

func (c *Remote) ShowMessage(text string, isError bool) error {
	return c.send(events.ChartCommand{Command: events.CommandShowMessage, Text: text, IsError: isError})
}

func (c *Remote) RegisterMap(name string, geoJSON []byte) error {
	return c.send(events.ChartCommand{Command: events.CommandRegisterMap, MapName: name, GeoJSON: geoJSON})
}

// Dispose emits a dispose command once; later calls return ErrDisposed.
func (c *Remote) Dispose() error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return ErrDisposed
	}
	c.disposed = true
	c.mu.Unlock()
	return c.surface.send(c.view, events.ChartCommand{Chart: c.id, Command: events.CommandDispose})
}

func (c *Remote) IsDisposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

type remotePanel struct {
	id      string
	surface *Surface
}

func (p *remotePanel) ID() string { return p.id }

func (p *remotePanel) Update(data any) error {
	return p.surface.send(viewOf(p.id), events.ChartCommand{
		Chart:   p.id,
		Command: events.CommandUpdatePanel,
		Panel:   data,
	})
}
