package chart

import (
	"sync"

	"edudash/pkg/contracts/events"
)

// Recorder keeps every emitted command in order. It backs the CLI's render
// command and the view tests.
type Recorder struct {
	mu       sync.Mutex
	commands []events.ChartCommand
}

// NewRecordingSurface returns a surface whose commands land in the returned Recorder.
func NewRecordingSurface() (*Surface, *Recorder) {
	rec := &Recorder{}
	return NewSurface(rec.Emit, nil), rec
}

// Emit records cmd. It never fails.
func (r *Recorder) Emit(cmd events.ChartCommand) error {
	r.mu.Lock()
	r.commands = append(r.commands, cmd)
	r.mu.Unlock()
	return nil
}

// Commands returns a copy of the log.
func (r *Recorder) Commands() []events.ChartCommand {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.ChartCommand, len(r.commands))
	copy(out, r.commands)
	return out
}

// For returns the commands sent to chart or panel id.
func (r *Recorder) For(id string) []events.ChartCommand {
	var out []events.ChartCommand
	for _, cmd := range r.Commands() {
		if cmd.Chart == id {
			out = append(out, cmd)
		}
	}
	return out
}

// Last returns the most recent command of the given kind for id.
func (r *Recorder) Last(id, command string) (events.ChartCommand, bool) {
	cmds := r.For(id)
	for i := len(cmds) - 1; i >= 0; i-- {
		if cmds[i].Command == command {
			return cmds[i], true
		}
	}
	return events.ChartCommand{}, false
}

// LastOption returns the most recent option set on id.
func (r *Recorder) LastOption(id string) (Option, bool) {
	cmd, ok := r.Last(id, events.CommandSetOption)
	if !ok {
		return Option{}, false
	}
	opt, ok := cmd.Option.(Option)
	return opt, ok
}

// LastPanel returns the most recent panel content sent to id.
func (r *Recorder) LastPanel(id string) (any, bool) {
	cmd, ok := r.Last(id, events.CommandUpdatePanel)
	if !ok {
		return nil, false
	}
	return cmd.Panel, true
}

// Actions returns the actions dispatched on id, in order.
func (r *Recorder) Actions(id string) []Action {
	var out []Action
	for _, cmd := range r.For(id) {
		if cmd.Command != events.CommandDispatchAction {
			continue
		}
		if a, ok := cmd.Action.(Action); ok {
			out = append(out, a)
		}
	}
	return out
}

// Reset clears the log.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.commands = nil
	r.mu.Unlock()
}
