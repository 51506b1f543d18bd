// Package session holds the server side of one dashboard page: its coordinator,
// its views and the router that switches between them. Chart calls made by the
// views travel to the page as chart:command messages.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"edudash/internal/chart"
	"edudash/internal/coordinator"
	"edudash/internal/csvtable"
	"edudash/internal/infrastructure"
	"edudash/internal/router"
	"edudash/internal/views"
	"edudash/pkg/contracts"
	"edudash/pkg/contracts/events"
)

// Error codes sent in view:error.
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeUnknownMessage      = "UNKNOWN_MESSAGE"
	CodeUnknownView         = "UNKNOWN_VIEW"
	CodeUnknownControl      = "UNKNOWN_CONTROL"
	CodeInvalidControlValue = "INVALID_CONTROL_VALUE"
	CodeNotInitialized      = "VIEW_NOT_INITIALIZED"
	CodeViewInitFailed      = "VIEW_INIT_FAILED"
	CodeInternal            = "INTERNAL_ERROR"
)

// Sender delivers one message to the page. *websocket.Client implements it.
type Sender interface {
	Send(msgType events.MessageType, data interface{}) error
}

// Deps are the process-wide collaborators shared by every session.
type Deps struct {
	Data     views.Loader
	Geo      views.MapSource
	Metrics  *infrastructure.BusinessMetrics
	Validate *validator.Validate
	Logger   *slog.Logger
}

// Session is one connected page. Its methods are called from the page's read
// pump and are not safe for concurrent use.
type Session struct {
	id       string
	out      Sender
	bus      *coordinator.Bus
	surface  *chart.Surface
	router   *router.Router
	pinned   *views.Map
	validate *validator.Validate
	metrics  *infrastructure.BusinessMetrics
	logger   *slog.Logger
	closed   bool
}

// New builds the page's views and registers them with its router. Nothing is
// loaded until Open.
func New(id string, out Sender, deps Deps) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = logger.With(slog.String("component", "session"), slog.String("session_id", id))
	validate := deps.Validate
	if validate == nil {
		validate = validator.New()
	}

	s := &Session{
		id:       id,
		out:      out,
		bus:      coordinator.New(logger),
		router:   router.New(deps.Metrics, logger),
		validate: validate,
		metrics:  deps.Metrics,
		logger:   logger,
	}
	s.surface = chart.NewSurface(
		func(cmd events.ChartCommand) error {
			return out.Send(events.MessageTypeChartCommand, cmd)
		},
		func(view, command string) {
			infrastructure.RecordChartCommand(context.Background(), deps.Metrics, view, command)
		},
	)

	viewDeps := views.Deps{
		Data:    deps.Data,
		Geo:     deps.Geo,
		Bus:     s.bus,
		Surface: s.surface,
		Active:  s.router.IsActive,
		Logger:  logger,
	}
	// The map sits above every section, so it always counts as visible.
	mapDeps := viewDeps
	mapDeps.Active = nil
	s.pinned = views.NewMap(mapDeps)

	all := []views.View{s.pinned}
	for _, spec := range views.ScatterSpecs {
		all = append(all, views.NewScatter(spec, viewDeps))
	}
	all = append(all,
		views.NewComparison(viewDeps),
		views.NewAttainment(viewDeps),
		views.NewTeacher(viewDeps),
		views.NewUniversity(viewDeps),
	)
	for _, v := range all {
		if err := s.router.Register(v); err != nil {
			logger.Error("view registration failed", slog.String("view", v.Name()), slog.String("error", err.Error()))
		}
	}

	s.mirrorBus()
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Router exposes the page's router.
func (s *Session) Router() *router.Router { return s.router }

// Bus exposes the page's coordinator.
func (s *Session) Bus() *coordinator.Bus { return s.bus }

// mirrorBus forwards the coordination events to the page for its own widgets.
func (s *Session) mirrorBus() {
	s.bus.SubscribeDataReady(func(ev coordinator.DataReady) {
		s.reply(events.MessageTypeMapDataReady, events.MapDataReadyEvent{Regions: ev.Regions, Records: len(ev.Records)})
	})
	s.bus.SubscribeDataFailed(func(ev coordinator.DataFailed) {
		s.reply(events.MessageTypeMapDataFailed, events.MapDataFailedEvent{Message: messageOf(ev.Err)})
	})
	s.bus.SubscribeRegionChanged(func(ev coordinator.RegionChanged) {
		s.reply(events.MessageTypeGlobalRegionChanged, events.RegionChangedEvent{Region: ev.Region})
	})
}

// Open greets the page, loads the map and shows the default view.
func (s *Session) Open(ctx context.Context) {
	s.reply(events.MessageTypeConnection, events.ConnectionEvent{
		ClientID:        s.id,
		ProtocolVersion: contracts.APIVersion,
		Views:           s.router.Names(),
		DefaultView:     views.DefaultView,
	})

	s.router.MarkInitialized(views.NameMap)
	if err := s.pinned.Init(ctx); err != nil {
		s.logger.WarnContext(ctx, "map unavailable", slog.String("error", err.Error()))
	}
	s.show(ctx, views.DefaultView)
}

// HandleMessage dispatches one page message.
func (s *Session) HandleMessage(ctx context.Context, msg events.InboundMessage) {
	if s.closed {
		return
	}
	switch msg.Type {
	case events.MessageTypeViewShow:
		var req events.ViewShowRequest
		if !s.decode(ctx, msg, &req) {
			return
		}
		s.show(ctx, req.View)

	case events.MessageTypeRegionSelect:
		var req events.RegionSelectRequest
		if !s.decode(ctx, msg, &req) {
			return
		}
		s.bus.PublishRegionChanged(req.Region)
		infrastructure.RecordRegionChange(ctx, s.metrics, s.bus.LastRegion())

	case events.MessageTypeControlSet:
		var req events.ControlSetRequest
		if !s.decode(ctx, msg, &req) {
			return
		}
		s.control(ctx, req)

	case events.MessageTypeResize:
		s.resize(ctx)

	default:
		s.fail(ctx, "", CodeUnknownMessage, fmt.Sprintf("未知的消息类型: %s", msg.Type))
	}
}

func (s *Session) decode(ctx context.Context, msg events.InboundMessage, dst interface{}) bool {
	if len(msg.Data) == 0 {
		msg.Data = json.RawMessage("{}")
	}
	if err := json.Unmarshal(msg.Data, dst); err != nil {
		s.fail(ctx, "", CodeInvalidRequest, "请求格式错误")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.fail(ctx, "", CodeInvalidRequest, err.Error())
		return false
	}
	return true
}

func (s *Session) show(ctx context.Context, name string) {
	first, err := s.router.Show(ctx, name)
	if err != nil && errors.Is(err, router.ErrUnknownView) {
		s.fail(ctx, name, CodeUnknownView, fmt.Sprintf("未知视图: %s", name))
		return
	}
	// The view stays active even when its first load failed; it shows its own message.
	s.reply(events.MessageTypeViewActivated, events.ViewActivated{View: name, First: first})
	if err != nil {
		code := CodeInternal
		if first {
			code = CodeViewInitFailed
		}
		s.fail(ctx, name, code, messageOf(err))
	}
}

func (s *Session) control(ctx context.Context, req events.ControlSetRequest) {
	v, err := s.router.Get(req.View)
	if err != nil {
		s.fail(ctx, req.View, CodeUnknownView, fmt.Sprintf("未知视图: %s", req.View))
		return
	}
	if err := v.Control(ctx, req.Control, req.Value); err != nil {
		s.fail(ctx, req.View, controlCode(err), err.Error())
	}
}

func (s *Session) resize(ctx context.Context) {
	targets := []string{views.NameMap}
	if active := s.router.Active(); active != "" && active != views.NameMap {
		targets = append(targets, active)
	}
	for _, name := range targets {
		v, err := s.router.Get(name)
		if err != nil {
			continue
		}
		if err := v.Resize(); err != nil {
			s.logger.DebugContext(ctx, "resize skipped", slog.String("view", name), slog.String("error", err.Error()))
		}
	}
}

// Close disposes every chart of the page.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.surface.Dispose()
	s.logger.Info("session closed", slog.String("active_view", s.router.Active()))
}

func (s *Session) reply(msgType events.MessageType, data interface{}) {
	if s.closed {
		return
	}
	if err := s.out.Send(msgType, data); err != nil {
		s.logger.Warn("message not delivered", slog.String("type", string(msgType)), slog.String("error", err.Error()))
	}
}

func (s *Session) fail(ctx context.Context, view, code, message string) {
	s.logger.InfoContext(ctx, "page request rejected",
		slog.String("view", view),
		slog.String("code", code),
		slog.String("message", message))
	s.reply(events.MessageTypeViewError, events.ViewError{View: view, Code: code, Message: message})
}

func controlCode(err error) string {
	switch {
	case errors.Is(err, views.ErrUnknownControl):
		return CodeUnknownControl
	case errors.Is(err, views.ErrInvalidControlValue):
		return CodeInvalidControlValue
	case errors.Is(err, views.ErrNotInitialized):
		return CodeNotInitialized
	default:
		return CodeInternal
	}
}

// messageOf prefers the readable message of a load error.
func messageOf(err error) string {
	var loadErr *csvtable.LoadError
	if errors.As(err, &loadErr) && loadErr.Message != "" {
		return loadErr.Message
	}
	return err.Error()
}
