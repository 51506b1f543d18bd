// Package coordinator is the typed publish/subscribe bus that keeps independently
// initialised views in sync: the map view announces its dataset (DataReady or
// DataFailed) and the global selector announces the active region (RegionChanged).
//
// DataReady and DataFailed subscriptions are subscribe-or-replay: a handler
// registered after the event fired is invoked immediately with the last payload.
// RegionChanged is not replayed; late subscribers read LastRegion instead.
// Handlers run synchronously on the publishing goroutine, in subscription order,
// without the bus lock held. There is no unsubscribe.
package coordinator

import (
	"log/slog"
	"sync"

	"edudash/internal/csvtable"
)

// AllRegions is the region sentinel meaning no specific selection.
const AllRegions = "all"

// DataReady carries the authoritative region dataset.
type DataReady struct {
	Records []csvtable.Record
	Regions []string
}

// DataFailed reports that the authoritative dataset could not be loaded.
type DataFailed struct {
	Err error
}

// RegionChanged carries the newly selected region or AllRegions.
type RegionChanged struct {
	Region string
}

type topic[T any] struct {
	handlers []func(T)
	last     *T
	replay   bool
}

func (t *topic[T]) add(fn func(T)) (T, bool) {
	t.handlers = append(t.handlers, fn)
	if t.replay && t.last != nil {
		return *t.last, true
	}
	var zero T
	return zero, false
}

func (t *topic[T]) set(v T) []func(T) {
	t.last = &v
	handlers := make([]func(T), len(t.handlers))
	copy(handlers, t.handlers)
	return handlers
}

// Bus is one page's coordination state. The zero value is not usable; call New.
type Bus struct {
	mu      sync.Mutex
	logger  *slog.Logger
	ready   topic[DataReady]
	failed  topic[DataFailed]
	changed topic[RegionChanged]
}

// New creates a bus with the region selection initialised to AllRegions.
func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bus{
		logger:  logger.With(slog.String("component", "coordinator")),
		ready:   topic[DataReady]{replay: true},
		failed:  topic[DataFailed]{replay: true},
		changed: topic[RegionChanged]{},
	}
	initial := RegionChanged{Region: AllRegions}
	b.changed.last = &initial
	return b
}

// PublishDataReady records and broadcasts the authoritative dataset.
func (b *Bus) PublishDataReady(ev DataReady) {
	b.mu.Lock()
	handlers := b.ready.set(ev)
	b.mu.Unlock()

	b.logger.Debug("data ready published",
		slog.Int("records", len(ev.Records)),
		slog.Int("regions", len(ev.Regions)),
		slog.Int("subscribers", len(handlers)))
	for _, fn := range handlers {
		fn(ev)
	}
}

// PublishDataFailed records and broadcasts a load failure.
func (b *Bus) PublishDataFailed(ev DataFailed) {
	b.mu.Lock()
	handlers := b.failed.set(ev)
	b.mu.Unlock()

	b.logger.Warn("data failure published", slog.Any("error", ev.Err), slog.Int("subscribers", len(handlers)))
	for _, fn := range handlers {
		fn(ev)
	}
}

// PublishRegionChanged updates the global selection and notifies every subscriber.
// An empty region is treated as AllRegions.
func (b *Bus) PublishRegionChanged(region string) {
	if region == "" {
		region = AllRegions
	}
	ev := RegionChanged{Region: region}

	b.mu.Lock()
	handlers := b.changed.set(ev)
	b.mu.Unlock()

	b.logger.Debug("region changed", slog.String("region", region), slog.Int("subscribers", len(handlers)))
	for _, fn := range handlers {
		fn(ev)
	}
}

// SubscribeDataReady registers fn and replays the last DataReady if there was one.
func (b *Bus) SubscribeDataReady(fn func(DataReady)) {
	b.mu.Lock()
	last, ok := b.ready.add(fn)
	b.mu.Unlock()
	if ok {
		fn(last)
	}
}

// SubscribeDataFailed registers fn and replays the last DataFailed if there was one.
func (b *Bus) SubscribeDataFailed(fn func(DataFailed)) {
	b.mu.Lock()
	last, ok := b.failed.add(fn)
	b.mu.Unlock()
	if ok {
		fn(last)
	}
}

// SubscribeRegionChanged registers fn for future region changes only.
func (b *Bus) SubscribeRegionChanged(fn func(RegionChanged)) {
	b.mu.Lock()
	b.changed.add(fn)
	b.mu.Unlock()
}

// LastDataReady returns the cached DataReady payload, if any.
func (b *Bus) LastDataReady() (DataReady, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ready.last == nil {
		return DataReady{}, false
	}
	return *b.ready.last, true
}

// LastDataFailed returns the cached failure, if any.
func (b *Bus) LastDataFailed() (DataFailed, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failed.last == nil {
		return DataFailed{}, false
	}
	return *b.failed.last, true
}

// LastRegion returns the current global region selection.
func (b *Bus) LastRegion() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.changed.last.Region
}
