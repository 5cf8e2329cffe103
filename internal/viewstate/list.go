package viewstate

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shophub/storefront/pkg/logger"
)

// DefaultError is used when a failed fetch carries no message and no
// WithDefaultError option was given.
const DefaultError = "Failed to load data"

// FetchFunc loads the full list.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// Option configures a List.
type Option func(*options)

type options struct {
	defaultErr string
	logger     *slog.Logger
}

// WithDefaultError sets the message stored when a fetch fails with an error
// whose message is empty.
func WithDefaultError(msg string) Option {
	return func(o *options) { o.defaultErr = msg }
}

// WithLogger sets the logger used for fetch outcomes.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// List is the adapter for one remote list. It is safe for concurrent use.
//
// Every fetch is tagged with a sequence number; a result is applied only if
// its fetch is still the latest one issued, so a slow stale response can
// never overwrite a newer one.
type List[T any] struct {
	name  string
	fetch FetchFunc[T]
	opts  options

	mu        sync.Mutex
	data      []T
	loading   bool
	err       string
	hasErr    bool
	issued    uint64
	version   uint64
	started   bool
	observers map[uint64]func(State[T])
	nextObs   uint64
}

// NewList creates an idle adapter. Nothing is fetched until Start.
func NewList[T any](name string, fetch FetchFunc[T], opts ...Option) *List[T] {
	o := options{defaultErr: DefaultError, logger: logger.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	return &List[T]{
		name:      name,
		fetch:     fetch,
		opts:      o,
		data:      []T{},
		observers: make(map[uint64]func(State[T])),
	}
}

// Name returns the adapter name used in logs and metrics.
func (l *List[T]) Name() string {
	return l.name
}

// Start activates the adapter and runs the first fetch. Later calls return
// the current snapshot without fetching. A concurrent caller never sees a
// started adapter that is not yet loading.
func (l *List[T]) Start(ctx context.Context) State[T] {
	l.mu.Lock()
	if l.started {
		s := l.snapshotLocked()
		l.mu.Unlock()
		return s
	}
	return l.refetchLocked(ctx)
}

// Started reports whether Start has been called.
func (l *List[T]) Started() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.started
}

// Refetch reloads the list and returns the state after the attempt. If a
// newer fetch was issued meanwhile, this attempt's result is dropped and the
// returned state still shows the newer fetch as loading.
func (l *List[T]) Refetch(ctx context.Context) State[T] {
	l.mu.Lock()
	return l.refetchLocked(ctx)
}

// refetchLocked issues a fetch. It must be called with l.mu held and
// releases it.
func (l *List[T]) refetchLocked(ctx context.Context) State[T] {
	l.started = true
	l.issued++
	seq := l.issued
	l.loading = true
	l.err, l.hasErr = "", false
	begin, observers := l.transitionLocked()
	l.mu.Unlock()
	notify(observers, begin)

	data, err := l.fetch(ctx)

	l.mu.Lock()
	if seq != l.issued {
		s := l.snapshotLocked()
		l.mu.Unlock()
		fetchesTotal.WithLabelValues(l.name, resultStale).Inc()
		l.log(ctx).Debug("discarded stale list response",
			slog.String("list", l.name),
			slog.Uint64("seq", seq),
			slog.Uint64("latest", s.Seq),
		)
		return s
	}

	l.loading = false
	if err != nil {
		l.data = []T{}
		l.hasErr = true
		l.err = err.Error()
		if l.err == "" {
			l.err = l.opts.defaultErr
		}
	} else {
		if data == nil {
			data = []T{}
		}
		l.data = data
	}
	end, observers := l.transitionLocked()
	l.mu.Unlock()

	if err != nil {
		fetchesTotal.WithLabelValues(l.name, resultError).Inc()
		l.log(ctx).Warn("list fetch failed",
			slog.String("list", l.name),
			slog.Uint64("seq", seq),
			slog.String("error", err.Error()),
		)
	} else {
		fetchesTotal.WithLabelValues(l.name, resultSuccess).Inc()
	}

	notify(observers, end)
	return end
}

// Remove drops every item for which match returns true, without any network
// call. It reports how many items were removed.
func (l *List[T]) Remove(match func(T) bool) int {
	l.mu.Lock()
	kept := make([]T, 0, len(l.data))
	for _, item := range l.data {
		if !match(item) {
			kept = append(kept, item)
		}
	}
	removed := len(l.data) - len(kept)
	if removed == 0 {
		l.mu.Unlock()
		return 0
	}
	l.data = kept
	s, observers := l.transitionLocked()
	l.mu.Unlock()

	notify(observers, s)
	return removed
}

// Snapshot returns a copy of the current state.
func (l *List[T]) Snapshot() State[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

// Subscribe registers fn to be called after every transition. The returned
// function unregisters it. fn runs outside the adapter lock.
func (l *List[T]) Subscribe(fn func(State[T])) (cancel func()) {
	l.mu.Lock()
	id := l.nextObs
	l.nextObs++
	l.observers[id] = fn
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.observers, id)
			l.mu.Unlock()
		})
	}
}

func (l *List[T]) snapshotLocked() State[T] {
	data := make([]T, len(l.data))
	copy(data, l.data)
	return State[T]{
		Data:     data,
		Loading:  l.loading,
		Err:      l.err,
		HasError: l.hasErr,
		Seq:      l.issued,
		Version:  l.version,
	}
}

func (l *List[T]) transitionLocked() (State[T], []func(State[T])) {
	l.version++
	observers := make([]func(State[T]), 0, len(l.observers))
	for _, fn := range l.observers {
		observers = append(observers, fn)
	}
	return l.snapshotLocked(), observers
}

func (l *List[T]) log(ctx context.Context) *slog.Logger {
	return logger.WithContext(ctx, l.opts.logger)
}

func notify[T any](observers []func(State[T]), s State[T]) {
	for _, fn := range observers {
		fn(s)
	}
}
