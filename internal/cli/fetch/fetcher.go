package fetch

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/capitalhub-dev/capitalhub/internal/cli/client"
)

// GenericErrorMessage is shown for failures that carry no server message
const GenericErrorMessage = "something went wrong while loading data"

// Getter performs a GET through the request pipeline. *client.Client satisfies it.
type Getter interface {
	Get(ctx context.Context, path string, auth bool, out any) error
}

// State is what a fetcher exposes to its consumer
type State[T any] struct {
	Data      *T
	IsLoading bool
	Error     string
}

// Options configures a Fetcher
type Options[T any] struct {
	// Immediate starts the first load from New
	Immediate bool
	// OnChange is called after every state transition, outside the lock
	OnChange func(State[T])
	Logger   *zerolog.Logger
}

// Fetcher loads one authenticated resource and keeps at most one request in flight
type Fetcher[T any] struct {
	getter   Getter
	path     string
	onChange func(State[T])
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	idle     *sync.Cond
	state    State[T]
	inFlight bool
	// running counts loads whose goroutine has not returned yet
	running int
	closed  bool
}

// New creates a fetcher whose lifetime is bound to ctx
func New[T any](ctx context.Context, getter Getter, path string, opts Options[T]) *Fetcher[T] {
	lifetime, cancel := context.WithCancel(ctx)
	f := &Fetcher[T]{
		getter:   getter,
		path:     path,
		onChange: opts.OnChange,
		log:      zerolog.Nop(),
		ctx:      lifetime,
		cancel:   cancel,
	}
	f.idle = sync.NewCond(&f.mu)
	if opts.Logger != nil {
		f.log = *opts.Logger
	}
	if opts.Immediate {
		f.Refetch()
	}
	return f
}

// State returns the current state
func (f *Fetcher[T]) State() State[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Refetch starts a load. It returns false when a load is already running or
// the fetcher is closed; the call is dropped, not queued.
func (f *Fetcher[T]) Refetch() bool {
	f.mu.Lock()
	if f.closed || f.inFlight || f.ctx.Err() != nil {
		inFlight := f.inFlight
		f.mu.Unlock()
		f.log.Debug().Str("path", f.path).Bool("in_flight", inFlight).Msg("Dropping fetch")
		return false
	}
	f.inFlight = true
	f.state.IsLoading = true
	f.state.Error = ""
	snap := f.state
	f.running++
	f.mu.Unlock()

	f.notify(snap)
	go f.run()
	return true
}

// Wait blocks until no load is running. It may be called concurrently with
// Refetch; a load started while waiting is waited for too.
func (f *Fetcher[T]) Wait() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for f.running > 0 {
		f.idle.Wait()
	}
}

// Close cancels any running load and waits for it to return. Results that
// arrive afterwards are discarded.
func (f *Fetcher[T]) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()

	f.cancel()
	f.Wait()
}

func (f *Fetcher[T]) run() {
	defer f.done()

	var out T
	err := f.getter.Get(f.ctx, f.path, true, &out)

	f.mu.Lock()
	f.inFlight = false
	if f.closed || f.ctx.Err() != nil {
		f.state.IsLoading = false
		f.mu.Unlock()
		f.log.Debug().Str("path", f.path).Msg("Discarding result of cancelled fetch")
		return
	}

	f.state.IsLoading = false
	if err != nil {
		// Data keeps its previous value.
		f.state.Error = errorMessage(err)
	} else {
		f.state.Data = &out
		f.state.Error = ""
	}
	snap := f.state
	f.mu.Unlock()

	if err != nil {
		f.log.Debug().Err(err).Str("path", f.path).Msg("Fetch failed")
	}
	f.notify(snap)
}

func (f *Fetcher[T]) done() {
	f.mu.Lock()
	f.running--
	f.mu.Unlock()
	f.idle.Broadcast()
}

func (f *Fetcher[T]) notify(s State[T]) {
	if f.onChange != nil {
		f.onChange(s)
	}
}

func errorMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return GenericErrorMessage
}
