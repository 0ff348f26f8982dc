package sequencer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/angelmondragon/cartflow/internal/remote"
	"github.com/angelmondragon/cartflow/internal/session"
	pkgerrors "github.com/angelmondragon/cartflow/pkg/errors"
	"github.com/angelmondragon/cartflow/pkg/logger"
	"github.com/angelmondragon/cartflow/pkg/metrics"
	"github.com/angelmondragon/cartflow/pkg/types"
)

const defaultStepTimeout = 15 * time.Second

type task struct {
	seq      uint64
	mutation Mutation
	done     chan outcome
}

// Params wires a sequencer's collaborators.
type Params struct {
	Remote  remote.Service
	Session *session.Manager
	Logger  *logger.Logger
	Metrics *metrics.SequencerMetrics

	// StepTimeout bounds each remote call; a timed-out step fails that
	// mutation and the queue advances.
	StepTimeout time.Duration
}

// Sequencer serializes cart mutations into strict submission order with
// at most one in flight against the remote service. It owns the cached
// cart handle and snapshot; everything else reads them through the
// accessors.
type Sequencer struct {
	remote      remote.Service
	session     *session.Manager
	logg        *logger.Logger
	metrics     *metrics.SequencerMetrics
	stepTimeout time.Duration

	mu      sync.Mutex
	pending []*task
	nextSeq uint64
	closed  bool
	wake    chan struct{}

	stateMu  sync.RWMutex
	handle   types.CartHandle
	snapshot *types.CartSnapshot

	loopDone chan struct{}
	started  bool
}

// New builds a sequencer. Start must be called before submissions run.
func New(params Params) (*Sequencer, error) {
	if params.Remote == nil {
		return nil, errors.New("remote service is required")
	}
	if params.Session == nil {
		return nil, errors.New("session manager is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	timeout := params.StepTimeout
	if timeout <= 0 {
		timeout = defaultStepTimeout
	}
	return &Sequencer{
		remote:      params.Remote,
		session:     params.Session,
		logg:        params.Logger,
		metrics:     params.Metrics,
		stepTimeout: timeout,
		wake:        make(chan struct{}, 1),
		loopDone:    make(chan struct{}),
	}, nil
}

// Adopt seeds the cached state, typically with the result of session
// recovery. It must be called before Start.
func (s *Sequencer) Adopt(snapshot *types.CartSnapshot) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.snapshot = snapshot
	s.handle = snapshot.Handle()
}

// Start launches the execution loop. The loop runs until ctx is
// canceled or Close is called; either way every pending submitter is
// released.
func (s *Sequencer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("sequencer already started")
	}
	s.started = true
	s.mu.Unlock()

	go s.loop(ctx)
	return nil
}

// Close stops accepting submissions, lets the already-queued mutations
// drain in order and waits for the loop to exit.
func (s *Sequencer) Close() error {
	s.mu.Lock()
	alreadyClosed := s.closed
	s.closed = true
	started := s.started
	s.mu.Unlock()

	if alreadyClosed || !started {
		s.failPending()
		return nil
	}

	s.signal()
	<-s.loopDone
	return nil
}

// Submit appends the mutation to the tail of the queue and returns a
// ticket for awaiting exactly that mutation's result.
func (s *Sequencer) Submit(ctx context.Context, mutation Mutation) (*Ticket, error) {
	if mutation == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mutation is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeSequencerClosed, "sequencer is closed")
	}
	s.nextSeq++
	entry := &task{
		seq:      s.nextSeq,
		mutation: mutation,
		done:     make(chan outcome, 1),
	}
	s.pending = append(s.pending, entry)
	depth := len(s.pending)
	s.mu.Unlock()

	s.metrics.SetQueueDepth(depth)
	s.signal()

	return &Ticket{seq: entry.seq, done: entry.done}, nil
}

// Snapshot returns a copy of the last snapshot the loop cached, or nil
// when no cart exists.
func (s *Sequencer) Snapshot() *types.CartSnapshot {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	if s.snapshot == nil {
		return nil
	}
	copied := *s.snapshot
	copied.Items = append([]types.CartItem(nil), s.snapshot.Items...)
	return &copied
}

// Handle returns the current cart identity.
func (s *Sequencer) Handle() types.CartHandle {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.handle
}

func (s *Sequencer) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Sequencer) loop(ctx context.Context) {
	defer close(s.loopDone)

	for {
		entry, closed := s.take()
		if closed && entry == nil {
			s.failPending()
			return
		}
		if entry == nil {
			select {
			case <-ctx.Done():
				s.markClosed()
				s.failPending()
				return
			case <-s.wake:
				continue
			}
		}

		s.execute(ctx, entry)
	}
}

// take pops the head of the queue. It reports closed once the sequencer
// stops accepting work and the queue has drained.
func (s *Sequencer) take() (*task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil, s.closed
	}
	entry := s.pending[0]
	s.pending = s.pending[1:]
	s.metrics.SetQueueDepth(len(s.pending))
	return entry, false
}

func (s *Sequencer) markClosed() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *Sequencer) failPending() {
	s.mu.Lock()
	leftover := s.pending
	s.pending = nil
	s.mu.Unlock()

	s.metrics.SetQueueDepth(0)
	for _, entry := range leftover {
		entry.done <- outcome{err: pkgerrors.New(pkgerrors.CodeSequencerClosed, "sequencer shut down before execution")}
	}
}

func (s *Sequencer) execute(ctx context.Context, entry *task) {
	kind := entry.mutation.Kind().String()
	logCtx := s.logg.WithMutation(ctx, kind, entry.seq)

	handle := s.Handle()
	if handle.Expired(time.Now()) {
		// A cart known to be past its expiry gets no remote call; the
		// session resets to empty and item mutations bootstrap fresh.
		s.logg.Info(s.logg.WithCartID(logCtx, handle.CartID), "cached cart expired; starting empty")
		s.reset(logCtx)
		handle = types.CartHandle{}
	}
	if !handle.IsZero() {
		logCtx = s.logg.WithCartID(logCtx, handle.CartID)
	}

	started := time.Now()
	snapshot, err := s.run(logCtx, handle, entry.mutation)
	s.metrics.ObserveDuration(kind, time.Since(started))

	if err != nil {
		s.metrics.IncFailure(kind)
		if pkgerrors.Is(err, pkgerrors.CodeNotFound) {
			s.reset(logCtx)
			s.logg.Warn(logCtx, "cart no longer exists; cleared identity")
		} else {
			s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "cart mutation failed")
		}
		entry.done <- outcome{err: err}
		return
	}

	if snapshot != nil {
		s.adoptSnapshot(logCtx, snapshot)
	}
	s.metrics.IncSuccess(kind)
	s.logg.Info(logCtx, "cart mutation applied")
	entry.done <- outcome{snapshot: s.Snapshot()}
}

// run issues the remote call for one mutation using the cart id cached
// at the moment the mutation reached the head of the queue.
func (s *Sequencer) run(ctx context.Context, handle types.CartHandle, mutation Mutation) (*types.CartSnapshot, error) {
	stepCtx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()

	if handle.IsZero() {
		if !mutation.canBootstrap() {
			if item, ok := mutation.(SetItem); ok && item.Quantity <= 0 {
				// Removing a line from a cart that does not exist is a
				// no-op, not an error.
				return nil, nil
			}
			return nil, pkgerrors.New(pkgerrors.CodeNoCartAvailable, "coupon operations cannot create a cart")
		}
		item := mutation.(SetItem)
		return s.remote.CreateCart(stepCtx, []types.ItemInput{item.item()})
	}

	switch m := mutation.(type) {
	case SetItem:
		return s.remote.SetItem(stepCtx, handle.CartID, m.item())
	case ApplyCoupon:
		return s.remote.ApplyCoupon(stepCtx, handle.CartID, m.Code)
	case RemoveCoupon:
		return s.remote.RemoveCoupon(stepCtx, handle.CartID, m.Code)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "unknown mutation type")
	}
}

func (s *Sequencer) adoptSnapshot(ctx context.Context, snapshot *types.CartSnapshot) {
	s.stateMu.Lock()
	s.snapshot = snapshot
	s.handle = snapshot.Handle()
	s.stateMu.Unlock()

	if err := s.session.PersistCartID(ctx, snapshot.ID); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "failed to persist cart id")
	}
}

func (s *Sequencer) reset(ctx context.Context) {
	s.stateMu.Lock()
	s.snapshot = nil
	s.handle = types.CartHandle{}
	s.stateMu.Unlock()

	if err := s.session.ClearCartID(ctx); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "failed to clear persisted cart id")
	}
}
