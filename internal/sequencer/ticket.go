package sequencer

import (
	"context"

	"github.com/angelmondragon/cartflow/pkg/types"
)

type outcome struct {
	snapshot *types.CartSnapshot
	err      error
}

// Ticket lets the submitter of one mutation await that mutation's
// completion, independent of the rest of the queue.
type Ticket struct {
	seq  uint64
	done chan outcome
}

// Seq returns the submission order assigned at enqueue time.
func (t *Ticket) Seq() uint64 {
	return t.seq
}

// Wait blocks until the mutation completes or ctx is canceled. A
// canceled wait abandons the result only for this caller; the mutation
// itself still executes in order.
func (t *Ticket) Wait(ctx context.Context) (*types.CartSnapshot, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-t.done:
		return res.snapshot, res.err
	}
}
