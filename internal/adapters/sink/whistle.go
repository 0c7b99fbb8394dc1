package sink

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/okian/bout/internal/domain/model"
	"github.com/okian/bout/internal/domain/types"
)

// Whistle rings the terminal bell and prints the result when a match
// finishes. Every other notification is ignored.
type Whistle struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWhistle writes to w, normally the console's output.
func NewWhistle(w io.Writer) *Whistle {
	return &Whistle{w: w}
}

func (s *Whistle) Name() string { return "whistle" }

func (s *Whistle) Deliver(_ context.Context, n model.Notification) error { //nolint:gocritic // hugeParam: matches worker.Sink
	if n.Kind != model.NotifyMatchFinished {
		return nil
	}
	p, ok := n.Payload.(model.FinishedPayload)
	if !ok {
		return unexpected(n)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "\a[%s] %s\n", n.Table, Result(p.Snapshot.Status)); err != nil {
		return fmt.Errorf("%w: %w", ErrWhistleWrite, err)
	}
	return nil
}

// Result renders a finished status for people, e.g. "A wins by points".
func Result(st model.Status) string {
	switch {
	case !st.Finished:
		return "in progress"
	case st.Reason == types.ReasonDraw || st.Winner == nil:
		return "draw"
	default:
		return fmt.Sprintf("%s wins by %s", st.Winner, st.Reason)
	}
}
