package audio

import (
	"context"
	"errors"
	"sync"
)

// Causes attached to a stream's context when it is cut short.
var (
	ErrReplaced = errors.New("playback replaced by a newer stream")
	ErrStopped  = errors.New("playback stopped")
)

// Slot holds at most one active playback stream. Acquiring a new stream
// stops the previous one first.
type Slot struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelCauseFunc
}

// Acquire stops any active stream and returns a context for the new one.
// The returned release func stops the stream if it is still the active one.
func (s *Slot) Acquire(parent context.Context) (context.Context, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel(ErrReplaced)
	}
	ctx, cancel := context.WithCancelCause(parent)
	s.seq++
	s.cancel = cancel
	id := s.seq

	return ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		cancel(nil)
		if s.seq == id {
			s.cancel = nil
		}
	}
}

// Release stops the active stream, if any.
func (s *Slot) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel(ErrStopped)
		s.cancel = nil
	}
}

// Active reports whether a stream currently holds the slot.
func (s *Slot) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}
