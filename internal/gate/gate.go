// Package gate provides a one-slot suspend/resume/abort primitive.
//
// A Gate is open until Lock arms a pending signal. Waiters that arrive while
// the signal is armed queue on it and are released in arrival order when the
// signal settles: Unlock lets them continue, Cancel rejects them with a
// reason. Settling reopens the gate. Once released, waiters are not
// serialized against each other.
package gate

import (
	"context"
	"sync"
)

// Gate is safe for concurrent use. The zero value is an open gate.
type Gate struct {
	mu  sync.Mutex
	sig *signal
}

// signal is one armed pause. It settles exactly once.
type signal struct {
	waiters []chan struct{}
	err     error
	settled bool
}

// New returns an open Gate.
func New() *Gate {
	return &Gate{}
}

// Lock arms the gate. Locking an already locked gate keeps the armed signal,
// so waiters queued on it settle with the next Unlock or Cancel, and
// returns false.
func (g *Gate) Lock() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.sig != nil {
		return false
	}
	g.sig = &signal{}
	return true
}

// Unlock releases every waiter and reopens the gate. It returns false if the
// gate was already open.
func (g *Gate) Unlock() bool {
	return g.settle(nil)
}

// Cancel rejects every waiter with reason (ErrCanceled when nil) and reopens
// the gate. It returns false if the gate was already open.
func (g *Gate) Cancel(reason error) bool {
	if reason == nil {
		reason = ErrCanceled
	}
	return g.settle(reason)
}

// Locked reports whether a signal is armed.
func (g *Gate) Locked() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sig != nil
}

// Waiting returns the number of waiters queued on the armed signal.
func (g *Gate) Waiting() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sig == nil {
		return 0
	}
	return len(g.sig.waiters)
}

// Ticket is a waiter's place on an armed signal. A nil *Ticket stands for
// an open gate: Wait returns nil at once and Position reports -1.
type Ticket struct {
	g   *Gate
	sig *signal
	ch  chan struct{}
}

// Enqueue registers a waiter on the armed signal and returns its ticket, or
// nil when the gate is open. Registration happens before Enqueue returns, so
// a later Unlock or Cancel always settles the ticket. Tickets are released in
// Enqueue order.
func (g *Gate) Enqueue() *Ticket {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.sig == nil {
		return nil
	}
	t := &Ticket{g: g, sig: g.sig, ch: make(chan struct{})}
	g.sig.waiters = append(g.sig.waiters, t.ch)
	return t
}

// Wait is Enqueue followed by Ticket.Wait.
func (g *Gate) Wait(ctx context.Context) error {
	return g.Enqueue().Wait(ctx)
}

// Wait blocks until the ticket's signal settles, returning the cancel reason
// if it was rejected, or until ctx is done, returning ctx.Err() and giving up
// the ticket's place.
func (t *Ticket) Wait(ctx context.Context) error {
	if t == nil {
		return nil
	}

	select {
	case <-t.ch:
		return t.sig.err
	case <-ctx.Done():
		t.g.mu.Lock()
		defer t.g.mu.Unlock()
		if t.sig.settled {
			// Lost the race with settle; honor the signal.
			return t.sig.err
		}
		t.sig.remove(t.ch)
		return ctx.Err()
	}
}

// Position returns the ticket's zero-based place in the release order, or -1
// once it has been released, withdrawn or was never queued.
func (t *Ticket) Position() int {
	if t == nil {
		return -1
	}
	t.g.mu.Lock()
	defer t.g.mu.Unlock()

	for i, ch := range t.sig.waiters {
		if ch == t.ch {
			return i
		}
	}
	return -1
}

func (g *Gate) settle(err error) bool {
	g.mu.Lock()
	sig := g.sig
	if sig == nil {
		g.mu.Unlock()
		return false
	}
	g.sig = nil
	sig.err = err
	sig.settled = true
	waiters := sig.waiters
	sig.waiters = nil
	g.mu.Unlock()

	for _, ch := range waiters {
		close(ch)
	}
	return true
}

func (s *signal) remove(ch chan struct{}) {
	for i, w := range s.waiters {
		if w == ch {
			s.waiters = append(s.waiters[:i], s.waiters[i+1:]...)
			return
		}
	}
}
