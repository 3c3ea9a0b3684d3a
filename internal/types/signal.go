package types

import "sync"

// WaitSignal is a one-shot completion gate: one producer calls Set, any
// number of readers block in Wait until then. The zero value is ready to use.
type WaitSignal struct {
	init sync.Once
	set  sync.Once
	ch   chan struct{}
}

func (s *WaitSignal) done() chan struct{} {
	s.init.Do(func() { s.ch = make(chan struct{}) })
	return s.ch
}

// Set releases every current and future waiter. Only the first call counts.
func (s *WaitSignal) Set() {
	s.set.Do(func() { close(s.done()) })
}

// Wait blocks until Set was called.
func (s *WaitSignal) Wait() {
	<-s.done()
}

// Ready reports whether Set was called, without blocking.
func (s *WaitSignal) Ready() bool {
	select {
	case <-s.done():
		return true
	default:
		return false
	}
}

// Done exposes the gate for select statements.
func (s *WaitSignal) Done() <-chan struct{} { return s.done() }
