package fuzzer

import "sync"

// pauseGate is a cooperative pause/resume primitive: Pause closes the
// gate, Resume reopens it by swapping in a fresh channel, and workers
// block on it between requests. No in-flight request is interrupted —
// generalized from internal/engine/scheduler.go's Scheduler
// pauseCh/resumeCh pattern.
type pauseGate struct {
	mu       sync.Mutex
	paused   bool
	resumeCh chan struct{}
}

func newPauseGate() *pauseGate {
	return &pauseGate{resumeCh: make(chan struct{})}
}

func (g *pauseGate) Pause() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.paused = true
}

func (g *pauseGate) Resume() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.paused {
		return
	}
	g.paused = false
	close(g.resumeCh)
	g.resumeCh = make(chan struct{})
}

// Wait blocks the caller while the gate is paused. Returns
// immediately if the gate is open.
func (g *pauseGate) Wait(stop <-chan struct{}) {
	g.mu.Lock()
	if !g.paused {
		g.mu.Unlock()
		return
	}
	ch := g.resumeCh
	g.mu.Unlock()

	select {
	case <-ch:
	case <-stop:
	}
}

func (g *pauseGate) IsPaused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}
