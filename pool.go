package facedetect

import (
	"context"
	"sync"
)

// Pool is a simple session pool for analysing images in parallel, each
// session being used by one goroutine at a time
type Pool struct {
	// pool of sessions
	sessions chan *Session
	// size of pool
	size   int
	mu     sync.Mutex
	closed bool
}

// NewPool creates a pool of size sessions all loading the same cascade and
// network
func NewPool(ctx context.Context, size int, cascadePath, netPath string, opts ...Option) (*Pool, error) {

	if size < 1 {
		size = 1
	}

	p := &Pool{
		sessions: make(chan *Session, size),
		size:     size,
	}

	for i := 0; i < size; i++ {
		s, err := NewSession(ctx, cascadePath, netPath, opts...)

		if err != nil {
			// close any instances that may have been created before receiving
			// the error
			p.Close()
			return nil, err
		}

		// attach to pool
		p.Return(s)
	}

	return p, nil
}

// Size returns the number of sessions in the pool
func (p *Pool) Size() int {
	return p.size
}

// Get a session from the pool, blocking until one is free.  Returns nil
// once the pool is closed.
func (p *Pool) Get() *Session {
	return <-p.sessions
}

// Return a session to the pool.  Sessions returned to a full or closed
// pool are closed.
func (p *Pool) Return(s *Session) {

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		_ = s.Close()
		return
	}

	select {
	case p.sessions <- s:
	default:
		_ = s.Close()
	}
}

// Close the pool and all sessions in it
func (p *Pool) Close() {

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	p.closed = true

	// close channel
	close(p.sessions)

	// close all sessions
	for next := range p.sessions {
		_ = next.Close()
	}
}
