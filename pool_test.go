package facedetect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolLoadFailure(t *testing.T) {
	p, err := NewPool(context.Background(), 2, "", "")
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrLoad)
}

func TestPoolGetReturn(t *testing.T) {
	p := &Pool{
		sessions: make(chan *Session, 2),
		size:     2,
	}

	a := &Session{closed: true}
	b := &Session{closed: true}
	p.Return(a)
	p.Return(b)

	// the pool is full so extra sessions are dropped rather than blocking
	p.Return(&Session{closed: true})

	assert.Equal(t, 2, p.Size())
	assert.Same(t, a, p.Get())
	assert.Same(t, b, p.Get())

	p.Return(a)
	p.Close()
	p.Close()

	// returning to a closed pool must not panic
	assert.NotPanics(t, func() { p.Return(b) })
}
