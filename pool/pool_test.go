package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type msg struct{ N int }

func TestGetAllocatesWhenEmpty(t *testing.T) {
	calls := 0
	p := New(4, 16, func() *msg { calls++; return &msg{} })
	m := p.Get()
	assert.NotNil(t, m)
	assert.Equal(t, 1, calls)
}

func TestPutThenGetReusesValue(t *testing.T) {
	p := New(4, 16, func() *msg { return &msg{N: -1} })
	m := &msg{N: 42}
	p.Put(m)
	assert.Equal(t, 1, p.Len())

	got := p.Get()
	assert.Equal(t, 42, got.N)
	assert.Equal(t, 0, p.Len())
}

func TestMaxSizeBoundsRetainedCount(t *testing.T) {
	p := New(1, 2, func() *msg { return &msg{} })
	for i := 0; i < 10; i++ {
		p.Put(&msg{N: i})
	}
	assert.LessOrEqual(t, p.Len(), 2+maxPrivateElems)
}
