package dcc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueueFIFOOrder(t *testing.T) {
	q := &Queue{}
	a := new(Packet).Idle()
	b := new(Packet).Idle()
	q.PushBack(a)
	q.PushBack(b)

	assert.Equal(t, 2, q.Len())
	assert.Same(t, a, q.PopFront())
	assert.Same(t, b, q.PopFront())
	assert.Nil(t, q.PopFront())
	assert.Equal(t, 0, q.Len())
}

func TestQueuePushFrontPriority(t *testing.T) {
	q := &Queue{}
	a := new(Packet).Idle()
	b := new(Packet).Idle()
	q.PushBack(a)
	q.PushFront(b)

	assert.Same(t, b, q.PopFront())
	assert.Same(t, a, q.PopFront())
}

func TestFreeListTakeGive(t *testing.T) {
	fl := NewFreeList(3)
	assert.Equal(t, 3, fl.Len())

	p1 := fl.Take()
	p2 := fl.Take()
	assert.NotNil(t, p1)
	assert.NotNil(t, p2)
	assert.Equal(t, 1, fl.Len())

	fl.Give(p1)
	assert.Equal(t, 2, fl.Len())

	p3 := fl.Take()
	assert.Same(t, p1, p3)
}

func TestFreeListExhausted(t *testing.T) {
	fl := NewFreeList(1)
	assert.NotNil(t, fl.Take())
	assert.Nil(t, fl.Take())
}
