// Package notify fans out store events to in-process subscribers.
package notify

import (
	"sync"

	"github.com/goodnatureofminers/spvstore-backend/internal/spv/model"
)

// Handler receives events. Handlers run on the notifying goroutine and must
// not block.
type Handler func(model.Event)

// Dispatcher delivers every event to all current subscribers in
// subscription order.
type Dispatcher struct {
	mu       sync.RWMutex
	next     uint64
	handlers []subscription
}

type subscription struct {
	id uint64
	fn Handler
}

// NewDispatcher returns a dispatcher with no subscribers.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Subscribe registers fn and returns a function that removes it.
func (d *Dispatcher) Subscribe(fn Handler) (unsubscribe func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.next++
	id := d.next
	d.handlers = append(d.handlers, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { d.remove(id) })
	}
}

func (d *Dispatcher) remove(id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, s := range d.handlers {
		if s.id == id {
			d.handlers = append(d.handlers[:i:i], d.handlers[i+1:]...)
			return
		}
	}
}

// Notify delivers ev to every subscriber before returning.
func (d *Dispatcher) Notify(ev model.Event) {
	d.mu.RLock()
	handlers := d.handlers
	d.mu.RUnlock()

	for _, s := range handlers {
		s.fn(ev)
	}
}
