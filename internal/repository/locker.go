package repository

import (
	"context"
	"fmt"
	"sync"
)

// MemoryItemLocker serializes work per item inside a single process. A slot
// lives only while someone holds or waits for it.
type MemoryItemLocker struct {
	mu    sync.Mutex
	slots map[int64]*itemSlot
}

type itemSlot struct {
	ch   chan struct{}
	refs int
}

func NewMemoryItemLocker() *MemoryItemLocker {
	return &MemoryItemLocker{slots: make(map[int64]*itemSlot)}
}

func (l *MemoryItemLocker) acquire(itemID int64) *itemSlot {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot, ok := l.slots[itemID]
	if !ok {
		slot = &itemSlot{ch: make(chan struct{}, 1)}
		l.slots[itemID] = slot
	}
	slot.refs++
	return slot
}

func (l *MemoryItemLocker) release(itemID int64, slot *itemSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, itemID)
	}
}

// Lock blocks until the item is free or ctx is done. The returned unlock is
// idempotent.
func (l *MemoryItemLocker) Lock(ctx context.Context, itemID int64) (func(), error) {
	slot := l.acquire(itemID)
	select {
	case slot.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-slot.ch
				l.release(itemID, slot)
			})
		}, nil
	case <-ctx.Done():
		l.release(itemID, slot)
		return nil, fmt.Errorf("lock item %d: %w", itemID, ctx.Err())
	}
}

// held returns the number of items with a live slot.
func (l *MemoryItemLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
