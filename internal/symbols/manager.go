// Package symbols provides a generic address keyed store that iterates in address order.
package symbols

import (
	"iter"
	"maps"
	"slices"
)

// Manager provides generic tracking of items by address.
// T is the type of item being managed (e.g., a label list or a comment).
type Manager[T any] struct {
	items map[uint16]T
}

// New creates a new symbol manager.
func New[T any]() *Manager[T] {
	return &Manager[T]{
		items: make(map[uint16]T),
	}
}

// Get returns the item at the given address.
func (m *Manager[T]) Get(address uint16) (T, bool) {
	item, ok := m.items[address]
	return item, ok
}

// Set sets the item at the given address.
func (m *Manager[T]) Set(address uint16, item T) {
	m.items[address] = item
}

// Delete removes the item at the given address and returns whether it existed.
func (m *Manager[T]) Delete(address uint16) bool {
	if _, ok := m.items[address]; !ok {
		return false
	}
	delete(m.items, address)
	return true
}

// Has returns whether an item exists at the given address.
func (m *Manager[T]) Has(address uint16) bool {
	_, ok := m.items[address]
	return ok
}

// Len returns the number of items in the manager.
func (m *Manager[T]) Len() int {
	return len(m.items)
}

// Addresses returns all item addresses in ascending order.
func (m *Manager[T]) Addresses() []uint16 {
	return slices.Sorted(maps.Keys(m.items))
}

// All iterates all items in ascending address order.
func (m *Manager[T]) All() iter.Seq2[uint16, T] {
	return func(yield func(uint16, T) bool) {
		for _, address := range m.Addresses() {
			if !yield(address, m.items[address]) {
				return
			}
		}
	}
}

// Clear removes all items.
func (m *Manager[T]) Clear() {
	clear(m.items)
}

// Clone returns a shallow copy of the manager.
func (m *Manager[T]) Clone() *Manager[T] {
	c := New[T]()
	maps.Copy(c.items, m.items)
	return c
}
