package symbols

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

type testItem struct {
	name  string
	value uint16
}

func TestManager(t *testing.T) {
	t.Run("new manager is initialized", func(t *testing.T) {
		mgr := New[testItem]()

		assert.NotNil(t, mgr)
		assert.Equal(t, 0, mgr.Len())
	})

	t.Run("set and get item", func(t *testing.T) {
		mgr := New[testItem]()
		mgr.Set(0x0801, testItem{name: "TEST", value: 0x1234})

		got, ok := mgr.Get(0x0801)
		assert.True(t, ok)
		assert.Equal(t, "TEST", got.name)
		assert.Equal(t, uint16(0x1234), got.value)

		_, ok = mgr.Get(0x0802)
		assert.False(t, ok)
	})

	t.Run("delete", func(t *testing.T) {
		mgr := New[testItem]()
		mgr.Set(0x0801, testItem{name: "A"})

		assert.True(t, mgr.Delete(0x0801))
		assert.False(t, mgr.Has(0x0801))
		assert.False(t, mgr.Delete(0x0801))
	})

	t.Run("iterates in address order", func(t *testing.T) {
		mgr := New[testItem]()
		mgr.Set(0xC000, testItem{name: "C"})
		mgr.Set(0x0002, testItem{name: "A"})
		mgr.Set(0x0801, testItem{name: "B"})

		assert.Equal(t, []uint16{0x0002, 0x0801, 0xC000}, mgr.Addresses())

		var names []string
		for _, item := range mgr.All() {
			names = append(names, item.name)
		}
		assert.Equal(t, []string{"A", "B", "C"}, names)
	})

	t.Run("clone is independent", func(t *testing.T) {
		mgr := New[testItem]()
		mgr.Set(0x1000, testItem{name: "A"})

		c := mgr.Clone()
		c.Set(0x2000, testItem{name: "B"})
		assert.Equal(t, 1, mgr.Len())
		assert.Equal(t, 2, c.Len())
		_, ok := mgr.Get(0x2000)
		assert.False(t, ok)
	})

	t.Run("clear removes all items", func(t *testing.T) {
		mgr := New[testItem]()
		mgr.Set(0x8000, testItem{name: "A"})
		assert.True(t, mgr.Has(0x8000))

		mgr.Clear()
		assert.False(t, mgr.Has(0x8000))
		assert.Equal(t, 0, mgr.Len())
	})
}
