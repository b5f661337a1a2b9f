package siedler2

import "github.com/bodgit/siedler2/errkind"

// Archive is an ordered list of item slots, any of which may be empty. The
// archive owns its items: an item passed to Set or Push must not be used by
// the caller afterwards, and items are only handed back out by Release.
type Archive struct {
	items []Item
}

// NewArchive returns an archive of n empty slots.
func NewArchive(n int) *Archive {
	a := new(Archive)
	a.Alloc(n)
	return a
}

// Alloc drops every item and resizes a to n empty slots.
func (a *Archive) Alloc(n int) {
	if n < 0 {
		n = 0
	}
	a.items = make([]Item, n)
}

// AllocInc appends n empty slots, keeping the existing ones.
func (a *Archive) AllocInc(n int) {
	if n > 0 {
		a.items = append(a.items, make([]Item, n)...)
	}
}

// Clear removes every slot.
func (a *Archive) Clear() {
	a.items = nil
}

// Len returns the number of slots.
func (a *Archive) Len() int {
	return len(a.items)
}

// Get returns the item at i or nil if the slot is empty or i is out of range.
func (a *Archive) Get(i int) Item {
	if i < 0 || i >= len(a.items) {
		return nil
	}
	return a.items[i]
}

func (a *Archive) check(i int) error {
	if i < 0 || i >= len(a.items) {
		return &errkind.IndexError{Index: i, Len: len(a.items)}
	}
	return nil
}

// Set stores item at i, replacing whatever was there. A nil item empties the
// slot. It returns an *errkind.IndexError if i is out of range.
func (a *Archive) Set(i int, item Item) error {
	if err := a.check(i); err != nil {
		return err
	}
	a.items[i] = item
	return nil
}

// SetClone is Set with a copy of item, leaving item with the caller.
func (a *Archive) SetClone(i int, item Item) error {
	if err := a.check(i); err != nil {
		return err
	}
	a.items[i] = cloneItem(item)
	return nil
}

// Push appends item in a new slot.
func (a *Archive) Push(item Item) {
	a.items = append(a.items, item)
}

// PushClone appends a copy of item in a new slot.
func (a *Archive) PushClone(item Item) {
	a.items = append(a.items, cloneItem(item))
}

// Release empties slot i and returns its item, which now belongs to the
// caller. It returns nil if i is out of range.
func (a *Archive) Release(i int) Item {
	item := a.Get(i)
	if item != nil {
		a.items[i] = nil
	}
	return item
}

// Find returns the first item named name, or nil.
func (a *Archive) Find(name string) Item {
	for _, item := range a.items {
		if item != nil && item.Name() == name {
			return item
		}
	}
	return nil
}

// Clone returns a deep copy of a, cloning every item.
func (a *Archive) Clone() *Archive {
	dup := &Archive{items: make([]Item, len(a.items))}
	for i, item := range a.items {
		dup.items[i] = cloneItem(item)
	}
	return dup
}

func cloneItem(item Item) Item {
	if item == nil {
		return nil
	}
	return item.Clone()
}
