// Package deque provides a double-ended ordered container backed by a single
// arena with free room at both ends.
package deque

const minCapacity = 16

// Deque holds elements in order. The zero value is ready to use.
type Deque[T any] struct {
	buf  []T
	head int // index of the first element in buf
	n    int
}

// Len returns the number of elements.
func (d *Deque[T]) Len() int { return d.n }

// At returns the element at position i. It panics when i is out of range.
func (d *Deque[T]) At(i int) T {
	if i < 0 || i >= d.n {
		panic("deque: index out of range")
	}
	return d.buf[d.head+i]
}

// PushBack appends items after the last element, preserving their order.
func (d *Deque[T]) PushBack(items ...T) {
	if len(items) == 0 {
		return
	}
	d.reserve(0, len(items))
	copy(d.buf[d.head+d.n:], items)
	d.n += len(items)
}

// PushFront inserts items before the first element, preserving their order so
// that items[0] becomes the new first element.
func (d *Deque[T]) PushFront(items ...T) {
	if len(items) == 0 {
		return
	}
	d.reserve(len(items), 0)
	d.head -= len(items)
	copy(d.buf[d.head:], items)
	d.n += len(items)
}

// DropFront removes the first k elements.
func (d *Deque[T]) DropFront(k int) {
	k = min(max(k, 0), d.n)
	var zero T
	for i := d.head; i < d.head+k; i++ {
		d.buf[i] = zero
	}
	d.head += k
	d.n -= k
	if d.n == 0 {
		d.head = len(d.buf) / 2
	}
}

// Slice returns a copy of elements [i, j).
func (d *Deque[T]) Slice(i, j int) []T {
	i = min(max(i, 0), d.n)
	j = min(max(j, i), d.n)
	out := make([]T, j-i)
	copy(out, d.buf[d.head+i:d.head+j])
	return out
}

// Items returns a copy of all elements in order.
func (d *Deque[T]) Items() []T { return d.Slice(0, d.n) }

// Reset removes every element and releases the arena.
func (d *Deque[T]) Reset() {
	d.buf = nil
	d.head = 0
	d.n = 0
}

// reserve guarantees room for front elements before head and back elements
// after the tail. Growth re-centres the live range in a larger arena.
func (d *Deque[T]) reserve(front, back int) {
	if d.head >= front && len(d.buf)-(d.head+d.n) >= back {
		return
	}
	need := d.n + front + back
	size := max(len(d.buf)*2, minCapacity)
	for size < need*2 {
		size *= 2
	}
	buf := make([]T, size)
	// Split the spare room evenly, but at least what this call needs on each side.
	spare := size - need
	head := front + spare/2
	copy(buf[head:], d.buf[d.head:d.head+d.n])
	d.buf = buf
	d.head = head
}
