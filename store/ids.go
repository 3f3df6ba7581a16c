package store

import "sync"

// Allocator issues identities shared by every collection and nested spec line.
// Issued values are strictly increasing and never reused.
type Allocator struct {
	mu   sync.Mutex
	last int64
}

// NewAllocator returns an allocator whose first id is start+1.
func NewAllocator(start int64) *Allocator {
	return &Allocator{last: start}
}

// Next returns a fresh identity.
func (a *Allocator) Next() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.last++
	return a.last
}

// Observe raises the allocator past id so it is never issued again.
func (a *Allocator) Observe(id int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if id > a.last {
		a.last = id
	}
}

// Last returns the most recently issued identity (or the start value).
func (a *Allocator) Last() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// highestID scans records and their nested spec lines for the largest id.
func highestID(seed Seed) int64 {
	var highest int64
	for _, records := range seed {
		for _, r := range records {
			if id, ok := r.ID(); ok && id > highest {
				highest = id
			}
			for _, line := range specLines(r) {
				if id, ok := attrInt(line[IDAttr]); ok && id > highest {
					highest = id
				}
			}
		}
	}
	return highest
}
