package store

import "fmt"

// Seed is an initial dataset: records per resource, in insertion order.
type Seed map[string][]Record

// Validate checks that every record has a numeric id, that ids are distinct
// within each resource, and that spec line ids are distinct across the seed.
// Duplicates wrap ErrAlreadyExists and name the resource and id.
func (s Seed) Validate() error {
	lines := make(map[int64]string)
	for resource, records := range s {
		seen := make(map[int64]bool, len(records))
		for i, r := range records {
			id, ok := r.ID()
			if !ok {
				return fmt.Errorf("%s[%d]: %w", resource, i, &ValidationError{Field: IDAttr, Reason: "record has no numeric id"})
			}
			if seen[id] {
				return fmt.Errorf("%w: %s id %d", ErrAlreadyExists, resource, id)
			}
			seen[id] = true
			for _, line := range specLines(r) {
				lid, ok := attrInt(line[IDAttr])
				if !ok {
					continue
				}
				if owner, dup := lines[lid]; dup {
					return fmt.Errorf("%w: spec line id %d in %s and %s id %d", ErrAlreadyExists, lid, owner, resource, id)
				}
				lines[lid] = fmt.Sprintf("%s id %d", resource, id)
			}
		}
	}
	return nil
}

// collections holds the named, insertion-ordered record sequences.
// Callers hold the Store lock; records stored here are never handed out directly.
type collections map[string][]Record

func newCollections(seed Seed) collections {
	c := make(collections, len(seed))
	for resource, records := range seed {
		out := make([]Record, 0, len(records))
		for _, r := range records {
			out = append(out, r.Clone())
		}
		c[resource] = out
	}
	return c
}

func (c collections) indexOf(resource string, id int64) int {
	for i, r := range c[resource] {
		if rid, ok := r.ID(); ok && rid == id {
			return i
		}
	}
	return -1
}

// get returns the stored record itself; callers copy before returning it outward.
func (c collections) get(resource string, id int64) (Record, error) {
	i := c.indexOf(resource, id)
	if i < 0 {
		return nil, notFound(resource, id)
	}
	return c[resource][i], nil
}

func (c collections) insert(resource string, r Record) error {
	id, ok := r.ID()
	if !ok {
		return &ValidationError{Field: IDAttr, Reason: "record has no numeric id"}
	}
	if c.indexOf(resource, id) >= 0 {
		return ErrAlreadyExists
	}
	c[resource] = append(c[resource], r)
	return nil
}

func (c collections) replace(resource string, id int64, r Record) error {
	i := c.indexOf(resource, id)
	if i < 0 {
		return notFound(resource, id)
	}
	c[resource][i] = r
	return nil
}

func (c collections) remove(resource string, id int64) (Record, error) {
	i := c.indexOf(resource, id)
	if i < 0 {
		return nil, notFound(resource, id)
	}
	records := c[resource]
	removed := records[i]
	c[resource] = append(records[:i:i], records[i+1:]...)
	return removed, nil
}

// all returns the live sequence; an unknown resource yields nil.
func (c collections) all(resource string) []Record {
	return c[resource]
}
