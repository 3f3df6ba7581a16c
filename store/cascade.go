package store

import "fmt"

// cascade removes the direct children of a deleted parent for every
// relationship registered under parentResource. It is applied once and does
// not recurse: deleting a style removes its variants but leaves the bom_items
// of those variants in place.
func (s *Store) cascade(tx *txn, parentResource string, parentID int64) int {
	removed := 0
	for _, rel := range s.registry.ChildrenOf(parentResource) {
		var ids []int64
		for _, child := range s.data.all(rel.ChildResource) {
			if !LooseEqual(child[rel.ParentKeyAttr], parentID) {
				continue
			}
			if id, ok := child.ID(); ok {
				ids = append(ids, id)
			}
		}
		for _, id := range ids {
			child, err := s.data.remove(rel.ChildResource, id)
			if err != nil {
				continue
			}
			tx.record(Change{
				Resource: rel.ChildResource,
				Action:   ActionRemove,
				ID:       id,
				Old:      child,
				Cascade:  true,
			})
			removed++
		}
		if len(ids) > 0 {
			s.logger.Info("cascade delete completed",
				"parent", parentResource,
				"parentId", parentID,
				"child", rel.ChildResource,
				"childCount", len(ids),
			)
		}
	}
	return removed
}

// checkParents verifies the parent references of r when parent validation is enabled.
func (s *Store) checkParents(resource string, r Record) error {
	if !s.config.ValidateParents {
		return nil
	}
	for _, rel := range s.registry.ParentsOf(resource) {
		parentID, ok := attrInt(r[rel.ParentKeyAttr])
		if !ok {
			return fmt.Errorf("%w: %s.%s is missing", ErrParentNotFound, resource, rel.ParentKeyAttr)
		}
		if s.data.indexOf(rel.ParentResource, parentID) < 0 {
			return fmt.Errorf("%w: %s %d", ErrParentNotFound, rel.ParentResource, parentID)
		}
	}
	return nil
}
