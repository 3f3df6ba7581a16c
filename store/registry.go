package store

// Relationship defines a parent-child relationship for cascade operations.
type Relationship struct {
	// ParentResource is the parent collection (e.g., "styles").
	ParentResource string

	// ChildResource is the child collection (e.g., "variants").
	ChildResource string

	// ParentKeyAttr is the attribute in the child that references the parent's id (e.g., "style_id").
	ParentKeyAttr string
}

// Registry holds all known relationships for cascade operations.
type Registry struct {
	relationships []Relationship
	byParent      map[string][]Relationship
	byChild       map[string][]Relationship
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		relationships: []Relationship{},
		byParent:      make(map[string][]Relationship),
		byChild:       make(map[string][]Relationship),
	}
}

// DefaultRegistry declares the product hierarchy: styles own variants and
// variants own bom_items. Spec lines are embedded and need no relationship.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(Relationship{
		ParentResource: Styles,
		ChildResource:  Variants,
		ParentKeyAttr:  StyleIDAttr,
	})
	r.Register(Relationship{
		ParentResource: Variants,
		ChildResource:  BOMItems,
		ParentKeyAttr:  VariantIDAttr,
	})
	return r
}

// Register adds a relationship to the registry.
func (r *Registry) Register(rel Relationship) {
	r.relationships = append(r.relationships, rel)
	r.byParent[rel.ParentResource] = append(r.byParent[rel.ParentResource], rel)
	r.byChild[rel.ChildResource] = append(r.byChild[rel.ChildResource], rel)
}

// ChildrenOf returns all child relationships for a given parent resource.
func (r *Registry) ChildrenOf(parentResource string) []Relationship {
	return r.byParent[parentResource]
}

// ParentsOf returns all relationships in which the resource is the child.
func (r *Registry) ParentsOf(childResource string) []Relationship {
	return r.byChild[childResource]
}

// AllRelationships returns all registered relationships.
func (r *Registry) AllRelationships() []Relationship {
	return r.relationships
}

// HasChildren returns true if the parent resource has any registered child relationships.
func (r *Registry) HasChildren(parentResource string) bool {
	return len(r.byParent[parentResource]) > 0
}
