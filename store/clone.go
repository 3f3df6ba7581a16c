package store

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// CloneSummary reports the identity of a cloned variant and the size of its subtree.
type CloneSummary struct {
	ID              int64  `json:"id"`
	ColorName       string `json:"color_name"`
	ClonedBOMCount  int    `json:"cloned_bom_count"`
	ClonedSpecCount int    `json:"cloned_spec_count"`
}

// cloneVariant deep-copies a variant with all of its bom_items and their spec
// lines. Ids are allocated in a fixed order: the variant first, then for each
// bom_item its spec lines followed by the item itself. Preconditions are
// checked before anything is allocated or inserted.
func (s *Store) cloneVariant(tx *txn, sourceID int64, colorName string) (CloneSummary, error) {
	if strings.TrimSpace(colorName) == "" {
		return CloneSummary{}, &ValidationError{Field: ColorNameAttr, Reason: "must not be empty"}
	}
	source, err := s.data.get(Variants, sourceID)
	if err != nil {
		return CloneSummary{}, err
	}

	variantID := s.ids.Next()
	variant := make(Record, len(source))
	for k, v := range source {
		variant[k] = cloneAttr(v)
	}
	variant[IDAttr] = NumberAttr(variantID)
	variant[ColorNameAttr] = StringAttr(colorName)
	if err := s.data.insert(Variants, variant); err != nil {
		return CloneSummary{}, err
	}
	tx.record(Change{Resource: Variants, Action: ActionInsert, ID: variantID, New: variant})

	summary := CloneSummary{ID: variantID, ColorName: colorName}

	var items []Record
	for _, item := range s.data.all(BOMItems) {
		if LooseEqual(item[VariantIDAttr], sourceID) {
			items = append(items, item)
		}
	}

	for _, item := range items {
		lines := s.cloneSpecLines(item[SpecDetailsAttr])
		itemID := s.ids.Next()

		clone := make(Record, len(item))
		for k, v := range item {
			switch k {
			case IDAttr, VariantIDAttr, SpecDetailsAttr:
				continue
			}
			clone[k] = cloneAttr(v)
		}
		clone[IDAttr] = NumberAttr(itemID)
		clone[VariantIDAttr] = NumberAttr(variantID)
		clone[SpecDetailsAttr] = lines

		if err := s.data.insert(BOMItems, clone); err != nil {
			return CloneSummary{}, err
		}
		tx.record(Change{Resource: BOMItems, Action: ActionInsert, ID: itemID, New: clone})

		summary.ClonedBOMCount++
		summary.ClonedSpecCount += len(lines.Value)
	}

	s.logger.Info("variant cloned",
		"sourceId", sourceID,
		"id", variantID,
		"colorName", colorName,
		"bomCount", summary.ClonedBOMCount,
		"specCount", summary.ClonedSpecCount,
	)
	return summary, nil
}

// cloneSpecLines builds a new spec sequence with a fresh id per line and all
// other fields copied. A missing or non-list attribute yields an empty list.
func (s *Store) cloneSpecLines(av types.AttributeValue) *types.AttributeValueMemberL {
	src, ok := av.(*types.AttributeValueMemberL)
	if !ok {
		return &types.AttributeValueMemberL{Value: []types.AttributeValue{}}
	}
	out := make([]types.AttributeValue, 0, len(src.Value))
	for _, entry := range src.Value {
		line, ok := entry.(*types.AttributeValueMemberM)
		if !ok {
			out = append(out, cloneAttr(entry))
			continue
		}
		m := make(map[string]types.AttributeValue, len(line.Value))
		for k, v := range line.Value {
			if k == IDAttr {
				continue
			}
			m[k] = cloneAttr(v)
		}
		m[IDAttr] = NumberAttr(s.ids.Next())
		out = append(out, &types.AttributeValueMemberM{Value: m})
	}
	return &types.AttributeValueMemberL{Value: out}
}

// specLines returns the map entries of a record's specDetails without copying them.
func specLines(r Record) []map[string]types.AttributeValue {
	l, ok := r[SpecDetailsAttr].(*types.AttributeValueMemberL)
	if !ok {
		return nil
	}
	lines := make([]map[string]types.AttributeValue, 0, len(l.Value))
	for _, entry := range l.Value {
		if m, ok := entry.(*types.AttributeValueMemberM); ok {
			lines = append(lines, m.Value)
		}
	}
	return lines
}

// assignSpecIDs gives spec lines their identities. A line keeps its id when
// that id is one of owned (the lines the record already had) or lies above
// every id issued so far, in which case the allocator is moved past it. Any
// other line, including one repeating an id seen earlier in the sequence,
// gets a fresh identity.
func (s *Store) assignSpecIDs(r Record, owned map[int64]bool) {
	seen := make(map[int64]bool)
	for _, line := range specLines(r) {
		id, ok := attrInt(line[IDAttr])
		if ok && id > 0 && !seen[id] {
			if owned[id] {
				seen[id] = true
				continue
			}
			if id > s.ids.Last() {
				s.ids.Observe(id)
				seen[id] = true
				continue
			}
		}
		id = s.ids.Next()
		seen[id] = true
		line[IDAttr] = NumberAttr(id)
	}
}

// specIDs returns the ids of the spec lines r currently holds.
func specIDs(r Record) map[int64]bool {
	ids := make(map[int64]bool)
	for _, line := range specLines(r) {
		if id, ok := attrInt(line[IDAttr]); ok {
			ids[id] = true
		}
	}
	return ids
}
