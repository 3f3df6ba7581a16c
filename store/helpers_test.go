package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/VitaminC1989/SpecMaster/store"
)

// --- Fixtures ---

func mustEncode(t *testing.T, v any) store.Record {
	t.Helper()
	r, err := store.Encode(v)
	if err != nil {
		t.Fatalf("encode %T: %v", v, err)
	}
	return r
}

func idOf(t *testing.T, r store.Record) int64 {
	t.Helper()
	id, ok := r.ID()
	if !ok {
		t.Fatalf("record has no id: %v", r)
	}
	return id
}

func ids(t *testing.T, records []store.Record) []int64 {
	t.Helper()
	out := make([]int64, 0, len(records))
	for _, r := range records {
		out = append(out, idOf(t, r))
	}
	return out
}

// testSeed is one style with two variants. Variant 101 has two bom_items, the
// first with two spec lines; variant 102 has one bom_item without spec lines.
func testSeed(t *testing.T) store.Seed {
	t.Helper()
	return store.Seed{
		store.Styles: {
			mustEncode(t, store.Style{ID: 1, StyleNo: "S1", StyleName: "Oxford Shirt", Season: "SS25"}),
		},
		store.Variants: {
			mustEncode(t, store.Variant{ID: 101, StyleID: 1, ColorName: "黑色", ColorCode: "BLK"}),
			mustEncode(t, store.Variant{ID: 102, StyleID: 1, ColorName: "白色", ColorCode: "WHT"}),
		},
		store.BOMItems: {
			mustEncode(t, store.BOMItem{
				ID: 1001, VariantID: 101, MaterialName: "Cotton Poplin", Unit: "m", Usage: 1.5,
				SpecDetails: []store.SpecLine{
					{ID: 10001, Size: "M", SpecValue: "10", SpecUnit: "cm"},
					{ID: 10002, Size: "L", SpecValue: "12", SpecUnit: "cm"},
				},
			}),
			mustEncode(t, store.BOMItem{ID: 1002, VariantID: 101, MaterialName: "Button", Unit: "pcs", Usage: 8}),
			mustEncode(t, store.BOMItem{ID: 1003, VariantID: 102, MaterialName: "Cotton Poplin", Unit: "m"}),
		},
	}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(store.DefaultConfig(), testSeed(t))
}

func count(t *testing.T, s *store.Store, resource string) int {
	t.Helper()
	res, err := s.List(context.Background(), resource, nil, store.Pagination{PageSize: 1 << 20})
	if err != nil {
		t.Fatalf("list %s: %v", resource, err)
	}
	return res.Total
}

func specLines(t *testing.T, r store.Record) []map[string]types.AttributeValue {
	t.Helper()
	l, ok := r[store.SpecDetailsAttr].(*types.AttributeValueMemberL)
	if !ok {
		t.Fatalf("specDetails is %T, want list", r[store.SpecDetailsAttr])
	}
	out := make([]map[string]types.AttributeValue, 0, len(l.Value))
	for _, e := range l.Value {
		m, ok := e.(*types.AttributeValueMemberM)
		if !ok {
			t.Fatalf("spec line is %T, want map", e)
		}
		out = append(out, m.Value)
	}
	return out
}

func str(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	if n, ok := av.(*types.AttributeValueMemberN); ok {
		return n.Value
	}
	return ""
}

// recordingSink captures published changes.
type recordingSink struct {
	mu      sync.Mutex
	changes []store.Change
}

func (r *recordingSink) Publish(_ context.Context, changes []store.Change) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, changes...)
	return nil
}

func (r *recordingSink) all() []store.Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]store.Change(nil), r.changes...)
}
