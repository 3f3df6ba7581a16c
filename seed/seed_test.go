package seed_test

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/VitaminC1989/SpecMaster/seed"
	"github.com/VitaminC1989/SpecMaster/store"
)

// --- Default dataset ---

func TestDefault(t *testing.T) {
	ds, err := seed.Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}

	for _, resource := range []string{store.Styles, store.Variants, store.BOMItems} {
		if len(ds[resource]) == 0 {
			t.Errorf("expected records for %s", resource)
		}
	}

	var item store.BOMItem
	if err := store.Decode(ds[store.BOMItems][0], &item); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if item.ID != 1001 || item.VariantID != 101 || len(item.SpecDetails) != 2 {
		t.Errorf("unexpected first bom_item %+v", item)
	}
	if item.SpecDetails[0].SpecValue != "72" {
		t.Errorf("expected spec_value 72, got %q", item.SpecDetails[0].SpecValue)
	}
}

func TestDefault_FreshCopies(t *testing.T) {
	a, err := seed.Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	a[store.Styles][0]["style_name"] = store.StringAttr("changed")

	b, err := seed.Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if v := b[store.Styles][0]["style_name"].(*types.AttributeValueMemberS).Value; v == "changed" {
		t.Error("Default must not share records between calls")
	}
}

func TestDefault_SeedsStore(t *testing.T) {
	ds, err := seed.Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	s := store.New(store.DefaultConfig(), ds)

	summary, err := s.CloneVariant(context.Background(), 101, "黑色")
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	if summary.ClonedBOMCount != 2 || summary.ClonedSpecCount != 3 {
		t.Errorf("unexpected summary %+v", summary)
	}
	// Highest seeded id is spec line 20001.
	if summary.ID != 20002 {
		t.Errorf("expected variant id 20002, got %d", summary.ID)
	}
}

// --- LoadYAML ---

func TestLoadYAML(t *testing.T) {
	doc := `
styles:
  - id: 7
    style_no: S7
    tags: [a, b]
variants:
  - id: 70
    style_id: 7
    color_name: 红色
  - id: 71
    style_id: 7
    color_name: 绿色
`
	ds, err := seed.LoadYAML(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(ds[store.Variants]) != 2 {
		t.Fatalf("expected 2 variants, got %d", len(ds[store.Variants]))
	}
	if id, _ := ds[store.Variants][1].ID(); id != 71 {
		t.Errorf("expected file order, got id %d second", id)
	}
	if _, ok := ds[store.Styles][0]["tags"].(*types.AttributeValueMemberL); !ok {
		t.Errorf("expected list attribute, got %T", ds[store.Styles][0]["tags"])
	}
}

func TestLoadYAML_Empty(t *testing.T) {
	ds, err := seed.LoadYAML(strings.NewReader(""))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(ds) != 0 {
		t.Errorf("expected empty dataset, got %v", ds)
	}
}

func TestLoadYAML_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing id", "styles:\n  - style_no: S1\n"},
		{"text id", "styles:\n  - id: one\n"},
		{"not a mapping", "- 1\n- 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := seed.LoadYAML(strings.NewReader(tt.doc)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadYAML_DuplicateIDs(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"record id", "styles:\n  - id: 1\n  - id: 1\n", "styles id 1"},
		{"spec line id", `bom_items:
  - id: 1001
    specDetails:
      - id: 9
  - id: 1002
    specDetails:
      - id: 9
`, "spec line id 9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := seed.LoadYAML(strings.NewReader(tt.doc))
			if !errors.Is(err, store.ErrAlreadyExists) {
				t.Fatalf("expected ErrAlreadyExists, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not name %q", err, tt.want)
			}
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := seed.LoadFile("does-not-exist.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

// --- Dump ---

func TestDump(t *testing.T) {
	ds, err := seed.Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}

	out, err := seed.Dump(ds)
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	raw, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"id":1001`) {
		t.Errorf("expected integral ids in JSON, got %s", raw)
	}
	if !strings.Contains(string(raw), `"usage":1.6`) {
		t.Errorf("expected fractional numbers kept, got %s", raw)
	}
}

func TestResources_Sorted(t *testing.T) {
	got := seed.Resources(store.Seed{"variants": nil, "bom_items": nil, "styles": nil})
	want := []string{"bom_items", "styles", "variants"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

// --- FromDynamoDB ---

// fakeScanClient serves each table's items in pages of pageSize.
type fakeScanClient struct {
	tables   map[string][]map[string]types.AttributeValue
	pageSize int
	calls    int
	err      error
}

func (f *fakeScanClient) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	items := f.tables[aws.ToString(in.TableName)]

	start := 0
	if in.ExclusiveStartKey != nil {
		n, _ := strconv.Atoi(in.ExclusiveStartKey["offset"].(*types.AttributeValueMemberN).Value)
		start = n
	}
	end := start + f.pageSize
	if end > len(items) {
		end = len(items)
	}

	out := &dynamodb.ScanOutput{Items: items[start:end], Count: int32(end - start)}
	if end < len(items) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"offset": &types.AttributeValueMemberN{Value: strconv.Itoa(end)},
		}
	}
	return out, nil
}

func item(id int64, attrs ...string) map[string]types.AttributeValue {
	m := map[string]types.AttributeValue{"id": store.NumberAttr(id)}
	for i := 0; i+1 < len(attrs); i += 2 {
		m[attrs[i]] = store.StringAttr(attrs[i+1])
	}
	return m
}

func TestFromDynamoDB_PagesAndSorts(t *testing.T) {
	client := &fakeScanClient{
		pageSize: 2,
		tables: map[string][]map[string]types.AttributeValue{
			"sm_styles":   {item(3, "style_no", "S3"), item(1, "style_no", "S1"), item(2, "style_no", "S2")},
			"sm_variants": {item(101, "color_name", "黑色")},
		},
	}

	ds, err := seed.FromDynamoDB(context.Background(), client, map[string]string{
		store.Styles:   "sm_styles",
		store.Variants: "sm_variants",
	}, nil)
	if err != nil {
		t.Fatalf("from dynamodb: %v", err)
	}

	styles := ds[store.Styles]
	if len(styles) != 3 {
		t.Fatalf("expected 3 styles, got %d", len(styles))
	}
	for i, want := range []int64{1, 2, 3} {
		if id, _ := styles[i].ID(); id != want {
			t.Errorf("position %d: expected id %d, got %d", i, want, id)
		}
	}
	if len(ds[store.Variants]) != 1 {
		t.Errorf("expected 1 variant, got %d", len(ds[store.Variants]))
	}
	// styles: 2 pages, variants: 1 page
	if client.calls != 3 {
		t.Errorf("expected 3 scan calls, got %d", client.calls)
	}
}

func TestFromDynamoDB_ItemWithoutID(t *testing.T) {
	client := &fakeScanClient{
		pageSize: 10,
		tables: map[string][]map[string]types.AttributeValue{
			store.Styles: {{"style_no": store.StringAttr("S1")}},
		},
	}

	_, err := seed.FromDynamoDB(context.Background(), client, map[string]string{store.Styles: store.Styles}, nil)
	if err == nil {
		t.Fatal("expected error for item without id")
	}
}

func TestFromDynamoDB_DuplicateIDs(t *testing.T) {
	client := &fakeScanClient{
		pageSize: 10,
		tables: map[string][]map[string]types.AttributeValue{
			store.Styles: {item(1, "style_no", "S1"), item(1, "style_no", "S1-copy")},
		},
	}

	_, err := seed.FromDynamoDB(context.Background(), client, map[string]string{store.Styles: store.Styles}, nil)
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestFromDynamoDB_ScanError(t *testing.T) {
	scanErr := errors.New("throttled")
	client := &fakeScanClient{pageSize: 10, err: scanErr}

	_, err := seed.FromDynamoDB(context.Background(), client, seed.DefaultTables(), nil)
	if !errors.Is(err, scanErr) {
		t.Errorf("expected wrapped scan error, got %v", err)
	}
}

func TestDefaultTables(t *testing.T) {
	tables := seed.DefaultTables()
	if len(tables) != 3 || tables[store.BOMItems] != store.BOMItems {
		t.Errorf("unexpected tables %v", tables)
	}
}
