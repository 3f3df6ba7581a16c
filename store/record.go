package store

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// IDAttr is the attribute holding a record's identity.
const IDAttr = "id"

// Record is a keyed set of named fields. Only "id" is interpreted by the
// store; other attributes are opaque unless named by a relationship.
type Record map[string]types.AttributeValue

// ID returns the record's identity, or false if it has none.
func (r Record) ID() (int64, bool) {
	return attrInt(r[IDAttr])
}

// Clone returns an element-wise copy of the record. Nested lists, maps, sets
// and byte slices are copied as well, so the result shares nothing with r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneAttr(v)
	}
	return out
}

// NumberAttr builds a number attribute from an integer.
func NumberAttr(n int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(n, 10)}
}

// StringAttr builds a string attribute.
func StringAttr(s string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: s}
}

func cloneAttr(av types.AttributeValue) types.AttributeValue {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return &types.AttributeValueMemberS{Value: v.Value}
	case *types.AttributeValueMemberN:
		return &types.AttributeValueMemberN{Value: v.Value}
	case *types.AttributeValueMemberBOOL:
		return &types.AttributeValueMemberBOOL{Value: v.Value}
	case *types.AttributeValueMemberNULL:
		return &types.AttributeValueMemberNULL{Value: v.Value}
	case *types.AttributeValueMemberB:
		return &types.AttributeValueMemberB{Value: append([]byte(nil), v.Value...)}
	case *types.AttributeValueMemberSS:
		return &types.AttributeValueMemberSS{Value: append([]string(nil), v.Value...)}
	case *types.AttributeValueMemberNS:
		return &types.AttributeValueMemberNS{Value: append([]string(nil), v.Value...)}
	case *types.AttributeValueMemberBS:
		bs := make([][]byte, len(v.Value))
		for i, b := range v.Value {
			bs[i] = append([]byte(nil), b...)
		}
		return &types.AttributeValueMemberBS{Value: bs}
	case *types.AttributeValueMemberL:
		l := make([]types.AttributeValue, len(v.Value))
		for i, e := range v.Value {
			l[i] = cloneAttr(e)
		}
		return &types.AttributeValueMemberL{Value: l}
	case *types.AttributeValueMemberM:
		m := make(map[string]types.AttributeValue, len(v.Value))
		for k, e := range v.Value {
			m[k] = cloneAttr(e)
		}
		return &types.AttributeValueMemberM{Value: m}
	default:
		return av
	}
}

// attrInt reads an integral identity from a number or numeric string attribute.
func attrInt(av types.AttributeValue) (int64, bool) {
	var raw string
	switch v := av.(type) {
	case *types.AttributeValueMemberN:
		raw = v.Value
	case *types.AttributeValueMemberS:
		raw = v.Value
	default:
		return 0, false
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}

// Encode converts a typed model or a plain map into a Record.
// json.Number values (as produced by a decoder with UseNumber) are stored as numbers.
func Encode(v any) (Record, error) {
	if m, ok := v.(map[string]any); ok {
		v = normalizeNumbers(m)
	}
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return Record(item), nil
}

// Decode converts a Record into a typed model.
func Decode(r Record, out any) error {
	if err := attributevalue.UnmarshalMap(r, out); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}

// Map converts the record into plain Go values suitable for JSON encoding.
// Numbers become json.Number so integral ids keep their exact form.
func (r Record) Map() (map[string]any, error) {
	var out map[string]any
	err := attributevalue.UnmarshalMapWithOptions(r, &out, func(o *attributevalue.DecoderOptions) {
		o.UseNumber = true
	})
	if err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return jsonNumbers(out).(map[string]any), nil
}

func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalizeNumbers(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeNumbers(e)
		}
		return out
	default:
		return v
	}
}

func jsonNumbers(v any) any {
	switch t := v.(type) {
	case attributevalue.Number:
		return json.Number(t)
	case map[string]any:
		for k, e := range t {
			t[k] = jsonNumbers(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = jsonNumbers(e)
		}
		return t
	case nil:
		return nil
	default:
		return v
	}
}
