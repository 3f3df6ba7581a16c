package store

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"golang.org/x/text/cases"
)

// Operator is a filter comparison.
type Operator string

const (
	// OpEq matches when the field LooseEquals the value.
	OpEq Operator = "eq"

	// OpContains matches when the case-folded field contains the case-folded value.
	OpContains Operator = "contains"
)

// Filter is one (field, operator, value) predicate. Filters are ANDed.
type Filter struct {
	Field    string
	Operator Operator
	Value    any
}

// Pagination selects a 1-based page window.
type Pagination struct {
	Current  int
	PageSize int
}

const (
	defaultCurrent  = 1
	defaultPageSize = 10
)

// ListResult is a page of records plus the filtered count before paging.
type ListResult struct {
	Data  []Record
	Total int
}

// LooseEqual is the coercion rule used by eq filters and relationship
// matching. Both sides are reduced to their canonical string form; they are
// equal when the strings match or when both parse as the same finite number.
// Values without a scalar form (missing, NULL, lists, maps) never match.
func LooseEqual(a, b any) bool {
	as, ok := scalarString(a)
	if !ok {
		return false
	}
	bs, ok := scalarString(b)
	if !ok {
		return false
	}
	if as == bs {
		return true
	}
	af, aerr := strconv.ParseFloat(strings.TrimSpace(as), 64)
	bf, berr := strconv.ParseFloat(strings.TrimSpace(bs), 64)
	if aerr != nil || berr != nil || math.IsInf(af, 0) || math.IsInf(bf, 0) {
		return false
	}
	return af == bf
}

// scalarString renders v in the canonical string form used for comparisons.
func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case int:
		return strconv.Itoa(t), true
	case int32:
		return strconv.FormatInt(int64(t), 10), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case uint:
		return strconv.FormatUint(uint64(t), 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case json.Number:
		return t.String(), true
	case *types.AttributeValueMemberS:
		return t.Value, true
	case *types.AttributeValueMemberN:
		return t.Value, true
	case *types.AttributeValueMemberBOOL:
		return strconv.FormatBool(t.Value), true
	case types.AttributeValue:
		return "", false
	case fmt.Stringer:
		return t.String(), true
	default:
		return "", false
	}
}

// falsy reports whether a contains value disables its filter.
func falsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	}
	if s, ok := scalarString(v); ok {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f == 0 || math.IsNaN(f)
		}
	}
	return false
}

// matches applies the filters in order. Unknown operators pass through.
func matches(r Record, filters []Filter) bool {
	for _, f := range filters {
		switch f.Operator {
		case OpEq:
			if f.Value == nil {
				continue
			}
			field, ok := r[f.Field]
			if !ok || !LooseEqual(field, f.Value) {
				return false
			}
		case OpContains:
			if falsy(f.Value) {
				continue
			}
			field, ok := r[f.Field]
			if !ok {
				return false
			}
			haystack, ok := scalarString(field)
			if !ok {
				return false
			}
			needle, _ := scalarString(f.Value)
			fold := cases.Fold()
			if !strings.Contains(fold.String(haystack), fold.String(needle)) {
				return false
			}
		}
	}
	return true
}

// window returns the half-open page bounds over n filtered records.
func (p Pagination) window(n int) (int, int) {
	current, size := p.Current, p.PageSize
	if current < 1 {
		current = defaultCurrent
	}
	if size < 1 {
		size = defaultPageSize
	}
	if current-1 > n/size {
		return n, n
	}
	start := (current - 1) * size
	if start > n {
		return n, n
	}
	end := start + size
	if end > n || end < start {
		end = n
	}
	return start, end
}

// query filters and pages a sequence, copying the records on the page.
func query(records []Record, filters []Filter, page Pagination) ListResult {
	matched := make([]Record, 0, len(records))
	for _, r := range records {
		if matches(r, filters) {
			matched = append(matched, r)
		}
	}
	start, end := page.window(len(matched))
	data := make([]Record, 0, end-start)
	for _, r := range matched[start:end] {
		data = append(data, r.Clone())
	}
	return ListResult{Data: data, Total: len(matched)}
}
