package store

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// CloneVariantPattern is the only registered custom request: clone a variant under its style.
const CloneVariantPattern = "/styles/:styleId/variants/:variantId/clone"

// CustomRequest is a request that doesn't map to a plain CRUD verb.
type CustomRequest struct {
	// Method is the method tag (e.g., "post"); matching is case-insensitive.
	Method string

	// URL is a path, optionally with a base URL or query string.
	URL string

	// Payload carries request attributes (e.g., "color_name").
	Payload Record
}

// Custom dispatches a request by structural match of its method and path.
// A POST matching CloneVariantPattern returns a CloneSummary; anything else
// fails with an UnimplementedError.
func (s *Store) Custom(ctx context.Context, req CustomRequest) (any, error) {
	if strings.EqualFold(req.Method, "post") {
		if params, ok := matchPath(CloneVariantPattern, req.URL); ok {
			variantID, err := strconv.ParseInt(params["variantId"], 10, 64)
			if err != nil {
				return nil, &ValidationError{Field: "variantId", Reason: "must be an integer"}
			}
			colorName, _ := scalarString(req.Payload[ColorNameAttr])
			return s.CloneVariant(ctx, variantID, colorName)
		}
	}
	return nil, &UnimplementedError{Pattern: strings.ToUpper(req.Method) + " " + req.URL}
}

// matchPath matches the trailing segments of rawURL against a pattern whose
// ":name" segments capture a non-empty value. Leading segments (an API base
// path) are allowed; the query string is ignored.
func matchPath(pattern, rawURL string) (map[string]string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, false
	}
	want := splitPath(pattern)
	got := splitPath(u.Path)
	if len(got) < len(want) {
		return nil, false
	}
	got = got[len(got)-len(want):]

	params := make(map[string]string)
	for i, seg := range want {
		if name, ok := strings.CutPrefix(seg, ":"); ok {
			if got[i] == "" {
				return nil, false
			}
			params[name] = got[i]
			continue
		}
		if seg != got[i] {
			return nil, false
		}
	}
	return params, true
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
