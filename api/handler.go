// Package api exposes a store.Store as an API Gateway Lambda handler.
package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"github.com/VitaminC1989/SpecMaster/store"
)

const (
	paramCurrent  = "current"
	paramPageSize = "pageSize"
	paramID       = "id"
	likeSuffix    = "_like"
)

// Config holds configuration for the Handler.
type Config struct {
	// BasePath is stripped from request paths before routing (e.g., "/api").
	// Default: ""
	BasePath string
}

// Handler maps REST-style API Gateway proxy requests onto store operations.
//
//	GET    /{resource}                 list (current, pageSize, field=, field_like=)
//	GET    /{resource}?id=1&id=2       getMany
//	GET    /{resource}/{id}            get
//	POST   /{resource}                 create
//	PATCH  /{resource}/{id}            update (PUT is accepted too)
//	PATCH  /{resource}?id=1&id=2       updateMany
//	DELETE /{resource}/{id}            delete with cascade
//	DELETE /{resource}?id=1&id=2       deleteMany
//
// Anything else is forwarded to Store.Custom.
type Handler struct {
	store  *store.Store
	config Config
	logger *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(s *store.Store, config Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	config.BasePath = "/" + strings.Trim(config.BasePath, "/")
	return &Handler{store: s, config: config, logger: logger}
}

// listResponse is the body of a list request.
type listResponse struct {
	Data  []map[string]any `json:"data"`
	Total int              `json:"total"`
}

// manyResponse is the body of the bulk operations.
type manyResponse[T any] struct {
	Data []T `json:"data"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// Handle serves one request. Failures are reported in the response; the
// returned error is reserved for failures to build a response at all.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	requestID := req.RequestContext.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	logger := h.logger.With("requestId", requestID)

	status, body, err := h.route(ctx, req)
	if err != nil {
		status = statusFor(err)
		body = errorResponse{Message: err.Error()}
		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				"method", req.HTTPMethod,
				"path", req.Path,
				"error", err,
			)
		} else {
			logger.Debug("request rejected",
				"method", req.HTTPMethod,
				"path", req.Path,
				"status", status,
				"error", err,
			)
		}
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{}, fmt.Errorf("encode response: %w", err)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type": "application/json",
			"X-Request-Id": requestID,
		},
		Body: string(raw),
	}, nil
}

func (h *Handler) route(ctx context.Context, req events.APIGatewayProxyRequest) (int, any, error) {
	method := strings.ToUpper(req.HTTPMethod)
	segs := h.segments(req.Path)
	query := queryValues(req)

	switch len(segs) {
	case 1:
		resource := segs[0]
		switch method {
		case http.MethodGet:
			if ids, ok, err := queryIDs(query); err != nil {
				return 0, nil, err
			} else if ok {
				return h.getMany(ctx, resource, ids)
			}
			return h.list(ctx, resource, query)
		case http.MethodPost:
			return h.create(ctx, resource, req)
		case http.MethodPatch, http.MethodPut:
			if ids, ok, err := queryIDs(query); err != nil {
				return 0, nil, err
			} else if ok {
				return h.updateMany(ctx, resource, ids, req)
			}
		case http.MethodDelete:
			if ids, ok, err := queryIDs(query); err != nil {
				return 0, nil, err
			} else if ok {
				return h.deleteMany(ctx, resource, ids)
			}
		}
	case 2:
		resource := segs[0]
		id, err := strconv.ParseInt(segs[1], 10, 64)
		if err != nil {
			break
		}
		switch method {
		case http.MethodGet:
			return h.get(ctx, resource, id)
		case http.MethodPatch, http.MethodPut:
			return h.update(ctx, resource, id, req)
		case http.MethodDelete:
			return h.remove(ctx, resource, id)
		}
	}
	return h.custom(ctx, method, req)
}

func (h *Handler) list(ctx context.Context, resource string, query map[string][]string) (int, any, error) {
	page := store.Pagination{
		Current:  firstInt(query[paramCurrent]),
		PageSize: firstInt(query[paramPageSize]),
	}
	res, err := h.store.List(ctx, resource, filtersFrom(query), page)
	if err != nil {
		return 0, nil, err
	}
	data, err := toMaps(res.Data)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, listResponse{Data: data, Total: res.Total}, nil
}

func (h *Handler) getMany(ctx context.Context, resource string, ids []int64) (int, any, error) {
	records, err := h.store.GetMany(ctx, resource, ids)
	if err != nil {
		return 0, nil, err
	}
	data, err := toMaps(records)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, manyResponse[map[string]any]{Data: data}, nil
}

func (h *Handler) get(ctx context.Context, resource string, id int64) (int, any, error) {
	r, err := h.store.Get(ctx, resource, id)
	if err != nil {
		return 0, nil, err
	}
	return recordResponse(http.StatusOK, r)
}

func (h *Handler) create(ctx context.Context, resource string, req events.APIGatewayProxyRequest) (int, any, error) {
	r, err := decodeBody(req)
	if err != nil {
		return 0, nil, err
	}
	created, err := h.store.Create(ctx, resource, r)
	if err != nil {
		return 0, nil, err
	}
	return recordResponse(http.StatusCreated, created)
}

func (h *Handler) update(ctx context.Context, resource string, id int64, req events.APIGatewayProxyRequest) (int, any, error) {
	patch, err := decodeBody(req)
	if err != nil {
		return 0, nil, err
	}
	updated, err := h.store.Update(ctx, resource, id, patch)
	if err != nil {
		return 0, nil, err
	}
	return recordResponse(http.StatusOK, updated)
}

func (h *Handler) updateMany(ctx context.Context, resource string, ids []int64, req events.APIGatewayProxyRequest) (int, any, error) {
	patch, err := decodeBody(req)
	if err != nil {
		return 0, nil, err
	}
	updated, err := h.store.UpdateMany(ctx, resource, ids, patch)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, manyResponse[int64]{Data: updated}, nil
}

func (h *Handler) remove(ctx context.Context, resource string, id int64) (int, any, error) {
	removed, err := h.store.Delete(ctx, resource, id)
	if err != nil {
		return 0, nil, err
	}
	return recordResponse(http.StatusOK, removed)
}

func (h *Handler) deleteMany(ctx context.Context, resource string, ids []int64) (int, any, error) {
	deleted, err := h.store.DeleteMany(ctx, resource, ids)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, manyResponse[int64]{Data: deleted}, nil
}

func (h *Handler) custom(ctx context.Context, method string, req events.APIGatewayProxyRequest) (int, any, error) {
	var payload store.Record
	if strings.TrimSpace(req.Body) != "" {
		p, err := decodeBody(req)
		if err != nil {
			return 0, nil, err
		}
		payload = p
	}
	out, err := h.store.Custom(ctx, store.CustomRequest{
		Method:  method,
		URL:     req.Path,
		Payload: payload,
	})
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, out, nil
}

// segments returns the path below BasePath. A path outside BasePath has no segments.
func (h *Handler) segments(path string) []string {
	p := "/" + strings.Trim(path, "/")
	if h.config.BasePath != "/" {
		rest, ok := strings.CutPrefix(p, h.config.BasePath)
		if !ok || (rest != "" && !strings.HasPrefix(rest, "/")) {
			return nil
		}
		p = rest
	}
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// filtersFrom turns every non-reserved query parameter into a filter:
// "field=value" is eq and "field_like=value" is contains. Filters are
// ordered by parameter name.
func filtersFrom(query map[string][]string) []store.Filter {
	names := make([]string, 0, len(query))
	for name := range query {
		switch name {
		case paramCurrent, paramPageSize, paramID:
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var filters []store.Filter
	for _, name := range names {
		values := query[name]
		if len(values) == 0 {
			continue
		}
		if field, ok := strings.CutSuffix(name, likeSuffix); ok && field != "" {
			filters = append(filters, store.Filter{Field: field, Operator: store.OpContains, Value: values[0]})
			continue
		}
		filters = append(filters, store.Filter{Field: name, Operator: store.OpEq, Value: values[0]})
	}
	return filters
}

// queryValues merges single and multi-value query parameters.
func queryValues(req events.APIGatewayProxyRequest) map[string][]string {
	out := make(map[string][]string, len(req.QueryStringParameters)+len(req.MultiValueQueryStringParameters))
	for k, v := range req.MultiValueQueryStringParameters {
		out[k] = v
	}
	for k, v := range req.QueryStringParameters {
		if _, ok := out[k]; !ok {
			out[k] = []string{v}
		}
	}
	return out
}

// queryIDs reads repeated or comma-separated "id" parameters.
func queryIDs(query map[string][]string) ([]int64, bool, error) {
	values, ok := query[paramID]
	if !ok {
		return nil, false, nil
	}
	var ids []int64
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, false, &store.ValidationError{Field: paramID, Reason: fmt.Sprintf("%q is not an integer", part)}
			}
			ids = append(ids, id)
		}
	}
	return ids, true, nil
}

func firstInt(values []string) int {
	if len(values) == 0 {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(values[0]))
	if err != nil {
		return 0
	}
	return n
}

func decodeBody(req events.APIGatewayProxyRequest) (store.Record, error) {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return nil, &store.ValidationError{Field: "body", Reason: "invalid base64"}
		}
		body = decoded
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return store.Record{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, &store.ValidationError{Field: "body", Reason: "must be a JSON object"}
	}
	return store.Encode(m)
}

func recordResponse(status int, r store.Record) (int, any, error) {
	m, err := r.Map()
	if err != nil {
		return 0, nil, err
	}
	return status, m, nil
}

func toMaps(records []store.Record) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(records))
	for _, r := range records {
		m, err := r.Map()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrValidation), errors.Is(err, store.ErrParentNotFound):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrUnimplemented):
		return http.StatusNotImplemented
	case errors.Is(err, store.ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
