// Package stream renders store changes as DynamoDB stream records and
// provides a handler that audits them.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/aws/aws-lambda-go/events"

	"github.com/VitaminC1989/SpecMaster/store"
)

// Report summarizes the records a Handler has seen.
type Report struct {
	// Records is the number of stream records processed.
	Records int

	// Removed counts caller removals per resource.
	Removed map[string]int

	// CascadeRemoved counts removals made by a relationship rule per resource.
	CascadeRemoved map[string]int

	// Orphans counts records left referencing a cascade-removed parent, per resource.
	Orphans map[string]int
}

// Handler processes stream records for cascade auditing. Deletes cascade one
// level only, so when a cascade removes a record that itself has children the
// handler looks them up and reports them as orphans. It never deletes them.
type Handler struct {
	store  *store.Store
	logger *slog.Logger

	mu     sync.Mutex
	report Report
}

// NewHandler creates a new stream handler. A nil store disables orphan lookups.
func NewHandler(s *store.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:  s,
		logger: logger,
		report: newReport(),
	}
}

func newReport() Report {
	return Report{
		Removed:        make(map[string]int),
		CascadeRemoved: make(map[string]int),
		Orphans:        make(map[string]int),
	}
}

// HandleChanges processes a batch of stream records. It can be registered
// with Feed.Subscribe or used directly as an AWS Lambda handler.
func (h *Handler) HandleChanges(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"error", err,
			)
			return err
		}
	}
	return nil
}

// Report returns a copy of the accumulated counters.
func (h *Handler) Report() Report {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := Report{
		Records:        h.report.Records,
		Removed:        make(map[string]int, len(h.report.Removed)),
		CascadeRemoved: make(map[string]int, len(h.report.CascadeRemoved)),
		Orphans:        make(map[string]int, len(h.report.Orphans)),
	}
	for k, v := range h.report.Removed {
		out.Removed[k] = v
	}
	for k, v := range h.report.CascadeRemoved {
		out.CascadeRemoved[k] = v
	}
	for k, v := range h.report.Orphans {
		out.Orphans[k] = v
	}
	return out
}

// processRecord processes a single DynamoDB stream record.
func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	resource, err := ResourceFromARN(record.EventSourceArn)
	if err != nil {
		return err
	}
	id, ok := ConvertStreamKey(record.Change.Keys).ID()
	if !ok {
		return fmt.Errorf("stream record %s has no numeric id key", record.EventID)
	}

	h.mu.Lock()
	h.report.Records++
	h.mu.Unlock()

	// Only removals are audited.
	if record.EventName != string(store.ActionRemove) {
		h.logger.Debug("stream record",
			"event", record.EventName,
			"resource", resource,
			"id", id,
		)
		return nil
	}

	if !isCascade(record) {
		h.mu.Lock()
		h.report.Removed[resource]++
		h.mu.Unlock()
		return nil
	}

	h.mu.Lock()
	h.report.CascadeRemoved[resource]++
	h.mu.Unlock()

	if h.store == nil {
		h.logger.Info("processing cascade removal",
			"resource", resource,
			"id", id,
			"sequence", record.Change.SequenceNumber,
		)
		return nil
	}

	// The old image names the parent whose deletion caused this removal.
	old := ConvertImage(record.Change.OldImage)
	attrs := []any{"resource", resource, "id", id, "sequence", record.Change.SequenceNumber}
	for _, rel := range h.store.Registry().ParentsOf(resource) {
		if v, ok := old[rel.ParentKeyAttr]; ok {
			if parentID, ok := (store.Record{store.IDAttr: v}).ID(); ok {
				attrs = append(attrs, "parent", rel.ParentResource, "parentId", parentID)
			}
		}
	}
	h.logger.Info("processing cascade removal", attrs...)

	for _, rel := range h.store.Registry().ChildrenOf(resource) {
		res, err := h.store.List(ctx, rel.ChildResource,
			[]store.Filter{{Field: rel.ParentKeyAttr, Operator: store.OpEq, Value: id}},
			store.Pagination{PageSize: 1})
		if err != nil {
			return fmt.Errorf("query children: %w", err)
		}
		if res.Total == 0 {
			continue
		}
		h.mu.Lock()
		h.report.Orphans[rel.ChildResource] += res.Total
		h.mu.Unlock()

		h.logger.Warn("records orphaned by cascade",
			"parent", resource,
			"parentId", id,
			"child", rel.ChildResource,
			"childCount", res.Total,
		)
	}
	return nil
}

func isCascade(record events.DynamoDBEventRecord) bool {
	return record.UserIdentity != nil && record.UserIdentity.PrincipalID == CascadePrincipal
}

// ResourceFromARN extracts the table name from a DynamoDB stream ARN
// ("arn:aws:dynamodb:region:account:table/NAME/stream/LABEL").
func ResourceFromARN(arn string) (string, error) {
	_, rest, ok := strings.Cut(arn, ":table/")
	if !ok {
		return "", fmt.Errorf("not a dynamodb table arn: %q", arn)
	}
	table, _, _ := strings.Cut(rest, "/")
	if table == "" {
		return "", fmt.Errorf("not a dynamodb table arn: %q", arn)
	}
	return table, nil
}
