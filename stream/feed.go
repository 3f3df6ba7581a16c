package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"github.com/VitaminC1989/SpecMaster/store"
)

const (
	eventSource  = "aws:dynamodb"
	eventVersion = "1.1"

	// CascadePrincipal identifies removals performed by a relationship rule
	// in the UserIdentity of a stream record.
	CascadePrincipal = "specmaster.cascade"
)

// Subscriber consumes a batch of stream records. Handler.HandleChanges is a Subscriber.
type Subscriber func(ctx context.Context, event events.DynamoDBEvent) error

// FeedConfig holds the values stamped onto every stream record.
type FeedConfig struct {
	// Region is reported as awsRegion.
	// Default: "local"
	Region string

	// AccountID is used to build eventSourceARN.
	// Default: "000000000000"
	AccountID string
}

func (c *FeedConfig) validate() {
	if c.Region == "" {
		c.Region = "local"
	}
	if c.AccountID == "" {
		c.AccountID = "000000000000"
	}
}

// Feed is a store.ChangeSink that renders committed changes as DynamoDB
// stream records and delivers them to its subscribers in order.
type Feed struct {
	mu          sync.RWMutex
	config      FeedConfig
	subscribers []Subscriber
	logger      *slog.Logger
	started     time.Time
}

var _ store.ChangeSink = (*Feed)(nil)

// NewFeed creates a feed with no subscribers.
func NewFeed(config FeedConfig, logger *slog.Logger) *Feed {
	config.validate()
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{
		config:  config,
		logger:  logger,
		started: time.Now().UTC(),
	}
}

// Subscribe adds a subscriber. Subscribers run synchronously in the order added.
func (f *Feed) Subscribe(s Subscriber) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribers = append(f.subscribers, s)
}

// Publish converts changes into one DynamoDBEvent and hands it to every
// subscriber. All subscribers run; their errors are joined.
func (f *Feed) Publish(ctx context.Context, changes []store.Change) error {
	if len(changes) == 0 {
		return nil
	}
	f.mu.RLock()
	subs := append([]Subscriber(nil), f.subscribers...)
	f.mu.RUnlock()
	if len(subs) == 0 {
		return nil
	}

	event := events.DynamoDBEvent{Records: make([]events.DynamoDBEventRecord, 0, len(changes))}
	for _, c := range changes {
		event.Records = append(event.Records, f.Record(c))
	}

	var errs []error
	for _, sub := range subs {
		if err := sub(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		f.logger.Warn("stream subscriber failed",
			"records", len(event.Records),
			"failures", len(errs),
		)
		return fmt.Errorf("deliver stream records: %w", errors.Join(errs...))
	}
	return nil
}

// Record renders a single change as a stream record with NEW_AND_OLD_IMAGES.
func (f *Feed) Record(c store.Change) events.DynamoDBEventRecord {
	rec := events.DynamoDBEventRecord{
		AWSRegion:      f.config.Region,
		EventID:        uuid.NewString(),
		EventName:      string(c.Action),
		EventSource:    eventSource,
		EventVersion:   eventVersion,
		EventSourceArn: f.SourceARN(c.Resource),
		Change: events.DynamoDBStreamRecord{
			ApproximateCreationDateTime: events.SecondsEpochTime{Time: c.At},
			Keys: map[string]events.DynamoDBAttributeValue{
				store.IDAttr: events.NewNumberAttribute(strconv.FormatInt(c.ID, 10)),
			},
			OldImage:       StreamImage(c.Old),
			NewImage:       StreamImage(c.New),
			SequenceNumber: fmt.Sprintf("%021d", c.Seq),
			StreamViewType: "NEW_AND_OLD_IMAGES",
		},
	}
	if c.Cascade {
		rec.UserIdentity = &events.DynamoDBUserIdentity{
			Type:        "Service",
			PrincipalID: CascadePrincipal,
		}
	}
	return rec
}

// SourceARN returns the stream ARN reported for a resource's table.
func (f *Feed) SourceARN(resource string) string {
	return fmt.Sprintf("arn:aws:dynamodb:%s:%s:table/%s/stream/%s",
		f.config.Region, f.config.AccountID, resource, f.started.Format("2006-01-02T15:04:05.000"))
}
