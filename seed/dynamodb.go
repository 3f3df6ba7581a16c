package seed

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/VitaminC1989/SpecMaster/store"
)

// DefaultTables maps each hierarchy resource to a table of the same name.
func DefaultTables() map[string]string {
	return map[string]string{
		store.Styles:   store.Styles,
		store.Variants: store.Variants,
		store.BOMItems: store.BOMItems,
	}
}

// FromDynamoDB builds a dataset by scanning one table per resource.
// tables maps resource name to table name. Items are ordered by id, since a
// scan has no defined order. Every item must carry a numeric "id".
func FromDynamoDB(ctx context.Context, client dynamodb.ScanAPIClient, tables map[string]string, logger *slog.Logger) (store.Seed, error) {
	if logger == nil {
		logger = slog.Default()
	}
	seed := make(store.Seed, len(tables))
	for resource, table := range tables {
		records, err := scanTable(ctx, client, table)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		seed[resource] = records
		logger.Info("seed table scanned",
			"resource", resource,
			"table", table,
			"count", len(records),
		)
	}
	if err := seed.Validate(); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	return seed, nil
}

func scanTable(ctx context.Context, client dynamodb.ScanAPIClient, table string) ([]store.Record, error) {
	paginator := dynamodb.NewScanPaginator(client, &dynamodb.ScanInput{
		TableName:      aws.String(table),
		ConsistentRead: aws.Bool(true),
	})

	var records []store.Record
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			rec := store.Record(item)
			if _, ok := rec.ID(); !ok {
				return nil, fmt.Errorf("item without numeric id in %s", table)
			}
			records = append(records, rec)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		a, _ := records[i].ID()
		b, _ := records[j].ID()
		return a < b
	})
	return records, nil
}
