//go:build e2e

// Package e2e contains end-to-end integration tests that seed a store from
// real DynamoDB tables and drive it through the API handler.
// Run with: go test -tags=e2e -v ./e2e/...
package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/VitaminC1989/SpecMaster/api"
	"github.com/VitaminC1989/SpecMaster/seed"
	"github.com/VitaminC1989/SpecMaster/store"
	"github.com/VitaminC1989/SpecMaster/stream"
)

// Test configuration
const (
	// profileEnv names the shared AWS profile to use; empty means the default chain.
	profileEnv = "SPECMASTER_E2E_PROFILE"

	// Table names - unique per test run to avoid conflicts
	tablePrefix = "specmaster-e2e-test"
)

var (
	testID string
	tables map[string]string

	ddbClient *dynamodb.Client
	dataset   store.Seed
)

// --- Test Setup & Teardown ---

func TestMain(m *testing.M) {
	testID = uuid.New().String()[:8]
	tables = map[string]string{}
	for _, resource := range []string{store.Styles, store.Variants, store.BOMItems} {
		tables[resource] = fmt.Sprintf("%s-%s-%s", tablePrefix, testID, resource)
	}

	fmt.Printf("Test ID: %s\n", testID)
	for resource, table := range tables {
		fmt.Printf("  - %s: %s\n", resource, table)
	}

	ctx := context.Background()
	var opts []func(*config.LoadOptions) error
	if profile := os.Getenv(profileEnv); profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		fmt.Printf("Failed to load AWS config: %v\n", err)
		os.Exit(1)
	}
	ddbClient = dynamodb.NewFromConfig(cfg)

	dataset, err = seed.Default()
	if err != nil {
		fmt.Printf("Failed to load dataset: %v\n", err)
		os.Exit(1)
	}

	if err := createTables(ctx); err != nil {
		fmt.Printf("Failed to create tables: %v\n", err)
		os.Exit(1)
	}
	if err := loadTables(ctx); err != nil {
		fmt.Printf("Failed to load tables: %v\n", err)
		_ = deleteTables(ctx)
		os.Exit(1)
	}

	code := m.Run()

	if err := deleteTables(ctx); err != nil {
		fmt.Printf("Failed to delete tables: %v\n", err)
	}

	os.Exit(code)
}

func createTables(ctx context.Context) error {
	fmt.Println("Creating test tables...")

	for _, tableName := range tables {
		_, err := ddbClient.CreateTable(ctx, &dynamodb.CreateTableInput{
			TableName: aws.String(tableName),
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
			},
			AttributeDefinitions: []types.AttributeDefinition{
				{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeN},
			},
			BillingMode: types.BillingModePayPerRequest,
		})
		if err != nil {
			return fmt.Errorf("create table %s: %w", tableName, err)
		}
	}

	for _, tableName := range tables {
		waiter := dynamodb.NewTableExistsWaiter(ddbClient)
		if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(tableName),
		}, 2*time.Minute); err != nil {
			return fmt.Errorf("wait for table %s: %w", tableName, err)
		}
	}

	fmt.Println("All tables created and active")
	return nil
}

// loadTables writes the embedded dataset into the test tables.
func loadTables(ctx context.Context) error {
	for resource, records := range dataset {
		for _, r := range records {
			_, err := ddbClient.PutItem(ctx, &dynamodb.PutItemInput{
				TableName: aws.String(tables[resource]),
				Item:      r,
			})
			if err != nil {
				return fmt.Errorf("put %s item: %w", resource, err)
			}
		}
	}
	return nil
}

func deleteTables(ctx context.Context) error {
	fmt.Println("Deleting test tables...")

	for _, tableName := range tables {
		_, err := ddbClient.DeleteTable(ctx, &dynamodb.DeleteTableInput{
			TableName: aws.String(tableName),
		})
		if err != nil {
			fmt.Printf("Warning: failed to delete table %s: %v\n", tableName, err)
		}
	}

	fmt.Println("Tables deleted")
	return nil
}

// newStore seeds a fresh store from the test tables.
func newStore(t *testing.T) *store.Store {
	t.Helper()
	ds, err := seed.FromDynamoDB(context.Background(), ddbClient, tables, nil)
	if err != nil {
		t.Fatalf("FromDynamoDB failed: %v", err)
	}
	return store.New(store.DefaultConfig(), ds)
}

func call(t *testing.T, h *api.Handler, method, path, body string) (int, map[string]any) {
	t.Helper()
	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: method,
		Path:       path,
		Body:       body,
	})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(resp.Body), &out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return resp.StatusCode, out
}

// --- Seeding Tests ---

func TestSeed_MatchesDataset(t *testing.T) {
	ds, err := seed.FromDynamoDB(context.Background(), ddbClient, tables, nil)
	if err != nil {
		t.Fatalf("FromDynamoDB failed: %v", err)
	}

	for resource, records := range dataset {
		got := ds[resource]
		if len(got) != len(records) {
			t.Fatalf("%s: expected %d records, got %d", resource, len(records), len(got))
		}
		for i := range records {
			want, _ := records[i].ID()
			id, _ := got[i].ID()
			if id != want {
				t.Errorf("%s[%d]: expected id %d, got %d", resource, i, want, id)
			}
		}
	}
}

func TestSeed_SpecLinesSurviveScan(t *testing.T) {
	s := newStore(t)

	r, err := s.Get(context.Background(), store.BOMItems, 1001)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	var item store.BOMItem
	if err := store.Decode(r, &item); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(item.SpecDetails) != 2 || item.SpecDetails[1].SpecValue != "75" {
		t.Errorf("unexpected spec lines %+v", item.SpecDetails)
	}
}

// --- API Tests ---

func TestAPI_CloneVariant(t *testing.T) {
	s := newStore(t)
	h := api.NewHandler(s, api.Config{}, nil)

	status, body := call(t, h, http.MethodPost, "/styles/1/variants/101/clone", `{"color_name":"藏青"}`)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", status, body)
	}
	if body["cloned_bom_count"] != float64(2) || body["cloned_spec_count"] != float64(3) {
		t.Errorf("unexpected summary %v", body)
	}

	id := int64(body["id"].(float64))
	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodGet,
		Path:                  "/bom_items",
		QueryStringParameters: map[string]string{"variant_id": fmt.Sprint(id)},
	})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	var list struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal([]byte(resp.Body), &list); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if list.Total != 2 {
		t.Errorf("expected 2 cloned bom_items, got %d", list.Total)
	}
}

func TestAPI_CascadeDeleteAudited(t *testing.T) {
	s := newStore(t)
	audit := stream.NewHandler(s, nil)
	feed := stream.NewFeed(stream.FeedConfig{}, nil)
	feed.Subscribe(audit.HandleChanges)
	s.SetChangeSink(feed)
	h := api.NewHandler(s, api.Config{}, nil)

	status, _ := call(t, h, http.MethodDelete, "/styles/1", "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}

	report := audit.Report()
	if report.CascadeRemoved[store.Variants] != 2 {
		t.Errorf("expected 2 cascaded variants, got %d", report.CascadeRemoved[store.Variants])
	}
	if report.Orphans[store.BOMItems] != 3 {
		t.Errorf("expected 3 orphaned bom_items, got %d", report.Orphans[store.BOMItems])
	}

	status, _ = call(t, h, http.MethodGet, "/variants/101", "")
	if status != http.StatusNotFound {
		t.Errorf("expected 404 for cascaded variant, got %d", status)
	}
}
