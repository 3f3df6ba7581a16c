package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"

	"github.com/VitaminC1989/SpecMaster/internal/config"
	"github.com/VitaminC1989/SpecMaster/seed"
	"github.com/VitaminC1989/SpecMaster/store"
	"github.com/VitaminC1989/SpecMaster/stream"
)

// App is a configured store with its logger and optional audit handler.
type App struct {
	Config *config.Config
	Store  *store.Store
	Logger *slog.Logger
	Audit  *stream.Handler
}

// scanClientFactory builds the DynamoDB client for source=dynamodb. Tests replace it.
var scanClientFactory = func(ctx context.Context, cfg config.SeedConfig) (dynamodb.ScanAPIClient, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(awsCfg), nil
}

// newApp reads the config and builds the store. operation identifies the
// command being run and is logged with a fresh operation id.
func newApp(ctx context.Context, opts *RootOptions, operation string, logOut io.Writer) (*App, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		c, err := config.ReadFromFile(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		cfg = c
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}

	logger, err := cfg.NewLogger(logOut)
	if err != nil {
		return nil, err
	}
	logger = logger.With("operation", operation, "opId", uuid.NewString())

	ds, err := loadSeed(ctx, cfg.Seed, logger)
	if err != nil {
		return nil, fmt.Errorf("loading seed: %w", err)
	}

	s := store.New(cfg.StoreConfig(), ds)
	s.SetLogger(logger)

	app := &App{Config: cfg, Store: s, Logger: logger}
	if cfg.Stream.Audit {
		feed := stream.NewFeed(stream.FeedConfig{Region: cfg.Stream.Region}, logger)
		app.Audit = stream.NewHandler(s, logger)
		feed.Subscribe(app.Audit.HandleChanges)
		s.SetChangeSink(feed)
	}
	return app, nil
}

func loadSeed(ctx context.Context, cfg config.SeedConfig, logger *slog.Logger) (store.Seed, error) {
	switch cfg.Source {
	case config.SeedEmpty:
		return store.Seed{}, nil
	case config.SeedFile:
		return seed.LoadFile(cfg.Path)
	case config.SeedDynamoDB:
		client, err := scanClientFactory(ctx, cfg)
		if err != nil {
			return nil, err
		}
		tables := cfg.Tables
		if len(tables) == 0 {
			tables = seed.DefaultTables()
		}
		return seed.FromDynamoDB(ctx, client, tables, logger)
	default:
		return seed.Default()
	}
}
