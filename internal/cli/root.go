// Package cli implements the specmaster command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"

	"github.com/VitaminC1989/SpecMaster/api"
	"github.com/VitaminC1989/SpecMaster/seed"
	"github.com/VitaminC1989/SpecMaster/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
}

// NewRootCommand creates the root command for the specmaster CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "specmaster",
		Short: "Style, variant and BOM catalog store",
		Long: `specmaster manages a style → variant → bom_item → spec line hierarchy
in memory, seeded from an embedded dataset, a YAML file or DynamoDB tables.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a TOML config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewCloneCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewLambdaCommand(opts))

	return cmd
}

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Current  int
	PageSize int
	Eq       []string
	Like     []string
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list <resource>",
		Short: "List records of a resource",
		Example: `  specmaster list bom_items --eq variant_id=101
  specmaster list styles --like style_name=衬衫 --page-size 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := parseFilters(opts.Eq, opts.Like)
			if err != nil {
				return err
			}
			app, err := newApp(cmd.Context(), opts.RootOptions, "list", cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			res, err := app.Store.List(cmd.Context(), args[0], filters, store.Pagination{
				Current:  opts.Current,
				PageSize: opts.PageSize,
			})
			if err != nil {
				return err
			}
			data := make([]map[string]any, 0, len(res.Data))
			for _, r := range res.Data {
				m, err := r.Map()
				if err != nil {
					return err
				}
				data = append(data, m)
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{"data": data, "total": res.Total})
		},
	}

	cmd.Flags().IntVar(&opts.Current, "current", 1, "page number (1-based)")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 10, "records per page")
	cmd.Flags().StringArrayVar(&opts.Eq, "eq", nil, "field=value equality filter (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Like, "like", nil, "field=value case-insensitive contains filter (repeatable)")

	return cmd
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <resource> <id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[1], err)
			}
			app, err := newApp(cmd.Context(), rootOpts, "get", cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			r, err := app.Store.Get(cmd.Context(), args[0], id)
			if err != nil {
				return err
			}
			m, err := r.Map()
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), m)
		},
	}
}

// NewCloneCommand creates the clone command.
func NewCloneCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "clone <variant-id> <color-name>",
		Short:   "Clone a variant with its bom_items and spec lines",
		Example: `  specmaster clone 101 藏青`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid variant id %q: %w", args[0], err)
			}
			app, err := newApp(cmd.Context(), rootOpts, "clone", cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			summary, err := app.Store.CloneVariant(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), summary)
		},
	}
}

// NewSeedCommand creates the seed command, which prints the configured dataset.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Print the configured seed dataset as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context(), rootOpts, "seed", cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ds := make(store.Seed)
			for _, resource := range []string{store.Styles, store.Variants, store.BOMItems} {
				res, err := app.Store.List(cmd.Context(), resource, nil, store.Pagination{PageSize: int(^uint(0) >> 1)})
				if err != nil {
					return err
				}
				ds[resource] = res.Data
			}
			out, err := seed.Dump(ds)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
}

// LambdaOptions holds flags for the lambda command.
type LambdaOptions struct {
	*RootOptions
	BasePath string
}

// NewLambdaCommand creates the lambda command, which serves API Gateway proxy
// requests until the Lambda runtime stops the process.
func NewLambdaCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LambdaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lambda",
		Short: "Serve the REST API as an AWS Lambda function",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context(), opts.RootOptions, "lambda", cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			h := api.NewHandler(app.Store, api.Config{BasePath: opts.BasePath}, app.Logger)
			app.Logger.Info("starting lambda handler", "basePath", opts.BasePath)
			lambda.Start(h.Handle)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.BasePath, "base-path", "", "path prefix stripped before routing")

	return cmd
}

func parseFilters(eq, like []string) ([]store.Filter, error) {
	var filters []store.Filter
	for _, group := range []struct {
		values []string
		op     store.Operator
	}{{eq, store.OpEq}, {like, store.OpContains}} {
		for _, kv := range group.values {
			field, value, ok := strings.Cut(kv, "=")
			if !ok || field == "" {
				return nil, fmt.Errorf("invalid filter %q: want field=value", kv)
			}
			filters = append(filters, store.Filter{Field: field, Operator: group.op, Value: value})
		}
	}
	return filters, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
