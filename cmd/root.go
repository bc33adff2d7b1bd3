/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Moe03/suparisma/internal/config"
	"github.com/Moe03/suparisma/internal/logging"
	"github.com/Moe03/suparisma/internal/sqlitegw"
	"github.com/Moe03/suparisma/pkg/liveview"
	"github.com/Moe03/suparisma/pkg/types"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "suparisma",
	Short: "A synchronized live window over a table, from the terminal.",
	Long: `A synchronized live window over a table, from the terminal.

Commands operate over a local sqlite-backed table; watch keeps a bounded,
ordered, filtered window of rows synchronized with change events.`,
	SilenceUsage: true,
}

var (
	flagConfig   string
	flagDB       string
	flagTable    string
	flagLogLevel string
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version
	rootCmd.CompletionOptions.HiddenDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default is $HOME/.config/suparisma/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "sqlite database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagTable, "table", "", "table name (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
}

// loadConfig resolves configuration and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, warnings, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, err
	}
	for _, w := range warnings {
		cmd.PrintErrln("warning:", w)
	}
	if flagDB != "" {
		cfg.DatabasePath = flagDB
	}
	if flagTable != "" {
		cfg.Table = flagTable
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	return cfg, nil
}

// openGateway opens the sqlite gateway described by cfg.
func openGateway(cfg config.Config) (*sqlitegw.Gateway, liveview.Logger, error) {
	log := logging.New(os.Stderr, logging.Config{Level: cfg.LogLevel})
	gw, err := sqlitegw.Open(cfg.DatabasePath, sqlitegw.WithLogger(log))
	if err != nil {
		return nil, nil, fmt.Errorf("open database %q: %w", cfg.DatabasePath, err)
	}
	return gw, log, nil
}

// newView builds a live view over cfg's table. Push is on only when the
// caller keeps the view alive (watch); one-shot commands skip it.
func newView(ctx context.Context, gw *sqlitegw.Gateway, log liveview.Logger, cfg config.Config, push bool) (*liveview.View, error) {
	return liveview.New(ctx, gw, cfg.Table, liveview.Options{
		EnablePush:   push,
		Limit:        cfg.Limit,
		SearchFields: cfg.SearchFields,
		Debounce:     time.Duration(cfg.DebounceMs) * time.Millisecond,
		Logger:       log,
	})
}

// parseFields turns field=value arguments into a row. Values are kept as
// strings; the store is schemaless.
func parseFields(args []string) (types.Row, error) {
	row := types.Row{}
	for _, arg := range args {
		field, value, ok := strings.Cut(arg, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("expected field=value, got %q", arg)
		}
		row[field] = value
	}
	return row, nil
}

// parseOrder parses "field" or "field:asc|desc" into a sort entry.
func parseOrder(arg string) (types.OrderEntry, error) {
	field, dir, ok := strings.Cut(arg, ":")
	if field == "" {
		return types.OrderEntry{}, fmt.Errorf("expected field[:asc|desc], got %q", arg)
	}
	entry := types.OrderEntry{Field: field, Direction: types.DirectionAsc}
	if ok {
		entry.Direction = types.Direction(dir)
		if !entry.Direction.IsValid() {
			return types.OrderEntry{}, fmt.Errorf("invalid direction %q", dir)
		}
	}
	return entry, nil
}

// renderRowLine flattens a row as "key  field=value ...", identifier
// first, remaining fields in name order.
func renderRowLine(row types.Row, keyField string) string {
	fields := make([]string, 0, len(row))
	for f := range row {
		if f != keyField {
			fields = append(fields, f)
		}
	}
	sort.Strings(fields)

	parts := []string{fmt.Sprint(row[keyField])}
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s=%v", f, row[f]))
	}
	return strings.Join(parts, "  ")
}
