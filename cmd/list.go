/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Moe03/suparisma/pkg/liveview"
	"github.com/Moe03/suparisma/pkg/types"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List rows in the current window",
	Long: `List rows in the current window.

USAGE:
    suparisma list [OPTIONS]

OPTIONS:
    --where <field=value>   Equality filter, repeatable
    --order <field:dir>     Sort entry, e.g. createdAt:desc
    --limit <n>             Window size
    --json                  Emit one JSON object per line`,
	RunE: runList,
}

var (
	listWhere []string
	listOrder string
	listLimit int
	listJSON  bool
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringArrayVar(&listWhere, "where", nil, "Equality filter, repeatable (field=value)")
	listCmd.Flags().StringVar(&listOrder, "order", "", "Sort entry (field:asc|desc)")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Window size")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Emit one JSON object per line")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	params, err := buildListParams()
	if err != nil {
		return err
	}
	if listLimit > 0 {
		cfg.Limit = listLimit
	}

	gw, log, err := openGateway(cfg)
	if err != nil {
		return err
	}
	defer gw.Close()

	view, err := newView(cmd.Context(), gw, log, cfg, false)
	if err != nil {
		return err
	}
	defer view.Close()

	rows, err := view.FindMany(cmd.Context(), params)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if listJSON {
			line, err := json.Marshal(row)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(line))
			continue
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderRowLine(row, view.Options().KeyField))
	}
	return nil
}

// buildListParams translates the list flags into fetch parameters.
// Returns nil when no flag overrides the view's own options.
func buildListParams() (*liveview.FindParams, error) {
	var params liveview.FindParams
	touched := false

	if len(listWhere) > 0 {
		row, err := parseFields(listWhere)
		if err != nil {
			return nil, err
		}
		filter := types.Predicate{}
		for field, value := range row {
			filter[field] = []types.Condition{types.Equals(value)}
		}
		params.Filter = filter
		touched = true
	}
	if listOrder != "" {
		entry, err := parseOrder(listOrder)
		if err != nil {
			return nil, err
		}
		params.Order = types.OrderSpec{entry}
		touched = true
	}
	if listLimit > 0 {
		params.Limit = listLimit
		touched = true
	}
	if !touched {
		return nil, nil
	}
	return &params, nil
}
