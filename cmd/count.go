/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Moe03/suparisma/pkg/types"
)

// countCmd represents the count command
var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Count rows matching a filter",
	Long: `Count rows matching a filter.

USAGE:
    suparisma count [--where field=value ...]`,
	RunE: runCount,
}

var countWhere []string

func init() {
	rootCmd.AddCommand(countCmd)

	countCmd.Flags().StringArrayVar(&countWhere, "where", nil, "Equality filter, repeatable (field=value)")
}

func runCount(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
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

	var filter types.Predicate
	if len(countWhere) > 0 {
		row, err := parseFields(countWhere)
		if err != nil {
			return err
		}
		filter = types.Predicate{}
		for field, value := range row {
			filter[field] = []types.Condition{types.Equals(value)}
		}
	}

	n, err := view.Count(cmd.Context(), filter)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), n)
	return nil
}
