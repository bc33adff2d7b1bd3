/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Moe03/suparisma/pkg/types"
)

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete rows by identifier or filter",
	Long: `Delete rows by identifier or filter.

USAGE:
    suparisma delete <id>
    suparisma delete --where <field=value> [--where ...]`,
	RunE: runDelete,
}

var deleteWhere []string

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().StringArrayVar(&deleteWhere, "where", nil, "Equality filter, repeatable (field=value)")
}

func runDelete(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && len(deleteWhere) == 0 {
		return fmt.Errorf("delete requires an id or at least one --where")
	}
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

	if len(args) > 0 {
		if _, err := view.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "deleted 1 row")
		return nil
	}

	row, err := parseFields(deleteWhere)
	if err != nil {
		return err
	}
	filter := types.Predicate{}
	for field, value := range row {
		filter[field] = []types.Condition{types.Equals(value)}
	}
	n, err := view.DeleteMany(cmd.Context(), filter)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d rows\n", n)
	return nil
}
