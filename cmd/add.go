/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// addCmd represents the add command
var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Insert a row into the table",
	Long: `Insert a row into the table.

USAGE:
    suparisma add <field=value> [field=value ...]

The identifier and creation timestamp are assigned automatically.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	row, err := parseFields(args)
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

	created, err := view.Create(cmd.Context(), row)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), created[view.Options().KeyField])
	return nil
}
