/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Fetch a single row by identifier",
	Long: `Fetch a single row by identifier.

USAGE:
    suparisma get <id>`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
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

	row, err := view.FindUnique(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(row, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
