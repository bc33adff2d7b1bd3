/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Moe03/suparisma/internal/tui"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the table in an interactive live window",
	Long: `Watch the table in an interactive live window.

USAGE:
    suparisma watch [OPTIONS]

The window stays synchronized with inserts, updates and deletes as they
happen. Press / to search, x to delete the selected row, q to quit.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(cfg.SearchFields) == 0 {
		return fmt.Errorf("watch requires at least one search field in configuration")
	}

	gw, log, err := openGateway(cfg)
	if err != nil {
		return err
	}
	defer gw.Close()

	view, err := newView(cmd.Context(), gw, log, cfg, true)
	if err != nil {
		return err
	}
	defer view.Close()

	model := tui.New(view, cfg.SearchFields[0])
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	return err
}
