package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/hertz/internal/viz"
	"github.com/spf13/cobra"
)

var (
	clockPreset string
	clockTheme  string
)

func clockCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clock",
		Short: "watch the clock in the terminal; scroll to bring the hearts in sync",
		Args:  cobra.NoArgs,
		RunE:  runClock,
	}
	cmd.Flags().StringVar(&clockPreset, "preset", "", "clock preset (see presets)")
	cmd.Flags().StringVar(&clockTheme, "theme", "walnut", "color theme (walnut, night, paper)")
	return cmd
}

func runClock(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	clockCfg, err := resolveClock(cfg, clockPreset)
	if err != nil {
		return err
	}
	if err := clockCfg.Validate(); err != nil {
		return err
	}

	m := viz.NewClockModel(clockCfg).WithTheme(viz.ThemeByName(clockTheme))
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(cmd.Context()))
	_, err = p.Run()
	return err
}
