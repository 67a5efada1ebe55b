package main

import (
	"fmt"
	"os"

	"github.com/san-kum/hertz/internal/config"
	"github.com/san-kum/hertz/internal/session"
	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool
)

// main registers the hertz commands and exits with status 1 when one fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "hertz",
		Short:         "coupled pendulum clock and order backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(serveCommand(), simulateCommand(), clockCommand(), presetsCommand(), sessionCommand(), configCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads --config (if any) over the defaults and the environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// resolveClock picks the clock settings: a named preset when given, the
// config file otherwise.
func resolveClock(cfg *config.Config, preset string) (config.ClockConfig, error) {
	if preset == "" {
		return cfg.Clock, nil
	}
	p := config.GetPreset(preset)
	if p == nil {
		return config.ClockConfig{}, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
	}
	return *p, nil
}

func presetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list clock presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range config.ListPresets() {
				p := config.Presets[name]
				fmt.Fprintf(out, "  %-10s ω=%.2f damping=%.4f coupling≤%.2f escapement=%.3f start=(%.0f°, %.0f°)\n",
					name, p.Physics.NaturalFrequency, p.Physics.Damping, p.Physics.MaxCoupling,
					p.Physics.Escapement, p.LeftAngle, p.RightAngle)
			}
			return nil
		},
	}
}

func sessionCommand() *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "session identifier helpers",
	}
	sessionCmd.AddCommand(&cobra.Command{
		Use:   "new",
		Short: "print a fresh session id",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), session.NewID())
		},
	}, &cobra.Command{
		Use:   "check [id]",
		Short: "validate a session id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !session.ValidID(args[0]) {
				return session.ErrInvalidID
			}
			fmt.Fprintln(cmd.OutOrStdout(), "valid")
			return nil
		},
	})
	return sessionCmd
}

func configCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "configuration helpers",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "write the effective configuration as yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := config.Save(args[0], cfg); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			return nil
		},
	})
	return configCmd
}
