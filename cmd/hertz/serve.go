package main

import (
	"context"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/san-kum/hertz/internal/api"
	"github.com/san-kum/hertz/internal/config"
	"github.com/san-kum/hertz/internal/logging"
	"github.com/san-kum/hertz/internal/storage"
	"github.com/san-kum/hertz/internal/workflow"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	serveAddr string
	serveDB   string
)

func serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP backend",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&serveDB, "db", "", "sqlite database path (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if serveDB != "" {
		cfg.Database.Path = serveDB
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := storage.Open(cfg.Database.Path, storage.WithLogger(logger.Named("storage")))
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Init(ctx); err != nil {
		return err
	}

	flow := workflow.New(workflowConfig(cfg.Workflow), logger.Named("workflow"))
	for _, hook := range []workflow.Hook{workflow.HookOrders, workflow.HookProduction, workflow.HookCards, workflow.HookWaitlist} {
		if !flow.Configured(hook) {
			logger.Warn("webhook not configured, endpoint disabled", zap.String("hook", string(hook)))
		}
	}

	srv := api.New(api.Options{
		Config:   cfg,
		Store:    st,
		Workflow: flow,
		Logger:   logger,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(cfg.Server.Addr)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func workflowConfig(c config.WorkflowConfig) workflow.Config {
	return workflow.Config{
		URLs: map[workflow.Hook]string{
			workflow.HookOrders:     c.OrderURL,
			workflow.HookProduction: c.ProductionURL,
			workflow.HookCards:      c.CardsURL,
			workflow.HookWaitlist:   c.WaitlistURL,
		},
		Secret:  c.Secret,
		Timeout: c.Timeout,
	}
}
