package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nbforge/kernelbridge/completion"
	"github.com/nbforge/kernelbridge/config"
	"github.com/nbforge/kernelbridge/kernel"
	"github.com/nbforge/kernelbridge/kernel/gateway"
	"github.com/nbforge/kernelbridge/logger"
	"github.com/nbforge/kernelbridge/server"
	"github.com/nbforge/kernelbridge/session"
	"github.com/nbforge/kernelbridge/telemetry"
)

// ServeCmd starts the LSP completion front end
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the LSP completion front end",
	Long: `Start an LSP server over WebSocket answering textDocument/completion
requests from live kernel sessions.

A notebook session can be established at startup by naming a kernel and the
notebook it backs:

  kernelbridge serve --kernel 5f2c... --notebook file:///work/analysis.ipynb

Without those flags the server starts with no sessions; completions degrade
to empty lists until sessions are registered.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		kernelID, _ := cmd.Flags().GetString("kernel")
		notebookURI, _ := cmd.Flags().GetString("notebook")
		return runServe(addr, kernelID, notebookURI)
	},
}

func init() {
	ServeCmd.Flags().String("addr", "", "Listen address (overrides config)")
	ServeCmd.Flags().String("kernel", "", "Kernel ID to connect at startup")
	ServeCmd.Flags().String("notebook", "", "Notebook URI the kernel backs")
}

func runServe(addr, kernelID, notebookURI string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}

	factory := gateway.NewSessionFactory(gateway.Config{
		URL:               cfg.Gateway.URL,
		HandshakeTimeout:  time.Duration(cfg.Gateway.HandshakeTimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.Gateway.RequestsPerSecond,
		Logger:            logger.Logger,
	})

	registry, err := session.NewRegistry(session.Config{
		Factory: factory,
		Emitter: telemetry.NewZapEmitter(logger.Logger),
		Logger:  logger.Logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Mark the raw connection live and optionally establish a session up front
	registry.Connect(false)
	if kernelID != "" && notebookURI != "" {
		future := registry.CreateNotebookSession(ctx, kernel.Notebook{URI: notebookURI}, notebookURI,
			session.ConnectionMetadata{ID: kernelID, KernelName: "python3", LocalLaunch: true}, true)
		if _, err := future.Await(ctx); err != nil {
			return err
		}
		logger.Infow("notebook session established", "notebook", notebookURI, "kernel", kernelID)
	}

	adapter := completion.NewAdapter(completion.Config{
		Resolver: kernel.CellResolver{},
		Kernels:  registry.Provider(),
		Timeout:  cfg.Completion.Timeout(),
		Logger:   logger.Logger,
	})
	handler := server.NewHandler(adapter, cfg.Server.MaxDocuments, logger.Logger)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe(addr, handler, logger.Logger)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
		logger.Infow("shutting down, disposing kernel sessions")
		disposeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return registry.DisposeAll(disposeCtx)
	}
}
