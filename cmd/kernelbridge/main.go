package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nbforge/kernelbridge/cmd/kernelbridge/commands"
	"github.com/nbforge/kernelbridge/logger"
)

var rootCmd = &cobra.Command{
	Use:   "kernelbridge",
	Short: "kernelbridge - notebook completion bridge to live compute kernels",
	Long: `kernelbridge bridges notebook editors with live compute kernels.

It answers editor completion requests from a kernel's introspection protocol
and manages raw kernel connections and per-notebook sessions.

Available commands:
  serve    - Start the LSP completion front end over WebSocket
  complete - Request completions from a kernel once and print them
  version  - Show version information

Examples:
  kernelbridge serve                                   # Serve LSP on the configured address
  kernelbridge complete --kernel <id> --code "os.pa"   # One-shot completion
  kernelbridge version --json                          # Machine-readable version`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.Initialize(jsonOutput); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit logs as JSON")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.CompleteCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
