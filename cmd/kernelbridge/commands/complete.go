package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/nbforge/kernelbridge/completion"
	"github.com/nbforge/kernelbridge/config"
	"github.com/nbforge/kernelbridge/kernel"
	"github.com/nbforge/kernelbridge/kernel/gateway"
	"github.com/nbforge/kernelbridge/logger"
)

// CompleteCmd requests completions from a kernel once and prints them
var CompleteCmd = &cobra.Command{
	Use:   "complete",
	Short: "Request completions from a kernel once and print them",
	Long: `Dial a kernel gateway, issue a single completion request, and print
the ranked candidates.

The cursor defaults to the end of the code. Examples:

  kernelbridge complete --kernel 5f2c... --code "import os; os.pa"
  kernelbridge complete --kernel 5f2c... --file cell.py --cursor 12`,
	RunE: func(cmd *cobra.Command, args []string) error {
		kernelID, _ := cmd.Flags().GetString("kernel")
		code, _ := cmd.Flags().GetString("code")
		file, _ := cmd.Flags().GetString("file")
		cursor, _ := cmd.Flags().GetInt("cursor")
		return runComplete(kernelID, code, file, cursor)
	},
}

func init() {
	CompleteCmd.Flags().String("kernel", "", "Kernel ID to complete against (required)")
	CompleteCmd.Flags().String("code", "", "Code to complete")
	CompleteCmd.Flags().String("file", "", "Read code from this file instead of --code")
	CompleteCmd.Flags().Int("cursor", -1, "Cursor offset (defaults to end of code)")
	CompleteCmd.MarkFlagRequired("kernel")
}

// staticResolver resolves every document to one fixed notebook.
type staticResolver struct {
	notebook kernel.Notebook
}

func (r staticResolver) NotebookFor(string) *kernel.Notebook {
	nb := r.notebook
	return &nb
}

// staticProvider serves one fixed session.
type staticProvider struct {
	sess kernel.Session
}

func (p staticProvider) KernelFor(kernel.Notebook) kernel.Kernel {
	return staticKernel{sess: p.sess}
}

type staticKernel struct {
	sess kernel.Session
}

func (k staticKernel) Session() kernel.Session {
	return k.sess
}

func runComplete(kernelID, code, file string, cursor int) error {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		code = string(data)
	}
	if code == "" {
		return fmt.Errorf("provide code via --code or --file")
	}
	if cursor < 0 || cursor > len(code) {
		cursor = len(code)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sess, err := gateway.Dial(ctx, gateway.Config{
		URL:               cfg.Gateway.URL,
		KernelID:          kernelID,
		HandshakeTimeout:  time.Duration(cfg.Gateway.HandshakeTimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.Gateway.RequestsPerSecond,
		Logger:            logger.Logger,
	})
	if err != nil {
		return err
	}
	defer sess.Dispose(context.Background())

	notebook := kernel.Notebook{URI: "cli://scratch.ipynb"}
	adapter := completion.NewAdapter(completion.Config{
		Resolver: staticResolver{notebook: notebook},
		Kernels:  staticProvider{sess: sess},
		Timeout:  cfg.Completion.Timeout(),
		Logger:   logger.Logger,
	})

	doc := kernel.Document{
		URI:          notebook.URI + "#cell0",
		NotebookCell: true,
		Text:         code,
	}
	items := adapter.ProvideCompletions(ctx, doc, cursor)

	if len(items) == 0 {
		pterm.Warning.Println("No completions")
		return nil
	}

	data := pterm.TableData{{"Label", "Kind", "Range", "Sort"}}
	for _, item := range items {
		span := ""
		if item.Range != nil {
			span = fmt.Sprintf("[%d,%d)", item.Range.Start, item.Range.End)
		}
		kind := ""
		if item.Kind != 0 {
			kind = completion.KindName(item.Kind)
		}
		data = append(data, []string{item.Label, kind, span, item.SortText})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}

	pterm.Success.Printf("%d completions\n", len(items))
	return nil
}
