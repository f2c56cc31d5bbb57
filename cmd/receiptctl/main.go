// Command receiptctl renders, prints and exports receipts from the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/erp/receipt/internal/infrastructure/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries state shared by all subcommands
type app struct {
	logLevel string
	log      *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop()}

	root := &cobra.Command{
		Use:   "receiptctl",
		Short: "Render, print and export POS receipts",
		Long: `receiptctl works with sale documents in YAML or JSON, the same payload a
checkout sends to the print service.

Example Usage:
  receiptctl render --input sale.yaml --out receipt.html
  receiptctl render --input sale.json --format pdf --out receipt.pdf
  receiptctl print --input sale.yaml --mode automatico --server http://localhost:8080
  receiptctl jobs export --out jobs.xlsx
  receiptctl terminal hash-secret`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log, err := logger.New(&logger.Config{
				Level:      a.logLevel,
				Format:     "console",
				Output:     "stderr",
				TimeFormat: "15:04:05",
			})
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.log = log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = logger.Sync(a.log)
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newRenderCmd(a),
		newPrintCmd(a),
		newJobsCmd(a),
		newTerminalCmd(),
	)
	return root
}
