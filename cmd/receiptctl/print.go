package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	printingapp "github.com/erp/receipt/internal/application/printing"
	"github.com/erp/receipt/internal/infrastructure/printclient"
	infra "github.com/erp/receipt/internal/infrastructure/printing"
	"github.com/erp/receipt/internal/infrastructure/surface"
)

func newPrintCmd(a *app) *cobra.Command {
	var (
		rf         receiptFlags
		server     string
		token      string
		printer    string
		surfaceDir string
		timeout    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "print",
		Short: "Dispatch a sale the way the checkout does",
		Long: `print composes the receipt and dispatches it by print mode. Automatic mode
submits the document to the print service at --server. The other modes write
the document with its print trigger to an HTML file in --surface-dir.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := rf.load(cmd)
			if err != nil {
				return err
			}
			tx, company, cfg := req.Resolve()
			tx = tx.WithDerivedTotals()
			if printer != "" {
				tx.PrinterName = printer
			}

			var submitter printingapp.Submitter
			if cfg.Mode.IsAutomatic() {
				if server == "" {
					return errors.New("--server is required in automatic mode")
				}
				client, err := printclient.New(&printclient.Config{
					BaseURL: server,
					Timeout: timeout,
					Token:   token,
					Logger:  a.log,
				})
				if err != nil {
					return err
				}
				submitter = client
			}

			opener := surface.NewFileOpener(surfaceDir, a.log)
			dispatch := printingapp.DispatchRequest{Transaction: &tx, Company: company, Config: cfg}
			var fileSurface *surface.FileSurface
			if !cfg.Mode.IsAutomatic() {
				opened, err := opener.Open(printingapp.SurfaceName, printingapp.DefaultSurfaceGeometry)
				if err == nil && opened != nil {
					dispatch.Surface = opened
					fileSurface, _ = opened.(*surface.FileSurface)
				}
			}

			dispatcher := printingapp.NewDispatcher(
				infra.NewComposer(),
				submitter,
				opener,
				surface.NewLogNotifier(a.log),
				a.log,
			)
			outcome := dispatcher.Dispatch(cmd.Context(), dispatch)
			if !outcome.OK() {
				return fmt.Errorf("dispatch ended in %s: %w", outcome.State, outcome.Err)
			}

			switch {
			case outcome.Submitted:
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", printingapp.MessageSubmitted)
			case fileSurface != nil:
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", fileSurface.Path())
			}
			a.log.Debug("dispatch finished", zap.String("state", outcome.State.String()))
			return nil
		},
	}
	rf.register(cmd)
	flags := cmd.Flags()
	flags.StringVar(&server, "server", "", "Print service base URL, e.g. http://localhost:8080")
	flags.StringVar(&token, "token", os.Getenv("RECEIPT_TOKEN"), "Terminal access token")
	flags.StringVar(&printer, "printer", "", "Target printer name")
	flags.StringVar(&surfaceDir, "surface-dir", os.TempDir(), "Directory receiving dialog documents")
	flags.DurationVar(&timeout, "timeout", 30*time.Second, "Submission timeout")
	return cmd
}
