package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	printingapp "github.com/erp/receipt/internal/application/printing"
	infra "github.com/erp/receipt/internal/infrastructure/printing"
	"github.com/erp/receipt/internal/infrastructure/surface"
)

func newRenderCmd(a *app) *cobra.Command {
	var (
		rf     receiptFlags
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a sale as an HTML receipt or a PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := rf.load(cmd)
			if err != nil {
				return err
			}

			svc := printingapp.NewReceiptService(
				infra.NewComposer(),
				infra.NewMarotoReceiptRenderer(a.log),
				surface.NewLogNotifier(a.log),
				a.log,
			)

			var data []byte
			switch format {
			case "html":
				doc, err := svc.RenderHTML(cmd.Context(), req)
				if err != nil {
					return err
				}
				data = []byte(doc)
			case "pdf":
				if data, err = svc.RenderPDF(cmd.Context(), req); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown format %q (html or pdf)", format)
			}

			w, closeOut, err := openOutput(cmd, out)
			if err != nil {
				return err
			}
			if _, err := w.Write(data); err != nil {
				_ = closeOut()
				return err
			}
			a.log.Info("receipt rendered", zap.String("format", format), zap.Int("bytes", len(data)), zap.String("out", out))
			return closeOut()
		},
	}
	rf.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "html", "Output format: html or pdf")
	cmd.Flags().StringVarP(&out, "out", "o", "-", "Output file (- for stdout)")
	return cmd
}
