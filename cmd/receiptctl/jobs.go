package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/erp/receipt/internal/domain/printing"
	"github.com/erp/receipt/internal/domain/shared"
	"github.com/erp/receipt/internal/infrastructure/config"
	"github.com/erp/receipt/internal/infrastructure/export"
	"github.com/erp/receipt/internal/infrastructure/logger"
	"github.com/erp/receipt/internal/infrastructure/persistence"
)

func newJobsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Work with recorded print jobs",
	}
	cmd.AddCommand(newJobsExportCmd(a))
	return cmd
}

func newJobsExportCmd(a *app) *cobra.Command {
	var (
		out    string
		since  time.Duration
		status string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export print jobs and reprints to an xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			db, err := persistence.NewDatabase(&cfg.Database,
				persistence.WithGormLogger(logger.NewGormLogger(a.log, logger.MapGormLogLevel(a.logLevel))),
			)
			if err != nil {
				return err
			}
			defer func() {
				_ = db.Close()
			}()

			filter := printing.PrintJobFilter{Filter: shared.Filter{OrderBy: "created_at", OrderDir: "desc"}}
			if since > 0 {
				from := time.Now().Add(-since)
				filter.Since = &from
			}
			if status != "" {
				s := printing.JobStatus(strings.ToUpper(status))
				filter.Status = &s
			}

			ctx := cmd.Context()
			jobs, err := persistence.NewGormPrintJobRepository(db.DB).FindAll(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list print jobs: %w", err)
			}
			reprints, err := persistence.NewGormReprintRepository(db.DB).FindAll(ctx, shared.Filter{OrderBy: "timestamp", OrderDir: "desc"})
			if err != nil {
				return fmt.Errorf("failed to list reprints: %w", err)
			}

			if out == "" {
				out = "print_jobs_" + export.ExportedAt(time.Now()) + ".xlsx"
			}
			w, closeOut, err := openOutput(cmd, out)
			if err != nil {
				return err
			}
			if err := export.WriteWorkbook(w, jobs, reprints); err != nil {
				_ = closeOut()
				return err
			}
			a.log.Info("print jobs exported",
				zap.Int("jobs", len(jobs)),
				zap.Int("reprints", len(reprints)),
				zap.String("out", out))
			return closeOut()
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&out, "out", "o", "", "Workbook path (default print_jobs_<timestamp>.xlsx, - for stdout)")
	flags.DurationVar(&since, "since", 0, "Only jobs created within this window, e.g. 72h")
	flags.StringVar(&status, "status", "", "Only jobs with this status")
	return cmd
}
