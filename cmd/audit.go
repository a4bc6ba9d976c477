package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/roadaudit/internal/audit"
	"github.com/sells-group/roadaudit/internal/geofile"
	"github.com/sells-group/roadaudit/internal/report"
	"github.com/sells-group/roadaudit/internal/segment"
	"github.com/sells-group/roadaudit/internal/store"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Run a validation pass over the segment inventory",
	Long:  "Surveys every route against the county boundary, attempts endpoint repair for flagged segments, clips what repair cannot fix, and records every transition in the run store.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("audit"); err != nil {
			return err
		}

		b, err := loadBoundary(cfg)
		if err != nil {
			return eris.Wrap(err, "audit: load boundary")
		}
		segs, err := geofile.ReadSegments(cfg.Data.SegmentsPath)
		if err != nil {
			return eris.Wrap(err, "audit: load segments")
		}

		// The auditor rejects zero-point routes outright; segments that
		// were never routed stay UNCHECKED in the inventory.
		routed := make([]*segment.Segment, 0, len(segs))
		for _, s := range segs {
			if len(s.Route) == 0 {
				continue
			}
			routed = append(routed, s)
		}
		if len(routed) < len(segs) {
			zap.L().Warn("audit: unrouted segments held back",
				zap.Int("unrouted", len(segs)-len(routed)),
			)
		}

		var (
			st    store.Store
			runID string
		)
		switch cfg.Store.Driver {
		case "sqlite":
			sq, err := store.NewSQLite(cfg.Store.Path)
			if err != nil {
				return eris.Wrap(err, "audit: open store")
			}
			defer func() { _ = sq.Close() }()
			if err := sq.Migrate(ctx); err != nil {
				return err
			}
			run, err := sq.CreateRun(ctx, b.Name, len(routed))
			if err != nil {
				return err
			}
			st, runID = sq, run.ID
		case "", "none":
			zap.L().Info("audit: run store disabled")
		default:
			return eris.Errorf("audit: unknown store driver %q", cfg.Store.Driver)
		}

		zap.L().Info("audit run started",
			zap.String("run", runID),
			zap.String("boundary", b.Name),
			zap.Int("segments", len(routed)),
		)

		var sevCounts report.Summary
		auditor := newAuditor(cfg, b, audit.WithTransitionHook(func(ev audit.TransitionEvent) {
			if ev.Severity != segment.SeverityClean {
				sevCounts.CountSeverity(ev.Severity)
			}
			if st == nil {
				return
			}
			if err := st.AppendEvent(context.WithoutCancel(ctx), runID, ev); err != nil {
				zap.L().Warn("audit: event not recorded",
					zap.String("segment", ev.SegmentID),
					zap.Error(err),
				)
			}
		}))

		if _, err := auditor.Audit(ctx, routed); err != nil {
			return eris.Wrap(err, "audit")
		}

		if err := geofile.WriteSegments(outputPath(cfg), segs); err != nil {
			return eris.Wrap(err, "audit: write inventory")
		}

		summary := report.Build(b.Name, segs)
		summary.BySeverity = sevCounts.BySeverity
		summary.Log()
		if err := summary.WriteYAML(summaryPath(cfg)); err != nil {
			return err
		}
		if st != nil {
			summaryJSON, err := summary.JSON()
			if err != nil {
				return err
			}
			if err := st.FinishRun(ctx, runID, summaryJSON); err != nil {
				return err
			}
		}

		fmt.Printf("Audited %d segments: %d clean, %d fixed, %d clipped, %d still flagged\n",
			summary.Segments,
			summary.ByStatus["CLEAN"],
			summary.ByStatus["FIXED"],
			summary.ByStatus["CLIPPED"],
			summary.ByStatus["STILL_FLAGGED"],
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
}
