package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/roadaudit/internal/audit"
	"github.com/sells-group/roadaudit/internal/geofile"
)

var nodesWrite bool

var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "List suspect segment endpoints",
	Long:  "Reports every segment whose endpoints fall outside the county boundary or collapse to a single point, the two failure modes a bad geocode produces. With --write, zero-length segments are flagged in the inventory.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("audit"); err != nil {
			return err
		}

		b, err := loadBoundary(cfg)
		if err != nil {
			return eris.Wrap(err, "nodes: load boundary")
		}
		segs, err := geofile.ReadSegments(cfg.Data.SegmentsPath)
		if err != nil {
			return eris.Wrap(err, "nodes: load segments")
		}

		var outside, zero int
		for _, s := range segs {
			if len(s.Route) == 0 {
				continue
			}
			if s.ZeroLength(cfg.Audit.MinSeparation) {
				zero++
				fmt.Printf("ZERO    %-8s %s (%s to %s)\n", s.ID, s.RoadName, s.From, s.To)
				if nodesWrite {
					s.QAFlag = audit.FlagZeroLength
				}
				continue
			}
			start, end := s.Route[0], s.Route[len(s.Route)-1]
			startIn, endIn := b.Contains(start), b.Contains(end)
			if startIn && endIn {
				continue
			}
			outside++
			side := "both endpoints"
			switch {
			case startIn:
				side = "end node"
			case endIn:
				side = "start node"
			}
			fmt.Printf("OUTSIDE %-8s %s (%s to %s): %s\n", s.ID, s.RoadName, s.From, s.To, side)
		}

		if nodesWrite {
			if err := geofile.WriteSegments(outputPath(cfg), segs); err != nil {
				return eris.Wrap(err, "nodes: write inventory")
			}
		}

		zap.L().Info("node check complete",
			zap.String("boundary", b.Name),
			zap.Int("segments", len(segs)),
			zap.Int("outside", outside),
			zap.Int("zero_length", zero),
		)
		fmt.Printf("%d of %d segments have suspect endpoints (%d outside, %d zero-length)\n",
			outside+zero, len(segs), outside, zero)
		return nil
	},
}

func init() {
	nodesCmd.Flags().BoolVar(&nodesWrite, "write", false, "flag zero-length segments in the inventory")
	rootCmd.AddCommand(nodesCmd)
}
