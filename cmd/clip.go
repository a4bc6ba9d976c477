package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/roadaudit/internal/audit"
	"github.com/sells-group/roadaudit/internal/clip"
	"github.com/sells-group/roadaudit/internal/geofile"
	"github.com/sells-group/roadaudit/internal/segment"
)

var clipCmd = &cobra.Command{
	Use:   "clip",
	Short: "Clip segment routes to the county boundary",
	Long:  "Walks every route, inserts boundary crossing points, and drops the outside portions. Segments already fully inside pass through untouched.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("clip"); err != nil {
			return err
		}

		b, err := loadBoundary(cfg)
		if err != nil {
			return eris.Wrap(err, "clip: load boundary")
		}
		segs, err := geofile.ReadSegments(cfg.Data.SegmentsPath)
		if err != nil {
			return eris.Wrap(err, "clip: load segments")
		}

		var clipped, untouched int
		for _, s := range segs {
			if len(s.Route) == 0 {
				continue
			}
			c := audit.Survey(s.Route, b)
			if c.Outside == 0 {
				untouched++
				continue
			}
			route, clipErr := clip.Clip(s.Route, b)
			if clipErr != nil {
				zap.L().Warn("clip: segment skipped",
					zap.String("segment", s.ID),
					zap.Error(clipErr),
				)
				continue
			}
			s.SetRoute(route)
			s.Status = segment.StatusClipped
			clipped++
		}

		if err := geofile.WriteSegments(outputPath(cfg), segs); err != nil {
			return eris.Wrap(err, "clip: write inventory")
		}

		zap.L().Info("clip complete",
			zap.String("boundary", b.Name),
			zap.Int("clipped", clipped),
			zap.Int("already_inside", untouched),
		)
		fmt.Printf("Clipped %d of %d segments (%d already inside)\n", clipped, len(segs), untouched)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clipCmd)
}
