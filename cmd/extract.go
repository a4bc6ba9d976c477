package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/roadaudit/internal/extract"
	"github.com/sells-group/roadaudit/internal/geofile"
)

var extractCmd = &cobra.Command{
	Use:   "extract <workbook.xlsx>",
	Short: "Extract road segments from a CMS workbook",
	Long:  "Reads a county CMS Excel workbook using the configured column layout and writes a segment inventory GeoJSON with empty routes, ready for routing and audit.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("extract"); err != nil {
			return err
		}

		mapping := extract.SheetMapping{
			Sheet:    cfg.Extract.Sheet,
			SkipRows: cfg.Extract.SkipRows,
			RoadCol:  cfg.Extract.RoadCol,
			FromCol:  cfg.Extract.FromCol,
			ToCol:    cfg.Extract.ToCol,
			SpanCol:  cfg.Extract.SpanCol,
		}

		segs, err := extract.FromXLSX(args[0], mapping)
		if err != nil {
			return eris.Wrap(err, "extract")
		}
		if err := geofile.WriteSegments(cfg.Data.OutputPath, segs); err != nil {
			return eris.Wrap(err, "extract: write inventory")
		}

		zap.L().Info("extract complete",
			zap.String("workbook", args[0]),
			zap.Int("segments", len(segs)),
		)
		fmt.Printf("Extracted %d segments to %s\n", len(segs), cfg.Data.OutputPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
}
