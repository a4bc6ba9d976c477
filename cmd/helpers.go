package main

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roadaudit/internal/audit"
	"github.com/sells-group/roadaudit/internal/config"
	"github.com/sells-group/roadaudit/internal/geofile"
	"github.com/sells-group/roadaudit/internal/geometry"
	"github.com/sells-group/roadaudit/pkg/geocode"
	"github.com/sells-group/roadaudit/pkg/routing"
)

// loadBoundary reads the configured boundary source, preferring GeoJSON.
func loadBoundary(cfg *config.Config) (*geometry.Boundary, error) {
	switch {
	case cfg.Boundary.GeoJSONPath != "":
		return geofile.ReadBoundary(cfg.Boundary.GeoJSONPath, cfg.Boundary.Name)
	case cfg.Boundary.ShapefilePath != "":
		return geofile.ReadBoundaryShapefile(cfg.Boundary.ShapefilePath, cfg.Boundary.Name)
	}
	return nil, eris.New("cmd: no boundary source configured")
}

// newAuditor assembles the auditor from config: an indexed locator for
// multi-polygon boundaries, the geocoding cascade and routing chain as
// repair providers, and the configured pass settings.
func newAuditor(cfg *config.Config, b *geometry.Boundary, opts ...audit.Option) *audit.Auditor {
	base := []audit.Option{
		audit.WithMinSeparation(cfg.Audit.MinSeparation),
		audit.WithCallTimeout(time.Duration(cfg.Audit.CallTimeoutSecs) * time.Second),
		audit.WithScanConcurrency(cfg.Audit.ScanConcurrency),
	}
	if len(b.Polygons) > 1 {
		if loc, err := geometry.NewIndexedLocator(b); err == nil {
			base = append(base, audit.WithLocator(loc))
		} else {
			zap.L().Warn("cmd: spatial index unavailable, using linear scan", zap.Error(err))
		}
	}
	if cfg.Audit.Reopen {
		base = append(base, audit.WithReopen())
	}

	if cfg.Geocode.County != "" {
		cascade := geocode.NewCascade(nil,
			geocode.WithLocale(cfg.Geocode.County, cfg.Geocode.State),
			geocode.WithTowns(cfg.Geocode.Towns),
			geocode.WithMinScore(cfg.Geocode.MinScore),
			geocode.WithRateLimit(cfg.Geocode.RateLimitRPS),
			geocode.WithCacheTTL(time.Duration(cfg.Geocode.CacheTTLHours)*time.Hour),
		)

		var routers []routing.Provider
		if cfg.Routing.StraightLineFallback {
			routers = append(routers, routing.StraightLine{})
		}
		chain := routing.NewChain(routers, routing.WithRateLimit(cfg.Routing.RateLimitRPS))

		base = append(base, audit.WithProviders(cascade, chain))
	} else {
		zap.L().Info("cmd: no geocode locale configured, repair disabled")
	}

	return audit.New(b, append(base, opts...)...)
}

// outputPath resolves where transformed segments are written: the
// configured output, or in place over the input.
func outputPath(cfg *config.Config) string {
	if cfg.Data.OutputPath != "" {
		return cfg.Data.OutputPath
	}
	return cfg.Data.SegmentsPath
}

// summaryPath resolves the YAML summary location next to the output.
func summaryPath(cfg *config.Config) string {
	if cfg.Data.SummaryPath != "" {
		return cfg.Data.SummaryPath
	}
	out := outputPath(cfg)
	return strings.TrimSuffix(out, ".geojson") + ".summary.yaml"
}
