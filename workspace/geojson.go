package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/sirupsen/logrus"
)

// LoadDir reads every *.geojson file in dir and collects the polygons of all
// Polygon and MultiPolygon features. Files that fail to read or parse are
// logged and skipped so one bad export cannot take down the whole obstacle
// set.
func LoadDir(dir string, log *logrus.Logger) ([]orb.Polygon, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.geojson"))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var polygons []orb.Polygon
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			log.WithError(err).Warnf("⚠️  failed to read %s", file)
			continue
		}

		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			log.WithError(err).Warnf("⚠️  failed to parse %s", file)
			continue
		}

		count := 0
		for _, feature := range fc.Features {
			switch g := feature.Geometry.(type) {
			case orb.Polygon:
				polygons = append(polygons, g)
				count++
			case orb.MultiPolygon:
				polygons = append(polygons, g...)
				count += len(g)
			}
		}
		log.Infof("✅ loaded %d polygons from %s", count, filepath.Base(file))
	}

	log.Infof("total obstacles loaded: %d polygons", len(polygons))
	return polygons, nil
}
