package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const polygonFixture = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"name": "zone-a"},
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[1, 1], [3, 1], [3, 3], [1, 3], [1, 1]]]
      }
    }
  ]
}`

const multiPolygonFixture = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {},
      "geometry": {
        "type": "MultiPolygon",
        "coordinates": [
          [[[5, 5], [6, 5], [6, 6], [5, 6], [5, 5]]],
          [[[7, 7], [8, 7], [8, 8], [7, 8], [7, 7]]]
        ]
      }
    },
    {
      "type": "Feature",
      "properties": {},
      "geometry": {
        "type": "Point",
        "coordinates": [0, 0]
      }
    }
  ]
}`

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.geojson"), []byte(polygonFixture), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.geojson"), []byte(multiPolygonFixture), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.geojson"), []byte("{not json"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("nope"), 0644))

	polygons, err := LoadDir(dir, testLogger())
	require.NoError(t, err)

	// One polygon from a.geojson, two from the multipolygon in b.geojson.
	// The point feature and the broken file contribute nothing.
	assert.Len(t, polygons, 3)
}

func TestLoadDirEmpty(t *testing.T) {
	polygons, err := LoadDir(t.TempDir(), testLogger())
	require.NoError(t, err)
	assert.Empty(t, polygons)
}
