// Package tiles splits a dataset extent into a grid and runs per-tile work
// on a bounded pool, then merges the tile chunks and publishes the result.
// Tiling keeps each ogr2ogr invocation's memory bounded on nationwide
// datasets and lets a crashed run resume from the chunks it already wrote.
package tiles

import (
	"fmt"
	"math"
)

// Extent is an axis-aligned bounding box in projected coordinates.
type Extent struct {
	XMin, YMin, XMax, YMax float64
}

// SwissLV95 is the national extent used by the refine pipelines (EPSG:2056).
var SwissLV95 = Extent{XMin: 2485071, YMin: 1074261, XMax: 2837119, YMax: 1299941}

// Tile is one grid cell of a subdivided extent.
type Tile struct {
	Extent

	// Col and Row locate the tile in its grid, counted from the south-west
	// corner.
	Col, Row int
}

// ChunkName derives the tile's chunk file name from its rounded bounds, so
// the same grid always produces the same chunk names and a resumed run finds
// its earlier work.
func (t Tile) ChunkName() string {
	return fmt.Sprintf("chunk_%d_%d_%d_%d.gpkg",
		int64(math.Round(t.XMin)), int64(math.Round(t.YMin)),
		int64(math.Round(t.XMax)), int64(math.Round(t.YMax)))
}

// Grid subdivides extent into nx by ny equal tiles. Tile (i, j) spans
// [xmin+i*w, xmin+(i+1)*w) by [ymin+j*h, ymin+(j+1)*h); the shared edges mean
// the grid covers the extent exactly, with no gaps and no overlaps beyond
// the boundaries themselves.
func Grid(extent Extent, nx, ny int) []Tile {
	if nx < 1 {
		nx = 1
	}
	if ny < 1 {
		ny = 1
	}
	w := (extent.XMax - extent.XMin) / float64(nx)
	h := (extent.YMax - extent.YMin) / float64(ny)

	grid := make([]Tile, 0, nx*ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			grid = append(grid, Tile{
				Extent: Extent{
					XMin: extent.XMin + float64(i)*w,
					YMin: extent.YMin + float64(j)*h,
					XMax: extent.XMin + float64(i+1)*w,
					YMax: extent.YMin + float64(j+1)*h,
				},
				Col: i,
				Row: j,
			})
		}
	}
	return grid
}
