package processor

import (
	"fmt"
	"math"
	"strings"

	"github.com/nci/burnscar/utils"
)

// FireBufferMeters is the default radius of the disk every fire
// detection point is expanded into.
const FireBufferMeters = 5000.0

// BufferSegments is the number of segments approximating a disk when
// the region is exported as WKT. Containment tests use the exact
// circle, not the approximation.
const BufferSegments = 32

// FirePoint is one fire detection location. Coordinates must be in
// the same projected, metre-unit CRS as the imagery.
type FirePoint struct {
	X float64
	Y float64
}

type disk struct {
	x, y, radius float64
}

// Region is the union of the buffer disks around a set of fire
// points. Coverage is "inside any disk", so overlapping disks count
// any shared area once and unioning a region with itself, or with
// disks wholly contained in it, changes nothing.
type Region struct {
	disks []disk
}

// BufferPoints expands every point into a disk of the given radius
// and unions all disks. Duplicate points collapse into one disk.
func BufferPoints(points []FirePoint, radiusMeters float64) *Region {
	region := &Region{}
	for _, pt := range points {
		region.addDisk(disk{x: pt.X, y: pt.Y, radius: radiusMeters})
	}
	return region
}

func (rg *Region) addDisk(d disk) {
	for _, existing := range rg.disks {
		if existing == d {
			return
		}
	}
	rg.disks = append(rg.disks, d)
}

// Union merges other into a new region. Union is idempotent:
// rg.Union(rg) covers exactly the same area as rg.
func (rg *Region) Union(other *Region) *Region {
	out := &Region{}
	for _, d := range rg.disks {
		out.addDisk(d)
	}
	for _, d := range other.disks {
		out.addDisk(d)
	}
	return out
}

// Contains reports whether the location falls inside the region.
// Points exactly on a disk boundary are inside.
func (rg *Region) Contains(x, y float64) bool {
	for _, d := range rg.disks {
		dx := x - d.x
		dy := y - d.y
		if dx*dx+dy*dy <= d.radius*d.radius {
			return true
		}
	}
	return false
}

// MarshalWKT renders the region as a MULTIPOLYGON with each disk
// approximated by a regular polygon of BufferSegments segments. An
// empty region renders as MULTIPOLYGON EMPTY.
func (rg *Region) MarshalWKT() string {
	if len(rg.disks) == 0 {
		return "MULTIPOLYGON EMPTY"
	}

	polys := make([]string, len(rg.disks))
	for id, d := range rg.disks {
		coords := make([]string, BufferSegments+1)
		for is := 0; is <= BufferSegments; is++ {
			theta := 2 * math.Pi * float64(is%BufferSegments) / float64(BufferSegments)
			coords[is] = fmt.Sprintf("%f %f", d.x+d.radius*math.Cos(theta), d.y+d.radius*math.Sin(theta))
		}
		polys[id] = fmt.Sprintf("((%s))", strings.Join(coords, ", "))
	}
	return fmt.Sprintf("MULTIPOLYGON (%s)", strings.Join(polys, ", "))
}

// Clip restricts the raster's validity to pixels whose centre falls
// inside the region. The test is at pixel-centre granularity: a pixel
// only partially covered by the region is kept or dropped on its
// centre alone. Pixels outside become invalid regardless of prior
// validity.
func Clip(r *utils.FloatRaster, region *Region) *utils.FloatRaster {
	out := r.Copy()
	for i := range out.Data {
		if !out.Valid(i) {
			continue
		}
		x, y := out.PixelCentre(i)
		if !region.Contains(x, y) {
			out.SetInvalid(i)
		}
	}
	return out
}
