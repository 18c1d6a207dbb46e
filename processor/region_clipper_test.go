package processor

import (
	"strings"
	"testing"

	"github.com/nci/burnscar/utils"
)

func TestBufferPointsDeduplicates(t *testing.T) {
	region := BufferPoints([]FirePoint{{X: 10, Y: 10}, {X: 10, Y: 10}, {X: 40, Y: 40}}, 5)
	if len(region.disks) != 2 {
		t.Errorf("buffer test failed, expecting 2 disks, actual %d", len(region.disks))
	}
}

func TestRegionUnionIdempotent(t *testing.T) {
	region := BufferPoints([]FirePoint{{X: 10, Y: 10}, {X: 40, Y: 40}}, 5)
	union := region.Union(region)
	if len(union.disks) != len(region.disks) {
		t.Errorf("self union grew the region, %d disks to %d", len(region.disks), len(union.disks))
	}
	if union.MarshalWKT() != region.MarshalWKT() {
		t.Errorf("self union changed the region geometry")
	}
}

func TestRegionUnionRedundantCoverage(t *testing.T) {
	base := BufferPoints([]FirePoint{{X: 10, Y: 10}, {X: 16, Y: 10}}, 5)
	// the third disk is wholly contained in the first
	extra := BufferPoints([]FirePoint{{X: 13, Y: 10}}, 1)
	union := base.Union(extra)

	for x := 0.0; x <= 26; x += 0.5 {
		for y := 0.0; y <= 20; y += 0.5 {
			if union.Contains(x, y) != base.Contains(x, y) {
				t.Fatalf("redundant disk changed coverage at (%v, %v)", x, y)
			}
		}
	}
}

func TestRegionContainsBoundary(t *testing.T) {
	region := BufferPoints([]FirePoint{{X: 0, Y: 0}}, 10)
	if !region.Contains(10, 0) {
		t.Errorf("point on the disk boundary reported outside")
	}
	if !region.Contains(0, -10) {
		t.Errorf("point on the disk boundary reported outside")
	}
	if region.Contains(10.001, 0) {
		t.Errorf("point beyond the disk boundary reported inside")
	}
	if (&Region{}).Contains(0, 0) {
		t.Errorf("empty region contains a point")
	}
}

func TestClipToRegion(t *testing.T) {
	r := utils.NewFloatRaster(4, 4, testBBox)
	for i := range r.Data {
		r.Data[i] = 1.0
	}

	// a 30 m disk at the bbox centre covers exactly the four inner
	// pixel centres of the 4x4 grid
	region := BufferPoints([]FirePoint{{X: 50, Y: 50}}, 30)
	clipped := Clip(r, region)

	inside := 0
	for i := range clipped.Data {
		if clipped.Valid(i) {
			inside++
			x, y := clipped.PixelCentre(i)
			if !region.Contains(x, y) {
				t.Errorf("kept pixel %d has its centre outside the region", i)
			}
		}
	}
	if inside != 4 {
		t.Errorf("clip test failed, expecting 4 pixels kept, actual %d", inside)
	}

	// input is never mutated
	for i := range r.Data {
		if !r.Valid(i) {
			t.Errorf("clip mutated its input raster")
		}
	}
}

func TestClipEmptyRegion(t *testing.T) {
	r := utils.NewFloatRaster(2, 2, testBBox)
	clipped := Clip(r, &Region{})
	for i := range clipped.Data {
		if clipped.Valid(i) {
			t.Errorf("pixel %d valid after clipping to an empty region", i)
		}
	}
}

func TestClipCoveringRegion(t *testing.T) {
	r := utils.NewFloatRaster(2, 2, testBBox)
	for i := range r.Data {
		r.Data[i] = float32(i)
	}
	r.SetInvalid(3)

	region := BufferPoints([]FirePoint{{X: 50, Y: 50}}, FireBufferMeters)
	clipped := Clip(r, region)
	for i := 0; i < 3; i++ {
		if !clipped.Valid(i) || clipped.Data[i] != float32(i) {
			t.Errorf("covering region altered pixel %d", i)
		}
	}
	// clipping never resurrects invalid pixels
	if clipped.Valid(3) {
		t.Errorf("clip made an invalid pixel valid")
	}
}

func TestRegionMarshalWKT(t *testing.T) {
	if wkt := (&Region{}).MarshalWKT(); wkt != "MULTIPOLYGON EMPTY" {
		t.Errorf("empty region WKT test failed, actual %s", wkt)
	}

	wkt := BufferPoints([]FirePoint{{X: 10, Y: 10}, {X: 40, Y: 40}}, 5).MarshalWKT()
	if !strings.HasPrefix(wkt, "MULTIPOLYGON ((") {
		t.Errorf("WKT test failed, actual %s", wkt)
	}
	if n := strings.Count(wkt, "(("); n != 2 {
		t.Errorf("WKT test failed, expecting 2 polygons, actual %d", n)
	}
	// the ring closes on its first coordinate
	first := wkt[len("MULTIPOLYGON ((("):]
	first = first[:strings.Index(first, ",")]
	if !strings.Contains(wkt, first+"))") {
		t.Errorf("WKT ring is not closed: %s", wkt)
	}
}
