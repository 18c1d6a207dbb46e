package processor

import (
	"testing"
	"time"

	"github.com/nci/burnscar/utils"
)

var testBBox = []float64{0, 0, 100, 100}

func testTime(t *testing.T, iso string) time.Time {
	ts, err := time.Parse(utils.ISOFormat, iso)
	if err != nil {
		t.Fatalf("bad test timestamp %s: %v", iso, err)
	}
	return ts
}

// constImage builds a width x height image where every pixel of each
// band holds the given constant.
func constImage(t *testing.T, values map[string]float32, width, height int, iso string) *utils.Image {
	rasters := make(map[string]*utils.FloatRaster)
	var bands []string
	for _, ns := range []string{BandBlue, BandGreen, BandRed, BandNIR, BandSWIR1, BandSWIR2, BandThermal} {
		val, ok := values[ns]
		if !ok {
			continue
		}
		r := utils.NewFloatRaster(width, height, testBBox)
		for i := range r.Data {
			r.Data[i] = val
		}
		rasters[ns] = r
		bands = append(bands, ns)
	}

	var stamp time.Time
	if iso != "" {
		stamp = testTime(t, iso)
	}
	img, err := utils.NewImage(bands, rasters, stamp)
	if err != nil {
		t.Fatalf("image build failed: %v", err)
	}
	return img
}

// cloudFreeBands scores below the cloud threshold on every test: the
// blue term rescales to 0.
func cloudFreeBands(swir1, red float32) map[string]float32 {
	return map[string]float32{
		BandBlue:    0.1,
		BandGreen:   0.3,
		BandRed:     red,
		BandNIR:     0.4,
		BandSWIR1:   swir1,
		BandSWIR2:   0.4,
		BandThermal: 295,
	}
}

// cloudyBands scores above the cloud threshold on every term.
func cloudyBands() map[string]float32 {
	return map[string]float32{
		BandBlue:    0.3,
		BandGreen:   0.3,
		BandRed:     0.3,
		BandNIR:     0.5,
		BandSWIR1:   0.4,
		BandSWIR2:   0.4,
		BandThermal: 285,
	}
}

func scoreAt(t *testing.T, values map[string]float32) float32 {
	scorer, err := NewCloudScorer()
	if err != nil {
		t.Fatalf("scorer build failed: %v", err)
	}
	score, err := scorer.Score(constImage(t, values, 1, 1, ""))
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}
	if !score.Valid(0) {
		t.Fatalf("score invalid for fully valid input")
	}
	return score.Data[0]
}
