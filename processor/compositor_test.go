package processor

import (
	"context"
	"math/rand"
	"testing"

	"github.com/nci/burnscar/utils"
)

func testCompositeRequest(t *testing.T, width, height int) *CompositeRequest {
	return &CompositeRequest{
		Bands:     []string{BandBlue, BandGreen, BandRed, BandNIR, BandSWIR1, BandSWIR2, BandThermal},
		Width:     width,
		Height:    height,
		BBox:      testBBox,
		StartTime: testTime(t, "2013-03-30T00:00:00.000Z"),
		EndTime:   testTime(t, "2013-09-30T00:00:00.000Z"),
	}
}

func newTestScorer(t *testing.T) *CloudScorer {
	scorer, err := NewCloudScorer()
	if err != nil {
		t.Fatalf("scorer build failed: %v", err)
	}
	return scorer
}

func TestMinCompositeSelectsMinimum(t *testing.T) {
	coll := &utils.ImageCollection{Images: []*utils.Image{
		constImage(t, cloudFreeBands(0.35, 0.5), 2, 2, "2013-04-01T00:00:00.000Z"),
		constImage(t, cloudFreeBands(0.2, 0.5), 2, 2, "2013-05-01T00:00:00.000Z"),
		constImage(t, cloudFreeBands(0.3, 0.5), 2, 2, "2013-06-01T00:00:00.000Z"),
	}}

	composite, err := MinComposite(newTestScorer(t), coll, testCompositeRequest(t, 2, 2))
	if err != nil {
		t.Fatalf("composite failed: %v", err)
	}

	swir := composite.Rasters[BandSWIR1]
	for i := 0; i < 4; i++ {
		if !swir.Valid(i) {
			t.Errorf("composite pixel %d invalid with three valid samples", i)
		}
		if swir.Data[i] != 0.2 {
			t.Errorf("composite test failed, expecting 0.2, actual %v", swir.Data[i])
		}
	}
}

func TestMinCompositeSkipsCloudyAndInvalidSamples(t *testing.T) {
	clear := constImage(t, cloudFreeBands(0.3, 0.5), 2, 1, "2013-04-01T00:00:00.000Z")
	// lower value, but the sample is invalid at pixel 0
	lower := constImage(t, cloudFreeBands(0.1, 0.5), 2, 1, "2013-05-01T00:00:00.000Z")
	for _, ns := range lower.Bands {
		lower.Rasters[ns].SetInvalid(0)
	}
	// lowest swir values of all, but entirely cloud covered
	cloudy := constImage(t, cloudyBands(), 2, 1, "2013-06-01T00:00:00.000Z")
	cloudy.Rasters[BandSWIR1].Data[0] = 0.25
	cloudy.Rasters[BandSWIR1].Data[1] = 0.25

	coll := &utils.ImageCollection{Images: []*utils.Image{clear, lower, cloudy}}
	composite, err := MinComposite(newTestScorer(t), coll, testCompositeRequest(t, 2, 1))
	if err != nil {
		t.Fatalf("composite failed: %v", err)
	}

	swir := composite.Rasters[BandSWIR1]
	if swir.Data[0] != 0.3 {
		t.Errorf("composite used an invalid sample, expecting 0.3, actual %v", swir.Data[0])
	}
	if swir.Data[1] != 0.1 {
		t.Errorf("composite test failed, expecting 0.1, actual %v", swir.Data[1])
	}
}

func TestMinCompositeZeroValidSamples(t *testing.T) {
	cloudy := constImage(t, cloudyBands(), 2, 2, "2013-05-01T00:00:00.000Z")
	coll := &utils.ImageCollection{Images: []*utils.Image{cloudy}}

	composite, err := MinComposite(newTestScorer(t), coll, testCompositeRequest(t, 2, 2))
	if err != nil {
		t.Fatalf("composite failed: %v", err)
	}
	for _, ns := range composite.Bands {
		for i := 0; i < 4; i++ {
			if composite.Rasters[ns].Valid(i) {
				t.Errorf("band %s pixel %d valid with zero valid samples", ns, i)
			}
		}
	}
}

func TestMinCompositeEmptyRange(t *testing.T) {
	coll := &utils.ImageCollection{Images: []*utils.Image{
		constImage(t, cloudFreeBands(0.3, 0.5), 2, 2, "2014-05-01T00:00:00.000Z"),
	}}

	composite, err := MinComposite(newTestScorer(t), coll, testCompositeRequest(t, 2, 2))
	if err != nil {
		t.Fatalf("empty range must yield an all-invalid image, not an error: %v", err)
	}
	for _, ns := range composite.Bands {
		for i := 0; i < 4; i++ {
			if composite.Rasters[ns].Valid(i) {
				t.Errorf("band %s pixel %d valid for an empty period", ns, i)
			}
		}
	}
}

func TestMinCompositeOrderIndependence(t *testing.T) {
	images := []*utils.Image{
		constImage(t, cloudFreeBands(0.35, 0.45), 2, 2, "2013-04-01T00:00:00.000Z"),
		constImage(t, cloudFreeBands(0.2, 0.55), 2, 2, "2013-05-01T00:00:00.000Z"),
		constImage(t, cloudyBands(), 2, 2, "2013-06-01T00:00:00.000Z"),
		constImage(t, cloudFreeBands(0.3, 0.5), 2, 2, "2013-07-01T00:00:00.000Z"),
	}

	reference, err := MinComposite(newTestScorer(t), &utils.ImageCollection{Images: images}, testCompositeRequest(t, 2, 2))
	if err != nil {
		t.Fatalf("composite failed: %v", err)
	}

	rnd := rand.New(rand.NewSource(1))
	for trial := 0; trial < 5; trial++ {
		shuffled := make([]*utils.Image, len(images))
		copy(shuffled, images)
		rnd.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		composite, err := MinComposite(newTestScorer(t), &utils.ImageCollection{Images: shuffled}, testCompositeRequest(t, 2, 2))
		if err != nil {
			t.Fatalf("composite failed: %v", err)
		}
		for _, ns := range reference.Bands {
			for i := 0; i < 4; i++ {
				if composite.Rasters[ns].Valid(i) != reference.Rasters[ns].Valid(i) ||
					composite.Rasters[ns].Data[i] != reference.Rasters[ns].Data[i] {
					t.Errorf("shuffled composite diverges at band %s pixel %d", ns, i)
				}
			}
		}
	}
}

func TestCompositeReducerMergeFailure(t *testing.T) {
	errChan := make(chan error, 100)
	reducer := NewCompositeReducer(context.Background(), testCompositeRequest(t, 2, 2), newTestScorer(t), errChan)

	// every image is mis-shaped for the requested composite; the first
	// merge fails and the rest must still be consumed
	var images []*utils.Image
	for _, iso := range []string{
		"2013-04-01T00:00:00.000Z",
		"2013-05-01T00:00:00.000Z",
		"2013-06-01T00:00:00.000Z",
		"2013-07-01T00:00:00.000Z",
		"2013-08-01T00:00:00.000Z",
		"2013-09-01T00:00:00.000Z",
	} {
		images = append(images, constImage(t, cloudFreeBands(0.3, 0.5), 3, 3, iso))
	}

	go func() {
		for _, img := range images {
			reducer.In <- img
		}
		close(reducer.In)
	}()
	go reducer.Run()

	if _, ok := <-reducer.Out; ok {
		t.Fatalf("reducer emitted a composite after a merge failure")
	}
	select {
	case err := <-errChan:
		if err == nil {
			t.Errorf("merge failure reported a nil error")
		}
	default:
		t.Errorf("merge failure not reported on the error channel")
	}
}

func TestCompositeReducerStage(t *testing.T) {
	errChan := make(chan error, 100)
	reducer := NewCompositeReducer(context.Background(), testCompositeRequest(t, 2, 2), newTestScorer(t), errChan)

	images := []*utils.Image{
		constImage(t, cloudFreeBands(0.3, 0.5), 2, 2, "2013-04-01T00:00:00.000Z"),
		constImage(t, cloudFreeBands(0.25, 0.5), 2, 2, "2013-05-01T00:00:00.000Z"),
		// outside the requested period, must be ignored
		constImage(t, cloudFreeBands(0.1, 0.5), 2, 2, "2014-05-01T00:00:00.000Z"),
	}

	go func() {
		for _, img := range images {
			reducer.In <- img
		}
		close(reducer.In)
	}()
	go reducer.Run()

	composite, ok := <-reducer.Out
	if !ok {
		select {
		case err := <-errChan:
			t.Fatalf("reducer failed: %v", err)
		default:
			t.Fatalf("reducer produced no composite")
		}
	}

	swir := composite.Rasters[BandSWIR1]
	for i := 0; i < 4; i++ {
		if swir.Data[i] != 0.25 {
			t.Errorf("reducer composite test failed, expecting 0.25, actual %v", swir.Data[i])
		}
	}
}
