package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/nci/burnscar/metrics"
	"github.com/nci/burnscar/utils"
)

// BurnScarPipeline wires the cloud-aware compositor, the burn index
// engine and the region clipper into the end-to-end burn-scar
// detection. The two period composites are reduced concurrently;
// everything downstream of them is a pure transformation.
type BurnScarPipeline struct {
	Context    context.Context
	Error      chan error
	Collection *utils.ImageCollection
	Scorer     *CloudScorer
}

func InitBurnScarPipeline(ctx context.Context, collection *utils.ImageCollection, scorer *CloudScorer, errChan chan error) *BurnScarPipeline {
	return &BurnScarPipeline{
		Context:    ctx,
		Error:      errChan,
		Collection: collection,
		Scorer:     scorer,
	}
}

func (dp *BurnScarPipeline) compositeRequest(start, end time.Time, req *BurnScarRequest) *CompositeRequest {
	return &CompositeRequest{
		Bands:     req.Bands,
		Height:    req.Height,
		Width:     req.Width,
		BBox:      req.BBox,
		StartTime: start,
		EndTime:   end,
	}
}

func (dp *BurnScarPipeline) feed(cr *CompositeReducer) {
	for _, img := range dp.Collection.Images {
		cr.In <- img
	}
	close(cr.In)
}

func countValid(r *utils.FloatRaster) int {
	n := 0
	for i := range r.Data {
		if r.Valid(i) {
			n++
		}
	}
	return n
}

func (dp *BurnScarPipeline) reportComposite(info *metrics.CompositeInfo, req *CompositeRequest, composite *utils.Image, t0 time.Time) {
	info.StartDate = req.StartTime.Format(utils.ISOFormat)
	info.EndDate = req.EndTime.Format(utils.ISOFormat)
	info.Duration = time.Since(t0)
	info.NumImages = len(dp.Collection.FilterDate(req.StartTime, req.EndTime).Images)
	if len(composite.Bands) > 0 {
		info.ValidPixels = countValid(composite.Rasters[composite.Bands[0]])
	}
	if fraction, err := CloudFraction(dp.Scorer, composite); err == nil {
		info.CloudFraction = fraction
	}
}

func (dp *BurnScarPipeline) reportBurn(req *BurnScarRequest, burnMask, clipped *utils.FloatRaster, region *Region, t0 time.Time) {
	info := req.MetricsCollector.Info
	info.Burn.Duration = time.Since(t0)
	info.Burn.BurnedPixels = countValid(clipped)
	info.Burn.ValidPixels = countValid(burnMask)
	info.Burn.RegionWKT = region.MarshalWKT()
	info.Burn.NumPoints = len(req.FirePoints)
	info.RunDuration = time.Since(t0)
}

// Process runs one detection request and delivers the clipped binary
// burn mask, the sole externally meaningful result, on the returned
// channel. The channel closes without a value if the run fails; the
// failure is reported on the pipeline error channel.
func (dp *BurnScarPipeline) Process(req *BurnScarRequest) chan *utils.FloatRaster {
	out := make(chan *utils.FloatRaster, 100)

	initReducer := NewCompositeReducer(dp.Context, dp.compositeRequest(req.InitStart, req.InitEnd, req), dp.Scorer, dp.Error)
	postReducer := NewCompositeReducer(dp.Context, dp.compositeRequest(req.PostStart, req.PostEnd, req), dp.Scorer, dp.Error)

	go dp.feed(initReducer)
	go dp.feed(postReducer)

	go initReducer.Run()
	go postReducer.Run()

	go func() {
		defer close(out)
		t0 := time.Now()

		initComposite, initOK := <-initReducer.Out
		postComposite, postOK := <-postReducer.Out
		if !initOK || !postOK {
			return
		}
		if req.MetricsCollector != nil {
			dp.reportComposite(req.MetricsCollector.Info.Init, initReducer.Request, initComposite, t0)
			dp.reportComposite(req.MetricsCollector.Info.Post, postReducer.Request, postComposite, t0)
		}

		// Composites are re-masked a second time to guard against
		// residual cloud edges surviving the minimum reduction.
		initClean, err := CloudFree(dp.Scorer, initComposite)
		if err != nil {
			dp.Error <- err
			return
		}
		postClean, err := CloudFree(dp.Scorer, postComposite)
		if err != nil {
			dp.Error <- err
			return
		}

		burnMask, err := BurnMask(initClean, postClean, req.DeltaThreshold)
		if err != nil {
			dp.Error <- err
			return
		}

		region := BufferPoints(req.FirePoints, req.BufferMeters)
		clipped := Clip(burnMask, region)

		if req.MetricsCollector != nil {
			dp.reportBurn(req, burnMask, clipped, region, t0)
		}
		out <- clipped
	}()

	return out
}

// DetectBurnScars is the synchronous form of the pipeline for callers
// without their own channel plumbing.
func DetectBurnScars(ctx context.Context, collection *utils.ImageCollection, req *BurnScarRequest) (*utils.FloatRaster, error) {
	scorer, err := NewCloudScorer()
	if err != nil {
		return nil, err
	}

	errChan := make(chan error, 100)
	pipeline := InitBurnScarPipeline(ctx, collection, scorer, errChan)
	var result *utils.FloatRaster
	for mask := range pipeline.Process(req) {
		result = mask
	}

	// a stage failure or cancellation may still leave a partially
	// folded mask on the channel; the error wins
	select {
	case err := <-errChan:
		return nil, err
	default:
	}
	if result == nil {
		return nil, fmt.Errorf("pipeline produced no result")
	}
	return result, nil
}
