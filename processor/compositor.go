package processor

import (
	"context"
	"fmt"

	"github.com/nci/burnscar/utils"
)

// DefaultCompositeConcLevel bounds the number of images being cloud
// masked at once inside a CompositeReducer.
const DefaultCompositeConcLevel = 4

func newEmptyComposite(req *CompositeRequest) *utils.Image {
	rasters := make(map[string]*utils.FloatRaster)
	for _, ns := range req.Bands {
		rasters[ns] = utils.NewEmptyRaster(req.Width, req.Height, req.BBox)
	}
	bands := make([]string, len(req.Bands))
	copy(bands, req.Bands)
	return &utils.Image{
		Bands:   bands,
		Rasters: rasters,
		Width:   req.Width,
		Height:  req.Height,
		BBox:    req.BBox,
	}
}

// mergeMinImage folds img into canvas with a per-pixel, band-wise
// minimum over valid samples. Minimum is commutative and associative
// so the fold order never affects the result.
func mergeMinImage(canvas, img *utils.Image) error {
	if img.Width != canvas.Width || img.Height != canvas.Height {
		return fmt.Errorf("image dimensions %dx%d do not match composite %dx%d", img.Width, img.Height, canvas.Width, canvas.Height)
	}

	for _, ns := range canvas.Bands {
		src, err := img.Band(ns)
		if err != nil {
			return err
		}
		dst := canvas.Rasters[ns]
		for i, val := range src.Data {
			if !src.Valid(i) {
				continue
			}
			if !dst.Mask[i] || val < dst.Data[i] {
				dst.Data[i] = val
				dst.Mask[i] = true
			}
		}
	}
	return nil
}

// MinComposite accepts a start and end date and reduces the cloud
// masked image collection over that range into one composite image
// via per-pixel minimum. A pixel with zero valid samples across the
// whole selection is invalid in the composite; a period with no
// images at all yields an all-invalid image, not an error.
func MinComposite(scorer *CloudScorer, collection *utils.ImageCollection, req *CompositeRequest) (*utils.Image, error) {
	canvas := newEmptyComposite(req)
	for _, img := range collection.FilterDate(req.StartTime, req.EndTime).Images {
		cloudFree, err := CloudFree(scorer, img)
		if err != nil {
			return nil, err
		}
		if err := mergeMinImage(canvas, cloudFree); err != nil {
			return nil, err
		}
	}
	return canvas, nil
}

// CompositeReducer is the pipeline stage form of MinComposite. Images
// arriving on In are cloud masked concurrently and folded into the
// composite; the single composite is emitted on Out once In closes.
type CompositeReducer struct {
	Context context.Context
	In      chan *utils.Image
	Out     chan *utils.Image
	Error   chan error
	Request *CompositeRequest
	Scorer  *CloudScorer
}

func NewCompositeReducer(ctx context.Context, req *CompositeRequest, scorer *CloudScorer, errChan chan error) *CompositeReducer {
	return &CompositeReducer{
		Context: ctx,
		In:      make(chan *utils.Image, 100),
		Out:     make(chan *utils.Image, 100),
		Error:   errChan,
		Request: req,
		Scorer:  scorer,
	}
}

func (cr *CompositeReducer) Run() {
	defer close(cr.Out)

	masked := make(chan *utils.Image, 100)
	cLimiter := NewConcLimiter(DefaultCompositeConcLevel)
	go func() {
		defer func() {
			cLimiter.Wait()
			close(masked)
		}()
		for img := range cr.In {
			select {
			case <-cr.Context.Done():
				cr.Error <- fmt.Errorf("Composite reducer context has been cancel: %v", cr.Context.Err())
				return
			default:
				if img.TimeStamp.Before(cr.Request.StartTime) || img.TimeStamp.After(cr.Request.EndTime) {
					continue
				}
				cLimiter.Increase()
				go func(img *utils.Image, conc *ConcLimiter) {
					defer conc.Decrease()
					cloudFree, err := CloudFree(cr.Scorer, img)
					if err != nil {
						cr.Error <- err
						return
					}
					masked <- cloudFree
				}(img, cLimiter)
			}
		}
	}()

	canvas := newEmptyComposite(cr.Request)
	for img := range masked {
		if err := mergeMinImage(canvas, img); err != nil {
			cr.Error <- err
			// unblock the remaining workers so the feeder can close masked
			go func() {
				for range masked {
				}
			}()
			return
		}
	}

	cr.Out <- canvas
}
