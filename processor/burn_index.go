package processor

import (
	"fmt"

	"github.com/nci/burnscar/utils"
)

// Normalized burn ratio bands and classification threshold, after
// Escuin, Navarro and Fernandez (2008). A pixel is burned iff the
// change in the ratio between the two seasons strictly exceeds the
// threshold.
const (
	BurnRatioBandA     = BandSWIR1
	BurnRatioBandB     = BandRed
	BurnDeltaThreshold = 0.44
)

// NormalizedDifference computes (a - b) / (a + b) pixel-wise. Pixels
// invalid in either input, or with a zero denominator, are invalid in
// the output rather than NaN.
func NormalizedDifference(a, b *utils.FloatRaster) (*utils.FloatRaster, error) {
	if a.Width != b.Width || a.Height != b.Height {
		return nil, fmt.Errorf("normalized difference dimensions %dx%d do not match %dx%d", a.Width, a.Height, b.Width, b.Height)
	}

	out := utils.NewFloatRaster(a.Width, a.Height, a.BBox)
	for i := range a.Data {
		if !a.Valid(i) || !b.Valid(i) {
			out.SetInvalid(i)
			continue
		}
		sum := a.Data[i] + b.Data[i]
		if sum == 0 {
			out.SetInvalid(i)
			continue
		}
		out.Data[i] = (a.Data[i] - b.Data[i]) / sum
	}
	return out, nil
}

// BurnRatio computes the normalized burn ratio for one composite.
func BurnRatio(img *utils.Image) (*utils.FloatRaster, error) {
	bandA, err := img.Band(BurnRatioBandA)
	if err != nil {
		return nil, err
	}
	bandB, err := img.Band(BurnRatioBandB)
	if err != nil {
		return nil, err
	}
	return NormalizedDifference(bandA, bandB)
}

// BurnMask generates the difference between the normalized burn
// ratios for the init and post composites and thresholds it into a
// binary mask. Burned pixels hold 1.0; everything else, including
// pixels without coverage in either composite, is absent from the
// mask. Consumers must read absence as "not burned".
func BurnMask(initComposite, postComposite *utils.Image, deltaThreshold float64) (*utils.FloatRaster, error) {
	nbrInit, err := BurnRatio(initComposite)
	if err != nil {
		return nil, err
	}
	nbrPost, err := BurnRatio(postComposite)
	if err != nil {
		return nil, err
	}
	if nbrInit.Width != nbrPost.Width || nbrInit.Height != nbrPost.Height {
		return nil, fmt.Errorf("composite dimensions %dx%d do not match %dx%d", nbrInit.Width, nbrInit.Height, nbrPost.Width, nbrPost.Height)
	}

	out := utils.NewEmptyRaster(nbrPost.Width, nbrPost.Height, nbrPost.BBox)
	threshold := float32(deltaThreshold)
	for i := range nbrPost.Data {
		if !nbrInit.Valid(i) || !nbrPost.Valid(i) {
			continue
		}
		if nbrPost.Data[i]-nbrInit.Data[i] > threshold {
			out.Data[i] = 1.0
			out.Mask[i] = true
		}
	}
	return out, nil
}
