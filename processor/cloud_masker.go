package processor

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/nci/burnscar/utils"
)

// CloudScoreThreshold screens out excessively cloudy pixels. A pixel
// with score at or below the threshold is kept.
const CloudScoreThreshold = 0.5

// CloudMask accepts an image, a raster of cloud scores corresponding
// to each pixel and a threshold. It returns a new image with every
// pixel whose score exceeds the threshold marked invalid in every
// band. A pixel with score equal to the threshold stays valid.
func CloudMask(img *utils.Image, score *utils.FloatRaster, thresh float64) (*utils.Image, error) {
	if score.Width != img.Width || score.Height != img.Height {
		return nil, fmt.Errorf("cloud score dimensions %dx%d do not match image %dx%d", score.Width, score.Height, img.Width, img.Height)
	}

	out := img.Copy()
	threshold := float32(thresh)
	for i := range score.Data {
		if score.Valid(i) && score.Data[i] <= threshold {
			continue
		}
		for _, ns := range out.Bands {
			out.Rasters[ns].SetInvalid(i)
		}
	}
	return out, nil
}

// CloudFree is the convenience wrapper around CloudMask with the
// threshold fixed at CloudScoreThreshold.
func CloudFree(scorer *CloudScorer, img *utils.Image) (*utils.Image, error) {
	score, err := scorer.Score(img)
	if err != nil {
		return nil, err
	}
	return CloudMask(img, score, CloudScoreThreshold)
}

// CloudFraction reports the proportion of valid pixels in the image
// that are excessively cloudy. An image with no valid pixels yields
// an error rather than a fraction.
func CloudFraction(scorer *CloudScorer, img *utils.Image) (float64, error) {
	score, err := scorer.Score(img)
	if err != nil {
		return 0, err
	}

	var binary []float64
	for i := range score.Data {
		if !score.Valid(i) {
			continue
		}
		if score.Data[i] > CloudScoreThreshold {
			binary = append(binary, 1)
		} else {
			binary = append(binary, 0)
		}
	}
	if len(binary) == 0 {
		return 0, fmt.Errorf("no valid pixels to compute cloud fraction")
	}
	return stat.Mean(binary, nil), nil
}
