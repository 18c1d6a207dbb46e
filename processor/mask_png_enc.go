package processor

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"github.com/nci/burnscar/utils"
)

// BurnColour paints burned pixels in encoded masks.
var BurnColour = color.RGBA{R: 0xd7, G: 0x30, B: 0x27, A: 0xff}

// EncodeMaskPNG encodes a binary mask raster into a PNG where valid
// pixels carry the burn colour and absent pixels are transparent.
func EncodeMaskPNG(r *utils.FloatRaster) ([]byte, error) {
	dst := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	for x := 0; x < r.Width; x++ {
		for y := 0; y < r.Height; y++ {
			if r.Valid(y*r.Width + x) {
				dst.Set(x, y, BurnColour)
			}
		}
	}

	buf := new(bytes.Buffer)
	err := png.Encode(buf, dst)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
