package utils

import (
	"fmt"
	"time"
)

// NoDataValue is the fill written into invalid pixels. The Mask slice
// is authoritative; the fill only keeps dumped rasters readable.
const NoDataValue = -9999.0

// FloatRaster is a single band of float32 samples in row-major order
// with row 0 at the northern edge. Mask[i] == true means the pixel at
// i participates in further computation. A nil Mask means every pixel
// is valid.
type FloatRaster struct {
	Data          []float32
	Width, Height int
	NoData        float64
	Mask          []bool
	BBox          []float64
}

func NewFloatRaster(width, height int, bbox []float64) *FloatRaster {
	size := width * height
	mask := make([]bool, size)
	for i := 0; i < size; i++ {
		mask[i] = true
	}
	return &FloatRaster{
		Data:   make([]float32, size),
		Width:  width,
		Height: height,
		NoData: NoDataValue,
		Mask:   mask,
		BBox:   bbox,
	}
}

// NewEmptyRaster returns an all-invalid raster of the given shape.
func NewEmptyRaster(width, height int, bbox []float64) *FloatRaster {
	size := width * height
	data := make([]float32, size)
	for i := 0; i < size; i++ {
		data[i] = float32(NoDataValue)
	}
	return &FloatRaster{
		Data:   data,
		Width:  width,
		Height: height,
		NoData: NoDataValue,
		Mask:   make([]bool, size),
		BBox:   bbox,
	}
}

func (fr *FloatRaster) GetNoData() float64 {
	return fr.NoData
}

// Valid reports whether the pixel at index i carries data.
func (fr *FloatRaster) Valid(i int) bool {
	return fr.Mask == nil || fr.Mask[i]
}

func (fr *FloatRaster) SetInvalid(i int) {
	if fr.Mask == nil {
		fr.Mask = make([]bool, len(fr.Data))
		for j := range fr.Mask {
			fr.Mask[j] = true
		}
	}
	fr.Mask[i] = false
	fr.Data[i] = float32(fr.NoData)
}

// Copy returns a deep copy so that operations never mutate their inputs.
func (fr *FloatRaster) Copy() *FloatRaster {
	out := &FloatRaster{
		Data:   make([]float32, len(fr.Data)),
		Width:  fr.Width,
		Height: fr.Height,
		NoData: fr.NoData,
		BBox:   fr.BBox,
	}
	copy(out.Data, fr.Data)
	if fr.Mask != nil {
		out.Mask = make([]bool, len(fr.Mask))
		copy(out.Mask, fr.Mask)
	}
	return out
}

// PixelCentre returns the georeferenced coordinates of the centre of
// the pixel at index i. BBox is xMin, yMin, xMax, yMax as everywhere
// else in this code base.
func (fr *FloatRaster) PixelCentre(i int) (float64, float64) {
	xRes := (fr.BBox[2] - fr.BBox[0]) / float64(fr.Width)
	yRes := (fr.BBox[3] - fr.BBox[1]) / float64(fr.Height)
	x := i % fr.Width
	y := i / fr.Width
	return fr.BBox[0] + (float64(x)+0.5)*xRes, fr.BBox[3] - (float64(y)+0.5)*yRes
}

// Image is an ordered set of co-registered bands sharing extent,
// resolution and CRS. Band order follows the Bands slice.
type Image struct {
	Bands         []string
	Rasters       map[string]*FloatRaster
	Width, Height int
	BBox          []float64
	TimeStamp     time.Time
}

// NewImage validates that every band raster has identical dimensions.
// Mismatched shapes are contract violations and fail immediately.
func NewImage(bands []string, rasters map[string]*FloatRaster, timeStamp time.Time) (*Image, error) {
	if len(bands) == 0 {
		return nil, fmt.Errorf("image requires at least one band")
	}
	ref, ok := rasters[bands[0]]
	if !ok {
		return nil, fmt.Errorf("band %s missing from rasters", bands[0])
	}
	for _, ns := range bands {
		r, ok := rasters[ns]
		if !ok {
			return nil, fmt.Errorf("band %s missing from rasters", ns)
		}
		if r.Width != ref.Width || r.Height != ref.Height {
			return nil, fmt.Errorf("band %s dimensions %dx%d do not match %dx%d", ns, r.Width, r.Height, ref.Width, ref.Height)
		}
		if len(r.Data) != r.Width*r.Height {
			return nil, fmt.Errorf("band %s data length %d does not match %dx%d", ns, len(r.Data), r.Width, r.Height)
		}
		if r.Mask != nil && len(r.Mask) != len(r.Data) {
			return nil, fmt.Errorf("band %s mask length %d does not match data length %d", ns, len(r.Mask), len(r.Data))
		}
	}
	return &Image{
		Bands:     bands,
		Rasters:   rasters,
		Width:     ref.Width,
		Height:    ref.Height,
		BBox:      ref.BBox,
		TimeStamp: timeStamp,
	}, nil
}

// Band returns the raster for the named band. A missing band is a
// schema violation, not a data gap.
func (img *Image) Band(ns string) (*FloatRaster, error) {
	r, ok := img.Rasters[ns]
	if !ok {
		return nil, fmt.Errorf("band %s not in image schema %v", ns, img.Bands)
	}
	return r, nil
}

func (img *Image) Copy() *Image {
	rasters := make(map[string]*FloatRaster)
	for _, ns := range img.Bands {
		rasters[ns] = img.Rasters[ns].Copy()
	}
	bands := make([]string, len(img.Bands))
	copy(bands, img.Bands)
	return &Image{
		Bands:     bands,
		Rasters:   rasters,
		Width:     img.Width,
		Height:    img.Height,
		BBox:      img.BBox,
		TimeStamp: img.TimeStamp,
	}
}

// ImageCollection is an ordered time series of images sharing a band
// schema.
type ImageCollection struct {
	Images []*Image
}

// FilterDate returns the sub-collection with timestamps in
// [start, end], both ends inclusive. Element order is preserved.
func (ic *ImageCollection) FilterDate(start, end time.Time) *ImageCollection {
	out := &ImageCollection{}
	for _, img := range ic.Images {
		if img.TimeStamp.Before(start) || img.TimeStamp.After(end) {
			continue
		}
		out.Images = append(out.Images, img)
	}
	return out
}
