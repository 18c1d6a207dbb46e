package utils

// Rescale linearly maps r against the (low, high) threshold pair:
// low maps to 0 and high maps to 1. A descending pair (low > high)
// yields a negative-slope map. The output is deliberately not clamped,
// consumers combine terms with a pixel-wise minimum and tolerate
// values outside [0, 1] from extreme inputs.
func Rescale(r *FloatRaster, low, high float64) *FloatRaster {
	out := NewFloatRaster(r.Width, r.Height, r.BBox)
	span := float32(high - low)
	lo := float32(low)
	for i, value := range r.Data {
		if !r.Valid(i) {
			out.SetInvalid(i)
			continue
		}
		out.Data[i] = (value - lo) / span
	}
	return out
}

// MinRaster is the pixel-wise minimum of a and b over pixels valid in
// both; a pixel invalid in either input is invalid in the output.
func MinRaster(a, b *FloatRaster) *FloatRaster {
	out := NewFloatRaster(a.Width, a.Height, a.BBox)
	for i := range a.Data {
		if !a.Valid(i) || !b.Valid(i) {
			out.SetInvalid(i)
			continue
		}
		if a.Data[i] < b.Data[i] {
			out.Data[i] = a.Data[i]
		} else {
			out.Data[i] = b.Data[i]
		}
	}
	return out
}

// ConstRaster returns a raster of the given shape filled with value,
// every pixel valid.
func ConstRaster(value float64, width, height int, bbox []float64) *FloatRaster {
	out := NewFloatRaster(width, height, bbox)
	fill := float32(value)
	for i := range out.Data {
		out.Data[i] = fill
	}
	return out
}
