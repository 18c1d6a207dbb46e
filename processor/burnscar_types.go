package processor

import (
	"time"

	"github.com/nci/burnscar/metrics"
)

// CompositeRequest describes the shape of the composite to reduce an
// image collection into. Bands, dimensions and BBox come from the
// collection schema so an empty period still yields a well-formed
// all-invalid image.
type CompositeRequest struct {
	Bands         []string
	Height, Width int
	BBox          []float64
	StartTime     time.Time
	EndTime       time.Time
}

// BurnScarRequest carries everything one end-to-end detection needs:
// the two compositing seasons, the fire points the result is clipped
// around and the classification threshold.
type BurnScarRequest struct {
	Bands          []string
	Height, Width  int
	BBox           []float64
	InitStart      time.Time
	InitEnd        time.Time
	PostStart      time.Time
	PostEnd        time.Time
	FirePoints     []FirePoint
	BufferMeters   float64
	DeltaThreshold float64

	MetricsCollector *metrics.RunCollector
}
