package metrics

import (
	"bytes"
	"encoding/json"
	"time"
)

// CompositeInfo captures one compositing period of a detection run.
type CompositeInfo struct {
	Season        string        `json:"season"`
	StartDate     string        `json:"start_date"`
	EndDate       string        `json:"end_date"`
	Duration      time.Duration `json:"duration"`
	NumImages     int           `json:"num_images"`
	ValidPixels   int           `json:"valid_pixels"`
	CloudFraction float64       `json:"cloud_fraction"`
}

type BurnInfo struct {
	Duration     time.Duration `json:"duration"`
	BurnedPixels int           `json:"burned_pixels"`
	ValidPixels  int           `json:"valid_pixels"`
	RegionWKT    string        `json:"region_wkt"`
	NumPoints    int           `json:"num_points"`
}

// RunInfo is the JSON record emitted for every burn-scar detection
// run.
type RunInfo struct {
	RunTime     string         `json:"run_time"`
	RunDuration time.Duration  `json:"run_duration"`
	Collection  string         `json:"collection"`
	Init        *CompositeInfo `json:"init"`
	Post        *CompositeInfo `json:"post"`
	Burn        *BurnInfo      `json:"burn"`
}

// RunCollector accumulates run information at the pipeline's
// reporting points and hands the record to a Logger once the run is
// over.
type RunCollector struct {
	Info   *RunInfo
	logger Logger
}

func NewRunCollector(logger Logger) *RunCollector {
	return &RunCollector{
		Info: &RunInfo{
			RunTime: time.Now().UTC().Format(time.RFC3339),
			Init:    &CompositeInfo{Season: "init"},
			Post:    &CompositeInfo{Season: "post"},
			Burn:    &BurnInfo{},
		},
		logger: logger,
	}
}

func (c *RunCollector) Log() {
	if c.logger != nil {
		c.logger.Log(c.Info)
	}
}

func (i *RunInfo) ToJSON() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	err := enc.Encode(i)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
