package firepoints

import (
	"encoding/json"
	"fmt"
	"io/ioutil"

	geo "github.com/nci/geometry"

	"github.com/nci/burnscar/processor"
)

// GeoJSONSource serves fire points out of a GeoJSON FeatureCollection
// document of Point features, one file per collection under Root.
type GeoJSONSource struct {
	Root string
}

func NewGeoJSONSource(root string) *GeoJSONSource {
	return &GeoJSONSource{Root: root}
}

func (s *GeoJSONSource) GetPoints(collection string) ([]processor.FirePoint, error) {
	data, err := ioutil.ReadFile(fmt.Sprintf("%s/%s.json", s.Root, collection))
	if err != nil {
		return nil, fmt.Errorf("Error while reading fire collection %s: %v", collection, err)
	}
	return ParseFeatureCollection(data)
}

// pointGeometry matches the GeoJSON wire form of a Point geometry.
// Geometries are round-tripped through their JSON encoding, the same
// way the rest of the system hands them to external consumers.
type pointGeometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// ParseFeatureCollection extracts the fire points from a GeoJSON
// FeatureCollection. Any feature that is not a Point is a malformed
// input and fails the whole parse.
func ParseFeatureCollection(data []byte) ([]processor.FirePoint, error) {
	var featCol geo.FeatureCollection
	if err := json.Unmarshal(data, &featCol); err != nil {
		return nil, fmt.Errorf("Problem unmarshalling GeoJSON object: %v", err)
	}

	var points []processor.FirePoint
	for _, feat := range featCol.Features {
		switch geom := feat.Geometry.(type) {
		case *geo.Point:
			geomJSON, err := json.Marshal(geom)
			if err != nil {
				return nil, fmt.Errorf("Problem marshaling GeoJSON geometry: %v", err)
			}
			var pt pointGeometry
			if err := json.Unmarshal(geomJSON, &pt); err != nil {
				return nil, fmt.Errorf("Problem decoding GeoJSON point: %v", err)
			}
			if len(pt.Coordinates) < 2 {
				return nil, fmt.Errorf("GeoJSON point carries %d coordinates", len(pt.Coordinates))
			}
			points = append(points, processor.FirePoint{X: pt.Coordinates[0], Y: pt.Coordinates[1]})
		default:
			return nil, fmt.Errorf("Geometry not supported. Only Features containing Point are available")
		}
	}
	return points, nil
}
