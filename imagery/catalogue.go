// Imagery catalogue: the boundary to the external imagery source.
// Collections are described by a YAML index listing, per granule, a
// timestamp and one raw float32 grid file per band. The core only
// requires that all images of a collection share a band naming scheme
// and spatial alignment; the index loader enforces exactly that and
// fails fast on anything else.
package imagery

import (
	"encoding/binary"
	"fmt"
	"io/ioutil"
	"math"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/nci/burnscar/utils"
)

type granuleDef struct {
	TimeStamp string            `yaml:"timestamp"`
	Bands     map[string]string `yaml:"bands"`
}

type collectionDef struct {
	Name     string       `yaml:"name"`
	Bands    []string     `yaml:"bands"`
	Width    int          `yaml:"width"`
	Height   int          `yaml:"height"`
	BBox     []float64    `yaml:"bbox"`
	NoData   *float64     `yaml:"nodata"`
	Granules []granuleDef `yaml:"granules"`
}

type catalogueDef struct {
	Collections []collectionDef `yaml:"collections"`
}

type Catalogue struct {
	collections map[string]*utils.ImageCollection
}

// GetCollection returns the named image collection. An unknown name
// is a configuration error, not a data gap.
func (c *Catalogue) GetCollection(name string) (*utils.ImageCollection, error) {
	coll, ok := c.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %s not found in catalogue", name)
	}
	return coll, nil
}

func readGridFile(path string, width, height int, bbox []float64, noData *float64) (*utils.FloatRaster, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Error while reading grid file %s: %v", path, err)
	}

	size := width * height
	if len(data) != size*4 {
		return nil, fmt.Errorf("grid file %s holds %d bytes, want %d for %dx%d float32", path, len(data), size*4, width, height)
	}

	raster := utils.NewFloatRaster(width, height, bbox)
	for i := 0; i < size; i++ {
		raster.Data[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}

	if noData != nil {
		fill := float32(*noData)
		for i := 0; i < size; i++ {
			if raster.Data[i] == fill {
				raster.SetInvalid(i)
			}
		}
	}
	return raster, nil
}

func loadCollection(root string, def collectionDef) (*utils.ImageCollection, error) {
	if len(def.Bands) == 0 {
		return nil, fmt.Errorf("collection %s declares no bands", def.Name)
	}
	if def.Width <= 0 || def.Height <= 0 {
		return nil, fmt.Errorf("collection %s declares invalid dimensions %dx%d", def.Name, def.Width, def.Height)
	}
	if len(def.BBox) != 4 {
		return nil, fmt.Errorf("collection %s bbox must be xMin, yMin, xMax, yMax", def.Name)
	}

	coll := &utils.ImageCollection{}
	for _, gran := range def.Granules {
		timeStamp, err := time.Parse(utils.ISOFormat, gran.TimeStamp)
		if err != nil {
			return nil, fmt.Errorf("collection %s granule timestamp %s: %v", def.Name, gran.TimeStamp, err)
		}

		rasters := make(map[string]*utils.FloatRaster)
		for _, ns := range def.Bands {
			gridPath, ok := gran.Bands[ns]
			if !ok {
				return nil, fmt.Errorf("collection %s granule %s is missing band %s", def.Name, gran.TimeStamp, ns)
			}
			raster, err := readGridFile(filepath.Join(root, gridPath), def.Width, def.Height, def.BBox, def.NoData)
			if err != nil {
				return nil, err
			}
			rasters[ns] = raster
		}

		img, err := utils.NewImage(def.Bands, rasters, timeStamp)
		if err != nil {
			return nil, fmt.Errorf("collection %s granule %s: %v", def.Name, gran.TimeStamp, err)
		}
		coll.Images = append(coll.Images, img)
	}
	return coll, nil
}

// LoadCatalogue parses the YAML index and loads every granule of
// every collection. Grid paths are relative to the index file.
func LoadCatalogue(path string) (*Catalogue, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Error while reading catalogue file: %s. Error: %v", path, err)
	}

	var def catalogueDef
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("Error at YAML parsing catalogue document: %s. Error: %v", path, err)
	}

	cat := &Catalogue{collections: make(map[string]*utils.ImageCollection)}
	root := filepath.Dir(path)
	for _, collDef := range def.Collections {
		coll, err := loadCollection(root, collDef)
		if err != nil {
			return nil, err
		}
		cat.collections[collDef.Name] = coll
	}
	return cat, nil
}
