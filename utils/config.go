package utils

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"time"
)

var EtcDir = "."
var DataDir = "."

// string used to format Go ISO times
const ISOFormat = "2006-01-02T15:04:05.000Z"

type ServiceConfig struct {
	PostgresDSN   string `json:"postgres_dsn"`
	MemcacheURI   string `json:"memcache_uri"`
	CataloguePath string `json:"catalogue_path"`
	LogDir        string `json:"log_dir"`
	TemplateRoot  string `json:"template_root"`
}

// DateRange delineates one compositing period. Both ends are
// inclusive.
type DateRange struct {
	StartISODate string `json:"start_isodate"`
	EndISODate   string `json:"end_isodate"`
	Start        time.Time
	End          time.Time
}

// Analysis describes one burn-scar detection run: the imagery
// collection, the pre and post fire periods and the fire-point
// collection the result is clipped around. Algorithm thresholds are
// fixed constants in the processor package, not configuration.
type Analysis struct {
	Name           string    `json:"name"`
	Collection     string    `json:"collection"`
	InitSeason     DateRange `json:"init_season"`
	PostSeason     DateRange `json:"post_season"`
	FireCollection string    `json:"fire_collection"`
	BufferMeters   float64   `json:"buffer_meters"`
}

// Config is the struct representing the configuration of a burn-scar
// detection service. It contains the addresses of the external fire
// and imagery catalogues as well as the list of analyses that can be
// run.
type Config struct {
	ServiceConfig ServiceConfig `json:"service_config"`
	Analyses      []Analysis    `json:"analyses"`
}

func parseRange(dr *DateRange) error {
	start, err := time.Parse(ISOFormat, dr.StartISODate)
	if err != nil {
		return fmt.Errorf("Error parsing start date %s: %v", dr.StartISODate, err)
	}
	end, err := time.Parse(ISOFormat, dr.EndISODate)
	if err != nil {
		return fmt.Errorf("Error parsing end date %s: %v", dr.EndISODate, err)
	}
	if end.Before(start) {
		return fmt.Errorf("Date range ends %v before it starts %v", end, start)
	}
	dr.Start = start
	dr.End = end
	return nil
}

// LoadConfigFile marshalls the config.json document returning an
// instance of a Config variable containing all the values
func (config *Config) LoadConfigFile(configFile string) error {
	*config = Config{}
	cfg, err := ioutil.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("Error while reading config file: %s. Error: %v", configFile, err)
	}

	err = json.Unmarshal(cfg, config)
	if err != nil {
		return fmt.Errorf("Error at JSON parsing config document: %s. Error: %v", configFile, err)
	}

	for i := range config.Analyses {
		analysis := &config.Analyses[i]
		if len(analysis.Collection) == 0 {
			return fmt.Errorf("Analysis %s does not name an imagery collection", analysis.Name)
		}
		if err := parseRange(&analysis.InitSeason); err != nil {
			return fmt.Errorf("Analysis %s init season: %v", analysis.Name, err)
		}
		if err := parseRange(&analysis.PostSeason); err != nil {
			return fmt.Errorf("Analysis %s post season: %v", analysis.Name, err)
		}
	}
	return nil
}
