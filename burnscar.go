package main

/* burnscar detects burned land area by comparing cloud-free
   composites of satellite imagery between a pre-fire and a post-fire
   season, restricted to buffered regions around known fire detection
   points. Analyses are specified in the config.json file; imagery
   comes from a YAML granule catalogue and fire points from either a
   PostGIS table or GeoJSON documents. The clipped burn mask is
   written out as a PNG alongside an optional run report. */

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"

	"github.com/nci/burnscar/firepoints"
	"github.com/nci/burnscar/imagery"
	"github.com/nci/burnscar/metrics"
	proc "github.com/nci/burnscar/processor"
	"github.com/nci/burnscar/utils"
)

var (
	configFile   = flag.String("conf", "config.json", "Service config file.")
	analysisName = flag.String("analysis", "", "Name of the analysis to run. Defaults to the first one configured.")
	bufferMeters = flag.Float64("m", 0, "Fire buffer radius in meters. Overrides the configured value.")
	outFile      = flag.String("o", "burn_mask.png", "Output PNG file for the burn mask.")
	reportOut    = flag.Bool("report", false, "Write the run report to stdout.")
	fireDir      = flag.String("fire_dir", "", "Directory of GeoJSON fire collections. Used instead of Postgres when set.")
	dbPool       = flag.Int("pool", 8, "database pool size")
	dbLimit      = flag.Int("limit", 64, "database concurrent requests")
	verbose      = flag.Bool("v", false, "Verbose mode for more outputs.")
)

var (
	Error *log.Logger
	Info  *log.Logger
)

func init() {
	Error = log.New(os.Stderr, "BURNSCAR: ", log.Ldate|log.Ltime|log.Lshortfile)
	Info = log.New(os.Stdout, "BURNSCAR: ", log.Ldate|log.Ltime|log.Lshortfile)
}

func selectAnalysis(config *utils.Config) (*utils.Analysis, error) {
	if len(config.Analyses) == 0 {
		return nil, fmt.Errorf("config declares no analyses")
	}
	if *analysisName == "" {
		return &config.Analyses[0], nil
	}
	for i := range config.Analyses {
		if config.Analyses[i].Name == *analysisName {
			return &config.Analyses[i], nil
		}
	}
	return nil, fmt.Errorf("analysis %s not found in config", *analysisName)
}

func newFireSource(config *utils.Config) (firepoints.Source, error) {
	if *fireDir != "" {
		return firepoints.NewGeoJSONSource(*fireDir), nil
	}
	return firepoints.NewPostgresSource(config.ServiceConfig.PostgresDSN, config.ServiceConfig.MemcacheURI, *dbPool, *dbLimit)
}

func newRunLogger(config *utils.Config) metrics.Logger {
	if len(config.ServiceConfig.LogDir) > 0 {
		return metrics.NewFileLogger(config.ServiceConfig.LogDir, 0, 0, *verbose)
	}
	return metrics.NewStdoutLogger()
}

func main() {
	flag.Parse()

	config := &utils.Config{}
	if err := config.LoadConfigFile(*configFile); err != nil {
		Error.Printf("Error in loading config file: %v\n", err)
		os.Exit(1)
	}

	analysis, err := selectAnalysis(config)
	if err != nil {
		Error.Printf("%v\n", err)
		os.Exit(1)
	}

	catalogue, err := imagery.LoadCatalogue(config.ServiceConfig.CataloguePath)
	if err != nil {
		Error.Printf("Error in loading imagery catalogue: %v\n", err)
		os.Exit(1)
	}

	collection, err := catalogue.GetCollection(analysis.Collection)
	if err != nil {
		Error.Printf("%v\n", err)
		os.Exit(1)
	}
	if len(collection.Images) == 0 {
		Error.Printf("Collection %s holds no imagery\n", analysis.Collection)
		os.Exit(1)
	}

	fireSource, err := newFireSource(config)
	if err != nil {
		Error.Printf("Error in opening fire point source: %v\n", err)
		os.Exit(1)
	}
	if closer, ok := fireSource.(*firepoints.PostgresSource); ok {
		defer closer.Close()
	}

	points, err := fireSource.GetPoints(analysis.FireCollection)
	if err != nil {
		Error.Printf("Error in loading fire points %s: %v\n", analysis.FireCollection, err)
		os.Exit(1)
	}
	if *verbose {
		Info.Printf("Loaded %d fire points from %s\n", len(points), analysis.FireCollection)
	}

	radius := analysis.BufferMeters
	if *bufferMeters > 0 {
		radius = *bufferMeters
	}
	if radius <= 0 {
		radius = proc.FireBufferMeters
	}

	runLogger := newRunLogger(config)
	collector := metrics.NewRunCollector(runLogger)
	collector.Info.Collection = analysis.Collection

	ref := collection.Images[0]
	req := &proc.BurnScarRequest{
		Bands:            ref.Bands,
		Height:           ref.Height,
		Width:            ref.Width,
		BBox:             ref.BBox,
		InitStart:        analysis.InitSeason.Start,
		InitEnd:          analysis.InitSeason.End,
		PostStart:        analysis.PostSeason.Start,
		PostEnd:          analysis.PostSeason.End,
		FirePoints:       points,
		BufferMeters:     radius,
		DeltaThreshold:   proc.BurnDeltaThreshold,
		MetricsCollector: collector,
	}

	mask, err := proc.DetectBurnScars(context.Background(), collection, req)
	if err != nil {
		Error.Printf("Pipeline error: %v\n", err)
		os.Exit(1)
	}
	collector.Log()
	// the record must be on disk before any exit path below
	if fl, ok := runLogger.(*metrics.FileLogger); ok {
		fl.Close()
	}

	encoded, err := proc.EncodeMaskPNG(mask)
	if err != nil {
		Error.Printf("Error encoding burn mask: %v\n", err)
		os.Exit(1)
	}
	if err := ioutil.WriteFile(*outFile, encoded, 0644); err != nil {
		Error.Printf("Error writing %s: %v\n", *outFile, err)
		os.Exit(1)
	}
	Info.Printf("Burn mask written to %s\n", *outFile)

	if *reportOut {
		templateRoot := config.ServiceConfig.TemplateRoot
		if templateRoot == "" {
			templateRoot = utils.DataDir + "/templates"
		}
		if err := proc.WriteRunReport(os.Stdout, templateRoot, collector.Info); err != nil {
			Error.Printf("Error writing run report: %v\n", err)
			os.Exit(1)
		}
	}
}
