package main

import (
	"flag"
	"os"
	"time"

	"github.com/LdDl/junctionsim"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	runFileName    = flag.String("run", "run.yaml", "Filename of run configuration (flows, lane layouts, priorities, pedestrian crossing)")
	systemFileName = flag.String("system", "", "Filename of system configuration with physical constants. Built-in defaults are used when empty")
	out            = flag.String("out", "", "Filename of statistics output. Standard output is used when empty")
	format         = flag.String("format", "json", "Format of statistics output. Expected values: json / yaml / msgpack")
	csvOut         = flag.String("csv", "", "Filename of 'Comma-Separated Values' (CSV) formatted output. E.g.: if file name is 'stats.csv' then 2 files will be produced: 'stats_directions.csv', 'stats_lanes.csv'")
	geojsonOut     = flag.String("geojson", "", "Filename of GeoJSON output with lanes geometries. Requires junction location")
	osmFileName    = flag.String("osm", "", "Filename of *.osm / *.osm.pbf file to import lane layouts from")
	osmNodeID      = flag.Int64("node", 0, "ID of signalised OSM node to import lane layouts for")
	verbose        = flag.Bool("verbose", false, "Print debug information")
)

func main() {

	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if err := run(logger); err != nil {
		logger.WithError(err).Error("Simulation failed")
		os.Exit(1)
	}
}

func run(logger *logrus.Logger) error {
	outputFormat, err := junctionsim.ParseOutputFormat(*format)
	if err != nil {
		return err
	}

	constants := junctionsim.DefaultPhysicalConstants()
	if *systemFileName != "" {
		constants, err = junctionsim.LoadPhysicalConstants(*systemFileName)
		if err != nil {
			return err
		}
	}

	cfg, err := junctionsim.LoadRunConfiguration(*runFileName)
	if err != nil {
		return err
	}

	// Command line arguments take precedence over configuration file
	source := cfg.OSM
	if *osmFileName != "" {
		source = &junctionsim.OSMSource{File: *osmFileName, NodeID: *osmNodeID}
	}
	if source != nil && source.File != "" {
		st := time.Now()
		importer := junctionsim.NewLayoutImporter(
			source.File,
			junctionsim.WithNodeID(source.NodeID),
			junctionsim.WithImportLogger(logger),
		)
		logger.Debug(importer)
		imported, err := importer.Import()
		if err != nil {
			return errors.Wrap(err, "Can't import lane layouts")
		}
		imported.Apply(cfg)
		logger.WithFields(logrus.Fields{
			"node":       imported.NodeID,
			"control":    imported.ControlType.String(),
			"approaches": len(imported.Approaches),
			"elapsed":    time.Since(st),
		}).Info("Lane layouts imported")
	}

	junction, err := junctionsim.NewJunction(cfg, constants, junctionsim.WithLogger(logger))
	if err != nil {
		return err
	}

	st := time.Now()
	stats, err := junction.Simulate()
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"priorities": junction.Priorities(),
		"elapsed":    time.Since(st),
	}).Info("Simulation done")

	if *out == "" {
		err = junctionsim.ExportStatistics(os.Stdout, stats, outputFormat)
		if err != nil {
			return err
		}
	} else {
		err = writeStatistics(*out, stats, outputFormat)
		if err != nil {
			return err
		}
	}

	if *csvOut != "" {
		err = stats.ExportToCSV(*csvOut, cfg.Location)
		if err != nil {
			return err
		}
	}

	if *geojsonOut != "" {
		if cfg.Location == nil {
			logger.Warn("Junction location is not set, GeoJSON output is skipped")
		} else {
			err = stats.ExportGeoJSON(*geojsonOut, *cfg.Location)
			if err != nil {
				return err
			}
		}
	}

	logger.WithField("score", stats.Score()).Info("Junction efficiency score")
	return nil
}

// writeStatistics exports statistics to the file and reports its close error
func writeStatistics(fileName string, stats *junctionsim.Statistics, outputFormat junctionsim.OutputFormat) error {
	file, err := os.Create(fileName)
	if err != nil {
		return errors.Wrap(err, "Can't create output file")
	}
	err = junctionsim.ExportStatistics(file, stats, outputFormat)
	if err != nil {
		file.Close()
		return err
	}
	err = file.Close()
	if err != nil {
		return errors.Wrap(err, "Can't close output file")
	}
	return nil
}
