package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"dcmtojpeg/internal/logger"
	"dcmtojpeg/internal/observability"
	"dcmtojpeg/pkg/batch"
	"dcmtojpeg/pkg/config"
	"dcmtojpeg/pkg/dicomio"
	"dcmtojpeg/pkg/jpegenc"
	"dcmtojpeg/pkg/pipeline"
	"dcmtojpeg/pkg/voi"
)

func main() {
	defaults := config.DefaultConfig()

	// Parse command line arguments
	configPath := flag.String("config", "dcmtojpeg.yaml", "YAML configuration file (missing file means defaults)")
	writeConfig := flag.String("write-config", "", "Write a default configuration file to this path and exit")
	outputName := flag.String("o", defaults.Output.FolderName, "Output folder name (created under the input directory)")
	quality := flag.Int("q", defaults.Output.Quality, "JPEG quality 1-100")
	verbose := flag.Bool("v", defaults.Logging.Verbose, "Verbose output")
	diagnose := flag.Bool("diagnose", false, "Diagnose DICOM file(s) instead of converting")
	numCores := flag.Int("cores", defaults.Processing.NumCores, "Number of files converted concurrently (default: all available)")
	allFrames := flag.Bool("all-frames", false, "Write every frame of multi-frame files")
	maxSize := flag.Uint("max-size", defaults.Output.MaxDimension, "Downscale images larger than this many pixels (0 keeps the size)")
	metricsAddr := flag.String("metrics-addr", defaults.Metrics.Addr, "Serve Prometheus metrics on this address")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <dicom file or directory>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if *writeConfig != "" {
		if err := config.CreateDefaultConfigFile(*writeConfig); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to: %s\n", *writeConfig)
		return
	}

	// Validate inputs
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	input := flag.Arg(0)

	// Explicit flags win over the config file; the merged result is validated once
	var overrides []func(*config.Config)
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "o":
			overrides = append(overrides, func(c *config.Config) { c.Output.FolderName = *outputName })
		case "q":
			overrides = append(overrides, func(c *config.Config) { c.Output.Quality = *quality })
		case "v":
			overrides = append(overrides, func(c *config.Config) { c.Logging.Verbose = *verbose })
		case "cores":
			overrides = append(overrides, func(c *config.Config) { c.Processing.NumCores = *numCores })
		case "all-frames":
			policy := pipeline.FirstFrame
			if *allFrames {
				policy = pipeline.AllFrames
			}
			overrides = append(overrides, func(c *config.Config) { c.Processing.Frames = policy.String() })
		case "max-size":
			overrides = append(overrides, func(c *config.Config) { c.Output.MaxDimension = *maxSize })
		case "metrics-addr":
			overrides = append(overrides, func(c *config.Config) { c.Metrics.Addr = *metricsAddr })
		}
	})
	cfg, err := config.LoadWithOverrides(*configPath, overrides...)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	level := logger.InfoLevel
	if cfg.Logging.Verbose {
		level = logger.DebugLevel
	}
	var lg logger.Logger = logger.NewConsoleLogger(level)
	if cfg.Logging.Format == "json" {
		lg = logger.NewZerolog(os.Stderr, level)
	}

	metrics := observability.NewMetrics()
	if cfg.Metrics.Addr != "" {
		srv, err := metrics.StartServer(cfg.Metrics.Addr, lg)
		if err != nil {
			lg.Error("metrics disabled", err, nil)
		} else {
			defer srv.Close()
			lg.Info("serving metrics", map[string]interface{}{"addr": srv.Addr})
		}
	}

	policy, _ := pipeline.ParseFramePolicy(cfg.Processing.Frames)
	var lut voi.LUT = voi.NoLUT{}
	if cfg.Processing.UseVOILUT {
		lut = voi.SequenceLUT{}
	}

	encoder, err := jpegenc.NewEncoder(cfg.Output.Quality, cfg.Output.MaxDimension)
	if err != nil {
		log.Fatalf("Invalid output settings: %v", err)
	}

	params := &batch.Params{
		NumCores:         cfg.Processing.NumCores,
		OutputFolderName: cfg.Output.FolderName,
		Progress:         os.Stdout,
	}
	converter := batch.NewConverter(params, dicomio.NewDecoder(lg), encoder,
		pipeline.Normalizer{LUT: lut, Policy: policy}, lg, metrics)

	info, err := os.Stat(input)
	if err != nil {
		log.Fatalf("Input path does not exist: %s", input)
	}

	if *diagnose {
		if err := runDiagnose(converter, input, info.IsDir()); err != nil {
			log.Fatalf("Diagnosis failed: %v", err)
		}
		return
	}

	fmt.Println("================================")
	fmt.Println("DICOM TO JPEG CONVERTER")
	fmt.Println("================================")

	startTime := time.Now()
	var outputs []string
	if info.IsDir() {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		outputs, err = converter.ConvertDirectory(ctx, input)
		if err != nil {
			log.Printf("Conversion stopped: %v", err)
		}
	} else {
		outputs, err = converter.ConvertFile(input, cfg.Output.FolderName)
		if err != nil {
			log.Fatalf("Conversion failed: %v", err)
		}
	}
	processingTime := time.Since(startTime)

	fmt.Printf("\nWrote %d JPEG file(s) in %.2f seconds\n", len(outputs), processingTime.Seconds())
	for _, out := range outputs {
		fmt.Printf("- %s\n", out)
	}
	if len(outputs) == 0 {
		os.Exit(1)
	}
}

// runDiagnose prints a report for a single file, or for every DICOM file of a
// directory
func runDiagnose(converter *batch.Converter, input string, isDir bool) error {
	files := []string{input}
	if isDir {
		var err error
		files, err = batch.Discover(input, "", dicomio.NewDecoder(logger.Nop()))
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no DICOM files found in %s", input)
		}
	}

	for i, file := range files {
		if i > 0 {
			fmt.Println()
		}
		report, err := converter.Diagnose(file)
		if err != nil {
			fmt.Printf("Diagnosing DICOM file: %s\n   ERROR: cannot read DICOM file: %v\n", file, err)
			continue
		}
		report.Write(os.Stdout)
	}
	return nil
}
