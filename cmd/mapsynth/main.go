// Command mapsynth generates maps from sketches and builds training sets.
//
// Usage:
//
//	mapsynth generate -config generation_config.txt -input sketches -output results
//	mapsynth dataset -input truth -key roads_64-16,roads_sharp -size 150000
//	mapsynth stages
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/gogpu/mapsynth"
	"github.com/gogpu/mapsynth/internal/image"
	"github.com/gogpu/mapsynth/internal/store"
	"github.com/gogpu/mapsynth/predictor"
)

// sketchExts are tried in order when looking for a layer file.
var sketchExts = []string{".pgm", ".png", ".bmp", ".tif", ".tiff", ".webp", ".jpg", ".jpeg", ".gif"}

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "generate":
		err = runGenerate(ctx, args)
	case "dataset":
		err = runDataset(ctx, args)
	case "stages":
		err = runStages(args)
	case "-h", "-help", "--help", "help":
		usage()
		return
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("mapsynth: %v", err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: mapsynth <command> [flags]

commands:
  generate  synthesize maps from heights, roads, rivers and buildings sketches
  dataset   build predictor training pairs from ground-truth maps
  stages    list stage keys with their predictor input and output lengths`)
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	mapsynth.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func runGenerate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	var (
		config     = fs.String("config", "generation_config.txt", "stage configuration file")
		input      = fs.String("input", ".", "directory holding heights, roads, rivers and buildings sketches")
		models     = fs.String("models", ".", "directory relative predictor locations are resolved against")
		output     = fs.String("output", "results", "output directory")
		modifier   = fs.Float64("random-modifier", 10, "height noise divisor; 0 disables the noise")
		seed       = fs.Uint64("seed", 1, "noise seed")
		workers    = fs.Int("workers", 1, "worker goroutines per predictor")
		sequential = fs.Bool("sequential", false, "generate roads and rivers one after the other")
		pgm        = fs.Bool("pgm", false, "also write every raster as a 16-bit PGM")
		preview    = fs.Int("preview-size", 0, "bound the longer side of previews; 0 keeps full size")
		scale      = fs.Int("scale", 1, "enlarge the composite by this factor")
		verbose    = fs.Bool("v", false, "log per-row progress and raster statistics")
	)
	_ = fs.Parse(args)
	setupLogging(*verbose)

	cfg, err := mapsynth.LoadStageConfig(*config)
	if err != nil {
		return err
	}
	sketches, err := loadMaps(*input)
	if err != nil {
		return err
	}

	rasters, err := store.NewDir(filepath.Join(*output, "rasters"))
	if err != nil {
		return err
	}
	previews, err := image.NewDir(*output, image.Viridis, *preview, *pgm)
	if err != nil {
		return err
	}

	p, err := mapsynth.New(cfg,
		mapsynth.WithLoader(predictor.FileLoader(*models, predictor.WithWorkers(*workers))),
		mapsynth.WithSink(mapsynth.MultiSink(rasters, previews)),
		mapsynth.WithRandomModifier(*modifier),
		mapsynth.WithSeed(*seed),
		mapsynth.WithParallelLayers(!*sequential),
	)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	start := time.Now()
	res, err := p.Run(ctx, sketches)
	if err != nil {
		return err
	}

	img, err := res.Composite(*scale)
	if err != nil {
		return err
	}
	if err := image.SavePNG(filepath.Join(*output, "generated_all.png"), img); err != nil {
		return err
	}
	log.Printf("maps written to %s in %s", *output, time.Since(start).Round(time.Millisecond))
	return nil
}

func runDataset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("dataset", flag.ExitOnError)
	var (
		input    = fs.String("input", "training_data", "directory holding ground-truth heights, roads, rivers and buildings")
		output   = fs.String("output", "training_data/datasets", "output directory")
		keys     = fs.String("key", "all", "comma-separated stage keys, or all")
		size     = fs.Int("size", 150000, "samples per stage key")
		modifier = fs.Float64("random-modifier", 10, "height noise divisor; 0 disables the noise")
		seed     = fs.Uint64("seed", 1, "sampling and noise seed")
		verbose  = fs.Bool("v", false, "verbose logging")
	)
	_ = fs.Parse(args)
	setupLogging(*verbose)

	selected := mapsynth.RequiredStages()
	if *keys != "all" {
		selected = strings.Split(*keys, ",")
	}

	truth, err := loadMaps(*input)
	if err != nil {
		return err
	}
	dir, err := store.NewDir(*output)
	if err != nil {
		return err
	}

	for _, key := range selected {
		d, err := mapsynth.BuildDataset(ctx, truth, strings.TrimSpace(key), *size,
			mapsynth.WithSeed(*seed),
			mapsynth.WithRandomModifier(*modifier),
		)
		if err != nil {
			return err
		}
		if err := d.Emit(dir); err != nil {
			return err
		}
		log.Printf("%s: %d samples, %d -> %d values", d.Key, d.Inputs.Rows(), d.Inputs.Cols(), d.Outputs.Cols())
	}
	return nil
}

func runStages(args []string) error {
	fs := flag.NewFlagSet("stages", flag.ExitOnError)
	_ = fs.Parse(args)

	g := mapsynth.DefaultGeometry()
	for _, key := range mapsynth.RequiredStages() {
		in, out, err := mapsynth.IO(key, g)
		if err != nil {
			return err
		}
		fmt.Printf("%-22s %5d -> %d\n", key, in, out)
	}
	return nil
}

// loadMaps reads one grayscale file per layer from dir.
func loadMaps(dir string) (mapsynth.Maps, error) {
	var m mapsynth.Maps
	for _, l := range mapsynth.Layers() {
		path, err := findLayerFile(dir, l.String())
		if err != nil {
			return m, err
		}
		r, err := image.LoadGray(path)
		if err != nil {
			return m, fmt.Errorf("load %s: %w", l, err)
		}
		m.Set(l, r)
	}
	return m, nil
}

func findLayerFile(dir, name string) (string, error) {
	for _, ext := range sketchExts {
		path := filepath.Join(dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}
	return "", fmt.Errorf("no %s image in %s", name, dir)
}
