// Package mapsynth synthesizes large raster maps from small sketches.
//
// # Overview
//
// A map is four layers: heights, roads, rivers and buildings. Starting from
// one sketch per layer, mapsynth generates them through a cascade of
// resolution levels. Every cell of every level is produced by a predictor
// that sees the already generated neighbourhood of the cell and windows of
// coarser rasters around it, so detail is added one cell at a time in
// row-major order.
//
// # Quick Start
//
//	cfg, err := mapsynth.LoadStageConfig("generation_config.txt")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	p, err := mapsynth.New(cfg, mapsynth.WithLoader(predictor.FileLoader("models")))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close()
//
//	res, err := p.Run(ctx, mapsynth.Maps{
//	    Heights: heights, Roads: roads, Rivers: rivers, Buildings: buildings,
//	})
//
// # Stages
//
// The sketches are first turned into a grid 16 times coarser than the
// output (stage 64-16), which is refined to 4 times coarser (64-16-4) and to
// full resolution (16-4-1). Within a stage heights come first; roads and
// rivers are conditioned on the height derivatives and may run
// concurrently; buildings see heights, roads and rivers. At full resolution
// roads, rivers and buildings are generated blurry and then rounded by a
// sharpening pass that only looks at the blurry raster.
//
// Each stage key names one predictor in the stage configuration:
//
//	heights_64-16     roads_64-16        rivers_64-16        buildings_64-16
//	heights_64-16-4   roads_64-16-4      rivers_64-16-4      buildings_64-16-4
//	heights_16-4-1    roads_16-4-blurry  rivers_16-4-blurry  buildings_16-4-blurry
//	                  roads_sharp        rivers_sharp        buildings_sharp
//
// # Predictors
//
// A predictor maps a fixed-length vector to a fixed-length vector. IO
// reports both lengths for a stage key. BuildDataset produces training pairs
// with exactly the vectors Run will feed.
//
// # Logging
//
// mapsynth is silent by default. See SetLogger and WithLogger.
package mapsynth
