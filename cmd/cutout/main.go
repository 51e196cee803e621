package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/chaos-io/nobg/canvas"
	"github.com/chaos-io/nobg/export"
	"github.com/chaos-io/nobg/rembg"
	"github.com/chaos-io/nobg/segment"
	"github.com/chaos-io/nobg/util"
	nhttp "github.com/chaos-io/nobg/util/http"
	"go.uber.org/zap"
)

func main() {
	var (
		in         = flag.String("in", "", "input image path or http(s) url")
		out        = flag.String("out", export.Filename, "output png path")
		threshold  = flag.String("threshold", "", "foreground probability threshold, 0.00-1.00")
		mode       = flag.String("mode", "", "single or multi")
		resolution = flag.String("resolution", "", "low, medium, high or full")
		maxDim     = flag.Int("max-dim", canvas.DefaultMaxDim, "longest side after scaling")
		segmentURL = flag.String("segment-url", "", "segmentation service endpoint, empty uses the input alpha")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *in == "" {
		flag.Usage()
		os.Exit(2)
	}

	logMode := "release"
	if *verbose {
		logMode = "debug"
	}
	if err := util.InitLogger(logMode); err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer util.Sync()

	opts, err := segment.ParseOptions(*threshold, *mode, *resolution, segment.DefaultOptions())
	if err != nil {
		log.Fatal(err)
	}

	var seg segment.Segmenter = segment.NewAlphaMatte()
	if *segmentURL != "" {
		seg = segment.NewRemote(*segmentURL, "", nhttp.NewHTTPClient())
	}
	local := rembg.NewLocal(segment.NewGate(seg), *maxDim, opts)

	ctx := context.Background()
	data, err := util.ReadInput(ctx, *in)
	if err != nil {
		log.Fatal("Failed to load image:", err)
	}

	res, err := local.Run(ctx, data, opts)
	if err != nil {
		log.Fatal("Failed to remove background:", err)
	}

	if dir := filepath.Dir(*out); dir != "." {
		_ = os.MkdirAll(dir, os.ModePerm)
	}
	if err := os.WriteFile(*out, res.PNG, 0o644); err != nil {
		log.Fatal("Failed to write output:", err)
	}

	util.Logger.Info("done",
		zap.String("output", *out),
		zap.Int("width", res.Width()),
		zap.Int("height", res.Height()),
		zap.Bool("has_foreground", res.HasForeground))
}
