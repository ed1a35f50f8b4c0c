// Command lumiere-layout renders a top-down plot of the photo tree layout
// for a config file.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/lumiere-studio/lumiere/internal/config"
	"github.com/lumiere-studio/lumiere/internal/diag"
	"github.com/lumiere-studio/lumiere/internal/layout"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML config file")
	out := flag.String("out", "layout.png", "output file (.png, .svg or .pdf)")
	photos := flag.Int("photos", -1, "photo count (overrides layout.photo_count)")
	seed := flag.Uint64("seed", 0, "layout seed (overrides layout.seed when non-zero)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *photos >= 0 {
		cfg.Layout.PhotoCount = *photos
	}
	if *seed != 0 {
		cfg.Layout.Seed = *seed
	}

	l := layout.Generate(cfg.Tree, cfg.Layout.Scatter, cfg.Layout.PhotoCount, cfg.Layout.Seed)
	if err := diag.PlotLayout(l, *out); err != nil {
		log.Fatalf("Failed to plot layout: %v", err)
	}
	fmt.Printf("Wrote %s: %d photos, %d ornaments, %d presents\n", *out, len(l.Slots), len(l.Ornaments), len(l.Presents))
}
