package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"exoseeker/internal/common"
	"exoseeker/internal/dataset"
	"exoseeker/internal/label"
)

func main() {
	var (
		dataPath  = flag.String("data", common.DefaultDataDir, "Data directory path")
		planets   = flag.Int("planets", 400, "Rows labelled planet per mission")
		nonPlanet = flag.Int("non-planets", 600, "Rows labelled non_planet per mission")
		cands     = flag.Int("candidates", 250, "Rows labelled candidate per mission")
		seed      = flag.Int64("seed", common.DefaultSeed, "Random seed")
	)
	flag.Parse()

	fmt.Printf("Generating sample mission tables...\n")
	fmt.Printf("  Rows per class: planet=%d non_planet=%d candidate=%d\n", *planets, *nonPlanet, *cands)
	fmt.Printf("  Data Path: %s\n", *dataPath)

	perClass := map[label.Label]int{
		label.Planet:    *planets,
		label.NonPlanet: *nonPlanet,
		label.Candidate: *cands,
	}

	for i, mission := range common.Missions {
		path := filepath.Join(*dataPath, mission, mission+common.DatasetFileSuffix)
		if err := writeMission(path, dataset.Synthetic(mission, perClass, *seed+int64(i))); err != nil {
			log.Fatalf("Failed to generate %s: %v", mission, err)
		}
		fmt.Printf("✓ %s\n", path)
	}
}

func writeMission(path string, ds *dataset.Dataset) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := dataset.WriteCSV(f, ds); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
