package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/vanshika/bacondistance/internal/bacon"
	"github.com/vanshika/bacondistance/internal/config"
	"github.com/vanshika/bacondistance/internal/dataset"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	var (
		actor       = flag.String("actor", "", "Actor to measure")
		to          = flag.String("to", "", "Measure against this actor instead of the reference")
		datasetPath = flag.String("dataset", cfg.Dataset.Path, "Path to the dataset artifact")
	)
	flag.Parse()

	if *actor == "" {
		fmt.Fprintln(os.Stderr, "-actor is required")
		flag.Usage()
		os.Exit(1)
	}

	ds, err := dataset.LoadFile(*datasetPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load dataset: %v\n", err)
		os.Exit(1)
	}

	if *to != "" {
		fmt.Fprintln(os.Stdout, bacon.Format(bacon.Distance(*actor, *to, ds)))
		return
	}

	distance, err := bacon.NewEngine(cfg.Dataset.ReferenceActor).DistanceToReference(*actor, ds)
	if errors.Is(err, bacon.ErrActorNotFound) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "distance failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintln(os.Stdout, distance)
}
