package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vanshika/bacondistance/internal/generator"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		persons        = flag.Int("persons", cfg.NumPersons, "number of persons to generate")
		titles         = flag.Int("titles", cfg.NumTitles, "number of titles to generate")
		maxCast        = flag.Int("max-cast", cfg.MaxCast, "maximum principals credited per title")
		nonMovieChance = flag.Float64("non-movie-chance", cfg.NonMovieChance, "probability of a title not being a movie")
		crewChance     = flag.Float64("crew-chance", cfg.CrewChance, "probability of a credit not being an acting role")
		nicknameChance = flag.Float64("nickname-chance", cfg.NicknameChance, "probability of a quoted nickname in a person's name")
		reference      = flag.String("reference", cfg.Reference, "person always credited on the first movie")
		seed           = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		outputDir      = flag.String("output-dir", "data", "directory to write the three .tsv exports")
	)
	flag.Parse()

	genCfg := generator.Config{
		NumPersons:     *persons,
		NumTitles:      *titles,
		MaxCast:        *maxCast,
		NonMovieChance: *nonMovieChance,
		CrewChance:     *crewChance,
		NicknameChance: *nicknameChance,
		Reference:      *reference,
		Seed:           *seed,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	tables, err := generator.New(genCfg).Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if err := generator.WriteTables(tables, *outputDir); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write tables: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %d titles, %d credits and %d persons into %s\n",
		len(tables.Titles), len(tables.Principals), len(tables.Persons), *outputDir)
}
