package generator

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Title is one row of title.basics.
type Title struct {
	ID        string
	Type      string
	Primary   string
	Original  string
	StartYear int
	Runtime   int
	Genres    []string
}

// Principal is one row of title.principals.
type Principal struct {
	TitleID  string
	Ordering int
	PersonID string
	Category string
}

// Person is one row of name.basics.
type Person struct {
	ID        string
	Name      string
	BirthYear int
}

// Tables contains the generated rows of the three IMDb exports.
type Tables struct {
	Titles     []Title
	Principals []Principal
	Persons    []Person
}

// Generator produces synthetic title, credit and person tables in the layout
// of the public IMDb exports.
type Generator struct {
	cfg           Config
	rand          *rand.Rand
	nameFragments nameFragments
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	defaults := DefaultConfig()
	if cfg.NumPersons <= 0 {
		cfg.NumPersons = defaults.NumPersons
	}
	if cfg.NumTitles <= 0 {
		cfg.NumTitles = defaults.NumTitles
	}
	if cfg.MaxCast < 2 {
		cfg.MaxCast = defaults.MaxCast
	}
	cfg.NonMovieChance = clampProbability(cfg.NonMovieChance)
	cfg.CrewChance = clampProbability(cfg.CrewChance)
	cfg.NicknameChance = clampProbability(cfg.NicknameChance)
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:           cfg,
		rand:          rand.New(rand.NewSource(cfg.Seed)),
		nameFragments: defaultNameFragments(),
	}
}

// Generate synthesises the three tables. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (Tables, error) {
	persons := make([]Person, g.cfg.NumPersons)
	for i := range persons {
		if err := ctx.Err(); err != nil {
			return Tables{}, err
		}
		persons[i] = Person{
			ID:        fmt.Sprintf("nm%07d", i+1),
			Name:      g.randomFullName(),
			BirthYear: 1930 + g.rand.Intn(75),
		}
	}
	if g.cfg.Reference != "" {
		persons[0].Name = g.cfg.Reference
	}

	titles := make([]Title, g.cfg.NumTitles)
	var principals []Principal
	for i := range titles {
		if err := ctx.Err(); err != nil {
			return Tables{}, err
		}

		id := fmt.Sprintf("tt%07d", i+1)
		name := g.randomTitle()
		titles[i] = Title{
			ID:        id,
			Type:      g.randomTitleType(),
			Primary:   name,
			Original:  name,
			StartYear: 1950 + g.rand.Intn(75),
			Runtime:   80 + g.rand.Intn(80),
			Genres:    g.randomGenres(),
		}
		if i == 0 && g.cfg.Reference != "" {
			titles[i].Type = "movie"
		}

		cast := g.pickCast(i == 0 && g.cfg.Reference != "")
		for ordering, personIdx := range cast {
			principals = append(principals, Principal{
				TitleID:  id,
				Ordering: ordering + 1,
				PersonID: persons[personIdx].ID,
				Category: g.randomCategory(personIdx, ordering),
			})
		}
	}

	return Tables{Titles: titles, Principals: principals, Persons: persons}, nil
}

// pickCast draws distinct person indexes. Popular persons are favoured so the
// resulting graph has a connected core rather than isolated pairs.
func (g *Generator) pickCast(withReference bool) []int {
	size := 1 + g.rand.Intn(g.cfg.MaxCast)
	seen := make(map[int]struct{}, size)
	cast := make([]int, 0, size)
	if withReference {
		seen[0] = struct{}{}
		cast = append(cast, 0)
	}
	for len(cast) < size && len(seen) < g.cfg.NumPersons {
		var idx int
		if g.rand.Float64() < 0.3 {
			idx = g.rand.Intn(max(1, g.cfg.NumPersons/20))
		} else {
			idx = g.rand.Intn(g.cfg.NumPersons)
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		cast = append(cast, idx)
	}
	return cast
}

func (g *Generator) randomCategory(personIdx, ordering int) string {
	// The reference person always acts so it stays reachable.
	if personIdx == 0 && g.cfg.Reference != "" {
		return "actor"
	}
	if g.rand.Float64() < g.cfg.CrewChance {
		crew := []string{"director", "writer", "producer", "composer", "self"}
		return crew[g.rand.Intn(len(crew))]
	}
	if ordering%2 == 0 {
		return "actor"
	}
	return "actress"
}

func (g *Generator) randomTitleType() string {
	if g.rand.Float64() >= g.cfg.NonMovieChance {
		return "movie"
	}
	types := []string{"short", "tvSeries", "tvMovie", "tvEpisode", "videoGame"}
	return types[g.rand.Intn(len(types))]
}

func (g *Generator) randomTitle() string {
	return fmt.Sprintf("The %s %s",
		g.nameFragments.adjectives[g.rand.Intn(len(g.nameFragments.adjectives))],
		g.nameFragments.nouns[g.rand.Intn(len(g.nameFragments.nouns))])
}

func (g *Generator) randomGenres() []string {
	genres := []string{"Drama", "Comedy", "Thriller", "Romance", "Action", "Horror", "Documentary"}
	n := 1 + g.rand.Intn(3)
	out := make([]string, 0, n)
	for _, idx := range g.rand.Perm(len(genres))[:n] {
		out = append(out, genres[idx])
	}
	return out
}

func (g *Generator) randomFullName() string {
	first := g.nameFragments.first[g.rand.Intn(len(g.nameFragments.first))]
	last := g.nameFragments.last[g.rand.Intn(len(g.nameFragments.last))]
	if g.rand.Float64() < g.cfg.NicknameChance {
		nick := g.nameFragments.nicknames[g.rand.Intn(len(g.nameFragments.nicknames))]
		return fmt.Sprintf("%s \"%s\" %s", first, nick, last)
	}
	return fmt.Sprintf("%s %s", first, last)
}

func clampProbability(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}

type nameFragments struct {
	first      []string
	last       []string
	nicknames  []string
	adjectives []string
	nouns      []string
}

func defaultNameFragments() nameFragments {
	return nameFragments{
		first:      []string{"Jane", "John", "Alex", "Priya", "Liu", "Maria", "Omar", "Sofia", "Noah", "Emma", "Lucas", "Mia", "Ava", "Ethan", "Zara", "Lori", "Tom", "Meg"},
		last:       []string{"Doe", "Smith", "Chen", "Patel", "Garcia", "Khan", "Kim", "Ivanov", "Nguyen", "Silva", "Brown", "Lee", "Singer", "Ryder", "Hanks"},
		nicknames:  []string{"The Rock", "Doc", "Ace", "Bones"},
		adjectives: []string{"Silent", "Last", "Crimson", "Hidden", "Endless", "Broken", "Golden", "Lost", "Wild", "Quiet"},
		nouns:      []string{"River", "Summer", "Kingdom", "Road", "Harbor", "Night", "Garden", "Signal", "Frontier", "Dance"},
	}
}
