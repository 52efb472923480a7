package generator

// Config drives the synthetic IMDb-shaped data generator.
type Config struct {
	NumPersons int
	NumTitles  int
	// MaxCast bounds the principals credited on a single title.
	MaxCast int
	// NonMovieChance is the share of titles emitted with a type other than movie.
	NonMovieChance float64
	// CrewChance is the share of credits emitted with a non-acting category.
	CrewChance float64
	// NicknameChance is the share of persons whose name carries a quoted nickname.
	NicknameChance float64
	// Reference, when set, is always present as a person credited on a movie.
	Reference string
	Seed      int64
}

// DefaultConfig returns settings producing a small but well connected graph.
func DefaultConfig() Config {
	return Config{
		NumPersons:     2000,
		NumTitles:      1500,
		MaxCast:        8,
		NonMovieChance: 0.2,
		CrewChance:     0.15,
		NicknameChance: 0.02,
		Reference:      "Kevin Bacon",
		Seed:           42,
	}
}
