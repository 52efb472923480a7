package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/vanshika/bacondistance/internal/domain"
)

// Columns names the header fields read from each source table.
type Columns struct {
	TitleID   string
	TitleType string
	TitleName string

	ParticipationTitleID  string
	ParticipationPersonID string
	ParticipationCategory string

	PersonID   string
	PersonName string
}

// Options configures the filtering stages of the builder.
type Options struct {
	TitleTypes     []string
	RoleCategories []string
	Separator      rune
	Columns        Columns
	Logger         *slog.Logger
}

// DefaultColumns matches the public IMDb dataset exports.
func DefaultColumns() Columns {
	return Columns{
		TitleID:               "tconst",
		TitleType:             "titleType",
		TitleName:             "primaryTitle",
		ParticipationTitleID:  "tconst",
		ParticipationPersonID: "nconst",
		ParticipationCategory: "category",
		PersonID:              "nconst",
		PersonName:            "primaryName",
	}
}

// DefaultOptions keeps feature films and acting credits from tab separated files.
func DefaultOptions() Options {
	return Options{
		TitleTypes:     []string{"movie"},
		RoleCategories: []string{"actor", "actress"},
		Separator:      '\t',
		Columns:        DefaultColumns(),
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if len(o.TitleTypes) == 0 {
		o.TitleTypes = def.TitleTypes
	}
	if len(o.RoleCategories) == 0 {
		o.RoleCategories = def.RoleCategories
	}
	if o.Separator == 0 {
		o.Separator = def.Separator
	}
	c := &o.Columns
	fill := func(field *string, fallback string) {
		if *field == "" {
			*field = fallback
		}
	}
	fill(&c.TitleID, def.Columns.TitleID)
	fill(&c.TitleType, def.Columns.TitleType)
	fill(&c.TitleName, def.Columns.TitleName)
	fill(&c.ParticipationTitleID, def.Columns.ParticipationTitleID)
	fill(&c.ParticipationPersonID, def.Columns.ParticipationPersonID)
	fill(&c.ParticipationCategory, def.Columns.ParticipationCategory)
	fill(&c.PersonID, def.Columns.PersonID)
	fill(&c.PersonName, def.Columns.PersonName)
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// Source opens one input table.
type Source struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FileSource reads a table from a local file.
func FileSource(name, path string) Source {
	return Source{
		Name: name,
		Open: func() (io.ReadCloser, error) {
			f, err := os.Open(path)
			if err != nil {
				return nil, fmt.Errorf("open %s: %w", path, err)
			}
			return f, nil
		},
	}
}

// ReaderSource wraps an already open reader. It can be consumed once.
func ReaderSource(name string, r io.Reader) Source {
	return Source{
		Name: name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(r), nil
		},
	}
}

// Sources groups the three tables joined by the builder.
type Sources struct {
	Titles         Source
	Participations Source
	Persons        Source
}

// FileSources points the builder at title.basics, title.principals and name.basics exports.
func FileSources(titlesPath, participationsPath, personsPath string) Sources {
	return Sources{
		Titles:         FileSource("titles", titlesPath),
		Participations: FileSource("participations", participationsPath),
		Persons:        FileSource("persons", personsPath),
	}
}

// Build runs the filter and join pipeline and returns the resulting dataset.
// Each source is streamed exactly once, in order: titles, participations, persons.
func Build(ctx context.Context, src Sources, opts Options) (*domain.Dataset, error) {
	opts = opts.withDefaults()
	logger := opts.Logger
	start := time.Now()

	var titles map[string]string
	err := scan(ctx, src.Titles, func(r io.Reader) error {
		var err error
		titles, err = filterTitles(ctx, r, opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Info("titles filtered", "titles", len(titles))

	var participants map[string]map[string]struct{}
	err = scan(ctx, src.Participations, func(r io.Reader) error {
		var err error
		participants, err = filterParticipations(ctx, r, titles, opts)
		return err
	})
	if err != nil {
		return nil, err
	}

	personIDs := make(map[string]struct{})
	for _, ids := range participants {
		for id := range ids {
			personIDs[id] = struct{}{}
		}
	}
	logger.Info("participations filtered", "titles", len(participants), "persons", len(personIDs))

	var persons map[string]string
	err = scan(ctx, src.Persons, func(r io.Reader) error {
		var err error
		persons, err = resolvePersons(ctx, r, personIDs, opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Info("persons resolved", "persons", len(persons))

	casts := joinCasts(titles, participants, persons)
	ds := &domain.Dataset{
		MoviesCasts: sortedCasts(casts),
		ActorsGraph: buildGraph(casts),
	}

	stats := ds.Stats()
	logger.Info("dataset built",
		"movies", stats.Movies,
		"actors", stats.Actors,
		"edges", stats.Edges,
		"duration", time.Since(start).String(),
	)
	return ds, nil
}

// scan opens src and hands the reader to fn. Any failure is reported as a
// SourceError naming the table.
func scan(ctx context.Context, src Source, fn func(io.Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if src.Open == nil {
		return &SourceError{Source: src.Name, Err: errors.New("source not configured")}
	}
	rc, err := src.Open()
	if err != nil {
		return &SourceError{Source: src.Name, Err: err}
	}
	defer rc.Close()

	if err := fn(rc); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return &SourceError{Source: src.Name, Err: err}
	}
	return nil
}

const ctxCheckEvery = 1 << 16

// readRows drives a tableReader to EOF, calling fn for each row.
func readRows(ctx context.Context, r io.Reader, sep rune, columns []string, fn func(fields []string)) error {
	table, err := newTableReader(r, sep, columns...)
	if err != nil {
		return err
	}
	for rows := 1; ; rows++ {
		if rows%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		fields, err := table.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", table.Line()+1, err)
		}
		fn(fields)
	}
}

// filterTitles keeps titles whose type is allowed and maps their id to display name.
func filterTitles(ctx context.Context, r io.Reader, opts Options) (map[string]string, error) {
	allowed := toSet(opts.TitleTypes)
	titles := make(map[string]string)
	err := readRows(ctx, r, opts.Separator,
		[]string{opts.Columns.TitleID, opts.Columns.TitleType, opts.Columns.TitleName},
		func(fields []string) {
			title := domain.Title{ID: fields[0], Type: fields[1], Name: fields[2]}
			if _, ok := allowed[title.Type]; !ok {
				return
			}
			titles[title.ID] = title.Name
		})
	if err != nil {
		return nil, err
	}
	return titles, nil
}

// filterParticipations groups allowed acting credits of retained titles by title id.
func filterParticipations(ctx context.Context, r io.Reader, titles map[string]string, opts Options) (map[string]map[string]struct{}, error) {
	allowed := toSet(opts.RoleCategories)
	participants := make(map[string]map[string]struct{})
	err := readRows(ctx, r, opts.Separator,
		[]string{opts.Columns.ParticipationTitleID, opts.Columns.ParticipationPersonID, opts.Columns.ParticipationCategory},
		func(fields []string) {
			p := domain.Participation{TitleID: fields[0], PersonID: fields[1], Category: fields[2]}
			if _, ok := titles[p.TitleID]; !ok {
				return
			}
			if _, ok := allowed[p.Category]; !ok {
				return
			}
			ids, ok := participants[p.TitleID]
			if !ok {
				ids = make(map[string]struct{})
				participants[p.TitleID] = ids
			}
			ids[p.PersonID] = struct{}{}
		})
	if err != nil {
		return nil, err
	}
	return participants, nil
}

// resolvePersons maps only the wanted person ids to their display names.
func resolvePersons(ctx context.Context, r io.Reader, wanted map[string]struct{}, opts Options) (map[string]string, error) {
	persons := make(map[string]string, len(wanted))
	err := readRows(ctx, r, opts.Separator,
		[]string{opts.Columns.PersonID, opts.Columns.PersonName},
		func(fields []string) {
			person := domain.Person{ID: fields[0], Name: fields[1]}
			if _, ok := wanted[person.ID]; !ok {
				return
			}
			persons[person.ID] = person.Name
		})
	if err != nil {
		return nil, err
	}
	return persons, nil
}

// joinCasts resolves participant ids to names and unions casts by title display name.
// Titles without a single resolvable participant are dropped.
func joinCasts(titles map[string]string, participants map[string]map[string]struct{}, persons map[string]string) map[string]map[string]struct{} {
	casts := make(map[string]map[string]struct{})
	for titleID, ids := range participants {
		titleName, ok := titles[titleID]
		if !ok {
			continue
		}
		var names []string
		for id := range ids {
			if name, ok := persons[id]; ok {
				names = append(names, name)
			}
		}
		if len(names) == 0 {
			continue
		}
		cast, ok := casts[titleName]
		if !ok {
			cast = make(map[string]struct{}, len(names))
			casts[titleName] = cast
		}
		for _, name := range names {
			cast[name] = struct{}{}
		}
	}
	return casts
}

// buildGraph counts shared movies for every unordered pair of cast members.
// Members of single-actor casts become nodes without edges.
func buildGraph(casts map[string]map[string]struct{}) domain.ActorsGraph {
	graph := make(domain.ActorsGraph)
	ensure := func(actor string) map[string]int {
		coActors, ok := graph[actor]
		if !ok {
			coActors = make(map[string]int)
			graph[actor] = coActors
		}
		return coActors
	}

	for _, cast := range casts {
		members := sortedKeys(cast)
		if len(members) == 1 {
			ensure(members[0])
			continue
		}
		for i := 0; i < len(members); i++ {
			a := ensure(members[i])
			for j := i + 1; j < len(members); j++ {
				b := ensure(members[j])
				a[members[j]]++
				b[members[i]]++
			}
		}
	}
	return graph
}

func sortedCasts(casts map[string]map[string]struct{}) map[string][]string {
	out := make(map[string][]string, len(casts))
	for title, cast := range casts {
		out[title] = sortedKeys(cast)
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
