package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/bacondistance/internal/domain"
)

func tsv(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func sources(titles, principals, names string) Sources {
	return Sources{
		Titles:         ReaderSource("titles", strings.NewReader(titles)),
		Participations: ReaderSource("participations", strings.NewReader(principals)),
		Persons:        ReaderSource("persons", strings.NewReader(names)),
	}
}

const (
	titlesHeader     = "tconst\ttitleType\tprimaryTitle\toriginalTitle\tisAdult"
	principalsHeader = "tconst\tordering\tnconst\tcategory\tjob\tcharacters"
	namesHeader      = "nconst\tprimaryName\tbirthYear\tdeathYear"
)

func build(t *testing.T, titles, principals, names string) *domain.Dataset {
	t.Helper()
	ds, err := Build(context.Background(), sources(titles, principals, names), DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, Validate(ds))
	return ds
}

func TestBuild_ThreeActorsOneMovie(t *testing.T) {
	ds := build(t,
		tsv(titlesHeader, "tt1\tmovie\tFootloose\tFootloose\t0"),
		tsv(principalsHeader,
			"tt1\t1\tnm1\tactor\t\\N\t\\N",
			"tt1\t2\tnm2\tactress\t\\N\t\\N",
			"tt1\t3\tnm3\tactor\t\\N\t\\N",
		),
		tsv(namesHeader,
			"nm1\tKevin Bacon\t1958\t\\N",
			"nm2\tLori Singer\t1957\t\\N",
			"nm3\tJohn Lithgow\t1945\t\\N",
		),
	)

	assert.Equal(t, map[string][]string{
		"Footloose": {"John Lithgow", "Kevin Bacon", "Lori Singer"},
	}, ds.MoviesCasts)
	assert.Equal(t, domain.ActorsGraph{
		"Kevin Bacon":  {"Lori Singer": 1, "John Lithgow": 1},
		"Lori Singer":  {"Kevin Bacon": 1, "John Lithgow": 1},
		"John Lithgow": {"Kevin Bacon": 1, "Lori Singer": 1},
	}, ds.ActorsGraph)
	assert.Equal(t, 3, ds.Stats().Edges)
}

func TestBuild_SharedMoviesIncrementCounts(t *testing.T) {
	ds := build(t,
		tsv(titlesHeader,
			"tt1\tmovie\tFirst\tFirst\t0",
			"tt2\tmovie\tSecond\tSecond\t0",
		),
		tsv(principalsHeader,
			"tt1\t1\tnm1\tactor\t\\N\t\\N",
			"tt1\t2\tnm2\tactor\t\\N\t\\N",
			"tt1\t3\tnm3\tactress\t\\N\t\\N",
			"tt2\t1\tnm3\tactress\t\\N\t\\N",
			"tt2\t2\tnm2\tactor\t\\N\t\\N",
			"tt2\t3\tnm1\tactor\t\\N\t\\N",
		),
		tsv(namesHeader, "nm1\tA\t\\N\t\\N", "nm2\tB\t\\N\t\\N", "nm3\tC\t\\N\t\\N"),
	)

	for _, pair := range [][2]string{{"A", "B"}, {"A", "C"}, {"B", "C"}} {
		assert.Equal(t, 2, ds.ActorsGraph[pair[0]][pair[1]], "%v", pair)
		assert.Equal(t, 2, ds.ActorsGraph[pair[1]][pair[0]], "%v", pair)
	}
}

func TestBuild_FiltersTitleTypesAndRoles(t *testing.T) {
	ds := build(t,
		tsv(titlesHeader,
			"tt1\tmovie\tFeature\tFeature\t0",
			"tt2\tshort\tShort One\tShort One\t0",
			"tt3\ttvEpisode\tPilot\tPilot\t0",
		),
		tsv(principalsHeader,
			"tt1\t1\tnm1\tactor\t\\N\t\\N",
			"tt1\t2\tnm2\tdirector\t\\N\t\\N",
			"tt1\t3\tnm3\tactress\t\\N\t\\N",
			"tt2\t1\tnm1\tactor\t\\N\t\\N",
			"tt2\t2\tnm4\tactor\t\\N\t\\N",
			"tt3\t1\tnm4\tactor\t\\N\t\\N",
			"tt3\t2\tnm3\tactress\t\\N\t\\N",
			"tt9\t1\tnm4\tactor\t\\N\t\\N",
		),
		tsv(namesHeader,
			"nm1\tA\t\\N\t\\N",
			"nm2\tDirector D\t\\N\t\\N",
			"nm3\tC\t\\N\t\\N",
			"nm4\tShort Star\t\\N\t\\N",
		),
	)

	assert.Equal(t, map[string][]string{"Feature": {"A", "C"}}, ds.MoviesCasts)
	assert.Equal(t, domain.ActorsGraph{
		"A": {"C": 1},
		"C": {"A": 1},
	}, ds.ActorsGraph)
}

func TestBuild_SoloActorIsNodeWithoutEdges(t *testing.T) {
	ds := build(t,
		tsv(titlesHeader,
			"tt1\tmovie\tMonologue\tMonologue\t0",
			"tt2\tmovie\tDuet\tDuet\t0",
		),
		tsv(principalsHeader,
			"tt1\t1\tnm1\tactor\t\\N\t\\N",
			"tt1\t2\tnm9\tactor\t\\N\t\\N",
			"tt2\t1\tnm2\tactor\t\\N\t\\N",
			"tt2\t2\tnm3\tactress\t\\N\t\\N",
		),
		tsv(namesHeader, "nm1\tSolo\t\\N\t\\N", "nm2\tB\t\\N\t\\N", "nm3\tC\t\\N\t\\N"),
	)

	require.Contains(t, ds.ActorsGraph, "Solo")
	assert.Empty(t, ds.ActorsGraph["Solo"])
	assert.Equal(t, []string{"Solo"}, ds.MoviesCasts["Monologue"])
	assert.True(t, ds.HasActor("Solo"))
}

func TestBuild_DropsTitlesWithoutResolvedActors(t *testing.T) {
	ds := build(t,
		tsv(titlesHeader,
			"tt1\tmovie\tGhost Cast\tGhost Cast\t0",
			"tt2\tmovie\tNobody Credited\tNobody Credited\t0",
		),
		tsv(principalsHeader, "tt1\t1\tnm404\tactor\t\\N\t\\N"),
		tsv(namesHeader, "nm1\tA\t\\N\t\\N"),
	)

	assert.Empty(t, ds.MoviesCasts)
	assert.Empty(t, ds.ActorsGraph)
}

func TestBuild_MergesTitlesSharingDisplayName(t *testing.T) {
	ds := build(t,
		tsv(titlesHeader,
			"tt1\tmovie\tHamlet\tHamlet\t0",
			"tt2\tmovie\tHamlet\tHamlet\t0",
		),
		tsv(principalsHeader,
			"tt1\t1\tnm1\tactor\t\\N\t\\N",
			"tt1\t2\tnm2\tactor\t\\N\t\\N",
			"tt2\t1\tnm3\tactor\t\\N\t\\N",
			"tt2\t2\tnm4\tactress\t\\N\t\\N",
		),
		tsv(namesHeader,
			"nm1\tOlivier\t\\N\t\\N",
			"nm2\tSimmons\t\\N\t\\N",
			"nm3\tBranagh\t\\N\t\\N",
			"nm4\tWinslet\t\\N\t\\N",
		),
	)

	require.Len(t, ds.MoviesCasts, 1)
	assert.Equal(t, []string{"Branagh", "Olivier", "Simmons", "Winslet"}, ds.MoviesCasts["Hamlet"])
	// The merged cast is one movie, so the former strangers are now co-actors.
	assert.Equal(t, 1, ds.ActorsGraph["Olivier"]["Winslet"])
	assert.Equal(t, 3, len(ds.ActorsGraph["Olivier"]))
}

func TestBuild_DuplicateCreditsCountOnce(t *testing.T) {
	ds := build(t,
		tsv(titlesHeader, "tt1\tmovie\tTwo Roles\tTwo Roles\t0"),
		tsv(principalsHeader,
			"tt1\t1\tnm1\tactor\t\\N\t[\"Twin A\"]",
			"tt1\t2\tnm1\tactor\t\\N\t[\"Twin B\"]",
			"tt1\t3\tnm2\tactress\t\\N\t\\N",
		),
		tsv(namesHeader, "nm1\tA\t\\N\t\\N", "nm2\tB\t\\N\t\\N"),
	)

	assert.Equal(t, 1, ds.ActorsGraph["A"]["B"])
}

func TestBuild_KeepsBareQuotesInNames(t *testing.T) {
	ds := build(t,
		tsv(titlesHeader, "tt1\tmovie\t\"Weird\": The Al Yankovic Story\tWeird\t0"),
		tsv(principalsHeader,
			"tt1\t1\tnm1\tactor\t\\N\t\\N",
			"tt1\t2\tnm2\tactor\t\\N\t\\N",
		),
		tsv(namesHeader, "nm1\t\"Weird Al\" Yankovic\t\\N\t\\N", "nm2\tDaniel Radcliffe\t\\N\t\\N"),
	)

	assert.Contains(t, ds.MoviesCasts, "\"Weird\": The Al Yankovic Story")
	assert.Contains(t, ds.ActorsGraph, "\"Weird Al\" Yankovic")
}

func TestBuild_CustomOptions(t *testing.T) {
	opts := Options{
		TitleTypes:     []string{"tvMovie"},
		RoleCategories: []string{"self"},
		Separator:      '|',
	}
	ds, err := Build(context.Background(), sources(
		"tconst|titleType|primaryTitle\ntt1|tvMovie|Special\ntt2|movie|Feature\n",
		"tconst|nconst|category\ntt1|nm1|self\ntt1|nm2|self\ntt2|nm1|self\n",
		"nconst|primaryName\nnm1|A\nnm2|B\n",
	), opts)
	require.NoError(t, err)

	assert.Equal(t, map[string][]string{"Special": {"A", "B"}}, ds.MoviesCasts)
}

func TestBuild_MissingColumn(t *testing.T) {
	_, err := Build(context.Background(), sources(
		tsv("tconst\tprimaryTitle", "tt1\tNo Type"),
		tsv(principalsHeader),
		tsv(namesHeader),
	), DefaultOptions())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))

	var srcErr *SourceError
	require.True(t, errors.As(err, &srcErr))
	assert.Equal(t, "titles", srcErr.Source)
	assert.Contains(t, err.Error(), "titleType")
}

func TestBuild_EmptySourceHasNoHeader(t *testing.T) {
	_, err := Build(context.Background(), sources(
		tsv(titlesHeader, "tt1\tmovie\tM\tM\t0"),
		"",
		tsv(namesHeader),
	), DefaultOptions())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
	var srcErr *SourceError
	require.True(t, errors.As(err, &srcErr))
	assert.Equal(t, "participations", srcErr.Source)
}

func TestBuild_MissingFile(t *testing.T) {
	dir := t.TempDir()
	titles := filepath.Join(dir, "title.basics.tsv")
	require.NoError(t, os.WriteFile(titles, []byte(tsv(titlesHeader)), 0o644))

	_, err := Build(context.Background(), FileSources(
		titles,
		filepath.Join(dir, "missing.tsv"),
		filepath.Join(dir, "name.basics.tsv"),
	), DefaultOptions())

	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	var srcErr *SourceError
	require.True(t, errors.As(err, &srcErr))
	assert.Equal(t, "participations", srcErr.Source)
}

func TestBuild_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, sources(tsv(titlesHeader), tsv(principalsHeader), tsv(namesHeader)), DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuild_PairsAreSymmetricEdges(t *testing.T) {
	ds := build(t,
		tsv(titlesHeader,
			"tt1\tmovie\tM1\tM1\t0",
			"tt2\tmovie\tM2\tM2\t0",
			"tt3\tmovie\tM3\tM3\t0",
		),
		tsv(principalsHeader,
			"tt1\t1\tnm1\tactor\t\\N\t\\N",
			"tt1\t2\tnm2\tactor\t\\N\t\\N",
			"tt1\t3\tnm3\tactor\t\\N\t\\N",
			"tt1\t4\tnm4\tactress\t\\N\t\\N",
			"tt2\t1\tnm4\tactress\t\\N\t\\N",
			"tt2\t2\tnm5\tactress\t\\N\t\\N",
			"tt3\t1\tnm5\tactress\t\\N\t\\N",
			"tt3\t2\tnm1\tactor\t\\N\t\\N",
		),
		tsv(namesHeader,
			"nm1\tA\t\\N\t\\N", "nm2\tB\t\\N\t\\N", "nm3\tC\t\\N\t\\N",
			"nm4\tD\t\\N\t\\N", "nm5\tE\t\\N\t\\N",
		),
	)

	for movie, cast := range ds.MoviesCasts {
		for i := range cast {
			for j := range cast {
				if i == j {
					continue
				}
				count := ds.ActorsGraph[cast[i]][cast[j]]
				assert.GreaterOrEqual(t, count, 1, "%s: %s-%s", movie, cast[i], cast[j])
				assert.Equal(t, count, ds.ActorsGraph[cast[j]][cast[i]])
			}
		}
	}
}
