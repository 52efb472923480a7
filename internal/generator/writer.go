package generator

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// File names used by the upstream exports, minus the .gz suffix.
const (
	TitleBasicsFile     = "title.basics.tsv"
	TitlePrincipalsFile = "title.principals.tsv"
	NameBasicsFile      = "name.basics.tsv"
)

const null = `\N`

// WriteTables serializes the tables into the three TSV exports under dir.
func WriteTables(tables Tables, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	if err := writeTSV(filepath.Join(dir, TitleBasicsFile), func(w io.Writer) error {
		return WriteTitleBasics(w, tables.Titles)
	}); err != nil {
		return err
	}
	if err := writeTSV(filepath.Join(dir, TitlePrincipalsFile), func(w io.Writer) error {
		return WriteTitlePrincipals(w, tables.Principals)
	}); err != nil {
		return err
	}
	return writeTSV(filepath.Join(dir, NameBasicsFile), func(w io.Writer) error {
		return WriteNameBasics(w, tables.Persons)
	})
}

// WriteTitleBasics renders title.basics rows with the upstream header.
func WriteTitleBasics(w io.Writer, titles []Title) error {
	rows := make([][]string, 0, len(titles))
	for _, t := range titles {
		rows = append(rows, []string{
			t.ID, t.Type, t.Primary, t.Original, "0",
			optionalInt(t.StartYear), null, optionalInt(t.Runtime), genres(t.Genres),
		})
	}
	return writeRows(w, []string{"tconst", "titleType", "primaryTitle", "originalTitle", "isAdult", "startYear", "endYear", "runtimeMinutes", "genres"}, rows)
}

// WriteTitlePrincipals renders title.principals rows with the upstream header.
func WriteTitlePrincipals(w io.Writer, principals []Principal) error {
	rows := make([][]string, 0, len(principals))
	for _, p := range principals {
		rows = append(rows, []string{p.TitleID, strconv.Itoa(p.Ordering), p.PersonID, p.Category, null, null})
	}
	return writeRows(w, []string{"tconst", "ordering", "nconst", "category", "job", "characters"}, rows)
}

// WriteNameBasics renders name.basics rows with the upstream header.
func WriteNameBasics(w io.Writer, persons []Person) error {
	rows := make([][]string, 0, len(persons))
	for _, p := range persons {
		rows = append(rows, []string{p.ID, p.Name, optionalInt(p.BirthYear), null, null, null})
	}
	return writeRows(w, []string{"nconst", "primaryName", "birthYear", "deathYear", "primaryProfession", "knownForTitles"}, rows)
}

func writeTSV(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	if err := write(file); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}

func writeRows(w io.Writer, header []string, rows [][]string) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(header, "\t") + "\n"); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := bw.WriteString(strings.Join(row, "\t") + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func optionalInt(v int) string {
	if v <= 0 {
		return null
	}
	return strconv.Itoa(v)
}

func genres(values []string) string {
	if len(values) == 0 {
		return null
	}
	return strings.Join(values, ",")
}
