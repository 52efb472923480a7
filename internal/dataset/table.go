package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// tableReader streams a delimited, header-having flat file. Fields are split on
// the separator only: the IMDb exports are unquoted and routinely contain bare
// double quotes inside names, which encoding/csv would treat as quoting.
type tableReader struct {
	r       *bufio.Reader
	sep     string
	indexes []int
	width   int
	line    int
	fields  []string
}

// newTableReader consumes the header row and resolves the requested columns.
// The returned reader yields the requested columns, in order, for each row.
func newTableReader(r io.Reader, sep rune, columns ...string) (*tableReader, error) {
	t := &tableReader{
		r:      bufio.NewReaderSize(r, 1<<20),
		sep:    string(sep),
		fields: make([]string, len(columns)),
	}

	header, err := t.readLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty source, no header row", ErrMissingColumn)
		}
		return nil, err
	}

	positions := make(map[string]int)
	for i, name := range strings.Split(header, t.sep) {
		positions[strings.TrimSpace(name)] = i
	}

	t.indexes = make([]int, len(columns))
	for i, column := range columns {
		pos, ok := positions[column]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, column)
		}
		t.indexes[i] = pos
		if pos+1 > t.width {
			t.width = pos + 1
		}
	}
	return t, nil
}

// Next returns the requested fields of the next row. The slice is reused
// between calls. Rows too short to hold every requested column are skipped.
func (t *tableReader) Next() ([]string, error) {
	for {
		line, err := t.readLine()
		if err != nil {
			return nil, err
		}
		if line == "" {
			continue
		}
		parts := strings.Split(line, t.sep)
		if len(parts) < t.width {
			continue
		}
		for i, idx := range t.indexes {
			t.fields[i] = parts[idx]
		}
		return t.fields, nil
	}
}

// Line returns the number of physical lines consumed so far, header included.
func (t *tableReader) Line() int {
	return t.line
}

func (t *tableReader) readLine() (string, error) {
	line, err := t.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			t.line++
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	t.line++
	return strings.TrimRight(line, "\r\n"), nil
}
