package geo

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadSnapshot parses the text snapshot format:
//
//	<width>\n
//	<height>\n
//	<width*height characters, row-major, 'w' = walkable, anything else obstructed>
//
// Characters past width*height are ignored. A short data token fails.
func ReadSnapshot(r io.Reader) (*Grid, error) {
	br := bufio.NewReader(r)

	width, err := readDimension(br, "width")
	if err != nil {
		return nil, err
	}
	height, err := readDimension(br, "height")
	if err != nil {
		return nil, err
	}

	g, err := NewGrid(width, height)
	if errors.Is(err, ErrGridTooLarge) {
		return nil, fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot data: %w", err)
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 || len(fields[0]) < g.Len() {
		got := 0
		if len(fields) > 0 {
			got = len(fields[0])
		}
		return nil, fmt.Errorf("%w: data has %d cells, want %d", ErrMalformedSnapshot, got, g.Len())
	}

	token := fields[0]
	for i := range g.states {
		if token[i] != SnapshotWalkable {
			g.states[i] = Obstructed
		}
	}
	return g, nil
}

func readDimension(br *bufio.Reader, name string) (int, error) {
	line, err := br.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return 0, fmt.Errorf("%w: reading %s: %v", ErrMalformedSnapshot, name, err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return 0, fmt.Errorf("%w: parsing %s %q", ErrMalformedSnapshot, name, strings.TrimSpace(line))
	}
	if v <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive, got %d", ErrEmptyGrid, name, v)
	}
	return v, nil
}

// WriteSnapshot writes g in the format read by ReadSnapshot.
func (g *Grid) WriteSnapshot(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n%d\n", g.width, g.height)
	for _, s := range g.states {
		c := SnapshotWalkable
		if s == Obstructed {
			c = SnapshotObstructed
		}
		bw.WriteByte(c)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// MarshalText returns the snapshot text of g.
func (g *Grid) MarshalText() ([]byte, error) {
	var sb strings.Builder
	sb.Grow(g.Len() + 16)
	if err := g.WriteSnapshot(&sb); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

// LoadSnapshotFile reads a grid snapshot from disk.
func LoadSnapshotFile(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot %s: %w", path, err)
	}
	defer f.Close()

	g, err := ReadSnapshot(f)
	if err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	return g, nil
}

// SaveSnapshotFile writes g to disk, replacing any existing file.
func SaveSnapshotFile(path string, g *Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating snapshot %s: %w", path, err)
	}
	if err := g.WriteSnapshot(f); err != nil {
		f.Close()
		return fmt.Errorf("saving snapshot %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing snapshot %s: %w", path, err)
	}
	return nil
}
