package geo

import (
	"bytes"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSnapshot(t *testing.T) {
	g, err := ReadSnapshot(strings.NewReader("3\n2\nwwowxw"))
	require.NoError(t, err)

	assert.Equal(t, 3, g.Width())
	assert.Equal(t, 2, g.Height())

	want := []bool{true, true, false, true, false, true}
	for i, w := range want {
		assert.Equal(t, w, g.IsWalkable(g.Pos(i)), "cell %d", i)
	}
}

func TestReadSnapshotCRLFAndTrailing(t *testing.T) {
	g, err := ReadSnapshot(strings.NewReader("2\r\n2\r\nwwoowwww\n"))
	require.NoError(t, err)
	assert.Equal(t, 4, g.Len())
	assert.Equal(t, 2, g.WalkableCount())
}

func TestReadSnapshotMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrMalformedSnapshot},
		{"bad width", "x\n2\nwwww", ErrMalformedSnapshot},
		{"missing height", "2\n", ErrMalformedSnapshot},
		{"bad height", "2\n-\nwwww", ErrMalformedSnapshot},
		{"short data", "3\n3\nwwwwwwww", ErrMalformedSnapshot},
		{"no data", "3\n3\n", ErrMalformedSnapshot},
		{"zero width", "0\n3\n", ErrEmptyGrid},
		{"overflowing dimensions", "4294967296\n4294967296\nwwww", ErrMalformedSnapshot},
		{"too many cells", "100000000000\n100000000\nww", ErrGridTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSnapshot(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	g, err := NewRandomGrid(17, 9, 35, rng)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, g.WriteSnapshot(&buf))
	assert.True(t, strings.HasPrefix(buf.String(), "17\n9\n"))

	back, err := ReadSnapshot(&buf)
	require.NoError(t, err)
	require.Equal(t, g.Width(), back.Width())
	require.Equal(t, g.Height(), back.Height())
	for i := range g.Len() {
		assert.Equal(t, g.IsWalkable(g.Pos(i)), back.IsWalkable(back.Pos(i)), "cell %d", i)
	}

	text, err := g.MarshalText()
	require.NoError(t, err)
	back2, err := ReadSnapshot(bytes.NewReader(text))
	require.NoError(t, err)
	assert.Equal(t, ComputeFingerprint(mustPartition(t, g)), ComputeFingerprint(mustPartition(t, back2)))
}

func TestSnapshotFile(t *testing.T) {
	g, err := NewGrid(4, 3)
	require.NoError(t, err)
	require.NoError(t, g.SetObstructed(Pos{1, 2}))

	path := filepath.Join(t.TempDir(), "arena.grid")
	require.NoError(t, SaveSnapshotFile(path, g))

	back, err := LoadSnapshotFile(path)
	require.NoError(t, err)
	assert.False(t, back.IsWalkable(Pos{1, 2}))
	assert.Equal(t, 11, back.WalkableCount())

	_, err = LoadSnapshotFile(filepath.Join(t.TempDir(), "missing.grid"))
	assert.Error(t, err)
}

// mustPartition returns g with its default partition for fingerprinting.
func mustPartition(t *testing.T, g *Grid) (*Grid, *Partition) {
	t.Helper()
	p, err := NewPartition(g, DefaultTileWidth, DefaultTileHeight)
	require.NoError(t, err)
	return g, p
}
