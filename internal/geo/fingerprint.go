package geo

import (
	"encoding/binary"
	"math"

	"golang.org/x/crypto/blake2b"
)

// FingerprintSize is the length of a Fingerprint in bytes.
const FingerprintSize = blake2b.Size256

// Fingerprint identifies a grid layout together with its tile size.
// Route tables are only valid for the fingerprint they were built from.
type Fingerprint [FingerprintSize]byte

// ComputeFingerprint hashes the dimensions, cell states, and tile size.
func ComputeFingerprint(g *Grid, p *Partition) Fingerprint {
	h, _ := blake2b.New256(nil)

	var hdr [32]byte
	tw, th := p.TileSize()
	binary.LittleEndian.PutUint64(hdr[0:], uint64(g.Width()))
	binary.LittleEndian.PutUint64(hdr[8:], uint64(g.Height()))
	binary.LittleEndian.PutUint64(hdr[16:], math.Float64bits(tw))
	binary.LittleEndian.PutUint64(hdr[24:], math.Float64bits(th))
	h.Write(hdr[:])

	buf := make([]byte, len(g.states))
	for i, s := range g.states {
		buf[i] = byte(s)
	}
	h.Write(buf)

	var fp Fingerprint
	copy(fp[:], h.Sum(nil))
	return fp
}
