// Package rng provides the deterministic, splittable pseudo-random source
// used by the simulation core. Authoritative sim code only ever draws from a
// Substream obtained via Split; the global math/rand source is never touched
// by sim state so that two sessions seeded identically produce bit-identical
// draws regardless of draw order elsewhere in the process.
package rng

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand"
)

// Root is the deterministic root of a session's RNG tree. It never advances
// itself; only substreams derived from it are consumed.
type Root struct {
	seed int64
}

// NewRoot creates a root keyed by a session seed.
func NewRoot(seed int64) *Root {
	return &Root{seed: seed}
}

// Substream is an independent, deterministic pseudo-random stream keyed by a
// stable identifier (typically a unit ID). Two substreams split from the
// same root with the same key always produce the same sequence.
type Substream struct {
	r *rand.Rand
}

// Split derives a substream for key from the root. The derivation hashes the
// root seed together with the key so that substream sequences are
// independent of split order and of how many other substreams exist.
func (root *Root) Split(key string) *Substream {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(root.seed))
	_, _ = h.Write(buf[:])
	_, _ = h.Write([]byte(key))
	derived := int64(h.Sum64())
	return &Substream{r: rand.New(rand.NewSource(derived))}
}

// SplitVisual derives a non-authoritative substream for purely cosmetic use
// (dust, decorative jitter, track wobble). Sim state must never branch on
// values drawn from it; stripping all calls to SplitVisual-derived streams
// must not change any unit's trajectory.
func (root *Root) SplitVisual(key string) *Substream {
	return root.Split("visual:" + key)
}

// Float64 returns a pseudo-random number in [0,1).
func (s *Substream) Float64() float64 {
	return s.r.Float64()
}

// IntN returns a pseudo-random number in [0,n).
func (s *Substream) IntN(n int) int {
	return s.r.Intn(n)
}

// Bool returns a pseudo-random boolean.
func (s *Substream) Bool() bool {
	return s.r.Float64() < 0.5
}

// Range returns a pseudo-random float in [lo, hi).
func (s *Substream) Range(lo, hi float64) float64 {
	return lo + s.r.Float64()*(hi-lo)
}

// StaggerInterval returns a jittered duration around base, +/- fraction*base,
// used to stagger periodic per-unit work (e.g. the obstacle scan in
// unit.Unit.Tick) so that units don't all perform expensive checks on the
// same tick.
func (s *Substream) StaggerInterval(baseSeconds, fraction float64) float64 {
	jitter := s.Range(-fraction, fraction)
	return baseSeconds * (1 + jitter)
}
