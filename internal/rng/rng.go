// Package rng provides deterministic, reproducible Bernoulli sampling
// for capability resolution. Results depend only on the composite key
// passed in, never on call order or any shared mutable generator.
package rng

import (
	"encoding/binary"
	"hash/fnv"
	"strconv"
)

// Bernoulli draws a deterministic pseudo-uniform value in [0, 1) from
// (seed, agentID, group, specIndex) and reports whether it falls below
// p. The same inputs always produce the same result, independent of
// which other agents or specifications have been evaluated.
func Bernoulli(seed int64, agentID, group string, specIndex int, p float64) bool {
	if p >= 1 {
		return true
	}
	if p <= 0 {
		return false
	}
	return Uniform(seed, agentID, group, specIndex) < p
}

// Uniform returns a deterministic value in [0, 1) for the given key.
func Uniform(seed int64, agentID, group string, specIndex int) float64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(seed))
	_, _ = h.Write(buf[:])
	_, _ = h.Write([]byte(agentID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(group))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(strconv.Itoa(specIndex)))

	sum := h.Sum64()
	// Use the top 53 bits so the result is an evenly distributed
	// float64 in [0, 1), matching the precision of float64 mantissas.
	const mantissaBits = 53
	return float64(sum>>(64-mantissaBits)) / float64(uint64(1)<<mantissaBits)
}
