// Package randutil provides small helpers over an injected rand.Rand so
// every stochastic component stays reproducible under a fixed seed.
package randutil

import "math/rand"

// Float64In returns a uniform draw from [min, max).
func Float64In(r *rand.Rand, min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + r.Float64()*(max-min)
}

// IntIn returns a uniform draw from [min, max] inclusive.
func IntIn(r *rand.Rand, min, max int) int {
	if max <= min {
		return min
	}
	return min + r.Intn(max-min+1)
}

// Clamp bounds v to [min, max].
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// MutateFactor perturbs v by a uniform factor in [-spread, +spread] and
// clamps the result to the field envelope [fieldMin, fieldMax].
func MutateFactor(r *rand.Rand, v, spread, fieldMin, fieldMax float64) float64 {
	factor := 1 + Float64In(r, -spread, spread)
	return Clamp(v*factor, fieldMin, fieldMax)
}

// Pick returns a uniformly chosen element of items. Panics on empty input;
// callers guarantee non-empty catalogs.
func Pick[T any](r *rand.Rand, items []T) T {
	return items[r.Intn(len(items))]
}

// SampleSet draws up to n distinct elements from the catalog.
func SampleSet(r *rand.Rand, catalog []string, n int) []string {
	if n >= len(catalog) {
		out := append([]string(nil), catalog...)
		r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		return out
	}
	idx := r.Perm(len(catalog))[:n]
	out := make([]string, 0, n)
	for _, i := range idx {
		out = append(out, catalog[i])
	}
	return out
}

// Contains reports whether set holds s.
func Contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
