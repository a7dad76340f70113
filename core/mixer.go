package core

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Mixer maps per-axis scalar commands into per-rotor commands via a fixed
// mixing matrix loaded from settings (rows = rotors, columns = Axis).
// The matrix is kept as a gonum Dense rather than hand-rolled slices so
// the same representation serves any future full-matrix mixing math.
type Mixer struct {
	m         *mat.Dense
	numRotors int
}

// NewMixer wraps a NumRotors x 6 mixing matrix.
func NewMixer(m *mat.Dense, numRotors int) (*Mixer, error) {
	rows, cols := m.Dims()
	if rows != numRotors {
		return nil, fmt.Errorf("quadfc/core: mixing matrix has %d rows, want %d rotors", rows, numRotors)
	}
	if cols != int(numAxes) {
		return nil, fmt.Errorf("quadfc/core: mixing matrix has %d columns, want %d axes", cols, numAxes)
	}
	return &Mixer{m: m, numRotors: numRotors}, nil
}

// AddMixedInput adds u*M[rotor,axis] to each entry of mot.
func (mx *Mixer) AddMixedInput(u float64, axis Axis, mot []float64) {
	for r := 0; r < mx.numRotors; r++ {
		mot[r] += u * mx.m.At(r, int(axis))
	}
}

// CheckChannelSaturation returns the exact interval [min, max] such that
// any u in that interval, added through AddMixedInput(u, axis, mot),
// keeps every motor within [0, 1].
func (mx *Mixer) CheckChannelSaturation(axis Axis, mot []float64) (min, max float64) {
	min, max = math.Inf(-1), math.Inf(1)
	for r := 0; r < mx.numRotors; r++ {
		c := mx.m.At(r, int(axis))
		if c == 0 {
			continue
		}
		lo := (0 - mot[r]) / c
		hi := (1 - mot[r]) / c
		if c < 0 {
			lo, hi = hi, lo
		}
		if lo > min {
			min = lo
		}
		if hi < max {
			max = hi
		}
	}
	return min, max
}
