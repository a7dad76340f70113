package core

import "math"

// DiscreteFilter is a scalar discrete SISO compensator: a transfer
// function b(z)/a(z) realized as a direct-form-II delay line, with a
// separate scalar gain applied to the filter's output (so gain scheduling
// never has to touch the coefficients themselves), an optional soft-start
// ramp, and an optional output clamp used for anti-windup.
//
// This generalizes a proportional+integral+derivative compensator
// (terms summed directly) into the numerator/denominator shape a general
// transfer function needs; NewPIDFilter below builds the equivalent PID
// transfer function from gains instead of raw coefficients.
type DiscreteFilter struct {
	num []float64 // b[0..n]
	den []float64 // a[0..n], a[0] must be 1 (normalized on construction)

	inHist  []float64 // x[n-1..n-len(num)+1], most recent first
	outHist []float64 // y[n-1..n-len(den)+1], most recent first

	gain     float64
	gainOrig float64

	dt               float64
	softStartSeconds float64
	elapsed          float64

	satEnabled bool
	satMin     float64
	satMax     float64
}

// NewDiscreteFilter builds a filter from a FilterSpec's coefficients and a
// fixed tick period dt (seconds). den[0] is normalized to 1 if it isn't
// already; num/den are copied defensively.
func NewDiscreteFilter(spec FilterSpec, dt float64) *DiscreteFilter {
	num := append([]float64(nil), spec.Num...)
	den := append([]float64(nil), spec.Den...)
	if len(den) == 0 {
		den = []float64{1}
	}
	if den[0] != 1 {
		a0 := den[0]
		for i := range den {
			den[i] /= a0
		}
		for i := range num {
			num[i] /= a0
		}
	}
	gain := spec.Gain
	if gain == 0 {
		gain = 1
	}
	return &DiscreteFilter{
		num:      num,
		den:      den,
		inHist:   make([]float64, len(num)),
		outHist:  make([]float64, intMax(len(den)-1, 0)),
		gain:     gain,
		gainOrig: gain,
		dt:       dt,
	}
}

// NewPIDFilter builds the classic backward-difference PID transfer
// function:
// b = [Kp+Ki*dt+Kd/dt, -(Kp+2*Kd/dt), Kd/dt], a = [1, -1, 0].
func NewPIDFilter(kp, ki, kd, dt float64) *DiscreteFilter {
	b0 := kp + ki*dt + kd/dt
	b1 := -(kp + 2*kd/dt)
	b2 := kd / dt
	return NewDiscreteFilter(FilterSpec{
		Num:  []float64{b0, b1, b2},
		Den:  []float64{1, -1, 0},
		Gain: 1,
	}, dt)
}

func intMax(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// EnableSoftStart arms a linear gain ramp over seconds, starting now.
func (f *DiscreteFilter) EnableSoftStart(seconds float64) {
	f.softStartSeconds = seconds
	f.elapsed = 0
}

func (f *DiscreteFilter) softStartFactor() float64 {
	if f.softStartSeconds <= 0 {
		return 1
	}
	factor := f.elapsed / f.softStartSeconds
	if factor > 1 {
		return 1
	}
	return factor
}

// March applies one sample of the compensator to err and returns the
// output. The clamped output (if saturation is enabled) is what gets fed
// back into the delay line, so a saturated axis does not wind up further.
func (f *DiscreteFilter) March(err float64) float64 {
	f.inHist = shiftIn(f.inHist, err)

	numSum := 0.0
	for i := 0; i < len(f.num); i++ {
		numSum += f.num[i] * f.inHist[i]
	}

	denSum := 0.0
	for i := 1; i < len(f.den); i++ {
		denSum += f.den[i] * f.outHist[i-1]
	}

	raw := numSum - denSum // den[0] == 1

	effectiveGain := f.gain * f.softStartFactor()
	y := effectiveGain * raw

	if f.satEnabled {
		y = clampOrdered(y, f.satMin, f.satMax)
	}

	f.outHist = shiftIn(f.outHist, y)
	f.elapsed += f.dt
	return y
}

func shiftIn(hist []float64, v float64) []float64 {
	if len(hist) == 0 {
		return hist
	}
	copy(hist[1:], hist[:len(hist)-1])
	hist[0] = v
	return hist
}

// Reset zeros the delay line and re-arms soft-start.
func (f *DiscreteFilter) Reset() {
	for i := range f.inHist {
		f.inHist[i] = 0
	}
	for i := range f.outHist {
		f.outHist[i] = 0
	}
	f.elapsed = 0
}

// Prefill sets the delay line such that the next March(0) returns y0,
// for bumpless handover from an externally imposed value. Whether this
// can be done exactly is purely structural (den must carry an a[1] term,
// and gain must be nonzero); it does not depend on how far a soft-start
// ramp has progressed. Reset() re-arms soft-start, which would otherwise
// zero the very next March() regardless of the delay line, defeating the
// bumpless handover, so Prefill marks the ramp as already complete and
// the next March() actually reproduces y0. If the compensator has no
// feedback memory, the delay line is left zeroed and ErrStrictlyProper
// is returned.
func (f *DiscreteFilter) Prefill(y0 float64) error {
	f.Reset()
	if len(f.den) < 2 || f.den[1] == 0 || f.gain == 0 {
		return ErrStrictlyProper
	}
	f.elapsed = f.softStartSeconds
	rawTarget := y0 / f.gain
	// With inHist all zero, numSum is 0, so raw = -den[1]*outHist[0].
	f.outHist[0] = -rawTarget / f.den[1]
	return nil
}

// EnableSaturation records the clamp window used by subsequent March
// calls for anti-windup.
func (f *DiscreteFilter) EnableSaturation(min, max float64) {
	f.satEnabled = true
	f.satMin = min
	f.satMax = max
}

// DisableSaturation turns off output clamping.
func (f *DiscreteFilter) DisableSaturation() {
	f.satEnabled = false
}

// SetGain overwrites the current scalar gain (used for gain scheduling).
// GainOrig is left untouched.
func (f *DiscreteFilter) SetGain(g float64) {
	f.gain = g
}

// Gain returns the current scalar gain.
func (f *DiscreteFilter) Gain() float64 {
	return f.gain
}

// GainOrig returns the gain the filter was constructed with.
func (f *DiscreteFilter) GainOrig() float64 {
	return f.gainOrig
}

func clampOrdered(v, a, b float64) float64 {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampInterval intersects [lo,hi] with [boundLo,boundHi], tolerating
// either interval being given in reversed order.
func clampInterval(lo, hi, boundLo, boundHi float64) (float64, float64) {
	if lo > hi {
		lo, hi = hi, lo
	}
	if boundLo > boundHi {
		boundLo, boundHi = boundHi, boundLo
	}
	if lo < boundLo {
		lo = boundLo
	}
	if hi > boundHi {
		hi = boundHi
	}
	return lo, hi
}
