package drivers

import "gonum.org/v1/gonum/mat"

// kalmanFilter is the two-state (pitch, roll) estimator: gyro rates drive
// the predict step, accelerometer-derived angles correct it. Same model
// as a hand-rolled 2x2 version, rebuilt on gonum/mat so the fusion math
// shares its linear-algebra primitives with the mixer.
type kalmanFilter struct {
	x *mat.Dense // 2x1 state [pitch, roll]
	p *mat.Dense // 2x2 estimate covariance
	q *mat.Dense // 2x2 process noise
	r *mat.Dense // 2x2 measurement noise

	dt float64
}

func newKalmanFilter(dt float64) *kalmanFilter {
	return &kalmanFilter{
		x:  mat.NewDense(2, 1, nil),
		p:  identity2(),
		q:  diag2(0.01, 0.01),
		r:  diag2(0.5, 0.5),
		dt: dt,
	}
}

func identity2() *mat.Dense {
	return mat.NewDense(2, 2, []float64{1, 0, 0, 1})
}

func diag2(a, b float64) *mat.Dense {
	return mat.NewDense(2, 2, []float64{a, 0, 0, b})
}

// Predict advances the state using gyro-measured pitch and roll rates;
// there is no separate F matrix since the transition here is always
// identity plus an additive gyro term.
func (kf *kalmanFilter) Predict(gyroX, gyroY float64) {
	gyroVec := mat.NewDense(2, 1, []float64{gyroY * kf.dt, gyroX * kf.dt})
	kf.x.Add(kf.x, gyroVec)

	var pNext mat.Dense
	pNext.Add(kf.p, kf.q)
	kf.p = &pNext
}

// Update corrects the predicted state with accelerometer-derived pitch
// and roll angles.
func (kf *kalmanFilter) Update(accelPitch, accelRoll float64) {
	z := mat.NewDense(2, 1, []float64{accelPitch, accelRoll})

	var y mat.Dense
	y.Sub(z, kf.x)

	var s mat.Dense
	s.Add(kf.p, kf.r)

	var sInv mat.Dense
	if err := sInv.Inverse(&s); err != nil {
		return
	}

	var k mat.Dense
	k.Mul(kf.p, &sInv)

	var correction mat.Dense
	correction.Mul(&k, &y)
	kf.x.Add(kf.x, &correction)

	identity := identity2()
	var ikh mat.Dense
	ikh.Sub(identity, &k)
	var pNext mat.Dense
	pNext.Mul(&ikh, kf.p)
	kf.p = &pNext
}

// Estimate returns the current (pitch, roll) state.
func (kf *kalmanFilter) Estimate() (pitch, roll float64) {
	return kf.x.At(0, 0), kf.x.At(1, 0)
}
