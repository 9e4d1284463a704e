package tracker

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Measurement is a face box as centre x, centre y, aspect ratio (width /
// height) and height
type Measurement [4]float64

// State is the filter estimate of a face box and its velocity
type State struct {
	// Mean holds the measurement followed by its velocity
	Mean *mat.VecDense
	// Cov is the 8x8 state covariance
	Cov *mat.SymDense
}

// Box returns the measurement part of the state
func (s State) Box() Measurement {
	var m Measurement

	for i := range m {
		m[i] = s.Mean.AtVec(i)
	}

	return m
}

// KalmanFilter is a constant velocity filter over face boxes.  Noise is
// scaled by the box height so large and small faces behave alike.
type KalmanFilter struct {
	stdPosition float64
	stdVelocity float64
	// motion is the 8x8 state transition for one frame
	motion *mat.Dense
	// update projects the state onto the 4 measured values
	update *mat.Dense
}

// NewKalmanFilter returns a filter with the given position and velocity
// noise weights, 1/20 and 1/160 suit camera frame rates
func NewKalmanFilter(stdPosition, stdVelocity float64) *KalmanFilter {

	motion := mat.NewDense(8, 8, nil)
	update := mat.NewDense(4, 8, nil)

	for i := 0; i < 8; i++ {
		motion.Set(i, i, 1)
	}

	for i := 0; i < 4; i++ {
		motion.Set(i, 4+i, 1)
		update.Set(i, i, 1)
	}

	return &KalmanFilter{
		stdPosition: stdPosition,
		stdVelocity: stdVelocity,
		motion:      motion,
		update:      update,
	}
}

// Initiate creates a state from a first measurement with zero velocity
func (kf *KalmanFilter) Initiate(m Measurement) State {

	mean := mat.NewVecDense(8, nil)

	for i, v := range m {
		mean.SetVec(i, v)
	}

	h := m[3]
	pos := 2 * kf.stdPosition * h
	vel := 10 * kf.stdVelocity * h

	return State{
		Mean: mean,
		Cov:  diagonal([]float64{pos, pos, 1e-2, pos, vel, vel, 1e-5, vel}),
	}
}

// Predict advances the state by one frame
func (kf *KalmanFilter) Predict(s State) State {

	h := s.Mean.AtVec(3)
	pos := kf.stdPosition * h
	vel := kf.stdVelocity * h
	noise := diagonal([]float64{pos, pos, 1e-2, pos, vel, vel, 1e-5, vel})

	mean := mat.NewVecDense(8, nil)
	mean.MulVec(kf.motion, s.Mean)

	var fp mat.Dense
	fp.Mul(kf.motion, s.Cov)

	var fpf mat.Dense
	fpf.Mul(&fp, kf.motion.T())

	cov := mat.NewSymDense(8, nil)
	symmetric(cov, &fpf)
	cov.AddSym(cov, noise)

	return State{Mean: mean, Cov: cov}
}

// project maps the state into measurement space with measurement noise
// added
func (kf *KalmanFilter) project(s State) (*mat.VecDense, *mat.SymDense) {

	pos := kf.stdPosition * s.Mean.AtVec(3)

	mean := mat.NewVecDense(4, nil)
	mean.MulVec(kf.update, s.Mean)

	var hp mat.Dense
	hp.Mul(kf.update, s.Cov)

	var hph mat.Dense
	hph.Mul(&hp, kf.update.T())

	cov := mat.NewSymDense(4, nil)
	symmetric(cov, &hph)
	cov.AddSym(cov, diagonal([]float64{pos, pos, 1e-1, pos}))

	return mean, cov
}

// Update corrects the state with a new measurement
func (kf *KalmanFilter) Update(s State, m Measurement) (State, error) {

	projMean, projCov := kf.project(s)

	var chol mat.Cholesky

	if ok := chol.Factorize(projCov); !ok {
		return s, errors.New("failed to factorize projected covariance")
	}

	// solving S * G = H * P gives the transposed kalman gain G
	var hp mat.Dense
	hp.Mul(kf.update, s.Cov)

	var gainT mat.Dense

	if err := chol.SolveTo(&gainT, &hp); err != nil {
		return s, fmt.Errorf("failed to compute kalman gain: %w", err)
	}

	innovation := mat.NewVecDense(4, nil)

	for i, v := range m {
		innovation.SetVec(i, v-projMean.AtVec(i))
	}

	correction := mat.NewVecDense(8, nil)
	correction.MulVec(gainT.T(), innovation)

	mean := mat.NewVecDense(8, nil)
	mean.AddVec(s.Mean, correction)

	// P - K * S * K^T
	var ks mat.Dense
	ks.Mul(gainT.T(), projCov)

	var ksk mat.Dense
	ksk.Mul(&ks, &gainT)

	var diff mat.Dense
	diff.Sub(s.Cov, &ksk)

	cov := mat.NewSymDense(8, nil)
	symmetric(cov, &diff)

	return State{Mean: mean, Cov: cov}, nil
}

// diagonal returns a covariance matrix holding the squares of std
func diagonal(std []float64) *mat.SymDense {

	cov := mat.NewSymDense(len(std), nil)

	for i, v := range std {
		cov.SetSym(i, i, v*v)
	}

	return cov
}

// symmetric copies the average of m and its transpose into dst so rounding
// can not break the symmetry Cholesky factorisation needs
func symmetric(dst *mat.SymDense, m mat.Matrix) {

	n := dst.SymmetricDim()

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			dst.SetSym(i, j, (m.At(i, j)+m.At(j, i))/2)
		}
	}
}
