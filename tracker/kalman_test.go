package tracker

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

// matricesEqual compare matrices
func matricesEqual(a, b mat.Matrix, epsilon float64) bool {
	r1, c1 := a.Dims()
	r2, c2 := b.Dims()

	if r1 != r2 || c1 != c2 {
		return false
	}

	for i := 0; i < r1; i++ {
		for j := 0; j < c1; j++ {
			if diff := a.At(i, j) - b.At(i, j); diff > epsilon || diff < -epsilon {
				return false
			}
		}
	}

	return true
}

// TestKalmanFilter steps the filter through initiate, predict and update
// for a 50 pixel high face moving down and right
func TestKalmanFilter(t *testing.T) {
	kf := NewKalmanFilter(1.0/20, 1.0/160)

	state := kf.Initiate(Measurement{100.0, 200.0, 1.0, 50.0})

	expectedMeanInit := mat.NewVecDense(8, []float64{100.0, 200.0, 1.0, 50.0, 0.0, 0.0, 0.0, 0.0})
	expectedCovarianceInit := mat.NewDense(8, 8, []float64{
		25.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0,
		0.0, 25.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0,
		0.0, 0.0, 1e-4, 0.0, 0.0, 0.0, 0.0, 0.0,
		0.0, 0.0, 0.0, 25.0, 0.0, 0.0, 0.0, 0.0,
		0.0, 0.0, 0.0, 0.0, 9.765625, 0.0, 0.0, 0.0,
		0.0, 0.0, 0.0, 0.0, 0.0, 9.765625, 0.0, 0.0,
		0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 1e-10, 0.0,
		0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 9.765625,
	})

	if !matricesEqual(state.Mean, expectedMeanInit, 1e-9) {
		t.Errorf("expected mean %v, got %v", expectedMeanInit.RawVector().Data, state.Mean.RawVector().Data)
	}

	if !matricesEqual(state.Cov, expectedCovarianceInit, 1e-9) {
		t.Errorf("expected covariance %v, got %v",
			mat.Formatted(expectedCovarianceInit, mat.Prefix(""), mat.Excerpt(0)),
			mat.Formatted(state.Cov, mat.Prefix(""), mat.Excerpt(0)),
		)
	}

	state = kf.Predict(state)

	expectedCovariancePredict := mat.NewDense(8, 8, []float64{
		41.015625, 0.0, 0.0, 0.0, 9.765625, 0.0, 0.0, 0.0,
		0.0, 41.015625, 0.0, 0.0, 0.0, 9.765625, 0.0, 0.0,
		0.0, 0.0, 2e-4, 0.0, 0.0, 0.0, 1e-10, 0.0,
		0.0, 0.0, 0.0, 41.015625, 0.0, 0.0, 0.0, 9.765625,
		9.765625, 0.0, 0.0, 0.0, 9.86328125, 0.0, 0.0, 0.0,
		0.0, 9.765625, 0.0, 0.0, 0.0, 9.86328125, 0.0, 0.0,
		0.0, 0.0, 1e-10, 0.0, 0.0, 0.0, 2e-10, 0.0,
		0.0, 0.0, 0.0, 9.765625, 0.0, 0.0, 0.0, 9.86328125,
	})

	// zero velocity so the mean does not move
	if !matricesEqual(state.Mean, expectedMeanInit, 1e-9) {
		t.Errorf("expected mean %v, got %v", expectedMeanInit.RawVector().Data, state.Mean.RawVector().Data)
	}

	if !matricesEqual(state.Cov, expectedCovariancePredict, 1e-9) {
		t.Errorf("expected covariance %v, got %v",
			mat.Formatted(expectedCovariancePredict, mat.Prefix(""), mat.Excerpt(0)),
			mat.Formatted(state.Cov, mat.Prefix(""), mat.Excerpt(0)),
		)
	}

	state, err := kf.Update(state, Measurement{105.0, 205.0, 1.1, 55.0})

	if err != nil {
		t.Fatalf("failed to update: %v", err)
	}

	expectedMeanUpdate := mat.NewVecDense(8, []float64{104.338844, 204.338843, 1.001961, 54.338843, 1.033058, 1.033058, 0.0, 1.033058})
	expectedCovarianceUpdate := mat.NewDense(8, 8, []float64{
		5.423553719008268, 0.0, 0.0, 0.0, 1.2913223140495873, 0.0, 0.0, 0.0,
		0.0, 5.423553719008268, 0.0, 0.0, 0.0, 1.2913223140495873, 0.0, 0.0,
		0.0, 0.0, 0.00019607852290531608, 0.0, 0.0, 0.0, 9.803920941585902e-11, 0.0,
		0.0, 0.0, 0.0, 5.423553719008268, 0.0, 0.0, 0.0, 1.2913223140495873,
		1.291322314049589, 0.0, 0.0, 0.0, 7.845590134297521, 0.0, 0.0, 0.0,
		0.0, 1.291322314049589, 0.0, 0.0, 0.0, 7.845590134297521, 0.0, 0.0,
		0.0, 0.0, 9.803920941585902e-11, 0.0, 0.0, 0.0, 1.9999998781210662e-10, 0.0,
		0.0, 0.0, 0.0, 1.291322314049589, 0.0, 0.0, 0.0, 7.845590134297521,
	})

	if !matricesEqual(state.Mean, expectedMeanUpdate, 1e-4) {
		t.Errorf("expected mean %v, got %v", expectedMeanUpdate.RawVector().Data, state.Mean.RawVector().Data)
	}

	if !matricesEqual(state.Cov, expectedCovarianceUpdate, 1e-4) {
		t.Errorf("expected covariance %v, got %v",
			mat.Formatted(expectedCovarianceUpdate, mat.Prefix(""), mat.Excerpt(0)),
			mat.Formatted(state.Cov, mat.Prefix(""), mat.Excerpt(0)),
		)
	}

	box := state.Box()

	if box[0] <= 100 || box[0] >= 105 {
		t.Errorf("expected centre x between measurements, got %v", box[0])
	}
}
