package convnet

const (
	sigmoidPR = 0.66666666
	sigmoidPO = 1.71593428

	sigmoidA0 = 1.0
	sigmoidA1 = 0.125 * sigmoidPR
	sigmoidA2 = 0.0078125 * sigmoidPR * sigmoidPR
	sigmoidA3 = 0.000325520833333 * sigmoidPR * sigmoidPR * sigmoidPR

	// sigmoidLimit is where the approximation is clamped to its asymptote
	sigmoidLimit = 13.0
)

// FastSigmoid approximates 1.71593428*tanh(0.66666666*x) with a rational
// function of a polynomial raised to the 16th power
func FastSigmoid(x float64) float64 {
	switch {
	case x >= sigmoidLimit:
		return sigmoidPO
	case x <= -sigmoidLimit:
		return -sigmoidPO
	case x >= 0:
		y := pow16(sigmoidA0 + x*(sigmoidA1+x*(sigmoidA2+x*sigmoidA3)))
		return sigmoidPO * (y - 1) / (y + 1)
	default:
		y := pow16(sigmoidA0 - x*(sigmoidA1-x*(sigmoidA2-x*sigmoidA3)))
		return sigmoidPO * (1 - y) / (y + 1)
	}
}

func pow16(y float64) float64 {
	y *= y
	y *= y
	y *= y
	y *= y
	return y
}
