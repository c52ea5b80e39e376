package transform

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// R1 is the frame rotation by x radians about the first axis.
func R1(x float64) *mat.Dense {
	s, c := math.Sincos(x)
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, c, s,
		0, -s, c,
	})
}

// R3 is the frame rotation by x radians about the third axis.
func R3(x float64) *mat.Dense {
	s, c := math.Sincos(x)
	return mat.NewDense(3, 3, []float64{
		c, s, 0,
		-s, c, 0,
		0, 0, 1,
	})
}

// PerifocalToInertial returns R3(-Ω)·R1(-i)·R3(-ω), the rotation taking
// perifocal (PQW) coordinates into the inertial frame.
func PerifocalToInertial(raan, incl, argp float64) *mat.Dense {
	var tmp, out mat.Dense
	tmp.Mul(R3(-raan), R1(-incl))
	out.Mul(&tmp, R3(-argp))
	return &out
}

// MulVec applies a 3×3 matrix to v.
func MulVec(m mat.Matrix, v [3]float64) [3]float64 {
	var r mat.VecDense
	r.MulVec(m, mat.NewVecDense(3, v[:]))
	return [3]float64{r.AtVec(0), r.AtVec(1), r.AtVec(2)}
}
