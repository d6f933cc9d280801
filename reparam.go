// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Non-Centered Reparameterization and LKJ Correlation Sampling for Hierarchical Models
// Class: 02-613 at Caregie Mellon University

package main

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ComposeCovarianceCholesky combines marginal scales with a correlation
// Cholesky factor into the covariance Cholesky factor
// C = diag(scales) * corr, i.e. row i of corr scaled by scales[i].
// This is exact row scaling, not an iterative factorization.
// scales: one marginal standard deviation per dimension
// corr: D x D lower-triangular correlation factor
// Returns: D x D lower-triangular covariance factor with C*C^T the covariance
func ComposeCovarianceCholesky(scales []float64, corr *mat.TriDense) (*mat.TriDense, error) {
	if corr == nil {
		return nil, fmt.Errorf("%w: correlation factor not provided", ErrInvalidArgument)
	}
	n, kind := corr.Triangle()
	if kind != mat.Lower {
		return nil, fmt.Errorf("%w: correlation factor must be lower-triangular", ErrInvalidArgument)
	}
	if len(scales) != n {
		return nil, fmt.Errorf("%w: %d scales for a %dx%d correlation factor", ErrDimensionMismatch, len(scales), n, n)
	}

	cov := mat.NewTriDense(n, mat.Lower, nil)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			cov.SetTri(i, j, scales[i]*corr.At(i, j))
		}
	}

	return cov, nil
}

// ApplyCovarianceCholesky colors a standard-normal vector: computes cov * eta.
// When eta is standard multivariate normal the result has covariance
// cov * cov^T.
func ApplyCovarianceCholesky(cov *mat.TriDense, eta []float64) ([]float64, error) {
	if cov == nil {
		return nil, fmt.Errorf("%w: covariance factor not provided", ErrInvalidArgument)
	}
	n, kind := cov.Triangle()
	if kind != mat.Lower {
		return nil, fmt.Errorf("%w: covariance factor must be lower-triangular", ErrInvalidArgument)
	}
	if len(eta) != n {
		return nil, fmt.Errorf("%w: vector length %d for a %dx%d factor", ErrDimensionMismatch, len(eta), n, n)
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		val := 0.0
		for j := 0; j <= i; j++ {
			val += cov.At(i, j) * eta[j]
		}
		out[i] = val
	}

	return out, nil
}

// InvertCovarianceCholesky whitens a correlated vector: solves cov * eta = x
// by forward substitution. Fails with a division-by-zero error if any
// diagonal entry of cov is exactly zero (a degenerate, zero-variance
// dimension) rather than absorbing it.
func InvertCovarianceCholesky(cov *mat.TriDense, x []float64) ([]float64, error) {
	if cov == nil {
		return nil, fmt.Errorf("%w: covariance factor not provided", ErrInvalidArgument)
	}
	n, kind := cov.Triangle()
	if kind != mat.Lower {
		return nil, fmt.Errorf("%w: covariance factor must be lower-triangular", ErrInvalidArgument)
	}
	if len(x) != n {
		return nil, fmt.Errorf("%w: vector length %d for a %dx%d factor", ErrDimensionMismatch, len(x), n, n)
	}

	eta := make([]float64, n)
	for i := 0; i < n; i++ {
		d := cov.At(i, i)
		if d == 0 {
			return nil, fmt.Errorf("%w: zero diagonal at row %d of covariance factor", ErrDivisionByZero, i)
		}
		val := x[i]
		for j := 0; j < i; j++ {
			val -= cov.At(i, j) * eta[j]
		}
		eta[i] = val / d
	}

	return eta, nil
}

// --- NON-CENTERED TRANSFORM, SCALAR CASE ---

// ToCentered maps a standard-normal auxiliary variable to the centered,
// interpretable group effect: location + scale * rawEta.
// Total on all inputs: with scale = 0 every eta maps to location.
func ToCentered(rawEta, scale, location float64) float64 {
	return location + scale*rawEta
}

// ToRaw recovers the auxiliary variable from a centered effect:
// (centered - location) / scale. A zero scale makes the group effect
// degenerate and the transform non-invertible, which is reported as an
// error instead of being absorbed.
func ToRaw(centered, scale, location float64) (float64, error) {
	if scale == 0 {
		return 0, fmt.Errorf("%w: zero scale in non-centered transform", ErrDivisionByZero)
	}
	return (centered - location) / scale, nil
}

// ScalarLogDetJacobian returns log|scale|, the log absolute Jacobian
// determinant of the scalar eta -> centered map. It is constant with respect
// to eta, which is what makes the non-centered coordinates well behaved for
// gradient-based samplers even when scale is near zero.
func ScalarLogDetJacobian(scale float64) (float64, error) {
	if scale == 0 {
		return 0, fmt.Errorf("%w: zero scale has no log Jacobian", ErrDivisionByZero)
	}
	return math.Log(math.Abs(scale)), nil
}

// --- NON-CENTERED TRANSFORM, CORRELATED MULTIVARIATE CASE ---

// ToCenteredMatrix maps per-group auxiliary vectors to centered effects.
// rawEta: K x J matrix, one standard-normal column per group
// cov: K x K covariance Cholesky factor shared across all groups
// location: length-K location vector
// Returns: K x J matrix with column j = location + cov * rawEta[:, j]
func ToCenteredMatrix(rawEta *mat.Dense, cov *mat.TriDense, location []float64) (*mat.Dense, error) {
	if rawEta == nil {
		return nil, fmt.Errorf("%w: auxiliary matrix not provided", ErrInvalidArgument)
	}
	if cov == nil {
		return nil, fmt.Errorf("%w: covariance factor not provided", ErrInvalidArgument)
	}
	K, J := rawEta.Dims()
	n, kind := cov.Triangle()
	if kind != mat.Lower {
		return nil, fmt.Errorf("%w: covariance factor must be lower-triangular", ErrInvalidArgument)
	}
	if n != K {
		return nil, fmt.Errorf("%w: %dx%d auxiliary matrix with a %dx%d covariance factor", ErrDimensionMismatch, K, J, n, n)
	}
	if len(location) != K {
		return nil, fmt.Errorf("%w: location vector length %d, want %d", ErrDimensionMismatch, len(location), K)
	}

	centered := mat.NewDense(K, J, nil)
	eta := make([]float64, K)

	// Columns are independent given the shared factor, so each group is
	// transformed on its own
	for j := 0; j < J; j++ {
		for i := 0; i < K; i++ {
			eta[i] = rawEta.At(i, j)
		}
		colored, err := ApplyCovarianceCholesky(cov, eta)
		if err != nil {
			return nil, err
		}
		for i := 0; i < K; i++ {
			centered.Set(i, j, location[i]+colored[i])
		}
	}

	return centered, nil
}

// ToRawMatrix inverts ToCenteredMatrix column by column: for each group j it
// solves cov * eta = centered[:, j] - location by forward substitution.
// Fails with a division-by-zero error on a zero diagonal in cov.
func ToRawMatrix(centered *mat.Dense, cov *mat.TriDense, location []float64) (*mat.Dense, error) {
	if centered == nil {
		return nil, fmt.Errorf("%w: centered matrix not provided", ErrInvalidArgument)
	}
	if cov == nil {
		return nil, fmt.Errorf("%w: covariance factor not provided", ErrInvalidArgument)
	}
	K, J := centered.Dims()
	n, kind := cov.Triangle()
	if kind != mat.Lower {
		return nil, fmt.Errorf("%w: covariance factor must be lower-triangular", ErrInvalidArgument)
	}
	if n != K {
		return nil, fmt.Errorf("%w: %dx%d centered matrix with a %dx%d covariance factor", ErrDimensionMismatch, K, J, n, n)
	}
	if len(location) != K {
		return nil, fmt.Errorf("%w: location vector length %d, want %d", ErrDimensionMismatch, len(location), K)
	}

	rawEta := mat.NewDense(K, J, nil)
	shifted := make([]float64, K)

	for j := 0; j < J; j++ {
		for i := 0; i < K; i++ {
			shifted[i] = centered.At(i, j) - location[i]
		}
		eta, err := InvertCovarianceCholesky(cov, shifted)
		if err != nil {
			return nil, err
		}
		for i := 0; i < K; i++ {
			rawEta.Set(i, j, eta[i])
		}
	}

	return rawEta, nil
}

// LogDetJacobian returns the log Jacobian determinant of the per-group
// eta -> centered map, sum of log diagonal entries of the covariance factor.
// Like the scalar case it does not depend on eta. Fails if any diagonal
// entry is not strictly positive.
func LogDetJacobian(cov *mat.TriDense) (float64, error) {
	if cov == nil {
		return 0, fmt.Errorf("%w: covariance factor not provided", ErrInvalidArgument)
	}
	n, kind := cov.Triangle()
	if kind != mat.Lower {
		return 0, fmt.Errorf("%w: covariance factor must be lower-triangular", ErrInvalidArgument)
	}

	logDet := 0.0
	for i := 0; i < n; i++ {
		d := cov.At(i, i)
		if d <= 0 {
			return 0, fmt.Errorf("%w: non-positive diagonal at row %d of covariance factor", ErrDivisionByZero, i)
		}
		logDet += math.Log(d)
	}

	return logDet, nil
}
