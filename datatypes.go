// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Non-Centered Reparameterization and LKJ Correlation Sampling for Hierarchical Models
// Class: 02-613 at Caregie Mellon University

package main

import (
	"errors"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// Error categories reported by the library. Every failure wraps one of these,
// so callers can classify with errors.Is while still getting a full message.
var (
	// Bad dimension, concentration, or scale handed to a constructor
	ErrInvalidArgument = errors.New("invalid argument")
	// Incompatible vector/matrix sizes
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// Degenerate zero scale in a transform or triangular solve
	ErrDivisionByZero = errors.New("division by zero")
	// Group id outside the declared range [1, J]
	ErrIndexOutOfRange = errors.New("index out of range")
)

// LKJCholesky draws Cholesky factors of random correlation matrices under
// the LKJ(ν) density. The concentration ν controls how strongly draws are
// pulled toward the identity: ν = 1 is uniform over correlation matrices,
// ν > 1 concentrates near independence, 0 < ν < 1 favors extreme correlations.
type LKJCholesky struct {
	// Matrix order D (D >= 1)
	dim int
	// Concentration ν (ν > 0)
	concentration float64
	// Source of the uniform/normal variates consumed by each draw
	src rand.Source
}

// GroupedData holds one observation per row of a hierarchical dataset.
type GroupedData struct {
	// 1-based group id per observation
	Group []int
	// Covariate per observation (nil if the model has no slope term)
	X []float64
	// Response per observation
	Y []float64
	// Number of groups J (the largest group id seen)
	J int
}

// Options for the LKJ calibration study.
type CalibrationOptions struct {
	// Concentrations to sweep over (e.g. 0.5, 1, 2, 10)
	Concentrations []float64

	// Matrix order for every draw (default 2)
	Dim int

	// Number of correlation matrices drawn per concentration (default 2000)
	NDraws int

	// RNG seed (if 0, time-based seed is used)
	Seed int64
}

// CalibrationResult summarizes the empirical off-diagonal behavior of many
// LKJ draws at one concentration.
type CalibrationResult struct {
	Concentration float64 // ν used for this sweep entry
	Dim           int     // matrix order
	NDraws        int     // number of draws summarized

	// Empirical mean of |r_ij| over all strictly-lower entries and draws
	MeanAbsOffDiag float64
	// Empirical variance of the entries (uniform over [-1,1] would give 1/3)
	EntryVariance float64
}

// calDraw holds the off-diagonal correlation entries from a single draw.
type calDraw struct {
	Entries []float64
}

// StudyOptions configures a full simulation pass through the
// LKJ -> compose -> non-centered pipeline.
type StudyOptions struct {
	// Shared intercept added to every observation's mean
	GlobalIntercept float64

	// Marginal standard deviations of the correlated effects
	// (length 2: intercept scale, slope scale)
	Scales []float64

	// LKJ concentration for the intercept/slope correlation (default 1)
	Concentration float64

	// Observation noise standard deviation (default 1)
	NoiseScale float64

	// RNG seed (if 0, time-based seed is used)
	Seed int64
}

// StudyResult stores every intermediate of one simulation pass so the driver
// can print and export them.
type StudyResult struct {
	// Correlation Cholesky factor drawn from LKJ(ν)
	CorrFactor *mat.TriDense
	// Covariance Cholesky factor diag(scales) * CorrFactor
	CovFactor *mat.TriDense
	// Standard-normal auxiliary variables, K x J
	RawEta *mat.Dense
	// Centered group effects, K x J (row 0 intercepts, row 1 slopes)
	Effects *mat.Dense
	// Predicted mean per observation
	Means []float64
	// Posterior-predictive replicate per observation
	Replicates []float64
}
