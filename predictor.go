// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Non-Centered Reparameterization and LKJ Correlation Sampling for Hierarchical Models
// Class: 02-613 at Caregie Mellon University

package main

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Predict assembles the linear predictor for each observation:
// mean[n] = globalIntercept + groupEffects[j-1] (+ x[n] * slopeEffects[j-1])
// where j = groupIndex[n] is the observation's 1-based group id.
// groupEffects: one centered intercept effect per group, length J
// groupIndex: group id per observation, each in [1, J]
// x, slopeEffects: optional covariate and per-group slopes; pass x = nil for
// an intercept-only model
// Returns: predicted mean per observation
func Predict(globalIntercept float64, groupEffects []float64, groupIndex []int, x []float64, slopeEffects []float64) ([]float64, error) {
	if len(groupEffects) == 0 {
		return nil, fmt.Errorf("%w: no group effects provided", ErrInvalidArgument)
	}
	J := len(groupEffects)

	hasSlope := x != nil
	if hasSlope {
		if len(x) != len(groupIndex) {
			return nil, fmt.Errorf("%w: %d covariates for %d observations", ErrDimensionMismatch, len(x), len(groupIndex))
		}
		if len(slopeEffects) != J {
			return nil, fmt.Errorf("%w: %d slope effects for %d groups", ErrDimensionMismatch, len(slopeEffects), J)
		}
	}

	means := make([]float64, len(groupIndex))
	for n, j := range groupIndex {
		if j < 1 || j > J {
			return nil, fmt.Errorf("%w: group id %d at observation %d, want [1, %d]", ErrIndexOutOfRange, j, n, J)
		}
		val := globalIntercept + groupEffects[j-1]
		if hasSlope {
			val += x[n] * slopeEffects[j-1]
		}
		means[n] = val
	}

	return means, nil
}

// Replicate draws one posterior-predictive replicate per observation,
// Normal(mean[n], noiseScale), for posterior-predictive checking.
// A zero noise scale returns the means themselves (a degenerate but
// well-defined replicate); a negative one is rejected.
func Replicate(means []float64, noiseScale float64, src rand.Source) ([]float64, error) {
	if noiseScale < 0 || math.IsNaN(noiseScale) {
		return nil, fmt.Errorf("%w: noise scale must be non-negative, got %v", ErrInvalidArgument, noiseScale)
	}

	out := make([]float64, len(means))
	if noiseScale == 0 {
		copy(out, means)
		return out, nil
	}

	noise := distuv.Normal{Mu: 0, Sigma: noiseScale, Src: src}
	for n, m := range means {
		out[n] = m + noise.Rand()
	}

	return out, nil
}

// SimulateStudy runs the whole pipeline once on a grouped dataset: draw an
// intercept/slope correlation factor from LKJ(ν), compose it with the
// marginal scales, push standard-normal auxiliary variables through the
// non-centered transform, assemble per-observation means, and draw a
// posterior-predictive replicate. Every intermediate is returned so the
// driver can print and export it.
func SimulateStudy(data *GroupedData, opts StudyOptions) (*StudyResult, error) {
	if data == nil || len(data.Group) == 0 {
		return nil, fmt.Errorf("%w: grouped data not provided", ErrInvalidArgument)
	}

	// Default options if not set
	if len(opts.Scales) == 0 {
		opts.Scales = []float64{1.0, 0.5}
	}
	if opts.Concentration <= 0 {
		opts.Concentration = 1.0
	}
	if opts.NoiseScale <= 0 {
		opts.NoiseScale = 1.0
	}

	// The study models correlated intercept+slope effects, so the data must
	// carry a covariate and the scales must cover both dimensions
	K := 2
	if data.X == nil {
		return nil, fmt.Errorf("%w: study needs a covariate column", ErrInvalidArgument)
	}
	if len(opts.Scales) != K {
		return nil, fmt.Errorf("%w: %d scales, want %d (intercept, slope)", ErrDimensionMismatch, len(opts.Scales), K)
	}

	var seed uint64
	if opts.Seed != 0 {
		seed = uint64(opts.Seed)
	} else {
		seed = uint64(time.Now().UnixNano())
	}
	src := rand.NewSource(seed)

	// 1. Correlation factor for the intercept/slope pair
	sampler, err := NewLKJCholesky(K, opts.Concentration, src)
	if err != nil {
		return nil, err
	}
	corr := sampler.Rand()

	// 2. Covariance factor from scales and correlation
	cov, err := ComposeCovarianceCholesky(opts.Scales, corr)
	if err != nil {
		return nil, err
	}

	// 3. Standard-normal auxiliary variables, one column per group
	J := data.J
	stdNorm := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	rawEta := mat.NewDense(K, J, nil)
	for i := 0; i < K; i++ {
		for j := 0; j < J; j++ {
			rawEta.Set(i, j, stdNorm.Rand())
		}
	}

	// 4. Centered effects through the non-centered transform
	effects, err := ToCenteredMatrix(rawEta, cov, make([]float64, K))
	if err != nil {
		return nil, err
	}

	interceptEffects := make([]float64, J)
	slopeEffects := make([]float64, J)
	for j := 0; j < J; j++ {
		interceptEffects[j] = effects.At(0, j)
		slopeEffects[j] = effects.At(1, j)
	}

	// 5. Per-observation means and predictive replicates
	means, err := Predict(opts.GlobalIntercept, interceptEffects, data.Group, data.X, slopeEffects)
	if err != nil {
		return nil, err
	}

	reps, err := Replicate(means, opts.NoiseScale, src)
	if err != nil {
		return nil, err
	}

	return &StudyResult{
		CorrFactor: corr,
		CovFactor:  cov,
		RawEta:     rawEta,
		Effects:    effects,
		Means:      means,
		Replicates: reps,
	}, nil
}
