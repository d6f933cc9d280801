// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Non-Centered Reparameterization and LKJ Correlation Sampling for Hierarchical Models
// Class: 02-613 at Caregie Mellon University

package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// LoadCSVToGroupedData loads a CSV file with columns Group, X, Y into a
// GroupedData struct. Group ids are 1-based; J is taken as the largest id.
func LoadCSVToGroupedData(path string) (*GroupedData, error) {
	// 1. Open file
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	// 2. Make CSV reader
	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	// 3. Read header row
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) != 3 {
		return nil, fmt.Errorf("expected 3 columns (Group, X, Y) in %s, got %d", path, len(header))
	}

	var (
		groups []int
		xs     []float64
		ys     []float64
		row    int
	)

	// 4. Read each data row
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row+2, err) // +2 for header + 1-based
		}

		// Skip completely empty lines
		if len(record) == 1 && record[0] == "" {
			continue
		}

		if len(record) != 3 {
			return nil, fmt.Errorf("row %d: expected 3 columns, got %d", row+2, len(record))
		}

		g, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("parse group id at row %d (%q): %w", row+2, record[0], err)
		}
		if g < 1 {
			return nil, fmt.Errorf("row %d: group id must be >= 1, got %d", row+2, g)
		}

		x, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("parse X at row %d (%q): %w", row+2, record[1], err)
		}

		y, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, fmt.Errorf("parse Y at row %d (%q): %w", row+2, record[2], err)
		}

		groups = append(groups, g)
		xs = append(xs, x)
		ys = append(ys, y)
		row++
	}

	if row == 0 {
		return nil, fmt.Errorf("no data rows in %s", path)
	}

	// 5. J is the largest group id seen
	J := 0
	for _, g := range groups {
		if g > J {
			J = g
		}
	}

	data := &GroupedData{
		Group: groups,
		X:     xs,
		Y:     ys,
		J:     J,
	}

	return data, nil
}

// Helper function to print a correlation or covariance Cholesky factor
func PrintCholeskyFactor(name string, L *mat.TriDense) {
	fmt.Printf("\n=== %s ===\n", name)
	fmt.Printf("%v\n", mat.Formatted(L, mat.Prefix(" ")))
}

// Helps print the centered effects matrix, one column per group
func PrintEffects(effects *mat.Dense) {
	fmt.Println("\n=== Centered Group Effects (rows: intercept, slope; cols: groups) ===")
	fmt.Printf("%v\n", mat.Formatted(effects, mat.Prefix(" ")))
}

// Produces a summary table of one simulation pass
func StudySummary(data *GroupedData, res *StudyResult) {
	if res == nil {
		fmt.Println("Study result is nil")
		return
	}
	fmt.Println("      Hierarchical Simulation Summary      ")

	fmt.Printf("Number of observations (N): %d\n", len(data.Group))
	fmt.Printf("Number of groups (J):       %d\n", data.J)
	fmt.Println()

	PrintCholeskyFactor("Correlation Cholesky Factor", res.CorrFactor)
	PrintCholeskyFactor("Covariance Cholesky Factor", res.CovFactor)
	PrintEffects(res.Effects)

	if logDet, err := LogDetJacobian(res.CovFactor); err == nil {
		fmt.Printf("\nLog |Jacobian| of the per-group transform: %.6f\n", logDet)
	}

	fmt.Println("\nPredicted means:")
	fmt.Printf("  mean: %.6f  sd: %.6f\n", stat.Mean(res.Means, nil), stat.StdDev(res.Means, nil))

	fmt.Println("Posterior-predictive replicates:")
	fmt.Printf("  mean: %.6f  sd: %.6f\n", stat.Mean(res.Replicates, nil), stat.StdDev(res.Replicates, nil))

	fmt.Println("Observed responses:")
	fmt.Printf("  mean: %.6f  sd: %.6f\n", stat.Mean(data.Y, nil), stat.StdDev(data.Y, nil))

	fmt.Println("===========================================")
}

// OutputPredictionsToCSV writes per-observation predictions to CSV.
// Columns: Obs, Group, X, Y, Mean, Replicate
func OutputPredictionsToCSV(path string, data *GroupedData, res *StudyResult) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Obs", "Group", "X", "Y", "Mean", "Replicate"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for n := range data.Group {
		record := []string{
			fmt.Sprintf("%d", n+1),
			fmt.Sprintf("%d", data.Group[n]),
			fmt.Sprintf("%f", data.X[n]),
			fmt.Sprintf("%f", data.Y[n]),
			fmt.Sprintf("%f", res.Means[n]),
			fmt.Sprintf("%f", res.Replicates[n]),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return nil
}

// OutputEffectsToCSV writes the per-group effect draws to CSV in long format.
// Columns: Group, InterceptEffect, SlopeEffect, RawEtaIntercept, RawEtaSlope
func OutputEffectsToCSV(path string, res *StudyResult) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Group", "InterceptEffect", "SlopeEffect", "RawEtaIntercept", "RawEtaSlope"}
	if err := writer.Write(header); err != nil {
		return err
	}

	_, J := res.Effects.Dims()
	for j := 0; j < J; j++ {
		record := []string{
			fmt.Sprintf("%d", j+1),
			fmt.Sprintf("%f", res.Effects.At(0, j)),
			fmt.Sprintf("%f", res.Effects.At(1, j)),
			fmt.Sprintf("%f", res.RawEta.At(0, j)),
			fmt.Sprintf("%f", res.RawEta.At(1, j)),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return nil
}

// OutputCalibrationToCSV writes the LKJ calibration sweep to CSV.
// Columns: Concentration, Dim, NDraws, MeanAbsOffDiag, EntryVariance
func OutputCalibrationToCSV(path string, results []CalibrationResult) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Concentration", "Dim", "NDraws", "MeanAbsOffDiag", "EntryVariance"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, res := range results {
		record := []string{
			fmt.Sprintf("%f", res.Concentration),
			fmt.Sprintf("%d", res.Dim),
			fmt.Sprintf("%d", res.NDraws),
			fmt.Sprintf("%f", res.MeanAbsOffDiag),
			fmt.Sprintf("%f", res.EntryVariance),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return nil
}

// PrintCalibration prints the calibration sweep in a formatted table
func PrintCalibration(results []CalibrationResult) {
	fmt.Println("\n=== LKJ Calibration Sweep ===")
	fmt.Println("Empirical off-diagonal behavior of the correlation draws")
	fmt.Println()

	fmt.Printf("%12s | %4s | %7s | %14s | %13s\n", "Concentration", "Dim", "NDraws", "MeanAbsOffDiag", "EntryVariance")
	fmt.Println("--------------------------------------------------------------------")

	for _, res := range results {
		fmt.Printf("%12.2f | %4d | %7d | %14.6f | %13.6f\n",
			res.Concentration,
			res.Dim,
			res.NDraws,
			res.MeanAbsOffDiag,
			res.EntryVariance)
	}
	fmt.Println()
}
