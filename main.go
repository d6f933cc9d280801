// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Non-Centered Reparameterization and LKJ Correlation Sampling for Hierarchical Models
// Class: 02-613 at Caregie Mellon University

package main

import (
	"fmt"
	"os"
	"strconv"
)

// This is the main function that runs the hierarchical reparameterization demo
// for a grouped dataset. The function expects two command-line arguments: the
// path to a CSV file with columns Group, X, Y and the LKJ concentration ν.
// It draws an intercept/slope correlation factor from LKJ(ν), composes it with
// marginal scales into a covariance factor, pushes standard-normal auxiliary
// variables through the non-centered transform, assembles per-observation
// means, draws posterior-predictive replicates, outputs the results to CSV
// files, and finally runs a calibration sweep showing what ν does to the
// correlation draws empirically.

func main() {
	// expect 2 arguments: data path, concentration
	if len(os.Args) < 3 {
		fmt.Println("Usage: go run . <grouped_data.csv> <concentration>")
		return
	}
	dataPath := os.Args[1]

	concentration, err := strconv.ParseFloat(os.Args[2], 64)
	if err != nil {
		panic("Could not parse concentration: " + os.Args[2])
	}

	// 1. Load CSV into GroupedData
	data, err := LoadCSVToGroupedData(dataPath)
	if err != nil {
		panic(err)
	}

	fmt.Println("Loaded", len(data.Group), "observations across", data.J, "groups")

	// 2. Set up the simulation study
	opts := StudyOptions{
		GlobalIntercept: 0.0,
		Scales:          []float64{1.0, 0.5}, // intercept sd, slope sd
		Concentration:   concentration,
		NoiseScale:      1.0,
		Seed:            12345, // or 0 to use current time
	}

	// 3. Run the LKJ -> compose -> non-centered pipeline once
	res, err := SimulateStudy(data, opts)
	if err != nil {
		panic(err)
	}

	// 4. Print summary
	StudySummary(data, res)

	// 5. Output per-observation predictions to CSV
	err = OutputPredictionsToCSV("predictions.csv", data, res)
	if err != nil {
		panic(err)
	}
	fmt.Println("Predictions written to predictions.csv")

	// 6. Output per-group effect draws to CSV
	err = OutputEffectsToCSV("effects.csv", res)
	if err != nil {
		panic(err)
	}
	fmt.Println("Group effects written to effects.csv")

	// 7. Run the LKJ calibration sweep
	fmt.Println("Running LKJ calibration sweep...")
	calOpts := CalibrationOptions{
		Concentrations: []float64{0.5, 1, 2, 10, 100},
		Dim:            2,
		NDraws:         2000,
		Seed:           12345,
	}

	calResults, err := RunLKJCalibration(calOpts)
	if err != nil {
		panic(err)
	}
	PrintCalibration(calResults)

	// 8. Output calibration sweep to CSV
	err = OutputCalibrationToCSV("lkj_calibration.csv", calResults)
	if err != nil {
		panic(err)
	}
	fmt.Println("Calibration sweep written to lkj_calibration.csv")
}
