// Package matutils implements utility function for working with mat.Matrix
// structs
package matutils

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Format formats a matrix for printing
func Format(X mat.Matrix) string {
	fa := mat.Formatted(X, mat.Prefix(""), mat.Squeeze())
	return fmt.Sprintf("%v", fa)
}

// ColStats computes and returns the per-column mean and standard
// deviation of a matrix. Columns with zero variance get a standard
// deviation of 1 so that standardizing by these statistics is always
// well defined.
func ColStats(matrix *mat.Dense) (means, stds []float64) {
	_, c := matrix.Dims()
	means = make([]float64, c)
	stds = make([]float64, c)

	col := make([]float64, 0)
	for j := 0; j < c; j++ {
		col = mat.Col(col[:0], j, matrix)
		mean, std := stat.MeanStdDev(col, nil)

		means[j] = mean
		if std == 0 || std != std {
			std = 1
		}
		stds[j] = std
	}
	return means, stds
}

// StandardizeCols shifts and scales each column of a matrix in place
// so that column j has mean means[j] subtracted and is divided by
// stds[j].
func StandardizeCols(matrix *mat.Dense, means, stds []float64) {
	r, c := matrix.Dims()
	for i := 0; i < r; i++ {
		row := matrix.RawRowView(i)
		for j := 0; j < c; j++ {
			row[j] = (row[j] - means[j]) / stds[j]
		}
	}
}
