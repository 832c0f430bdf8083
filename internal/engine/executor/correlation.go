// internal/engine/executor/correlation.go

package executor

import (
	"math"

	"sales-insights/internal/models"
)

var correlationColumns = []string{"revenue", "profit", "cost", "quantity", "customer_age"}

// correlationMatrix computes pairwise Pearson coefficients over the numeric
// columns, rounded to 4 decimal places. The matrix is symmetric with a unit
// diagonal. A column with zero variance reports 0 against every other
// column (NaN does not survive JSON encoding); fewer than two rows yields
// a nil matrix.
func correlationMatrix(rows []models.Record) *models.CorrelationMatrix {
	if len(rows) < 2 {
		return nil
	}

	series := make([][]float64, len(correlationColumns))
	for i := range series {
		series[i] = make([]float64, len(rows))
	}
	for j, r := range rows {
		series[0][j] = r.Revenue
		series[1][j] = r.Profit
		series[2][j] = r.Cost
		series[3][j] = float64(r.Quantity)
		series[4][j] = float64(r.CustomerAge)
	}

	n := len(correlationColumns)
	coeffs := make([][]float64, n)
	for i := range coeffs {
		coeffs[i] = make([]float64, n)
		coeffs[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			c := round4(pearson(series[i], series[j]))
			coeffs[i][j] = c
			coeffs[j][i] = c
		}
	}

	return &models.CorrelationMatrix{
		Columns:      correlationColumns,
		Coefficients: coeffs,
	}
}

func pearson(xs, ys []float64) float64 {
	n := float64(len(xs))
	var meanX, meanY float64
	for i := range xs {
		meanX += xs[i]
		meanY += ys[i]
	}
	meanX /= n
	meanY /= n

	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
