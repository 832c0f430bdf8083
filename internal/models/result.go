// internal/models/result.go
package models

import "time"

// QueryResult is the immutable outcome of one executed query. Scalar
// aggregates live in Metrics; intent-specific detail lives in the typed
// sections, at most one of which is populated except for full reports.
type QueryResult struct {
	Intent     Intent          `json:"intent"`
	Parameters QueryDescriptor `json:"parameters"`

	Metrics  map[string]float64 `json:"metrics"`
	RowCount int                `json:"rowCount"`

	// MarginUndefined is set when total revenue was zero and the margin
	// ratio was reported as 0 instead of dividing by zero.
	MarginUndefined bool `json:"marginUndefined,omitempty"`

	Trend       []YearSummary      `json:"trend,omitempty"`
	TopProducts []ProductSummary   `json:"topProducts,omitempty"`
	Segments    []CustomerSegment  `json:"segments,omitempty"`
	Correlation *CorrelationMatrix `json:"correlation,omitempty"`
	Report      *FullReport        `json:"report,omitempty"`

	GeneratedAt time.Time `json:"generatedAt"`
}

// YearSummary is one yearly entry of a revenue trend.
// Growth is nil for the first year in range: there is no prior year to
// compare against, and omitting it is distinct from reporting zero growth.
type YearSummary struct {
	Year      int      `json:"year"`
	Revenue   float64  `json:"revenue"`
	Profit    float64  `json:"profit"`
	Cost      float64  `json:"cost"`
	Margin    float64  `json:"margin"`
	Orders    int      `json:"orders"`
	Customers int      `json:"customers"`
	Growth    *float64 `json:"growth,omitempty"`
}

// ProductSummary is one entry of a top-products ranking.
type ProductSummary struct {
	Product string  `json:"product"`
	Revenue float64 `json:"revenue"`
	Profit  float64 `json:"profit"`
	Orders  int     `json:"orders"`
}

// CustomerSegment is one RFM bucket with its aggregate footprint.
type CustomerSegment struct {
	Name       string  `json:"name"`
	Customers  int     `json:"customers"`
	Revenue    float64 `json:"revenue"`
	AvgRecency float64 `json:"avgRecencyDays"`
	AvgOrders  float64 `json:"avgOrders"`
}

// CorrelationMatrix holds pairwise Pearson coefficients over the numeric
// columns, rounded to 4 decimal places. Coefficients[i][j] pairs
// Columns[i] with Columns[j].
type CorrelationMatrix struct {
	Columns      []string    `json:"columns"`
	Coefficients [][]float64 `json:"coefficients"`
}

// FullReport composes the other sections for a full-report query.
type FullReport struct {
	Trend       []YearSummary      `json:"trend"`
	TopProducts []ProductSummary   `json:"topProducts"`
	Segments    []CustomerSegment  `json:"segments"`
	Correlation *CorrelationMatrix `json:"correlation"`
}

// Vocabulary is the static snapshot of known dimension values the
// classifier and dispatcher validate against.
type Vocabulary struct {
	MinYear    int      `json:"minYear"`
	MaxYear    int      `json:"maxYear"`
	Products   []string `json:"products"`
	Categories []string `json:"categories"`
	Countries  []string `json:"countries"`
}
