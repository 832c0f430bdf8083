// internal/dataprep/loader.go

// Package dataprep is the boundary to the data-preparation collaborator.
// It loads the prepared CSV export, enforces the profit invariant, and
// hands ordered records to the store. Cleaning and feature engineering
// happen upstream; rows that still fail basic checks are skipped and
// counted rather than aborting the load.
package dataprep

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"sales-insights/internal/common/errors"
	"sales-insights/internal/common/logger"
	"sales-insights/internal/models"
)

// profitTolerance absorbs per-row rounding in the prepared export.
const profitTolerance = 0.01

// Report summarizes one load.
type Report struct {
	Rows        int
	Skipped     int
	MinDate     time.Time
	MaxDate     time.Time
}

type Loader struct {
	dateFormat string
	logger     logger.Logger
}

func NewLoader(dateFormat string, log logger.Logger) *Loader {
	if dateFormat == "" {
		dateFormat = "02/01/2006"
	}
	return &Loader{
		dateFormat: dateFormat,
		logger:     log.With(map[string]interface{}{"component": "dataprep"}),
	}
}

// LoadFile reads the prepared CSV at path. A missing file or an export
// with no usable rows is fatal.
func (l *Loader) LoadFile(path string) ([]models.Record, *Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.NewDatasetNotLoadedError(fmt.Sprintf("open %s: %v", path, err))
	}
	defer f.Close()

	return l.Load(f)
}

// Load parses CSV content. The header row maps columns by name, so the
// export's column order does not matter.
func (l *Loader) Load(r io.Reader) ([]models.Record, *Report, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, errors.NewDatasetCorruptedError(fmt.Sprintf("read header: %v", err))
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, nil, err
	}

	var records []models.Record
	report := &Report{}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			report.Skipped++
			continue
		}

		rec, err := l.parseRow(row, cols)
		if err != nil {
			report.Skipped++
			continue
		}

		if report.Rows == 0 || rec.Date.Before(report.MinDate) {
			report.MinDate = rec.Date
		}
		if report.Rows == 0 || rec.Date.After(report.MaxDate) {
			report.MaxDate = rec.Date
		}
		records = append(records, rec)
		report.Rows++
	}

	if len(records) == 0 {
		return nil, nil, errors.NewDatasetNotLoadedError("no valid rows in export")
	}

	l.logger.Info("dataset loaded", map[string]interface{}{
		"rows":    report.Rows,
		"skipped": report.Skipped,
		"from":    report.MinDate.Format("2006-01-02"),
		"to":      report.MaxDate.Format("2006-01-02"),
	})

	return records, report, nil
}

type columnIndex struct {
	date, revenue, cost, profit, quantity       int
	product, category, age, gender, country, st int
}

var requiredColumns = []string{
	"Date", "Revenue", "Cost", "Profit", "Order_Quantity",
	"Product", "Product_Category", "Customer_Age", "Customer_Gender",
	"Country", "State",
}

func mapColumns(header []string) (*columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[strings.TrimSpace(name)] = i
	}

	for _, name := range requiredColumns {
		if _, ok := pos[name]; !ok {
			return nil, errors.NewDatasetCorruptedError(fmt.Sprintf("missing column %q", name))
		}
	}

	return &columnIndex{
		date:     pos["Date"],
		revenue:  pos["Revenue"],
		cost:     pos["Cost"],
		profit:   pos["Profit"],
		quantity: pos["Order_Quantity"],
		product:  pos["Product"],
		category: pos["Product_Category"],
		age:      pos["Customer_Age"],
		gender:   pos["Customer_Gender"],
		country:  pos["Country"],
		st:       pos["State"],
	}, nil
}

func (l *Loader) parseRow(row []string, cols *columnIndex) (models.Record, error) {
	var rec models.Record

	date, err := time.Parse(l.dateFormat, strings.TrimSpace(row[cols.date]))
	if err != nil {
		return rec, fmt.Errorf("date: %w", err)
	}

	revenue, err := strconv.ParseFloat(strings.TrimSpace(row[cols.revenue]), 64)
	if err != nil {
		return rec, fmt.Errorf("revenue: %w", err)
	}
	cost, err := strconv.ParseFloat(strings.TrimSpace(row[cols.cost]), 64)
	if err != nil {
		return rec, fmt.Errorf("cost: %w", err)
	}
	profit, err := strconv.ParseFloat(strings.TrimSpace(row[cols.profit]), 64)
	if err != nil {
		return rec, fmt.Errorf("profit: %w", err)
	}

	if math.Abs(profit-(revenue-cost)) > profitTolerance {
		return rec, fmt.Errorf("profit invariant violated: %.2f != %.2f - %.2f", profit, revenue, cost)
	}

	quantity, err := strconv.Atoi(strings.TrimSpace(row[cols.quantity]))
	if err != nil {
		return rec, fmt.Errorf("quantity: %w", err)
	}
	age, err := strconv.Atoi(strings.TrimSpace(row[cols.age]))
	if err != nil {
		return rec, fmt.Errorf("customer age: %w", err)
	}

	rec = models.Record{
		Date:           date,
		Revenue:        revenue,
		Cost:           cost,
		Profit:         profit,
		Quantity:       quantity,
		Product:        strings.TrimSpace(row[cols.product]),
		Category:       strings.TrimSpace(row[cols.category]),
		CustomerAge:    age,
		CustomerGender: parseGender(row[cols.gender]),
		Country:        strings.TrimSpace(row[cols.country]),
		State:          strings.TrimSpace(row[cols.st]),
	}
	return rec, nil
}

func parseGender(raw string) models.Gender {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "F", "FEMALE":
		return models.GenderFemale
	case "M", "MALE":
		return models.GenderMale
	default:
		return models.GenderUnknown
	}
}
