// internal/engine/executor/executor.go

// Package executor runs deterministic aggregations over a dataset
// snapshot. Execution is pure with respect to the dataset: the snapshot is
// read-only and the same descriptor over the same snapshot always yields
// the same result (excluding the generation timestamp).
package executor

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"sales-insights/internal/models"
	"sales-insights/internal/store"
)

var ErrUnsupportedIntent = errors.New("UNSUPPORTED_INTENT")

type Executor struct{}

func New() *Executor {
	return &Executor{}
}

// Execute dispatches the descriptor to its aggregation. An empty filtered
// row set is not an error: it yields a zeroed result with RowCount 0 so
// callers can render "no data" without special-casing.
func (e *Executor) Execute(desc models.QueryDescriptor, ds *store.Dataset) (*models.QueryResult, error) {
	switch desc.Intent {
	case models.IntentProfitMargin:
		return e.profitMargin(desc, ds), nil
	case models.IntentRevenueTrend:
		return e.revenueTrend(desc, ds), nil
	case models.IntentTopProducts:
		return e.topProducts(desc, ds), nil
	case models.IntentCustomerSegmentation:
		return e.customerSegmentation(desc, ds), nil
	case models.IntentCorrelation:
		return e.correlation(desc, ds), nil
	case models.IntentFullReport:
		return e.fullReport(desc, ds), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedIntent, desc.Intent)
	}
}

// totals are the scalar aggregates shared by every intent.
type totals struct {
	revenue, cost, profit float64
	orders                int
	customers             int
	margin                float64
	marginUndefined       bool
}

func aggregate(rows []models.Record) totals {
	var t totals
	customers := make(map[string]bool)
	for _, r := range rows {
		t.revenue += r.Revenue
		t.cost += r.Cost
		t.profit += r.Profit
		t.orders++
		customers[r.CustomerKey()] = true
	}
	t.customers = len(customers)

	if t.revenue > 0 {
		// Ratio, not percentage: conversion happens at formatting time.
		t.margin = t.profit / t.revenue
	} else {
		t.marginUndefined = true
	}
	return t
}

func newResult(desc models.QueryDescriptor, t totals, rowCount int) *models.QueryResult {
	return &models.QueryResult{
		Intent:     desc.Intent,
		Parameters: desc,
		Metrics: map[string]float64{
			string(models.MetricRevenue):   t.revenue,
			string(models.MetricCost):      t.cost,
			string(models.MetricProfit):    t.profit,
			string(models.MetricMargin):    t.margin,
			string(models.MetricOrders):    float64(t.orders),
			string(models.MetricCustomers): float64(t.customers),
		},
		RowCount:        rowCount,
		MarginUndefined: t.marginUndefined,
		GeneratedAt:     time.Now().UTC(),
	}
}

func (e *Executor) profitMargin(desc models.QueryDescriptor, ds *store.Dataset) *models.QueryResult {
	rows := ds.Select(desc)
	return newResult(desc, aggregate(rows), len(rows))
}

// revenueTrend computes one entry per year of the requested range. Years
// with no rows still appear, zeroed; growth is omitted (nil) for the first
// year and for any year whose predecessor had zero revenue.
func (e *Executor) revenueTrend(desc models.QueryDescriptor, ds *store.Dataset) *models.QueryResult {
	rng := trendRange(desc, ds)
	rows := ds.Select(desc)
	result := newResult(desc, aggregate(rows), len(rows))

	byYear := make(map[int][]models.Record)
	for _, r := range rows {
		byYear[r.Year()] = append(byYear[r.Year()], r)
	}

	var prevRevenue float64
	for y := rng.Start; y <= rng.End; y++ {
		t := aggregate(byYear[y])
		entry := models.YearSummary{
			Year:      y,
			Revenue:   t.revenue,
			Profit:    t.profit,
			Cost:      t.cost,
			Margin:    t.margin,
			Orders:    t.orders,
			Customers: t.customers,
		}
		if y > rng.Start && prevRevenue > 0 {
			growth := (t.revenue - prevRevenue) / prevRevenue
			entry.Growth = &growth
		}
		prevRevenue = t.revenue
		result.Trend = append(result.Trend, entry)
	}

	return result
}

func trendRange(desc models.QueryDescriptor, ds *store.Dataset) models.YearRange {
	if desc.YearRange != nil {
		return *desc.YearRange
	}
	if desc.Year != nil {
		return models.YearRange{Start: *desc.Year, End: *desc.Year}
	}
	min, max := ds.Years()
	return models.YearRange{Start: min, End: max}
}

// topProducts groups the filtered rows by product, sums revenue and profit,
// sorts descending by revenue with a stable ascending name tie-break, and
// truncates to the requested limit. Fewer distinct products than the limit
// yields fewer entries, never padding.
func (e *Executor) topProducts(desc models.QueryDescriptor, ds *store.Dataset) *models.QueryResult {
	rows := ds.Select(desc)
	result := newResult(desc, aggregate(rows), len(rows))

	type acc struct {
		revenue, profit float64
		orders          int
	}
	byProduct := make(map[string]*acc)
	for _, r := range rows {
		a := byProduct[r.Product]
		if a == nil {
			a = &acc{}
			byProduct[r.Product] = a
		}
		a.revenue += r.Revenue
		a.profit += r.Profit
		a.orders++
	}

	summaries := make([]models.ProductSummary, 0, len(byProduct))
	for product, a := range byProduct {
		summaries = append(summaries, models.ProductSummary{
			Product: product,
			Revenue: a.revenue,
			Profit:  a.profit,
			Orders:  a.orders,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Revenue != summaries[j].Revenue {
			return summaries[i].Revenue > summaries[j].Revenue
		}
		return summaries[i].Product < summaries[j].Product
	})

	limit := desc.Limit
	if limit <= 0 {
		limit = 5
	}
	if len(summaries) > limit {
		summaries = summaries[:limit]
	}
	result.TopProducts = summaries

	return result
}

func (e *Executor) customerSegmentation(desc models.QueryDescriptor, ds *store.Dataset) *models.QueryResult {
	rows := ds.Select(desc)
	result := newResult(desc, aggregate(rows), len(rows))
	result.Segments = segmentCustomers(rows, ds.MaxDate())
	return result
}

func (e *Executor) correlation(desc models.QueryDescriptor, ds *store.Dataset) *models.QueryResult {
	rows := ds.Select(desc)
	result := newResult(desc, aggregate(rows), len(rows))
	result.Correlation = correlationMatrix(rows)
	return result
}

// fullReport composes the other aggregations for the requested year/range.
func (e *Executor) fullReport(desc models.QueryDescriptor, ds *store.Dataset) *models.QueryResult {
	rows := ds.Select(desc)
	result := newResult(desc, aggregate(rows), len(rows))

	trendDesc := desc
	trendDesc.Intent = models.IntentRevenueTrend
	topDesc := desc
	topDesc.Intent = models.IntentTopProducts

	result.Report = &models.FullReport{
		Trend:       e.revenueTrend(trendDesc, ds).Trend,
		TopProducts: e.topProducts(topDesc, ds).TopProducts,
		Segments:    segmentCustomers(rows, ds.MaxDate()),
		Correlation: correlationMatrix(rows),
	}

	return result
}
