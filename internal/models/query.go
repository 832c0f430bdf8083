// internal/models/query.go
package models

import (
	"fmt"
	"strings"
)

// Intent is the classified category of a user request. The set is closed:
// utterances that match nothing classify as IntentUnknown.
type Intent string

const (
	IntentProfitMargin         Intent = "profit_margin_query"
	IntentRevenueTrend         Intent = "revenue_trend_query"
	IntentTopProducts          Intent = "top_products_query"
	IntentCustomerSegmentation Intent = "customer_segmentation_query"
	IntentCorrelation          Intent = "correlation_query"
	IntentFullReport           Intent = "full_report_query"
	IntentUnknown              Intent = "unknown"
)

// Metric names the scalar aggregates a query can request or report.
type Metric string

const (
	MetricRevenue   Metric = "revenue"
	MetricProfit    Metric = "profit"
	MetricCost      Metric = "cost"
	MetricMargin    Metric = "margin"
	MetricOrders    Metric = "orders"
	MetricCustomers Metric = "customers"
)

// FilterField identifies which vocabulary dimension a filter constrains.
type FilterField string

const (
	FilterProduct  FilterField = "product"
	FilterCategory FilterField = "category"
	FilterCountry  FilterField = "country"
)

// Filter narrows a query to rows matching one vocabulary value.
type Filter struct {
	Field FilterField `json:"field"`
	Value string      `json:"value"`
}

// YearRange is an inclusive span of calendar years.
// Invariant: Start <= End once validated by the dispatcher.
type YearRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// QueryDescriptor is the validated, structured representation of a request,
// ready for execution. Built by the dispatcher, consumed by the executor.
type QueryDescriptor struct {
	Intent    Intent     `json:"intent"`
	Year      *int       `json:"year,omitempty"`
	YearRange *YearRange `json:"yearRange,omitempty"`
	Metric    Metric     `json:"metric,omitempty"`
	Filter    *Filter    `json:"filter,omitempty"`
	Limit     int        `json:"limit,omitempty"`
}

// CacheKey renders a canonical, order-stable key for result caching.
func (d QueryDescriptor) CacheKey() string {
	parts := []string{string(d.Intent)}
	if d.Year != nil {
		parts = append(parts, fmt.Sprintf("y=%d", *d.Year))
	}
	if d.YearRange != nil {
		parts = append(parts, fmt.Sprintf("r=%d-%d", d.YearRange.Start, d.YearRange.End))
	}
	if d.Metric != "" {
		parts = append(parts, "m="+string(d.Metric))
	}
	if d.Filter != nil {
		parts = append(parts, fmt.Sprintf("f=%s:%s", d.Filter.Field, strings.ToLower(d.Filter.Value)))
	}
	if d.Limit > 0 {
		parts = append(parts, fmt.Sprintf("n=%d", d.Limit))
	}
	return "insights:query:" + strings.Join(parts, "|")
}
