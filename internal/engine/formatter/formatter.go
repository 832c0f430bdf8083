// internal/engine/formatter/formatter.go

// Package formatter renders a query result as plain text without calling
// any external service. It is the deterministic fallback when narration is
// disabled or unavailable, so the same result must always produce the same
// string.
package formatter

import (
	"fmt"
	"strings"

	"sales-insights/internal/models"
)

type Formatter struct{}

func New() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Format(result *models.QueryResult) string {
	if result.RowCount == 0 {
		return fmt.Sprintf("No matching data found %s.", describeScope(result.Parameters))
	}

	switch result.Intent {
	case models.IntentProfitMargin:
		return f.formatMargin(result)
	case models.IntentRevenueTrend:
		return f.formatTrend(result)
	case models.IntentTopProducts:
		return f.formatTopProducts(result)
	case models.IntentCustomerSegmentation:
		return f.formatSegments(result)
	case models.IntentCorrelation:
		return f.formatCorrelation(result)
	case models.IntentFullReport:
		return f.formatFullReport(result)
	default:
		return f.formatMargin(result)
	}
}

func (f *Formatter) formatMargin(result *models.QueryResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Profit margin %s:\n", describeScope(result.Parameters))
	fmt.Fprintf(&b, "- Revenue: %s\n", Currency(result.Metrics["revenue"]))
	fmt.Fprintf(&b, "- Cost: %s\n", Currency(result.Metrics["cost"]))
	fmt.Fprintf(&b, "- Profit: %s\n", Currency(result.Metrics["profit"]))
	if result.MarginUndefined {
		b.WriteString("- Margin: undefined (no revenue)\n")
	} else {
		fmt.Fprintf(&b, "- Margin: %s\n", Percent(result.Metrics["margin"]))
	}
	fmt.Fprintf(&b, "Based on %d orders from %d customers.", int(result.Metrics["orders"]), int(result.Metrics["customers"]))
	return b.String()
}

func (f *Formatter) formatTrend(result *models.QueryResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Revenue trend %s:\n", describeScope(result.Parameters))
	writeTrend(&b, result.Trend)
	return strings.TrimRight(b.String(), "\n")
}

func writeTrend(b *strings.Builder, trend []models.YearSummary) {
	for _, y := range trend {
		if y.Growth != nil {
			fmt.Fprintf(b, "- %d: revenue %s, profit %s, growth %s\n",
				y.Year, Currency(y.Revenue), Currency(y.Profit), Percent(*y.Growth))
		} else {
			fmt.Fprintf(b, "- %d: revenue %s, profit %s\n",
				y.Year, Currency(y.Revenue), Currency(y.Profit))
		}
	}
}

func (f *Formatter) formatTopProducts(result *models.QueryResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Top %d products %s:\n", len(result.TopProducts), describeScope(result.Parameters))
	writeTopProducts(&b, result.TopProducts)
	return strings.TrimRight(b.String(), "\n")
}

func writeTopProducts(b *strings.Builder, products []models.ProductSummary) {
	for i, p := range products {
		fmt.Fprintf(b, "%d. %s: revenue %s, profit %s, %d orders\n",
			i+1, p.Product, Currency(p.Revenue), Currency(p.Profit), p.Orders)
	}
}

func (f *Formatter) formatSegments(result *models.QueryResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Customer segments %s:\n", describeScope(result.Parameters))
	writeSegments(&b, result.Segments)
	return strings.TrimRight(b.String(), "\n")
}

func writeSegments(b *strings.Builder, segments []models.CustomerSegment) {
	for _, s := range segments {
		fmt.Fprintf(b, "- %s: %d customers, revenue %s, avg %.2f orders, avg recency %.2f days\n",
			s.Name, s.Customers, Currency(s.Revenue), s.AvgOrders, s.AvgRecency)
	}
}

func (f *Formatter) formatCorrelation(result *models.QueryResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Correlation matrix %s:\n", describeScope(result.Parameters))
	writeCorrelation(&b, result.Correlation)
	return strings.TrimRight(b.String(), "\n")
}

func writeCorrelation(b *strings.Builder, m *models.CorrelationMatrix) {
	if m == nil {
		b.WriteString("- not enough rows to correlate\n")
		return
	}
	for i, col := range m.Columns {
		for j := i + 1; j < len(m.Columns); j++ {
			fmt.Fprintf(b, "- %s vs %s: %.4f\n", col, m.Columns[j], m.Coefficients[i][j])
		}
	}
}

func (f *Formatter) formatFullReport(result *models.QueryResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Full report %s:\n\n", describeScope(result.Parameters))

	fmt.Fprintf(&b, "Totals: revenue %s, cost %s, profit %s",
		Currency(result.Metrics["revenue"]), Currency(result.Metrics["cost"]), Currency(result.Metrics["profit"]))
	if !result.MarginUndefined {
		fmt.Fprintf(&b, ", margin %s", Percent(result.Metrics["margin"]))
	}
	b.WriteString("\n\n")

	if result.Report == nil {
		return strings.TrimRight(b.String(), "\n")
	}

	b.WriteString("Trend:\n")
	writeTrend(&b, result.Report.Trend)
	b.WriteString("\nTop products:\n")
	writeTopProducts(&b, result.Report.TopProducts)
	b.WriteString("\nCustomer segments:\n")
	writeSegments(&b, result.Report.Segments)
	b.WriteString("\nCorrelations:\n")
	writeCorrelation(&b, result.Report.Correlation)

	return strings.TrimRight(b.String(), "\n")
}

// describeScope renders the descriptor's year and filter as a suffix like
// "for Bikes in 2015" or "across all years".
func describeScope(desc models.QueryDescriptor) string {
	var parts []string
	if desc.Filter != nil {
		parts = append(parts, "for "+desc.Filter.Value)
	}
	switch {
	case desc.YearRange != nil:
		parts = append(parts, fmt.Sprintf("from %d to %d", desc.YearRange.Start, desc.YearRange.End))
	case desc.Year != nil:
		parts = append(parts, fmt.Sprintf("in %d", *desc.Year))
	default:
		parts = append(parts, "across all years")
	}
	return strings.Join(parts, " ")
}
