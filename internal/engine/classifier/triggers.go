// internal/engine/classifier/triggers.go
package classifier

import "sales-insights/internal/models"

// trigger is one weighted phrase. Multiword phrases match as substrings of
// the normalized utterance; single words match whole tokens only, so "top"
// never fires inside "laptop".
type trigger struct {
	phrase string
	weight float64
}

// intentSpec binds an intent to its trigger set. The slice order below is
// the fixed tie-break priority: financial intents before product intents
// before segmentation, correlation and the generic report.
type intentSpec struct {
	intent   models.Intent
	triggers []trigger
}

var intentTable = []intentSpec{
	{
		intent: models.IntentProfitMargin,
		triggers: []trigger{
			{"profit margin", 2.0},
			{"profitability", 1.5},
			{"margin", 1.2},
			{"markup", 1.0},
			{"profit", 0.8},
		},
	},
	{
		intent: models.IntentRevenueTrend,
		triggers: []trigger{
			{"revenue trend", 2.0},
			{"sales trend", 2.0},
			{"year over year", 1.5},
			{"growth", 1.5},
			{"trend", 1.2},
			{"over time", 1.0},
			{"revenue", 0.5},
		},
	},
	{
		intent: models.IntentTopProducts,
		triggers: []trigger{
			{"top product", 2.0},
			{"best seller", 2.0},
			{"best selling", 2.0},
			{"best performing", 1.5},
			{"highest revenue", 1.5},
			{"top", 1.0},
		},
	},
	{
		intent: models.IntentCustomerSegmentation,
		triggers: []trigger{
			{"customer segment", 2.5},
			{"segmentation", 2.0},
			{"segment", 2.0},
			{"rfm", 2.0},
			{"customer analysis", 1.5},
			{"loyal", 1.0},
			{"customer", 0.5},
		},
	},
	{
		intent: models.IntentCorrelation,
		triggers: []trigger{
			{"correlation", 2.0},
			{"correlate", 2.0},
			{"correlated", 2.0},
			{"relationship between", 1.5},
			{"related to", 1.0},
		},
	},
	{
		intent: models.IntentFullReport,
		triggers: []trigger{
			{"full report", 2.5},
			{"full analysis", 2.0},
			{"complete analysis", 2.0},
			{"analyze everything", 1.5},
			{"report", 1.2},
			{"overview", 1.0},
			{"summary", 1.0},
			{"analysis", 0.8},
		},
	},
}

// ExampleQueries is the static hint list returned with
// UNRECOGNIZED_INTENT errors.
var ExampleQueries = []string{
	"What was the profit margin in 2015?",
	"Show me revenue trends from 2013 to 2016",
	"What were the top 5 products in 2016?",
	"Segment our customers by purchase behavior",
	"Show the correlation between revenue and quantity",
	"Give me a full report for 2015",
}
