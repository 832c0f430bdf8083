// internal/store/store.go

// Package store owns the prepared dataset for the session lifetime and
// exposes read-only aggregation primitives to the query executor. The
// dataset is immutable once built; a reload swaps the snapshot pointer
// atomically so in-flight reads keep a consistent view.
package store

import (
	"sort"
	"strings"
	"time"

	"sales-insights/internal/common/errors"
	"sales-insights/internal/models"
)

// Dataset is a date-ordered, immutable collection of records plus the
// vocabulary derived from it.
type Dataset struct {
	records []models.Record

	minYear int
	maxYear int
	maxDate time.Time

	products   []string
	categories []string
	countries  []string

	// lowercase value -> canonical value, for case-insensitive filter lookup
	productIndex  map[string]string
	categoryIndex map[string]string
	countryIndex  map[string]string
}

// NewDataset builds a snapshot from prepared records. Records are sorted
// by date; an empty input is the fatal dataset-not-loaded condition.
func NewDataset(records []models.Record) (*Dataset, error) {
	if len(records) == 0 {
		return nil, errors.NewDatasetNotLoadedError("no records after preparation")
	}

	sorted := make([]models.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	ds := &Dataset{
		records:       sorted,
		minYear:       sorted[0].Year(),
		maxYear:       sorted[len(sorted)-1].Year(),
		maxDate:       sorted[len(sorted)-1].Date,
		productIndex:  make(map[string]string),
		categoryIndex: make(map[string]string),
		countryIndex:  make(map[string]string),
	}

	for _, r := range sorted {
		if r.Product != "" {
			ds.productIndex[strings.ToLower(r.Product)] = r.Product
		}
		if r.Category != "" {
			ds.categoryIndex[strings.ToLower(r.Category)] = r.Category
		}
		if r.Country != "" {
			ds.countryIndex[strings.ToLower(r.Country)] = r.Country
		}
	}

	ds.products = sortedValues(ds.productIndex)
	ds.categories = sortedValues(ds.categoryIndex)
	ds.countries = sortedValues(ds.countryIndex)

	return ds, nil
}

func sortedValues(index map[string]string) []string {
	out := make([]string, 0, len(index))
	for _, v := range index {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Records returns the backing slice. Callers must treat it as read-only.
func (d *Dataset) Records() []models.Record {
	return d.records
}

// Len returns the number of records in the snapshot.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Years returns the inclusive year bounds covered by the dataset.
func (d *Dataset) Years() (min, max int) {
	return d.minYear, d.maxYear
}

// MaxDate returns the latest transaction date, the anchor for RFM recency.
func (d *Dataset) MaxDate() time.Time {
	return d.maxDate
}

// Vocabulary returns the static snapshot of known dimension values.
func (d *Dataset) Vocabulary() models.Vocabulary {
	return models.Vocabulary{
		MinYear:    d.minYear,
		MaxYear:    d.maxYear,
		Products:   d.products,
		Categories: d.categories,
		Countries:  d.countries,
	}
}

// LookupFilter resolves a raw value against the vocabulary
// case-insensitively. Products win over categories, categories over
// countries, when a value exists in more than one dimension.
func (d *Dataset) LookupFilter(value string) (*models.Filter, bool) {
	key := strings.ToLower(strings.TrimSpace(value))
	if canonical, ok := d.productIndex[key]; ok {
		return &models.Filter{Field: models.FilterProduct, Value: canonical}, true
	}
	if canonical, ok := d.categoryIndex[key]; ok {
		return &models.Filter{Field: models.FilterCategory, Value: canonical}, true
	}
	if canonical, ok := d.countryIndex[key]; ok {
		return &models.Filter{Field: models.FilterCountry, Value: canonical}, true
	}
	return nil, false
}

// SuggestFilterValues returns vocabulary values containing the given text,
// case-insensitively, across all dimensions. Used for nearest-match hints
// on unknown filter values; may return an empty slice.
func (d *Dataset) SuggestFilterValues(value string, limit int) []string {
	needle := strings.ToLower(strings.TrimSpace(value))
	if needle == "" {
		return nil
	}

	var out []string
	for _, vocab := range [][]string{d.products, d.categories, d.countries} {
		for _, v := range vocab {
			if strings.Contains(strings.ToLower(v), needle) {
				out = append(out, v)
				if len(out) >= limit {
					return out
				}
			}
		}
	}
	return out
}

// Select returns the records matching the descriptor's year/range/filter
// constraints. A nil year and range selects the whole dataset.
func (d *Dataset) Select(desc models.QueryDescriptor) []models.Record {
	out := make([]models.Record, 0, len(d.records))
	for _, r := range d.records {
		if desc.Year != nil && r.Year() != *desc.Year {
			continue
		}
		if desc.YearRange != nil {
			y := r.Year()
			if y < desc.YearRange.Start || y > desc.YearRange.End {
				continue
			}
		}
		if desc.Filter != nil && !matchesFilter(r, *desc.Filter) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesFilter(r models.Record, f models.Filter) bool {
	switch f.Field {
	case models.FilterProduct:
		return strings.EqualFold(r.Product, f.Value)
	case models.FilterCategory:
		return strings.EqualFold(r.Category, f.Value)
	case models.FilterCountry:
		return strings.EqualFold(r.Country, f.Value)
	default:
		return false
	}
}
