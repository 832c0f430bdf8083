// internal/engine/dispatcher/dispatcher_test.go
package dispatcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-insights/internal/common/config"
	"sales-insights/internal/common/logger"
	"sales-insights/internal/engine/classifier"
	"sales-insights/internal/engine/formatter"
	"sales-insights/internal/models"
	"sales-insights/internal/session"
	"sales-insights/internal/store"
)

// ==========================
// Spies
// ==========================

type stubClassifier struct {
	result classifier.Classification
}

func (s *stubClassifier) Classify(string) classifier.Classification {
	return s.result
}

type spyExecutor struct {
	calls    int
	lastDesc models.QueryDescriptor
	result   *models.QueryResult
	err      error
}

func (s *spyExecutor) Execute(desc models.QueryDescriptor, _ *store.Dataset) (*models.QueryResult, error) {
	s.calls++
	s.lastDesc = desc
	if s.err != nil {
		return nil, s.err
	}
	result := *s.result
	result.Parameters = desc
	return &result, nil
}

type stubNarrator struct {
	text  string
	err   error
	calls int
}

func (s *stubNarrator) Narrate(context.Context, string, *models.QueryResult) (string, error) {
	s.calls++
	return s.text, s.err
}

type mapCache struct {
	entries map[string]*models.QueryResult
	sets    int
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]*models.QueryResult)}
}

func (c *mapCache) Get(_ context.Context, key string) (*models.QueryResult, bool) {
	r, ok := c.entries[key]
	return r, ok
}

func (c *mapCache) Set(_ context.Context, key string, result *models.QueryResult) {
	c.entries[key] = result
	c.sets++
}

// ==========================
// Fixtures
// ==========================

func testDataset(t *testing.T, lastDate string) *store.Dataset {
	t.Helper()
	mk := func(date string, revenue float64) models.Record {
		d, err := time.Parse("2006-01-02", date)
		require.NoError(t, err)
		return models.Record{
			Date:           d,
			Revenue:        revenue,
			Cost:           revenue * 0.6,
			Profit:         revenue * 0.4,
			Quantity:       1,
			Product:        "Road Bike",
			Category:       "Bikes",
			CustomerAge:    30,
			CustomerGender: models.GenderMale,
			Country:        "Germany",
			State:          "Bavaria",
		}
	}
	ds, err := store.NewDataset([]models.Record{
		mk("2013-02-01", 100),
		mk("2015-06-15", 200),
		mk(lastDate, 300),
	})
	require.NoError(t, err)
	return ds
}

func engineConfig() config.EngineConfig {
	return config.EngineConfig{
		HistoryLimit:    50,
		MinIntentScore:  1.0,
		DefaultTopLimit: 5,
		MaxTopLimit:     50,
	}
}

func marginClassification(params classifier.RawParams) classifier.Classification {
	return classifier.Classification{
		Intent:     models.IntentProfitMargin,
		Params:     params,
		Confidence: 0.9,
	}
}

func marginResult() *models.QueryResult {
	return &models.QueryResult{
		Intent: models.IntentProfitMargin,
		Metrics: map[string]float64{
			"revenue": 300, "cost": 180, "profit": 120,
			"margin": 0.4, "orders": 1, "customers": 1,
		},
		RowCount:    1,
		GeneratedAt: time.Now().UTC(),
	}
}

func newTestDispatcher(t *testing.T, ds *store.Dataset, cls IntentClassifier, exec QueryExecutor, opts ...func(*Dispatcher)) *Dispatcher {
	t.Helper()
	d := New(store.New(ds), cls, exec, formatter.New(), nil, nil, nil, logger.NewTestLogger(t), engineConfig())
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func withNarrator(n *stubNarrator) func(*Dispatcher) {
	return func(d *Dispatcher) { d.narrator = n }
}

func withCache(c *mapCache) func(*Dispatcher) {
	return func(d *Dispatcher) { d.cache = c }
}

// ==========================
// Routing & Validation
// ==========================

func TestDispatcher_UnknownIntentNeverExecutes(t *testing.T) {
	exec := &spyExecutor{result: marginResult()}
	cls := &stubClassifier{result: classifier.Classification{Intent: models.IntentUnknown}}
	d := newTestDispatcher(t, testDataset(t, "2016-12-31"), cls, exec)
	sess := session.New("", 50)

	resp := d.Process(context.Background(), "hello there", sess)

	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNRECOGNIZED_INTENT", resp.Error.Kind)
	assert.Equal(t, classifier.ExampleQueries, resp.Error.Suggestions)
	assert.Nil(t, resp.Result)
	assert.Equal(t, 0, exec.calls, "executor must not run for unknown intents")
	assert.Equal(t, models.IntentUnknown, resp.Metadata.Intent)
	assert.Zero(t, resp.Metadata.Confidence)

	// The rejected turn still lands in the session history.
	assert.Equal(t, 1, sess.Len())
}

func TestDispatcher_YearOutOfRange(t *testing.T) {
	exec := &spyExecutor{result: marginResult()}
	year := 2020
	cls := &stubClassifier{result: marginClassification(classifier.RawParams{Year: &year})}
	d := newTestDispatcher(t, testDataset(t, "2016-12-31"), cls, exec)

	resp := d.Process(context.Background(), "profit margin in 2020", session.New("", 50))

	require.NotNil(t, resp.Error)
	assert.Equal(t, "OUT_OF_RANGE_PARAMETER", resp.Error.Kind)
	assert.Contains(t, resp.Error.Message, "2020")
	assert.Contains(t, resp.Error.Message, "2013-2016")
	assert.Equal(t, 0, exec.calls)
}

func TestDispatcher_ReversedRangeSwapped(t *testing.T) {
	exec := &spyExecutor{result: marginResult()}
	cls := &stubClassifier{result: classifier.Classification{
		Intent:     models.IntentRevenueTrend,
		Params:     classifier.RawParams{YearRange: &models.YearRange{Start: 2016, End: 2013}},
		Confidence: 0.9,
	}}
	d := newTestDispatcher(t, testDataset(t, "2016-12-31"), cls, exec)

	resp := d.Process(context.Background(), "trend from 2016 to 2013", session.New("", 50))

	require.Nil(t, resp.Error)
	require.NotNil(t, exec.lastDesc.YearRange)
	assert.Equal(t, 2013, exec.lastDesc.YearRange.Start)
	assert.Equal(t, 2016, exec.lastDesc.YearRange.End)
}

func TestDispatcher_RangeBoundsChecked(t *testing.T) {
	exec := &spyExecutor{result: marginResult()}
	cls := &stubClassifier{result: classifier.Classification{
		Intent:     models.IntentRevenueTrend,
		Params:     classifier.RawParams{YearRange: &models.YearRange{Start: 2013, End: 2022}},
		Confidence: 0.9,
	}}
	d := newTestDispatcher(t, testDataset(t, "2016-12-31"), cls, exec)

	resp := d.Process(context.Background(), "trend from 2013 to 2022", session.New("", 50))

	require.NotNil(t, resp.Error)
	assert.Equal(t, "OUT_OF_RANGE_PARAMETER", resp.Error.Kind)
	assert.Equal(t, 0, exec.calls)
}

func TestDispatcher_DefaultYear(t *testing.T) {
	tests := []struct {
		name     string
		lastDate string
		expected int
	}{
		{"dataset ends on dec 31", "2016-12-31", 2016},
		{"partial final year falls back", "2016-07-01", 2015},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &spyExecutor{result: marginResult()}
			cls := &stubClassifier{result: marginClassification(classifier.RawParams{})}
			d := newTestDispatcher(t, testDataset(t, tt.lastDate), cls, exec)

			resp := d.Process(context.Background(), "what is our profit margin", session.New("", 50))

			require.Nil(t, resp.Error)
			require.NotNil(t, exec.lastDesc.Year)
			assert.Equal(t, tt.expected, *exec.lastDesc.Year)
		})
	}
}

func TestDispatcher_TrendWithoutYearSpansWholeDataset(t *testing.T) {
	exec := &spyExecutor{result: marginResult()}
	cls := &stubClassifier{result: classifier.Classification{
		Intent:     models.IntentRevenueTrend,
		Confidence: 0.9,
	}}
	d := newTestDispatcher(t, testDataset(t, "2016-07-01"), cls, exec)

	resp := d.Process(context.Background(), "revenue trend", session.New("", 50))

	require.Nil(t, resp.Error)
	assert.Nil(t, exec.lastDesc.Year)
	assert.Nil(t, exec.lastDesc.YearRange)
}

func TestDispatcher_UnknownFilterValue(t *testing.T) {
	exec := &spyExecutor{result: marginResult()}
	cls := &stubClassifier{result: marginClassification(classifier.RawParams{FilterRaw: "bike"})}
	d := newTestDispatcher(t, testDataset(t, "2016-12-31"), cls, exec)

	resp := d.Process(context.Background(), "profit margin for bike", session.New("", 50))

	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNKNOWN_FILTER_VALUE", resp.Error.Kind)
	assert.Contains(t, resp.Error.Suggestions, "Road Bike")
	assert.Equal(t, 0, exec.calls)
}

func TestDispatcher_TopLimitDefaultAndCap(t *testing.T) {
	tests := []struct {
		name     string
		limit    int
		expected int
	}{
		{"zero gets the default", 0, 5},
		{"explicit value kept", 8, 8},
		{"oversized clamped", 500, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &spyExecutor{result: marginResult()}
			cls := &stubClassifier{result: classifier.Classification{
				Intent:     models.IntentTopProducts,
				Params:     classifier.RawParams{Limit: tt.limit},
				Confidence: 0.9,
			}}
			d := newTestDispatcher(t, testDataset(t, "2016-12-31"), cls, exec)

			resp := d.Process(context.Background(), "top products", session.New("", 50))

			require.Nil(t, resp.Error)
			assert.Equal(t, tt.expected, exec.lastDesc.Limit)
		})
	}
}

// ==========================
// Rendering & Fallback
// ==========================

func TestDispatcher_NarrationSuccess(t *testing.T) {
	exec := &spyExecutor{result: marginResult()}
	cls := &stubClassifier{result: marginClassification(classifier.RawParams{})}
	narrator := &stubNarrator{text: "Margins held steady at 40%."}
	d := newTestDispatcher(t, testDataset(t, "2016-12-31"), cls, exec, withNarrator(narrator))

	resp := d.Process(context.Background(), "profit margin", session.New("", 50))

	require.Nil(t, resp.Error)
	assert.Equal(t, "Margins held steady at 40%.", resp.Text)
	assert.True(t, resp.Metadata.Narrated)
}

func TestDispatcher_NarrationFailureFallsBackToFormatter(t *testing.T) {
	exec := &spyExecutor{result: marginResult()}
	cls := &stubClassifier{result: marginClassification(classifier.RawParams{})}
	narrator := &stubNarrator{err: errors.New("service down")}
	d := newTestDispatcher(t, testDataset(t, "2016-12-31"), cls, exec, withNarrator(narrator))
	sess := session.New("", 50)

	resp := d.Process(context.Background(), "profit margin", sess)

	require.Nil(t, resp.Error, "narration failure must not surface as an error")
	assert.False(t, resp.Metadata.Narrated)
	assert.Contains(t, resp.Text, "$300.00")
	assert.Contains(t, resp.Text, "40.00%")
	assert.Equal(t, 1, narrator.calls)
	assert.Equal(t, 1, sess.Len())
}

func TestDispatcher_NoNarratorUsesFormatter(t *testing.T) {
	exec := &spyExecutor{result: marginResult()}
	cls := &stubClassifier{result: marginClassification(classifier.RawParams{})}
	d := newTestDispatcher(t, testDataset(t, "2016-12-31"), cls, exec)

	resp := d.Process(context.Background(), "profit margin", session.New("", 50))

	require.Nil(t, resp.Error)
	assert.False(t, resp.Metadata.Narrated)
	assert.Contains(t, resp.Text, "Profit margin")
}

// ==========================
// Caching & History
// ==========================

func TestDispatcher_CacheHitSkipsExecutor(t *testing.T) {
	exec := &spyExecutor{result: marginResult()}
	cls := &stubClassifier{result: marginClassification(classifier.RawParams{})}
	c := newMapCache()
	d := newTestDispatcher(t, testDataset(t, "2016-12-31"), cls, exec, withCache(c))

	first := d.Process(context.Background(), "profit margin", session.New("", 50))
	require.Nil(t, first.Error)
	assert.Equal(t, 1, exec.calls)
	assert.False(t, first.Metadata.FromCache)
	assert.Equal(t, 1, c.sets)

	second := d.Process(context.Background(), "profit margin", session.New("", 50))
	require.Nil(t, second.Error)
	assert.Equal(t, 1, exec.calls, "second identical query must come from cache")
	assert.True(t, second.Metadata.FromCache)
	assert.Equal(t, first.Text, second.Text)
}

func TestDispatcher_SessionHistoryRecordsDescriptorAndResult(t *testing.T) {
	exec := &spyExecutor{result: marginResult()}
	cls := &stubClassifier{result: marginClassification(classifier.RawParams{})}
	d := newTestDispatcher(t, testDataset(t, "2016-12-31"), cls, exec)
	sess := session.New("", 50)

	resp := d.Process(context.Background(), "profit margin", sess)
	require.Nil(t, resp.Error)

	turns := sess.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, "profit margin", turns[0].Utterance)
	require.NotNil(t, turns[0].Descriptor)
	assert.Equal(t, models.IntentProfitMargin, turns[0].Descriptor.Intent)
	require.NotNil(t, turns[0].Result)
	assert.Equal(t, resp.Text, turns[0].ResponseText)
}

func TestDispatcher_ExecutorErrorRejects(t *testing.T) {
	exec := &spyExecutor{err: errors.New("boom")}
	cls := &stubClassifier{result: marginClassification(classifier.RawParams{})}
	d := newTestDispatcher(t, testDataset(t, "2016-12-31"), cls, exec)

	resp := d.Process(context.Background(), "profit margin", session.New("", 50))

	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_REQUEST", resp.Error.Kind)
}

func TestDispatcher_NoDatasetLoaded(t *testing.T) {
	exec := &spyExecutor{result: marginResult()}
	cls := &stubClassifier{result: marginClassification(classifier.RawParams{})}
	d := New(store.New(nil), cls, exec, formatter.New(), nil, nil, nil, logger.NewTestLogger(t), engineConfig())

	resp := d.Process(context.Background(), "profit margin", session.New("", 50))

	require.NotNil(t, resp.Error)
	assert.Equal(t, "DATASET_NOT_LOADED", resp.Error.Kind)
	assert.Equal(t, 0, exec.calls)
}
