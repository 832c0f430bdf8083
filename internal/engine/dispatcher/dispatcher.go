// internal/engine/dispatcher/dispatcher.go

// Package dispatcher routes a classified utterance through parameter
// validation, execution, caching and rendering. It is the only component
// that sees the whole pipeline, so every rejection and fallback is decided
// here.
package dispatcher

import (
	"context"
	"time"

	"sales-insights/internal/cache"
	"sales-insights/internal/common/config"
	apperrors "sales-insights/internal/common/errors"
	"sales-insights/internal/common/logger"
	"sales-insights/internal/common/metrics"
	"sales-insights/internal/common/observability"
	"sales-insights/internal/engine/classifier"
	"sales-insights/internal/engine/formatter"
	"sales-insights/internal/models"
	"sales-insights/internal/narration"
	"sales-insights/internal/session"
	"sales-insights/internal/store"
)

const suggestionLimit = 5

// IntentClassifier resolves an utterance to an intent plus raw parameters.
type IntentClassifier interface {
	Classify(utterance string) classifier.Classification
}

// QueryExecutor runs a validated descriptor against a dataset snapshot.
type QueryExecutor interface {
	Execute(desc models.QueryDescriptor, ds *store.Dataset) (*models.QueryResult, error)
}

type Dispatcher struct {
	store      *store.Store
	classifier IntentClassifier
	executor   QueryExecutor
	formatter  *formatter.Formatter
	narrator   narration.Narrator // nil disables narration
	cache      cache.ResultCache  // nil disables caching
	obs        *observability.Observability
	logger     logger.Logger
	config     config.EngineConfig
}

func New(
	st *store.Store,
	cls IntentClassifier,
	exec QueryExecutor,
	fmtr *formatter.Formatter,
	narrator narration.Narrator,
	resultCache cache.ResultCache,
	obs *observability.Observability,
	log logger.Logger,
	cfg config.EngineConfig,
) *Dispatcher {
	return &Dispatcher{
		store:      st,
		classifier: cls,
		executor:   exec,
		formatter:  fmtr,
		narrator:   narrator,
		cache:      resultCache,
		obs:        obs,
		logger: log.With(map[string]interface{}{
			"component": "dispatcher",
		}),
		config: cfg,
	}
}

// Process runs one utterance end to end and always returns a renderable
// response: rejections become structured ErrorResults, never Go errors.
func (d *Dispatcher) Process(ctx context.Context, utterance string, sess *session.State) *models.Response {
	sess.BeginQuery()
	defer sess.EndQuery()

	start := time.Now()

	snapshot, err := d.store.Snapshot()
	if err != nil {
		stdErr, ok := err.(*apperrors.StandardError)
		if !ok {
			stdErr = apperrors.NewDatasetNotLoadedError(err.Error())
		}
		return d.reject(sess, utterance, models.IntentUnknown, 0, stdErr, start)
	}

	cls := d.classifier.Classify(utterance)
	if cls.Intent == models.IntentUnknown {
		stdErr := apperrors.NewUnrecognizedIntentError(classifier.ExampleQueries)
		return d.reject(sess, utterance, models.IntentUnknown, 0, stdErr, start)
	}

	desc, stdErr := d.buildDescriptor(cls, snapshot)
	if stdErr != nil {
		return d.reject(sess, utterance, cls.Intent, cls.Confidence, stdErr, start)
	}

	result, fromCache := d.lookupCache(ctx, desc)
	if result == nil {
		result, err = d.executor.Execute(desc, snapshot)
		if err != nil {
			d.logger.Error("execution failed", map[string]interface{}{
				"intent": string(desc.Intent),
				"error":  err.Error(),
			})
			stdErr = apperrors.NewInvalidRequestError(err.Error())
			return d.reject(sess, utterance, cls.Intent, cls.Confidence, stdErr, start)
		}
		d.storeCache(ctx, desc, result)
	}

	text, narrated := d.render(ctx, utterance, result)

	duration := time.Since(start)
	metrics.QueriesProcessed.WithLabelValues(string(desc.Intent)).Inc()
	metrics.QueryDuration.WithLabelValues(string(desc.Intent)).Observe(duration.Seconds())
	if d.obs != nil {
		d.obs.RecordQueryProcessed(ctx, string(desc.Intent))
		d.obs.RecordQueryDuration(ctx, duration, string(desc.Intent))
	}

	sess.Append(models.ConversationTurn{
		Utterance:    utterance,
		Descriptor:   &desc,
		Result:       result,
		ResponseText: text,
	})

	d.logger.Info("utterance processed", map[string]interface{}{
		"intent":     string(desc.Intent),
		"confidence": cls.Confidence,
		"rowCount":   result.RowCount,
		"fromCache":  fromCache,
		"narrated":   narrated,
		"durationMs": duration.Milliseconds(),
	})

	return &models.Response{
		Text:   text,
		Result: result,
		Metadata: models.Metadata{
			Intent:     desc.Intent,
			Confidence: cls.Confidence,
			Parameters: &desc,
			Narrated:   narrated,
			FromCache:  fromCache,
			DurationMS: duration.Milliseconds(),
		},
	}
}

// buildDescriptor validates the classifier's raw parameters against the
// dataset and fills in defaults. A reversed year range is treated as a
// phrasing quirk and swapped rather than rejected.
func (d *Dispatcher) buildDescriptor(cls classifier.Classification, ds *store.Dataset) (models.QueryDescriptor, *apperrors.StandardError) {
	minYear, maxYear := ds.Years()
	desc := models.QueryDescriptor{Intent: cls.Intent}

	if cls.Params.Filter != nil {
		desc.Filter = cls.Params.Filter
	} else if cls.Params.FilterRaw != "" {
		suggestions := ds.SuggestFilterValues(cls.Params.FilterRaw, suggestionLimit)
		return desc, apperrors.NewUnknownFilterValueError(cls.Params.FilterRaw, suggestions)
	}

	switch {
	case cls.Params.YearRange != nil:
		rng := *cls.Params.YearRange
		if rng.Start > rng.End {
			rng.Start, rng.End = rng.End, rng.Start
		}
		for _, y := range []int{rng.Start, rng.End} {
			if y < minYear || y > maxYear {
				return desc, apperrors.NewOutOfRangeParameterError(y, minYear, maxYear)
			}
		}
		desc.YearRange = &rng
	case cls.Params.Year != nil:
		y := *cls.Params.Year
		if y < minYear || y > maxYear {
			return desc, apperrors.NewOutOfRangeParameterError(y, minYear, maxYear)
		}
		desc.Year = &y
	default:
		if yearScoped(cls.Intent) {
			y := mostRecentCompleteYear(ds)
			desc.Year = &y
		}
	}

	if cls.Intent == models.IntentTopProducts {
		desc.Limit = cls.Params.Limit
		if desc.Limit <= 0 {
			desc.Limit = d.config.DefaultTopLimit
		}
		if d.config.MaxTopLimit > 0 && desc.Limit > d.config.MaxTopLimit {
			desc.Limit = d.config.MaxTopLimit
		}
	}

	return desc, nil
}

// yearScoped intents answer about a single period, so an unscoped question
// defaults to the most recent complete year. Trend, segmentation,
// correlation and the full report default to the whole dataset instead.
func yearScoped(intent models.Intent) bool {
	return intent == models.IntentProfitMargin || intent == models.IntentTopProducts
}

// mostRecentCompleteYear returns the newest year whose final day is covered
// by the dataset, falling back to the newest year when the dataset only has
// a partial one.
func mostRecentCompleteYear(ds *store.Dataset) int {
	minYear, maxYear := ds.Years()
	maxDate := ds.MaxDate()
	lastDay := time.Date(maxYear, time.December, 31, 0, 0, 0, 0, time.UTC)
	if maxDate.Before(lastDay) && maxYear-1 >= minYear {
		return maxYear - 1
	}
	return maxYear
}

func (d *Dispatcher) lookupCache(ctx context.Context, desc models.QueryDescriptor) (*models.QueryResult, bool) {
	if d.cache == nil {
		return nil, false
	}
	result, ok := d.cache.Get(ctx, desc.CacheKey())
	if !ok {
		return nil, false
	}
	metrics.CacheHits.Inc()
	return result, true
}

func (d *Dispatcher) storeCache(ctx context.Context, desc models.QueryDescriptor, result *models.QueryResult) {
	if d.cache == nil {
		return
	}
	d.cache.Set(ctx, desc.CacheKey(), result)
}

// render narrates when a narrator is wired, falling back to the
// deterministic formatter on any narration failure. Narration errors are
// counted and logged but never surfaced.
func (d *Dispatcher) render(ctx context.Context, utterance string, result *models.QueryResult) (string, bool) {
	if d.narrator == nil {
		return d.formatter.Format(result), false
	}

	text, err := d.narrator.Narrate(ctx, utterance, result)
	if err != nil {
		stdErr := apperrors.NewNarrationUnavailableError(err)
		metrics.NarrationFallbacks.Inc()
		d.logger.Warn(stdErr.Message, map[string]interface{}{
			"code":  string(stdErr.Code),
			"error": err.Error(),
		})
		return d.formatter.Format(result), false
	}
	return text, true
}

// reject renders a structured error response and still records the turn so
// the session history reflects the full conversation.
func (d *Dispatcher) reject(sess *session.State, utterance string, intent models.Intent, confidence float64, stdErr *apperrors.StandardError, start time.Time) *models.Response {
	metrics.QueryErrors.WithLabelValues(string(stdErr.Code)).Inc()
	d.logger.Info("utterance rejected", map[string]interface{}{
		"code":      string(stdErr.Code),
		"utterance": utterance,
	})

	text := stdErr.Message
	resp := &models.Response{
		Text: text,
		Error: &models.ErrorResult{
			Kind:        string(stdErr.Code),
			Message:     stdErr.Message,
			Hint:        stdErr.Hint,
			Suggestions: stdErr.Suggestions,
		},
		Metadata: models.Metadata{
			Intent:     intent,
			Confidence: confidence,
			DurationMS: time.Since(start).Milliseconds(),
		},
	}

	sess.Append(models.ConversationTurn{
		Utterance:    utterance,
		ResponseText: text,
	})

	return resp
}
