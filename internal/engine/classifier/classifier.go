// internal/engine/classifier/classifier.go

// Package classifier maps raw utterance text to one of a closed set of
// intents plus extracted parameters. Classification is a pure function
// over the utterance and a vocabulary snapshot taken at construction;
// it never errors and never touches the dataset.
package classifier

import (
	"regexp"
	"strconv"
	"strings"

	"sales-insights/internal/models"
)

const (
	// DefaultTopLimit applies when "top products" carries no count.
	DefaultTopLimit = 5
	// MaxTopLimit caps the requested result count.
	MaxTopLimit = 50
)

// RawParams are the parameters extracted from the utterance before the
// dispatcher validates them. Filter is set when the value resolved against
// the vocabulary; FilterRaw is set even when it did not, so the dispatcher
// can reject it with suggestions.
type RawParams struct {
	Year      *int
	YearRange *models.YearRange
	Limit     int
	Filter    *models.Filter
	FilterRaw string
}

// Classification is the outcome of classifying one utterance.
type Classification struct {
	Intent     models.Intent
	Params     RawParams
	Confidence float64
}

type Classifier struct {
	vocab    models.Vocabulary
	minScore float64
}

// New snapshots the vocabulary. minScore is the classification threshold;
// utterances scoring below it in every intent classify as unknown.
func New(vocab models.Vocabulary, minScore float64) *Classifier {
	if minScore <= 0 {
		minScore = 1.0
	}
	return &Classifier{vocab: vocab, minScore: minScore}
}

var (
	tokenRe     = regexp.MustCompile(`[a-z0-9']+`)
	yearRe      = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
	yearRangeRe = regexp.MustCompile(`(?:from|between)\s+((?:19|20)\d{2})\s+(?:to|and|until|through)\s+((?:19|20)\d{2})`)
	topLimitRe  = regexp.MustCompile(`\btop\s+(\d{1,3})\b`)
)

// Classify scores the utterance against every intent's trigger set and
// extracts intent-specific parameters. Ties keep the earlier, higher
// priority intent.
func (c *Classifier) Classify(utterance string) Classification {
	normalized := strings.ToLower(utterance)
	tokens := tokenSet(normalized)

	best := models.IntentUnknown
	bestScore := 0.0

	for _, spec := range intentTable {
		score := 0.0
		for _, t := range spec.triggers {
			if matchTrigger(normalized, tokens, t.phrase) {
				score += t.weight
			}
		}
		if score > bestScore {
			best = spec.intent
			bestScore = score
		}
	}

	if bestScore < c.minScore {
		return Classification{Intent: models.IntentUnknown, Confidence: 0}
	}

	confidence := bestScore / 2.5
	if confidence > 1.0 {
		confidence = 1.0
	}

	return Classification{
		Intent:     best,
		Params:     c.extractParams(best, normalized),
		Confidence: confidence,
	}
}

func tokenSet(normalized string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range tokenRe.FindAllString(normalized, -1) {
		set[tok] = true
	}
	return set
}

func matchTrigger(normalized string, tokens map[string]bool, phrase string) bool {
	if strings.Contains(phrase, " ") {
		return strings.Contains(normalized, phrase)
	}
	return tokens[phrase]
}

func (c *Classifier) extractParams(intent models.Intent, normalized string) RawParams {
	var params RawParams

	if m := yearRangeRe.FindStringSubmatch(normalized); m != nil {
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		params.YearRange = &models.YearRange{Start: start, End: end}
	} else if m := yearRe.FindStringSubmatch(normalized); m != nil {
		year, _ := strconv.Atoi(m[1])
		params.Year = &year
	}

	if intent == models.IntentTopProducts {
		params.Limit = DefaultTopLimit
		if m := topLimitRe.FindStringSubmatch(normalized); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				if n > MaxTopLimit {
					n = MaxTopLimit
				}
				params.Limit = n
			}
		}
	}

	params.Filter, params.FilterRaw = c.extractFilter(normalized)

	return params
}

// extractFilter first scans the vocabulary for the longest value contained
// in the utterance, then falls back to a "for <value>" pattern whose
// capture is kept unresolved for the dispatcher to reject with suggestions.
func (c *Classifier) extractFilter(normalized string) (*models.Filter, string) {
	type candidate struct {
		field models.FilterField
		value string
	}

	var best *candidate
	scan := func(field models.FilterField, values []string) {
		for _, v := range values {
			if len(v) < 3 {
				continue
			}
			if strings.Contains(normalized, strings.ToLower(v)) {
				if best == nil || len(v) > len(best.value) {
					best = &candidate{field: field, value: v}
				}
			}
		}
	}
	scan(models.FilterProduct, c.vocab.Products)
	scan(models.FilterCategory, c.vocab.Categories)
	scan(models.FilterCountry, c.vocab.Countries)

	if best != nil {
		return &models.Filter{Field: best.field, Value: best.value}, best.value
	}

	raw := extractRawFilter(normalized)
	return nil, raw
}

var rawFilterRe = regexp.MustCompile(`\bfor\s+(?:the\s+)?([a-z][a-z\-' ]{1,40}?)(?:\s+(?:in|from|between|during|of)\b|[?.!,]|$)`)

// rawFilterStopwords are capture values that name metrics or intents, not
// dataset dimensions.
var rawFilterStopwords = map[string]bool{
	"revenue": true, "profit": true, "cost": true, "margin": true,
	"sales": true, "orders": true, "customers": true, "products": true,
	"each year": true, "every year": true, "all years": true,
	"last year": true, "this year": true, "me": true, "us": true,
}

func extractRawFilter(normalized string) string {
	m := rawFilterRe.FindStringSubmatch(normalized)
	if m == nil {
		return ""
	}
	raw := strings.TrimSpace(m[1])
	if raw == "" || rawFilterStopwords[raw] {
		return ""
	}
	return raw
}
