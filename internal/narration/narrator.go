// internal/narration/narrator.go

// Package narration turns a query result into a conversational answer via
// an external generation service. Callers treat narration as best-effort:
// any error here is recovered by the deterministic formatter upstream.
package narration

import (
	"context"

	"sales-insights/internal/models"
)

type Narrator interface {
	Narrate(ctx context.Context, utterance string, result *models.QueryResult) (string, error)
}
