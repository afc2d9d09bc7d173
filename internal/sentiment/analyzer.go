package sentiment

import (
	"context"

	"github.com/nchiang/moodiary/internal/logging"
)

// TextInferrer is the remote classification surface the Analyzer consults.
// *TextClient satisfies it; tests supply stubs.
type TextInferrer interface {
	Infer(ctx context.Context, text string) (Sentiment, error)
}

// Analyzer classifies text with the remote endpoint when one is configured
// and always recovers with the local heuristic. Analyze never fails, so
// classification can never block a save or edit.
type Analyzer struct {
	remote TextInferrer
	logger logging.Logger
}

// NewAnalyzer builds an Analyzer. remote may be nil, in which case only the
// heuristic runs.
func NewAnalyzer(remote TextInferrer, logger logging.Logger) *Analyzer {
	return &Analyzer{remote: remote, logger: logger}
}

// Analyze returns the cached-at-save classification for text.
func (a *Analyzer) Analyze(ctx context.Context, text string) Sentiment {
	if a.remote != nil {
		s, err := a.remote.Infer(ctx, text)
		if err == nil {
			return s
		}
		a.logger.Warn(ctx, "remote sentiment failed, falling back to local", "error", err)
	}
	return Classify(text)
}
