// Package sentiment classifies diary text (and optionally voice clips) into
// a positive/neutral/negative label with a 0..1 score. Classification happens
// once at save/edit time and is cached on the record; remote endpoints are
// consulted first and a deterministic local heuristic always backs them up.
package sentiment

const (
	LabelPositive = "positive"
	LabelNeutral  = "neutral"
	LabelNegative = "negative"
)

// TopToken is a keyword the remote model reports as contributing to the
// classification.
type TopToken struct {
	Text    string  `json:"text"`
	Label   string  `json:"label"`
	Contrib float64 `json:"contrib,omitempty"`
}

// Sentiment is the derived classification cached on every entry.
type Sentiment struct {
	Label      string             `json:"label"`
	Score      float64            `json:"score"`
	Confidence *float64           `json:"confidence,omitempty"`
	TopTokens  []TopToken         `json:"topTokens,omitempty"`
	Probs      map[string]float64 `json:"probs,omitempty"`
	Source     string             `json:"source,omitempty"`
	Model      string             `json:"model,omitempty"`
	Version    string             `json:"version,omitempty"`
}

// Document renders the classification in the generic map shape stored on
// remote entry documents, the inverse of FromDocument.
func (s Sentiment) Document() map[string]any {
	m := map[string]any{
		"label": s.Label,
		"score": s.Score,
	}
	if s.Confidence != nil {
		m["confidence"] = *s.Confidence
	}
	if s.Source != "" {
		m["source"] = s.Source
	}
	if s.Model != "" {
		m["model"] = s.Model
	}
	if s.Version != "" {
		m["version"] = s.Version
	}
	if len(s.TopTokens) > 0 {
		toks := make([]any, 0, len(s.TopTokens))
		for _, t := range s.TopTokens {
			toks = append(toks, map[string]any{
				"text": t.Text, "label": t.Label, "contrib": t.Contrib,
			})
		}
		m["topTokens"] = toks
	}
	if len(s.Probs) > 0 {
		probs := make(map[string]any, len(s.Probs))
		for k, v := range s.Probs {
			probs[k] = v
		}
		m["probs"] = probs
	}
	return m
}

// FromDocument interprets a raw JSON value from a stored document as a
// Sentiment. The second return value reports whether the value is a
// well-formed sentiment object; malformed or missing values trigger a
// heuristic recomputation and backfill upstream.
func FromDocument(v any) (Sentiment, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return Sentiment{}, false
	}
	label, ok := m["label"].(string)
	if !ok {
		return Sentiment{}, false
	}
	switch label {
	case LabelPositive, LabelNeutral, LabelNegative:
	default:
		return Sentiment{}, false
	}

	s := Sentiment{Label: label, Score: 0.5}
	if f, ok := m["score"].(float64); ok {
		s.Score = f
	}
	if f, ok := m["confidence"].(float64); ok {
		s.Confidence = &f
	}
	if src, ok := m["source"].(string); ok {
		s.Source = src
	}
	if model, ok := m["model"].(string); ok {
		s.Model = model
	}
	if version, ok := m["version"].(string); ok {
		s.Version = version
	}
	if toks, ok := m["topTokens"].([]any); ok {
		for _, tv := range toks {
			tm, ok := tv.(map[string]any)
			if !ok {
				continue
			}
			tok := TopToken{}
			tok.Text, _ = tm["text"].(string)
			tok.Label, _ = tm["label"].(string)
			tok.Contrib, _ = tm["contrib"].(float64)
			s.TopTokens = append(s.TopTokens, tok)
		}
	}
	if probs, ok := m["probs"].(map[string]any); ok {
		s.Probs = make(map[string]float64, len(probs))
		for k, pv := range probs {
			if f, ok := pv.(float64); ok {
				s.Probs[k] = f
			}
		}
	}
	return s, true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
