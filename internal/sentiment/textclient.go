package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/nchiang/moodiary/internal/common"
)

// TextClient calls the remote text-classifier endpoint. All calls go through
// a circuit breaker so a flapping model service stops being probed on every
// save; callers fall back to Classify on any error.
type TextClient struct {
	url     string
	apiKey  string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[Sentiment]
}

func NewTextClient(url, apiKey string) *TextClient {
	settings := gobreaker.Settings{
		Name:    "sentiment-infer",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
	return &TextClient{
		url:     url,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		breaker: gobreaker.NewCircuitBreaker[Sentiment](settings),
	}
}

type inferRequest struct {
	Text string `json:"text"`
}

// inferResponse mirrors the classifier's wire shape. Labels come back in the
// short pos/neu/neg form and are widened before storage.
type inferResponse struct {
	Label string `json:"label"`
	Probs *struct {
		Neg float64 `json:"neg"`
		Neu float64 `json:"neu"`
		Pos float64 `json:"pos"`
	} `json:"probs"`
	Confidence *float64   `json:"confidence"`
	TopTokens  []TopToken `json:"top_tokens"`
	Model      string     `json:"model"`
	Version    string     `json:"version"`
}

var shortLabels = map[string]string{
	"pos": LabelPositive,
	"neu": LabelNeutral,
	"neg": LabelNegative,
}

// Infer classifies text via the remote endpoint.
func (c *TextClient) Infer(ctx context.Context, text string) (Sentiment, error) {
	return c.breaker.Execute(func() (Sentiment, error) {
		return c.infer(ctx, text)
	})
}

func (c *TextClient) infer(ctx context.Context, text string) (Sentiment, error) {
	body, err := json.Marshal(inferRequest{Text: text})
	if err != nil {
		return Sentiment{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Sentiment{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set(common.APIKeyHeaderName, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Sentiment{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Sentiment{}, fmt.Errorf("infer failed %d: %s", resp.StatusCode, msg)
	}

	var r inferResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return Sentiment{}, fmt.Errorf("infer decode: %w", err)
	}

	label, ok := shortLabels[r.Label]
	if !ok {
		label = LabelNeutral
	}

	// Probability distribution collapsed to a 0..1 score:
	// negative=0, neutral=0.5, positive=1.
	score := 0.5
	if r.Probs != nil {
		score = r.Probs.Pos + r.Probs.Neu*0.5
	}

	return Sentiment{
		Label:      label,
		Score:      clamp01(score),
		Confidence: r.Confidence,
		TopTokens:  r.TopTokens,
		Model:      r.Model,
		Version:    r.Version,
	}, nil
}
