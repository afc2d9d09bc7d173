package sentiment

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/nchiang/moodiary/internal/common"
)

// SpeechClient calls the voice emotion endpoint with a recorded audio clip.
type SpeechClient struct {
	url     string
	apiKey  string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[Sentiment]
}

func NewSpeechClient(url, apiKey string) *SpeechClient {
	settings := gobreaker.Settings{
		Name:    "speech-infer",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
	return &SpeechClient{
		url:     url,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		breaker: gobreaker.NewCircuitBreaker[Sentiment](settings),
	}
}

type speechResponse struct {
	Pred  string             `json:"pred"`
	Probs map[string]float64 `json:"probs"`
}

// Infer classifies the emotion of an audio clip. filename is advisory and
// only used in the multipart header.
func (c *SpeechClient) Infer(ctx context.Context, audio []byte, filename string) (Sentiment, error) {
	return c.breaker.Execute(func() (Sentiment, error) {
		return c.infer(ctx, audio, filename)
	})
}

func (c *SpeechClient) infer(ctx context.Context, audio []byte, filename string) (Sentiment, error) {
	if filename == "" {
		filename = "audio.webm"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return Sentiment{}, err
	}
	if _, err := fw.Write(audio); err != nil {
		return Sentiment{}, err
	}
	if err := mw.Close(); err != nil {
		return Sentiment{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return Sentiment{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
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
		return Sentiment{}, fmt.Errorf("speech infer failed %d: %s", resp.StatusCode, msg)
	}

	var r speechResponse
	if err := decodeJSON(resp.Body, &r); err != nil {
		return Sentiment{}, fmt.Errorf("speech infer decode: %w", err)
	}

	return mapSpeech(r), nil
}

// mapSpeech converts the endpoint response to a Sentiment. When the reported
// prediction has no probability, the argmax of the distribution wins.
func mapSpeech(r speechResponse) Sentiment {
	label := r.Pred
	if label == "" {
		label = LabelNeutral
	}

	score, found := r.Probs[label]
	if !found {
		best := -1.0
		for l, p := range r.Probs {
			if p > best {
				best = p
				label = l
				score = p
				found = true
			}
		}
	}
	if !found {
		score = 0.5
	}
	score = clamp01(score)

	confidence := score
	return Sentiment{
		Label:      label,
		Score:      score,
		Confidence: &confidence,
		Probs:      r.Probs,
		Source:     "speech",
	}
}
