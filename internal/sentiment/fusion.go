package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Probs is a three-way probability distribution.
type Probs struct {
	Pos float64 `json:"pos"`
	Neu float64 `json:"neu"`
	Neg float64 `json:"neg"`
}

// FusionResult is the multimodal endpoint's full response: per-modality
// distributions plus the fused one.
type FusionResult struct {
	TextPred   Probs    `json:"text_pred"`
	AudioPred  Probs    `json:"audio_pred"`
	FusionPred Probs    `json:"fusion_pred"`
	TextTop1   string   `json:"text_top1"`
	AudioTop1  string   `json:"audio_top1"`
	FusionTop1 string   `json:"fusion_top1"`
	Alpha      float64  `json:"alpha"`
	Labels     []string `json:"labels"`
}

// Sentiment collapses the fused distribution to the stored classification.
func (r *FusionResult) Sentiment() Sentiment {
	label, ok := shortLabels[r.FusionTop1]
	if !ok {
		label = LabelNeutral
	}
	score := clamp01(r.FusionPred.Pos + r.FusionPred.Neu*0.5)
	confidence := maxProb(r.FusionPred)
	return Sentiment{
		Label:      label,
		Score:      score,
		Confidence: &confidence,
		Probs: map[string]float64{
			"pos": r.FusionPred.Pos,
			"neu": r.FusionPred.Neu,
			"neg": r.FusionPred.Neg,
		},
		Source: "fusion",
	}
}

func maxProb(p Probs) float64 {
	return max(p.Pos, max(p.Neu, p.Neg))
}

// FusionClient calls the text+voice fusion gateway.
type FusionClient struct {
	baseURL string
	http    *http.Client
}

func NewFusionClient(baseURL string) *FusionClient {
	return &FusionClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Predict submits text and an audio clip for fused classification. alpha
// weighs the text modality; 0.5 is the balanced default.
func (c *FusionClient) Predict(ctx context.Context, text string, audio []byte, alpha float64) (*FusionResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("text", text); err != nil {
		return nil, err
	}
	if err := mw.WriteField("alpha", strconv.FormatFloat(alpha, 'f', -1, 64)); err != nil {
		return nil, err
	}
	fw, err := mw.CreateFormFile("file", "note.wav")
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(audio); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict-fusion", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fusion failed %d: %s", resp.StatusCode, msg)
	}

	var r FusionResult
	if err := decodeJSON(resp.Body, &r); err != nil {
		return nil, fmt.Errorf("fusion decode: %w", err)
	}
	return &r, nil
}

func decodeJSON(r io.Reader, v any) error {
	return json.NewDecoder(r).Decode(v)
}
