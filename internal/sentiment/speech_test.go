package sentiment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapSpeech(t *testing.T) {
	tests := []struct {
		name      string
		in        speechResponse
		wantLabel string
		wantScore float64
	}{
		{
			name:      "pred with probability",
			in:        speechResponse{Pred: "negative", Probs: map[string]float64{"negative": 0.7, "neutral": 0.3}},
			wantLabel: "negative",
			wantScore: 0.7,
		},
		{
			name:      "pred missing probability uses argmax",
			in:        speechResponse{Pred: "angry", Probs: map[string]float64{"negative": 0.6, "neutral": 0.4}},
			wantLabel: "negative",
			wantScore: 0.6,
		},
		{
			name:      "empty response is neutral 0.5",
			in:        speechResponse{},
			wantLabel: LabelNeutral,
			wantScore: 0.5,
		},
		{
			name:      "score clamped into unit interval",
			in:        speechResponse{Pred: "positive", Probs: map[string]float64{"positive": 1.7}},
			wantLabel: "positive",
			wantScore: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapSpeech(tt.in)
			assert.Equal(t, tt.wantLabel, got.Label)
			assert.InDelta(t, tt.wantScore, got.Score, 1e-9)
			assert.Equal(t, "speech", got.Source)
			require.NotNil(t, got.Confidence)
			assert.InDelta(t, got.Score, *got.Confidence, 1e-9)
		})
	}
}

func TestSpeechClient_Infer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "clip.webm", hdr.Filename)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"pred":  "positive",
			"probs": map[string]float64{"positive": 0.8, "neutral": 0.15, "negative": 0.05},
		})
	}))
	defer srv.Close()

	c := NewSpeechClient(srv.URL, "")
	got, err := c.Infer(context.Background(), []byte("RIFFdata"), "clip.webm")
	require.NoError(t, err)
	assert.Equal(t, "positive", got.Label)
	assert.InDelta(t, 0.8, got.Score, 1e-9)
}

func TestFusionResult_Sentiment(t *testing.T) {
	r := &FusionResult{
		FusionPred: Probs{Pos: 0.6, Neu: 0.3, Neg: 0.1},
		FusionTop1: "pos",
		Alpha:      0.5,
	}
	s := r.Sentiment()
	assert.Equal(t, LabelPositive, s.Label)
	assert.InDelta(t, 0.75, s.Score, 1e-9)
	assert.Equal(t, "fusion", s.Source)
	require.NotNil(t, s.Confidence)
	assert.InDelta(t, 0.6, *s.Confidence, 1e-9)
}

func TestFusionClient_Predict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/predict-fusion", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "有點累", r.FormValue("text"))
		assert.Equal(t, "0.5", r.FormValue("alpha"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"text_pred":   map[string]float64{"pos": 0.1, "neu": 0.3, "neg": 0.6},
			"audio_pred":  map[string]float64{"pos": 0.2, "neu": 0.3, "neg": 0.5},
			"fusion_pred": map[string]float64{"pos": 0.15, "neu": 0.3, "neg": 0.55},
			"text_top1":   "neg",
			"audio_top1":  "neg",
			"fusion_top1": "neg",
			"alpha":       0.5,
			"labels":      []string{"neg", "neu", "pos"},
		})
	}))
	defer srv.Close()

	c := NewFusionClient(srv.URL + "/")
	got, err := c.Predict(context.Background(), "有點累", []byte("wavdata"), 0.5)
	require.NoError(t, err)
	assert.Equal(t, "neg", got.FusionTop1)

	s := got.Sentiment()
	assert.Equal(t, LabelNegative, s.Label)
	assert.InDelta(t, 0.3, s.Score, 1e-9)
}

func TestFromDocument(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		wantOK bool
	}{
		{name: "well formed", in: map[string]any{"label": "positive", "score": 0.8}, wantOK: true},
		{name: "missing label", in: map[string]any{"score": 0.8}, wantOK: false},
		{name: "unknown label", in: map[string]any{"label": "ecstatic"}, wantOK: false},
		{name: "not an object", in: "positive", wantOK: false},
		{name: "nil", in: nil, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FromDocument(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, "positive", got.Label)
				assert.InDelta(t, 0.8, got.Score, 1e-9)
			}
		})
	}
}

func TestFromDocument_DefaultsScore(t *testing.T) {
	got, ok := FromDocument(map[string]any{"label": "neutral"})
	require.True(t, ok)
	assert.InDelta(t, 0.5, got.Score, 1e-9)
}
