package narration

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frame(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{255, 0, 0, 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestParseReply(t *testing.T) {
	tests := []struct {
		in   string
		want Feedback
	}{
		{"HAPPY|Great form!", Feedback{MoodHappy, "Great form!"}},
		{" sad | Keep your back straight. ", Feedback{MoodSad, "Keep your back straight."}},
		{"Neutral|Nice | steady effort", Feedback{MoodNeutral, "Nice | steady effort"}},
		{"ECSTATIC|Wow", Feedback{MoodNeutral, "Wow"}},
		{"HAPPY|", Feedback{MoodHappy, defaultFeedback}},
		{"no separator at all", Feedback{MoodNeutral, defaultFeedback}},
		{"", Feedback{MoodNeutral, defaultFeedback}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseReply(tt.in))
		})
	}
}

func TestPrepareImage(t *testing.T) {
	out, err := PrepareImage(bytes.NewReader(frame(t, 1024, 768)), 512, 80)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 512, img.Bounds().Dx())
	assert.Equal(t, 384, img.Bounds().Dy())

	out, err = PrepareImage(bytes.NewReader(frame(t, 64, 32)), 512, 80)
	require.NoError(t, err)
	img, err = jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())

	_, err = PrepareImage(strings.NewReader("not an image"), 512, 80)
	assert.Error(t, err)
}

func TestClient_Analyze(t *testing.T) {
	var got generateRequest
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		assert.Empty(t, r.URL.RawQuery)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"HAPPY|Deep squat, nice work!"}]}}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "secret", Endpoint: srv.URL}, srv.Client(), nil)
	fb, err := c.Analyze(context.Background(), bytes.NewReader(frame(t, 800, 600)), "squat")
	require.NoError(t, err)
	assert.Equal(t, Feedback{MoodHappy, "Deep squat, nice work!"}, fb)

	assert.Equal(t, "secret", gotKey)
	require.Len(t, got.Contents, 1)
	require.Len(t, got.Contents[0].Parts, 2)
	assert.Contains(t, got.Contents[0].Parts[0].Text, "doing a squat")
	inline := got.Contents[0].Parts[1].InlineData
	require.NotNil(t, inline)
	assert.Equal(t, "image/jpeg", inline.MimeType)
	raw, err := base64.StdEncoding.DecodeString(inline.Data)
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 512, img.Bounds().Dx())
	assert.Equal(t, generationConfig{Temperature: 0.7, TopK: 40, TopP: 0.95, MaxOutputTokens: 100}, got.GenerationConfig)
}

func TestClient_AnalyzeFailures(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		c := NewClient(Config{}, nil, nil)
		assert.False(t, c.Enabled())
		fb, err := c.Analyze(context.Background(), bytes.NewReader(frame(t, 10, 10)), "squat")
		assert.True(t, errors.Is(err, ErrDisabled))
		assert.Equal(t, Failure(), fb)
	})

	t.Run("upstream error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		c := NewClient(Config{APIKey: "k", Endpoint: srv.URL}, srv.Client(), nil)
		fb, err := c.Analyze(context.Background(), bytes.NewReader(frame(t, 10, 10)), "plank")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
		assert.Equal(t, Feedback{MoodSad, "Sorry, I couldn't analyze that image!"}, fb)
	})

	t.Run("no candidates", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"candidates":[]}`))
		}))
		defer srv.Close()

		c := NewClient(Config{APIKey: "k", Endpoint: srv.URL}, srv.Client(), nil)
		fb, err := c.Analyze(context.Background(), bytes.NewReader(frame(t, 10, 10)), "lunge")
		assert.Error(t, err)
		assert.Equal(t, Failure(), fb)
	})

	t.Run("unreachable endpoint keeps the key out of errors and logs", func(t *testing.T) {
		var logs bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&logs, nil))
		c := NewClient(Config{APIKey: "SECRET-KEY-123", Endpoint: "http://127.0.0.1:1/gen"}, nil, logger)

		fb, err := c.Analyze(context.Background(), bytes.NewReader(frame(t, 4, 4)), "squat")
		require.Error(t, err)
		assert.Equal(t, Failure(), fb)
		assert.NotContains(t, err.Error(), "SECRET-KEY-123")
		assert.Contains(t, logs.String(), "Feedback analysis failed")
		assert.NotContains(t, logs.String(), "SECRET-KEY-123")
	})

	t.Run("bad frame", func(t *testing.T) {
		c := NewClient(Config{APIKey: "k", Endpoint: "http://127.0.0.1:0"}, nil, nil)
		_, err := c.Analyze(context.Background(), strings.NewReader("garbage"), "lunge")
		assert.Error(t, err)
	})
}
