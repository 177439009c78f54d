// Package narration asks a Gemini generateContent endpoint for short coaching
// feedback on a frame of the player holding a pose. Feedback is advisory and
// never feeds back into the battle.
package narration

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// Mood is the verdict attached to feedback.
type Mood string

const (
	MoodHappy   Mood = "happy"
	MoodNeutral Mood = "neutral"
	MoodSad     Mood = "sad"
)

const (
	defaultFeedback = "Keep up the great work!"
	failureFeedback = "Sorry, I couldn't analyze that image!"
)

const apiKeyHeader = "x-goog-api-key"

// ErrDisabled is returned when no API key is configured.
var ErrDisabled = errors.New("narration disabled: no API key configured")

// Feedback is the parsed model reply.
type Feedback struct {
	Mood     Mood   `json:"mood"`
	Feedback string `json:"feedback"`
}

// Failure is what the player sees when analysis fails.
func Failure() Feedback {
	return Feedback{Mood: MoodSad, Feedback: failureFeedback}
}

// Config configures a Client.
type Config struct {
	APIKey   string
	Endpoint string
	// MaxDimension bounds the longer side of the uploaded frame.
	MaxDimension int
	JPEGQuality  int
	Timeout      time.Duration

	Temperature     float64
	TopK            int
	TopP            float64
	MaxOutputTokens int
}

// DefaultConfig returns the generation settings the prompt is tuned for.
func DefaultConfig() Config {
	return Config{
		Endpoint:        "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent",
		MaxDimension:    512,
		JPEGQuality:     80,
		Timeout:         15 * time.Second,
		Temperature:     0.7,
		TopK:            40,
		TopP:            0.95,
		MaxOutputTokens: 100,
	}
}

// Client calls the feedback model.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a Client. A nil httpClient gets one with cfg.Timeout.
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	def := DefaultConfig()
	if cfg.Endpoint == "" {
		cfg.Endpoint = def.Endpoint
	}
	if cfg.MaxDimension <= 0 {
		cfg.MaxDimension = def.MaxDimension
	}
	if cfg.JPEGQuality <= 0 {
		cfg.JPEGQuality = def.JPEGQuality
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.Temperature, cfg.TopK, cfg.TopP, cfg.MaxOutputTokens = def.Temperature, def.TopK, def.TopP, def.MaxOutputTokens
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = def.Timeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, http: httpClient, logger: logger}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.cfg.APIKey != ""
}

// Prompt is the instruction sent with the frame.
func Prompt(pose string) string {
	if strings.TrimSpace(pose) == "" {
		pose = "unknown"
	}
	return fmt.Sprintf(`Analyze this fitness/exercise image of the user doing a %s and provide encouraging feedback about the person's form, effort, or technique.

Based on what you see, determine if this deserves:
- HAPPY: Excellent form, great effort, impressive technique, or motivating progress
- NEUTRAL: Good attempt but room for improvement, decent form with minor issues
- SAD: Poor form that could lead to injury, lack of effort, or needs significant improvement

Keep your response under 30 words and be supportive but honest.

Format your response as: MOOD|feedback text
Example: HAPPY|Great form! Your squat depth is perfect and your back is straight!`, pose)
}

// ParseReply splits a "MOOD|feedback" reply. Unknown moods become neutral and
// empty feedback gets a default encouragement.
func ParseReply(text string) Feedback {
	moodPart, feedback, _ := strings.Cut(text, "|")
	mood := Mood(strings.ToLower(strings.TrimSpace(moodPart)))
	switch mood {
	case MoodHappy, MoodNeutral, MoodSad:
	default:
		mood = MoodNeutral
	}
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		feedback = defaultFeedback
	}
	return Feedback{Mood: mood, Feedback: feedback}
}

// PrepareImage decodes a frame, shrinks it to fit maxDim and re-encodes it as JPEG.
func PrepareImage(r io.Reader, maxDim, quality int) ([]byte, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	if b := img.Bounds(); b.Dx() > maxDim || b.Dy() > maxDim {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}
	return encodeJPEG(img, quality)
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Analyze returns feedback for a frame. On any failure it returns Failure()
// together with the error; ErrDisabled means nothing was attempted.
func (c *Client) Analyze(ctx context.Context, frame io.Reader, pose string) (Feedback, error) {
	if !c.Enabled() {
		return Failure(), ErrDisabled
	}
	fb, err := c.analyze(ctx, frame, pose)
	if err != nil {
		c.logger.Error("Feedback analysis failed", "pose", pose, "error", err)
		return Failure(), err
	}
	return fb, nil
}

func (c *Client) analyze(ctx context.Context, frame io.Reader, pose string) (Feedback, error) {
	jpeg, err := PrepareImage(frame, c.cfg.MaxDimension, c.cfg.JPEGQuality)
	if err != nil {
		return Feedback{}, err
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{
			{Text: Prompt(pose)},
			{InlineData: &inlineData{MimeType: "image/jpeg", Data: base64.StdEncoding.EncodeToString(jpeg)}},
		}}},
		GenerationConfig: generationConfig{
			Temperature:     c.cfg.Temperature,
			TopK:            c.cfg.TopK,
			TopP:            c.cfg.TopP,
			MaxOutputTokens: c.cfg.MaxOutputTokens,
		},
	})
	if err != nil {
		return Feedback{}, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Feedback{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	// The key stays out of the URL so transport errors never carry it.
	req.Header.Set(apiKeyHeader, c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return Feedback{}, fmt.Errorf("feedback request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Feedback{}, fmt.Errorf("feedback API error: %s", resp.Status)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Feedback{}, fmt.Errorf("failed to decode feedback response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return Feedback{}, errors.New("feedback response has no candidates")
	}
	return ParseReply(out.Candidates[0].Content.Parts[0].Text), nil
}
