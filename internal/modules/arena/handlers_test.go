package arena

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/exerbeasts/internal/battle"
	"github.com/nfrund/exerbeasts/internal/handlers"
	"github.com/nfrund/exerbeasts/internal/middleware"
	"github.com/nfrund/exerbeasts/internal/narration"
	"github.com/nfrund/exerbeasts/internal/rendering"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnalyzer struct {
	enabled bool
	pose    string
	size    int
}

func (f *fakeAnalyzer) Enabled() bool { return f.enabled }

func (f *fakeAnalyzer) Analyze(_ context.Context, frame io.Reader, pose string) (narration.Feedback, error) {
	data, _ := io.ReadAll(frame)
	f.pose, f.size = pose, len(data)
	return narration.Feedback{Mood: narration.MoodHappy, Feedback: "Nice squat!"}, nil
}

func newTestServer(t *testing.T, analyzer Analyzer) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.Validator = handlers.NewValidator()
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(middleware.PlayerContextKey, "p1")
			return next(c)
		}
	})
	svc := NewService(newTestSessions(nil), nil)
	NewHandler(svc, rendering.NewUniversalRenderer(), nil, analyzer).Register(e.Group("/battle"), nil)
	return e
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHandler_ReadRoutes(t *testing.T) {
	e := newTestServer(t, nil)

	rec := doJSON(e, http.MethodGet, "/battle/state", "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[battle.Snapshot](t, rec)
	assert.Equal(t, battle.PhaseMenuSelection, snap.Phase)
	assert.True(t, snap.InputEnabled)

	rec = doJSON(e, http.MethodGet, "/battle/catalog", "")
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]CatalogEntry](t, rec)
	require.Len(t, entries, 4)
	assert.Equal(t, battle.MoveSquat, entries[0].ID)
	assert.Equal(t, "Perform a SQUAT to execute Thunder Stomp!", entries[0].Instruction)

	rec = doJSON(e, http.MethodGet, "/battle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")
	assert.Contains(t, rec.Body.String(), "Thunder Stomp")

	rec = doJSON(e, http.MethodGet, "/battle/card.png", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	_, err := png.Decode(rec.Body)
	assert.NoError(t, err)
}

func TestHandler_ReadRoutesStartNoBattles(t *testing.T) {
	sessions := newTestSessions(nil)
	e := echo.New()
	var n int
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			n++
			c.Set(middleware.PlayerContextKey, fmt.Sprintf("visitor-%d", n))
			return next(c)
		}
	})
	NewHandler(NewService(sessions, nil), rendering.NewUniversalRenderer(), nil, nil).Register(e.Group("/battle"), nil)

	for i := 0; i < 50; i++ {
		for _, path := range []string{"/battle", "/battle/state", "/battle/card.png"} {
			rec := doJSON(e, http.MethodGet, path, "")
			require.Equal(t, http.StatusOK, rec.Code, path)
		}
	}
	assert.Zero(t, sessions.Count())
}

func TestHandler_Select(t *testing.T) {
	e := newTestServer(t, nil)

	rec := doJSON(e, http.MethodPost, "/battle/select", `{"move":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodPost, "/battle/select", `{"move":"burpee"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "unknown_move", decode[handlers.ErrorResponse](t, rec).Code)

	rec = doJSON(e, http.MethodPost, "/battle/select", `{"move":"squat"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, battle.PhaseAwaitingPose, decode[battle.Snapshot](t, rec).Phase)

	rec = doJSON(e, http.MethodPost, "/battle/select", `{"move":"squat"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "rejected_transition", decode[handlers.ErrorResponse](t, rec).Code)

	// htmx buttons post form values.
	req := httptest.NewRequest(http.MethodPost, "/battle/select", strings.NewReader("move=lunge"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandler_PoseResetVoice(t *testing.T) {
	e := newTestServer(t, nil)

	rec := doJSON(e, http.MethodPost, "/battle/pose", `{"label":"squat","confidence":1.5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.Equal(t, http.StatusOK, doJSON(e, http.MethodPost, "/battle/select", `{"move":"lunge"}`).Code)

	rec = doJSON(e, http.MethodPost, "/battle/pose", `{"label":"lunge","confidence":0.85}`)
	require.Equal(t, http.StatusOK, rec.Code)
	pose := decode[PoseResponse](t, rec)
	assert.True(t, pose.Accepted)
	assert.Equal(t, 75, pose.State.Enemy.HP)

	rec = doJSON(e, http.MethodPost, "/battle/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 100, decode[battle.Snapshot](t, rec).Enemy.HP)

	rec = doJSON(e, http.MethodPost, "/battle/voice", `{"transcript":"go"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	v := decode[VoiceResponse](t, rec)
	assert.Equal(t, "start", string(v.Command))
	require.NotNil(t, v.State)

	rec = doJSON(e, http.MethodPost, "/battle/voice", `{"transcript":"please stop"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	v = decode[VoiceResponse](t, rec)
	assert.Equal(t, "exit", string(v.Command))
	assert.Nil(t, v.State)
}

func multipartFrame(t *testing.T, withImage bool) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("pose", "squat"))
	if withImage {
		fw, err := w.CreateFormFile("image", "frame.png")
		require.NoError(t, err)
		require.NoError(t, png.Encode(fw, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestHandler_Feedback(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		e := newTestServer(t, &fakeAnalyzer{})
		body, ct := multipartFrame(t, true)
		req := httptest.NewRequest(http.MethodPost, "/battle/feedback", body)
		req.Header.Set(echo.HeaderContentType, ct)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("missing image", func(t *testing.T) {
		e := newTestServer(t, &fakeAnalyzer{enabled: true})
		body, ct := multipartFrame(t, false)
		req := httptest.NewRequest(http.MethodPost, "/battle/feedback", body)
		req.Header.Set(echo.HeaderContentType, ct)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("analyzed", func(t *testing.T) {
		a := &fakeAnalyzer{enabled: true}
		e := newTestServer(t, a)
		body, ct := multipartFrame(t, true)
		req := httptest.NewRequest(http.MethodPost, "/battle/feedback", body)
		req.Header.Set(echo.HeaderContentType, ct)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, narration.Feedback{Mood: narration.MoodHappy, Feedback: "Nice squat!"}, decode[narration.Feedback](t, rec))
		assert.Equal(t, "squat", a.pose)
		assert.Positive(t, a.size)
	})
}
