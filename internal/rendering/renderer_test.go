package rendering

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

func TestRenderComponent(t *testing.T) {
	r := NewUniversalRenderer()
	ctx := context.Background()

	out, err := r.RenderComponent(ctx, h.Div(h.ID("battle-text"), g.Text("What will you do?")))
	require.NoError(t, err)
	assert.Equal(t, `<div id="battle-text">What will you do?</div>`, string(out))

	out, err = r.RenderComponent(ctx, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<p>templ</p>")
		return err
	}))
	require.NoError(t, err)
	assert.Equal(t, "<p>templ</p>", string(out))

	_, err = r.RenderComponent(ctx, 42)
	assert.ErrorContains(t, err, "unsupported component type int")
}

func TestRenderPage(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	r := NewUniversalRenderer()
	require.NoError(t, r.RenderPage(c, http.StatusCreated, h.P(g.Text("ok"))))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "<p>ok</p>", rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	assert.Error(t, r.RenderPage(c, http.StatusOK, struct{}{}))
	assert.Empty(t, rec.Body.String())
}
