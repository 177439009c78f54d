package rendering

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// Renderer renders templ components and gomponents nodes.
type Renderer interface {
	// RenderComponent renders to bytes, for websocket fragments.
	RenderComponent(ctx context.Context, component any) ([]byte, error)
	// RenderPage writes a full HTML response.
	RenderPage(c echo.Context, status int, component any) error
}

// UniversalRenderer implements Renderer and echo.Renderer.
type UniversalRenderer struct{}

var _ Renderer = (*UniversalRenderer)(nil)

// NewUniversalRenderer creates a UniversalRenderer.
func NewUniversalRenderer() *UniversalRenderer {
	return &UniversalRenderer{}
}

// node matches gomponents.Node without importing it.
type node interface {
	Render(w io.Writer) error
}

func (r *UniversalRenderer) render(ctx context.Context, component any, w io.Writer) error {
	switch c := component.(type) {
	case templ.Component:
		return c.Render(ctx, w)
	case node:
		return c.Render(w)
	default:
		return fmt.Errorf("unsupported component type %T", component)
	}
}

// RenderComponent implements Renderer.
func (r *UniversalRenderer) RenderComponent(ctx context.Context, component any) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.render(ctx, component, &buf); err != nil {
		return nil, fmt.Errorf("failed to render component: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPage implements Renderer. The component is rendered before anything is
// written so a failure still produces a clean error response.
func (r *UniversalRenderer) RenderPage(c echo.Context, status int, component any) error {
	body, err := r.RenderComponent(c.Request().Context(), component)
	if err != nil {
		return err
	}
	return c.HTMLBlob(status, body)
}

// Render implements echo.Renderer; the component is passed as data.
func (r *UniversalRenderer) Render(w io.Writer, name string, data any, c echo.Context) error {
	if c.Response().Header().Get(echo.HeaderContentType) == "" {
		c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	}
	return r.render(c.Request().Context(), data, w)
}
