package arena

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/exerbeasts/internal/battle"
	"github.com/nfrund/exerbeasts/internal/card"
	"github.com/nfrund/exerbeasts/internal/handlers"
	"github.com/nfrund/exerbeasts/internal/middleware"
	"github.com/nfrund/exerbeasts/internal/modules/arena/components"
	"github.com/nfrund/exerbeasts/internal/narration"
	"github.com/nfrund/exerbeasts/internal/rendering"
	"github.com/nfrund/exerbeasts/internal/voice"
)

const maxFrameBytes = 5 << 20

// Analyzer produces coaching feedback for an uploaded frame.
type Analyzer interface {
	Enabled() bool
	Analyze(ctx context.Context, frame io.Reader, pose string) (narration.Feedback, error)
}

// Handler serves the /battle routes.
type Handler struct {
	service  *Service
	renderer rendering.Renderer
	catalog  *battle.Catalog
	analyzer Analyzer
}

// NewHandler creates a Handler. analyzer may be nil.
func NewHandler(service *Service, renderer rendering.Renderer, catalog *battle.Catalog, analyzer Analyzer) *Handler {
	if catalog == nil {
		catalog = battle.DefaultCatalog()
	}
	return &Handler{service: service, renderer: renderer, catalog: catalog, analyzer: analyzer}
}

// CatalogEntry is a move as listed by GET /catalog.
type CatalogEntry struct {
	battle.Move
	Instruction string `json:"instruction"`
}

// VoiceResponse answers POST /voice.
type VoiceResponse struct {
	Command voice.Command    `json:"command"`
	State   *battle.Snapshot `json:"state,omitempty"`
}

// PoseResponse answers POST /pose.
type PoseResponse struct {
	PoseStatus
	State battle.Snapshot `json:"state"`
}

// Register mounts the routes on g. feedbackLimiter guards POST /feedback.
func (h *Handler) Register(g *echo.Group, feedbackLimiter echo.MiddlewareFunc) {
	g.GET("", h.Page)
	g.GET("/", h.Page)
	g.GET("/catalog", h.Catalog)
	g.GET("/state", h.State)
	g.GET("/card.png", h.Card)
	g.POST("/select", h.Select)
	g.POST("/pose", h.Pose)
	g.POST("/reset", h.Reset)
	g.POST("/voice", h.Voice)
	if feedbackLimiter != nil {
		g.POST("/feedback", h.Feedback, feedbackLimiter)
	} else {
		g.POST("/feedback", h.Feedback)
	}
}

func (h *Handler) Page(c echo.Context) error {
	snap := h.service.State(middleware.PlayerID(c))
	return h.renderer.RenderPage(c, http.StatusOK, components.Page(snap, h.catalog.Moves()))
}

func (h *Handler) Catalog(c echo.Context) error {
	moves := h.catalog.Moves()
	out := make([]CatalogEntry, 0, len(moves))
	for _, m := range moves {
		out = append(out, CatalogEntry{Move: m, Instruction: m.Instruction()})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) State(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.State(middleware.PlayerID(c)))
}

func (h *Handler) Card(c echo.Context) error {
	data, err := card.PNG(h.service.State(middleware.PlayerID(c)))
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.Blob(http.StatusOK, "image/png", data)
}

func (h *Handler) Select(c echo.Context) error {
	var req SelectCommand
	if err := handlers.BindAndValidate(c, &req); err != nil {
		return err
	}
	snap, err := h.service.Select(middleware.PlayerID(c), req.Move)
	if err != nil {
		return rejection(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

func (h *Handler) Pose(c echo.Context) error {
	var req PoseCommand
	if err := handlers.BindAndValidate(c, &req); err != nil {
		return err
	}
	player := middleware.PlayerID(c)
	status := h.service.Pose(player, req.Label, req.Confidence)
	return c.JSON(http.StatusOK, PoseResponse{PoseStatus: status, State: h.service.State(player)})
}

func (h *Handler) Reset(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Reset(middleware.PlayerID(c)))
}

func (h *Handler) Voice(c echo.Context) error {
	var req VoiceCommand
	if err := handlers.BindAndValidate(c, &req); err != nil {
		return err
	}
	player := middleware.PlayerID(c)
	resp := VoiceResponse{Command: h.service.Voice(player, req.Transcript)}
	if resp.Command != voice.CommandExit {
		snap := h.service.State(player)
		resp.State = &snap
	}
	return c.JSON(http.StatusOK, resp)
}

// Feedback takes a multipart "image" frame and the "pose" being held.
func (h *Handler) Feedback(c echo.Context) error {
	if h.analyzer == nil || !h.analyzer.Enabled() {
		return handlers.Error(c, http.StatusServiceUnavailable, "feedback_disabled", "feedback is not configured")
	}
	fh, err := c.FormFile("image")
	if err != nil {
		return handlers.Error(c, http.StatusBadRequest, "bad_request", "an image file is required")
	}
	if fh.Size > maxFrameBytes {
		return handlers.Error(c, http.StatusRequestEntityTooLarge, "frame_too_large", "image exceeds 5 MiB")
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	fb, err := h.analyzer.Analyze(c.Request().Context(), f, c.FormValue("pose"))
	if err != nil {
		middleware.FromContext(c.Request().Context()).Warn("Serving fallback feedback", "error", err)
	}
	return c.JSON(http.StatusOK, fb)
}

// rejection maps engine errors onto HTTP statuses.
func rejection(c echo.Context, err error) error {
	var rej *battle.RejectionError
	if !errors.As(err, &rej) {
		return err
	}
	switch {
	case errors.Is(err, battle.ErrUnknownMove):
		return handlers.Error(c, http.StatusUnprocessableEntity, "unknown_move", err.Error())
	default:
		return handlers.Error(c, http.StatusConflict, "rejected_transition", err.Error())
	}
}
