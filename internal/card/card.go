// Package card draws a shareable PNG of a battle.
package card

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/nfrund/exerbeasts/internal/battle"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

const (
	Width  = 640
	Height = 360
)

var (
	colorSky    = color.RGBA{186, 230, 253, 255}
	colorGround = color.RGBA{134, 239, 172, 255}
	colorBox    = color.RGBA{250, 250, 250, 255}
	colorTrack  = color.RGBA{209, 213, 219, 255}
	colorGreen  = color.RGBA{34, 197, 94, 255}
	colorYellow = color.RGBA{250, 204, 21, 255}
	colorRed    = color.RGBA{239, 68, 68, 255}
)

type faces struct {
	title font.Face
	body  font.Face
	small font.Face
}

var loadFaces = sync.OnceValues(func() (*faces, error) {
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, err
	}
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	face := func(f *opentype.Font, size float64) (font.Face, error) {
		return opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	}

	fs := &faces{}
	if fs.title, err = face(bold, 20); err != nil {
		return nil, err
	}
	if fs.body, err = face(regular, 18); err != nil {
		return nil, err
	}
	if fs.small, err = face(regular, 14); err != nil {
		return nil, err
	}
	return fs, nil
})

// BarColor is the hp bar color of a side. The enemy bar is always red.
func BarColor(side battle.Side, c battle.Combatant) color.RGBA {
	if side == battle.SideEnemy {
		return colorRed
	}
	switch c.Tier() {
	case battle.HealthHigh:
		return colorGreen
	case battle.HealthMid:
		return colorYellow
	default:
		return colorRed
	}
}

// Draw renders the battle card.
func Draw(s battle.Snapshot) (image.Image, error) {
	fs, err := loadFaces()
	if err != nil {
		return nil, fmt.Errorf("failed to load card fonts: %w", err)
	}

	dc := gg.NewContext(Width, Height)
	dc.SetColor(colorSky)
	dc.Clear()
	dc.SetColor(colorGround)
	dc.DrawRectangle(0, 200, Width, Height-200)
	dc.Fill()

	drawInfoBox(dc, fs, 330, 20, "ENEMY Lv. 25", battle.SideEnemy, s.Enemy)
	drawInfoBox(dc, fs, 20, 120, "YOU Lv. 30", battle.SidePlayer, s.Player)

	// Text box
	dc.SetColor(colorBox)
	dc.DrawRoundedRectangle(20, 250, Width-40, 90, 8)
	dc.FillPreserve()
	dc.SetColor(color.Black)
	dc.SetLineWidth(4)
	dc.Stroke()

	dc.SetFontFace(fs.body)
	dc.DrawStringWrapped(s.Text, 36, 266, 0, 0, Width-72, 1.3, gg.AlignLeft)

	dc.SetFontFace(fs.small)
	dc.SetColor(color.RGBA{75, 85, 99, 255})
	status := fmt.Sprintf("%s  turn %d", strings.ToUpper(strings.ReplaceAll(string(s.Phase), "-", " ")), s.TurnCount+1)
	dc.DrawStringAnchored(status, Width-28, 334, 1, 0)

	return dc.Image(), nil
}

func drawInfoBox(dc *gg.Context, fs *faces, x, y float64, label string, side battle.Side, c battle.Combatant) {
	const w, h = 290.0, 80.0

	dc.SetColor(colorBox)
	dc.DrawRoundedRectangle(x, y, w, h, 8)
	dc.FillPreserve()
	dc.SetColor(color.Black)
	dc.SetLineWidth(3)
	dc.Stroke()

	dc.SetFontFace(fs.title)
	dc.DrawString(label, x+14, y+28)

	barX, barY, barW, barH := x+14, y+38, w-28, 12.0
	dc.SetColor(colorTrack)
	dc.DrawRoundedRectangle(barX, barY, barW, barH, 4)
	dc.Fill()

	if c.MaxHP > 0 && c.HP > 0 {
		dc.SetColor(BarColor(side, c))
		dc.DrawRoundedRectangle(barX, barY, barW*float64(c.HP)/float64(c.MaxHP), barH, 4)
		dc.Fill()
	}

	dc.SetFontFace(fs.small)
	dc.SetColor(color.Black)
	dc.DrawStringAnchored(fmt.Sprintf("%d/%d HP", c.HP, c.MaxHP), x+w-14, y+h-10, 1, 0)
}

// Render writes the battle card as PNG.
func Render(w io.Writer, s battle.Snapshot) error {
	img, err := Draw(s)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// PNG returns the encoded battle card.
func PNG(s battle.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
