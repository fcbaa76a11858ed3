// Package pass renders printable entry passes: a QR code carrying the
// student identifier, composited onto a branded card with the student's
// name and ID.
package pass

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	qrSize       = 256
	marginX      = 40
	headerHeight = 60
	footerHeight = 60
)

var (
	titleColor = color.RGBA{R: 30, G: 136, B: 229, A: 255}
	textColor  = color.Black
)

// Generator writes pass images into a directory, one PNG per student.
type Generator struct {
	dir string
}

func NewGenerator(dir string) *Generator {
	return &Generator{dir: dir}
}

// Generate renders the pass for a student and writes it to
// <dir>/<studentID>.png. The write goes through a temp file and rename so
// a crash cannot leave a truncated image behind. Pass generation is a
// convenience: callers treat a failure here as degraded, not fatal.
func (g *Generator) Generate(studentID, name string) (string, error) {
	img, err := Render(studentID, name)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create pass directory: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode pass image: %w", err)
	}

	final := filepath.Join(g.dir, studentID+".png")
	tmp, err := os.CreateTemp(g.dir, studentID+".*.png.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp pass file: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write pass file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close pass file: %w", err)
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to finalize pass file: %w", err)
	}
	return final, nil
}

// Path returns where a student's pass lives on disk, whether or not it has
// been generated yet.
func (g *Generator) Path(studentID string) string {
	return filepath.Join(g.dir, studentID+".png")
}

// Render builds the pass card in memory. The QR encodes only the student
// identifier, at high error correction so a logo overlay or print damage
// still scans.
func Render(studentID, name string) (image.Image, error) {
	qr, err := qrcode.New(studentID, qrcode.High)
	if err != nil {
		return nil, fmt.Errorf("failed to build QR code: %w", err)
	}
	qrImg := qr.Image(qrSize)

	width := qrSize + 2*marginX
	height := qrSize + headerHeight + footerHeight
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	qrRect := image.Rect(marginX, headerHeight, marginX+qrSize, headerHeight+qrSize)
	draw.Draw(canvas, qrRect, qrImg, qrImg.Bounds().Min, draw.Over)

	drawCentered(canvas, "Swimming Pool Pass", width, 30, titleColor)
	bottom := headerHeight + qrSize + 20
	drawCentered(canvas, "Name: "+name, width, bottom, textColor)
	drawCentered(canvas, "ID: "+studentID, width, bottom+25, textColor)

	return canvas, nil
}

func drawCentered(dst draw.Image, text string, width, y int, col color.Color) {
	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, text).Ceil()
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P((width-textWidth)/2, y),
	}
	d.DrawString(text)
}
