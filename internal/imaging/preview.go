// Package imaging renders cropped previews of uploaded article images.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"math"

	"blog/internal/models"
	"blog/internal/storage"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// MaxPreviewSize bounds the longer side of a preview.
	MaxPreviewSize = 1440
	WebPQuality    = 75
)

// Previewer writes a cropped WebP next to an uploaded image.
type Previewer struct {
	store   *storage.FileStore
	maxSize int
	quality int
}

func NewPreviewer(store *storage.FileStore) *Previewer {
	return &Previewer{store: store, maxSize: MaxPreviewSize, quality: WebPQuality}
}

// Generate decodes dir/name, applies meta and stores dir/previewName.
func (p *Previewer) Generate(dir, name, previewName string, meta models.CropMeta) error {
	f, err := p.store.Open(dir, name)
	if err != nil {
		return err
	}
	src, _, err := image.Decode(f)
	_ = f.Close()
	if err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}

	out := Crop(src, meta, p.maxSize)

	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, out, &webp.Options{Quality: float32(p.quality)}); err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	_, err = p.store.Save(dir, previewName, buf)
	return err
}

func clamp01(v *float64, fallback float64) float64 {
	if v == nil || math.IsNaN(*v) {
		return fallback
	}
	return math.Min(1, math.Max(0, *v))
}

// CropRect converts normalized crop values to pixel bounds inside b.
// Missing values select the whole image; the result is never empty.
func CropRect(b image.Rectangle, meta models.CropMeta) image.Rectangle {
	w, h := float64(b.Dx()), float64(b.Dy())
	x := clamp01(meta.X, 0)
	y := clamp01(meta.Y, 0)
	cw := clamp01(meta.Width, 1-x)
	ch := clamp01(meta.Height, 1-y)

	x0 := b.Min.X + int(math.Round(x*w))
	y0 := b.Min.Y + int(math.Round(y*h))
	x1 := x0 + int(math.Round(cw*w))
	y1 := y0 + int(math.Round(ch*h))

	r := image.Rect(x0, y0, x1, y1).Intersect(b)
	if r.Empty() {
		return b
	}
	return r
}

// Crop cuts meta out of src and scales it by meta.Scale (default 1),
// keeping the longer side within maxSize.
func Crop(src image.Image, meta models.CropMeta, maxSize int) image.Image {
	rect := CropRect(src.Bounds(), meta)

	scale := 1.0
	if meta.Scale != nil && *meta.Scale > 0 {
		scale = *meta.Scale
	}
	longer := math.Max(float64(rect.Dx()), float64(rect.Dy()))
	if maxSize > 0 && longer*scale > float64(maxSize) {
		scale = float64(maxSize) / longer
	}

	outW := max(1, int(math.Round(float64(rect.Dx())*scale)))
	outH := max(1, int(math.Round(float64(rect.Dy())*scale)))
	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))

	if outW == rect.Dx() && outH == rect.Dy() {
		draw.Draw(dst, dst.Bounds(), src, rect.Min, draw.Src)
		return dst
	}
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, rect, xdraw.Over, nil)
	return dst
}
