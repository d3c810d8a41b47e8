package inpaint

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	inktranslator "github.com/miya-dang/InkTranslator"
)

// blackOnWhite is a white canvas with a black block where the text was.
func blackOnWhite() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 60, 60))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(20, 20, 40, 40), &image.Uniform{C: color.Black}, image.Point{}, draw.Src)
	return img
}

func textBoxAt(x1, y1, x2, y2 int) inktranslator.TextBox {
	return inktranslator.TextBox{BBox: inktranslator.BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2}}
}

func TestBorderFill(t *testing.T) {
	ctx := context.Background()

	t.Run("fills the region with the border color", func(t *testing.T) {
		img := blackOnWhite()
		out, err := NewBorderFill().Inpaint(ctx, img, []inktranslator.TextBox{textBoxAt(20, 20, 40, 40)})
		if err != nil {
			t.Fatal(err)
		}
		r, g, b, _ := out.At(30, 30).RGBA()
		if r < 0xf000 || g < 0xf000 || b < 0xf000 {
			t.Errorf("center pixel not filled white: %d %d %d", r, g, b)
		}
	})

	t.Run("does not modify the input image", func(t *testing.T) {
		img := blackOnWhite()
		if _, err := NewBorderFill().Inpaint(ctx, img, []inktranslator.TextBox{textBoxAt(20, 20, 40, 40)}); err != nil {
			t.Fatal(err)
		}
		if r, _, _, _ := img.At(30, 30).RGBA(); r != 0 {
			t.Error("input image was modified")
		}
	})

	t.Run("clamps boxes at the image edge", func(t *testing.T) {
		img := blackOnWhite()
		if _, err := NewBorderFill().Inpaint(ctx, img, []inktranslator.TextBox{textBoxAt(-10, -10, 30, 30)}); err != nil {
			t.Fatal(err)
		}
	})
}

func TestLama(t *testing.T) {
	ctx := context.Background()
	boxes := []inktranslator.TextBox{textBoxAt(20, 20, 40, 40)}

	t.Run("uses the remote result", func(t *testing.T) {
		// The fake service answers with an all-green image so the result is
		// distinguishable from any local fill.
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/inpaint" {
				http.NotFound(w, r)
				return
			}
			green := image.NewRGBA(image.Rect(0, 0, 60, 60))
			draw.Draw(green, green.Bounds(), &image.Uniform{C: color.RGBA{G: 255, A: 255}}, image.Point{}, draw.Src)
			var buf bytes.Buffer
			if err := png.Encode(&buf, green); err != nil {
				t.Error(err)
			}
			w.Write(buf.Bytes())
		}))
		defer server.Close()

		out, err := NewLama(server.URL, "").Inpaint(ctx, blackOnWhite(), boxes)
		if err != nil {
			t.Fatal(err)
		}
		if _, g, _, _ := out.At(30, 30).RGBA(); g < 0xf000 {
			t.Errorf("remote result not used, green channel %d", g)
		}
	})

	t.Run("falls back to border fill on server errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad request", http.StatusBadRequest)
		}))
		defer server.Close()

		out, err := NewLama(server.URL, "").Inpaint(ctx, blackOnWhite(), boxes)
		if err != nil {
			t.Fatal(err)
		}
		r, g, b, _ := out.At(30, 30).RGBA()
		if r < 0xf000 || g < 0xf000 || b < 0xf000 {
			t.Errorf("fallback fill missing: %d %d %d", r, g, b)
		}
	})

	t.Run("empty box list passes the image through", func(t *testing.T) {
		img := blackOnWhite()
		out, err := NewLama("http://unreachable.invalid", "").Inpaint(ctx, img, nil)
		if err != nil {
			t.Fatal(err)
		}
		if out != image.Image(img) {
			t.Error("expected the original image back")
		}
	})
}
