package inpaint

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	inktranslator "github.com/miya-dang/InkTranslator"
)

// Lama sends the image and region mask to a hosted LaMa inpainting service
// and falls back to local border fill when the service is unreachable.
type Lama struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	fallback *BorderFill
}

func NewLama(baseURL, apiKey string) *Lama {
	return &Lama{
		baseURL:  baseURL,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 60 * time.Second},
		fallback: NewBorderFill(),
	}
}

func (l *Lama) Inpaint(ctx context.Context, img image.Image, boxes []inktranslator.TextBox) (image.Image, error) {
	if len(boxes) == 0 {
		return img, nil
	}
	mask := maskImage(img.Bounds(), boxes)

	cleaned, err := backoff.RetryWithData(func() (image.Image, error) {
		return l.requestInpaint(ctx, img, mask)
	}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(2*time.Second), 2), ctx))
	if err != nil {
		log.Printf("Failed to inpaint remotely, falling back to border fill: %v", err)
		return l.fallback.Inpaint(ctx, img, boxes)
	}
	return cleaned, nil
}

func (l *Lama) requestInpaint(ctx context.Context, img image.Image, mask image.Image) (image.Image, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writePNGPart(writer, "image", img); err != nil {
		return nil, backoff.Permanent(err)
	}
	if err := writePNGPart(writer, "mask", mask); err != nil {
		return nil, backoff.Permanent(err)
	}
	if err := writer.Close(); err != nil {
		return nil, backoff.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/inpaint", &body)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if l.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+l.apiKey)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("inpaint service returned %d: %s", resp.StatusCode, payload)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	cleaned, err := png.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decoding inpainted image: %w", err)
	}
	return cleaned, nil
}

func writePNGPart(writer *multipart.Writer, field string, img image.Image) error {
	part, err := writer.CreateFormFile(field, field+".png")
	if err != nil {
		return err
	}
	return png.Encode(part, img)
}
