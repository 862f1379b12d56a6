package tagger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register decoder
	"io"
	"net/http"
	"time"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder
)

const (
	// maxCoverEdge is the longest side of the embedded cover in pixels
	maxCoverEdge = 640
	// maxCoverBytes bounds the downloaded image size
	maxCoverBytes = 10 << 20
	jpegQuality   = 90
	coverTimeout  = 15 * time.Second
	maxRedirects  = 3
)

var errTooManyRedirects = errors.New("too many redirects")

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: coverTimeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return errTooManyRedirects
			}
			return nil
		},
	}
}

// coverFetcher downloads album art and normalizes it to a bounded JPEG.
type coverFetcher struct {
	client *http.Client
}

func newCoverFetcher(client *http.Client) *coverFetcher {
	return &coverFetcher{client: client}
}

// Fetch returns JPEG bytes of the image at url, downscaled if needed.
func (c *coverFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cover server returned status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxCoverBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode cover: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, downscale(img, maxCoverEdge), &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode cover: %w", err)
	}

	return buf.Bytes(), nil
}

// downscale shrinks img so its longest edge is at most maxEdge, keeping the aspect ratio.
func downscale(img image.Image, maxEdge int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxEdge && h <= maxEdge {
		return img
	}

	var nw, nh int
	if w >= h {
		nw, nh = maxEdge, h*maxEdge/w
	} else {
		nw, nh = w*maxEdge/h, maxEdge
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	return dst
}
