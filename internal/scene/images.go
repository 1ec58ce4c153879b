package scene

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/h2non/filetype"
	"golang.org/x/image/draw"
	"golang.org/x/sync/singleflight"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrNotImage is returned for payloads that are not a decodable image
var ErrNotImage = errors.New("not an image")

// ImageLoader fetches and decodes texture images off the loop goroutine.
// Concurrent requests for the same name share one fetch.
type ImageLoader struct {
	fsys    fs.FS
	client  *http.Client
	maxSize int
	group   singleflight.Group
	log     *slog.Logger
}

// NewImageLoader creates a loader reading relative names from fsys and
// http(s) URLs over the network. A nil fsys reads from the OS. Images
// larger than maxSize on either side are scaled down; zero disables that.
func NewImageLoader(fsys fs.FS, maxSize int, log *slog.Logger) *ImageLoader {
	if log == nil {
		log = slog.Default()
	}
	return &ImageLoader{
		fsys:    fsys,
		client:  http.DefaultClient,
		maxSize: maxSize,
		log:     log,
	}
}

// Load fetches and decodes name
func (l *ImageLoader) Load(ctx context.Context, name string) (image.Image, error) {
	v, err, shared := l.group.Do(name, func() (any, error) {
		return l.load(ctx, name)
	})
	if shared {
		l.log.Debug("image load shared", "name", name)
	}
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

// LoadAsync loads name in the background and runs done on loop. When the
// loop is closed before the load finishes the result is discarded.
func (l *ImageLoader) LoadAsync(ctx context.Context, loop *Loop, name string, done func(image.Image, error)) {
	go func() {
		img, err := l.Load(ctx, name)
		if !loop.Post(func() { done(img, err) }) {
			l.log.Debug("image load discarded", "name", name)
		}
	}()
}

func (l *ImageLoader) load(ctx context.Context, name string) (image.Image, error) {
	data, err := l.fetch(ctx, name)
	if err != nil {
		return nil, err
	}

	if !filetype.IsImage(data) {
		kind, _ := filetype.Match(data)
		return nil, fmt.Errorf("%s: %w (detected %s)", name, ErrNotImage, kind.MIME.Value)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	l.log.Debug("image decoded", "name", name, "format", format, "bounds", img.Bounds().Size())

	return downscale(img, l.maxSize), nil
}

func (l *ImageLoader) fetch(ctx context.Context, name string) ([]byte, error) {
	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, name, nil)
		if err != nil {
			return nil, err
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", name, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch %s: %s", name, resp.Status)
		}
		return io.ReadAll(resp.Body)
	}

	if l.fsys == nil {
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// downscale keeps the aspect ratio and fits the longer side into maxSize
func downscale(img image.Image, maxSize int) image.Image {
	size := img.Bounds().Size()
	longest := max(size.X, size.Y)
	if maxSize <= 0 || longest <= maxSize {
		return img
	}

	w := max(1, size.X*maxSize/longest)
	h := max(1, size.Y*maxSize/longest)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}
