// Package assets downloads, validates, resizes and stores artwork.
package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"collection-sync/core/metrics"
	"collection-sync/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"golang.org/x/time/rate"
)

var (
	// ErrNotImage is returned when the server answered with a non-image content type.
	ErrNotImage = errors.New("response is not an image")
	// ErrUnsafePath is returned when destDir or filename would leave the image root.
	ErrUnsafePath = errors.New("destination escapes the image root")
)

const maxImageBytes = 20 << 20

// Fetcher downloads one image to a local destination.
type Fetcher interface {
	// Download stores url under destDir/filename, scaled so that neither side
	// exceeds maxDimension, and returns the public local path.
	Download(ctx context.Context, url string, headers map[string]string, destDir, filename string, maxDimension int) (string, error)
}

// HTTPFetcher is the Fetcher used in production.
type HTTPFetcher struct {
	cfg     Config
	client  *http.Client
	pacer   *rate.Limiter
	storage storage.Client
	bucket  string
	logger  *zap.Logger
}

// NewHTTPFetcher creates a fetcher. mirror may be nil to keep images local only.
func NewHTTPFetcher(cfg Config, mirror storage.Client, bucket string, logger *zap.Logger) *HTTPFetcher {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = 90
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &HTTPFetcher{
		cfg:     cfg,
		client:  &http.Client{Timeout: time.Duration(timeout) * time.Second},
		pacer:   rate.NewLimiter(limit, 1),
		storage: mirror,
		bucket:  bucket,
		logger:  logger,
	}
}

// Download implements Fetcher.
func (f *HTTPFetcher) Download(ctx context.Context, url string, headers map[string]string, destDir, filename string, maxDimension int) (string, error) {
	localPath, err := f.download(ctx, url, headers, destDir, filename, maxDimension)
	if err != nil {
		metrics.AssetDownloads.WithLabelValues("failure").Inc()
		return "", err
	}
	metrics.AssetDownloads.WithLabelValues("success").Inc()
	return localPath, nil
}

func (f *HTTPFetcher) download(ctx context.Context, url string, headers map[string]string, destDir, filename string, maxDimension int) (string, error) {
	if url == "" {
		return "", errors.New("empty image url")
	}
	if !localDestination(destDir, filename) {
		return "", fmt.Errorf("%w: %q/%q", ErrUnsafePath, destDir, filename)
	}
	if err := f.pacer.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build image request: %w", err)
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	f.logger.Info("Downloading image", zap.String("url", url))
	res, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d downloading %s", res.StatusCode, url)
	}
	mediaType, _, _ := mime.ParseMediaType(res.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, "image/") {
		return "", fmt.Errorf("%w: got Content-Type=%q from %s", ErrNotImage, res.Header.Get("Content-Type"), url)
	}

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxImageBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Fit(img, maxDimension), &jpeg.Options{Quality: f.cfg.JPEGQuality}); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}

	if err := f.write(destDir, filename, buf.Bytes()); err != nil {
		return "", err
	}
	if f.cfg.Mirror && f.storage != nil {
		f.mirror(ctx, path.Join(destDir, filename), buf.Bytes())
	}
	return path.Join(f.cfg.URLPrefix, destDir, filename), nil
}

// localDestination reports whether destDir/filename stays below the root.
// Both parts are built from provider ids.
func localDestination(destDir, filename string) bool {
	if filename == "" || filename == "." || filename == ".." || strings.ContainsAny(filename, `/\`) {
		return false
	}
	return filepath.IsLocal(filepath.Join(filepath.FromSlash(destDir), filename))
}

func (f *HTTPFetcher) write(destDir, filename string, data []byte) error {
	dir := filepath.Join(f.cfg.Root, filepath.FromSlash(destDir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filename+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write image: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, filename)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to store image: %w", err)
	}
	return nil
}

// mirror failures never fail the download.
func (f *HTTPFetcher) mirror(ctx context.Context, objectName string, data []byte) {
	_, err := f.storage.PutObject(context.WithoutCancel(ctx), f.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "image/jpeg",
	})
	if err != nil {
		f.logger.Warn("Failed to mirror image", zap.String("object", objectName), zap.Error(err))
	}
}

// LocalFile maps a public local path back to its file on disk.
func (f *HTTPFetcher) LocalFile(publicPath string) string {
	rel := strings.TrimPrefix(publicPath, f.cfg.URLPrefix)
	return filepath.Join(f.cfg.Root, filepath.FromSlash(strings.TrimPrefix(rel, "/")))
}

// Fit scales img down so that neither side exceeds maxDimension. Smaller
// images and a non-positive maxDimension return img unchanged.
func Fit(img image.Image, maxDimension int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDimension <= 0 || (w <= maxDimension && h <= maxDimension) {
		return img
	}

	nw, nh := maxDimension, maxDimension
	if w >= h {
		nh = max(1, h*maxDimension/w)
	} else {
		nw = max(1, w*maxDimension/h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
