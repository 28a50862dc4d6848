// Package radar builds an animated GIF from the newest sweeps of a public
// weather-radar archive.
package radar

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/IshaanNene/pressclip/internal/config"
	"github.com/IshaanNene/pressclip/internal/media"
	"github.com/IshaanNene/pressclip/internal/observability"
	"github.com/IshaanNene/pressclip/internal/types"
)

// Result summarizes one radar run.
type Result struct {
	Prefix  string
	Keys    []string
	Frames  int
	Skipped int
	Output  string
}

// Loop lists, downloads and encodes radar frames.
type Loop struct {
	cfg        config.RadarConfig
	archive    *Archive
	downloader *media.Downloader
	metrics    *observability.Metrics
	now        func() time.Time
	logger     *slog.Logger
}

// NewLoop creates a radar loop. metrics may be nil.
func NewLoop(cfg config.RadarConfig, archive *Archive, downloader *media.Downloader, metrics *observability.Metrics, logger *slog.Logger) *Loop {
	return &Loop{
		cfg:        cfg,
		archive:    archive,
		downloader: downloader,
		metrics:    metrics,
		now:        time.Now,
		logger:     logger.With("component", "radar"),
	}
}

// SetClock overrides the clock used to pick the listing day.
func (l *Loop) SetClock(now func() time.Time) {
	l.now = now
}

// Run writes the animated GIF to the configured output path. Today's
// prefix is tried first, then yesterday's when today has no matching keys.
func (l *Loop) Run(ctx context.Context) (*Result, error) {
	today := l.now().UTC()

	var prefix string
	var keys []string
	for _, day := range []time.Time{today, today.AddDate(0, 0, -1)} {
		prefix = Prefix(l.cfg.PrefixLayout, l.cfg.Site, day)
		all, err := l.archive.List(ctx, prefix)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		keys = Latest(all, l.cfg.KeySuffix, l.cfg.Frames)
		if len(keys) > 0 {
			break
		}
		l.logger.Debug("no keys under prefix", "prefix", prefix)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: %s", types.ErrNoObjects, prefix)
	}

	l.logger.Info("radar keys selected", "prefix", prefix, "count", len(keys))

	result := &Result{Prefix: prefix, Keys: keys, Output: l.cfg.Output}
	var frames []*image.Paletted

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dl, err := l.downloader.Download(ctx, l.archive.ObjectURL(key))
		if err != nil {
			return nil, fmt.Errorf("download %s: %w", key, err)
		}
		if l.metrics != nil && !dl.Cached {
			l.metrics.RadarFramesDownloaded.Add(1)
			l.metrics.BytesFetched.Add(dl.Size)
		}

		frame, err := decodeFrame(dl.LocalPath)
		if err != nil {
			result.Skipped++
			if l.metrics != nil {
				l.metrics.RadarFramesSkipped.Add(1)
			}
			l.logger.Warn("radar frame skipped", "key", key, "error", err)
			continue
		}
		frames = append(frames, frame)
	}

	if len(frames) == 0 {
		return nil, types.ErrNoFrames
	}

	if err := writeGIF(l.cfg.Output, frames, l.cfg.FrameDelay); err != nil {
		return nil, err
	}
	result.Frames = len(frames)

	l.logger.Info("radar loop written",
		"output", l.cfg.Output,
		"frames", result.Frames,
		"skipped", result.Skipped,
	)
	return result, nil
}

// decodeFrame reads a png, gif or jpeg image, optionally gzip-compressed.
func decodeFrame(path string) (*image.Paletted, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var r io.Reader = bytes.NewReader(raw)
	if strings.HasSuffix(path, ".gz") || bytes.HasPrefix(raw, []byte{0x1f, 0x8b}) {
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("gunzip: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return toPaletted(img), nil
}

// toPaletted returns img as a paletted image anchored at the origin.
func toPaletted(img image.Image) *image.Paletted {
	b := img.Bounds()
	if p, ok := img.(*image.Paletted); ok && b.Min == (image.Point{}) {
		return p
	}

	dst := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), palette.Plan9)
	draw.FloydSteinberg.Draw(dst, dst.Bounds(), img, b.Min)
	return dst
}

// writeGIF encodes frames into an endlessly looping GIF at path. The
// canvas is sized to the largest frame.
func writeGIF(path string, frames []*image.Paletted, delay time.Duration) error {
	anim := &gif.GIF{LoopCount: 0}
	centis := int(delay / (10 * time.Millisecond))

	var w, h int
	for _, f := range frames {
		anim.Image = append(anim.Image, f)
		anim.Delay = append(anim.Delay, centis)
		w = max(w, f.Bounds().Dx())
		h = max(h, f.Bounds().Dy())
	}
	anim.Config = image.Config{Width: w, Height: h}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create gif: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gif.EncodeAll(tmp, anim); err != nil {
		tmp.Close()
		return fmt.Errorf("encode gif: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close gif: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod gif: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
