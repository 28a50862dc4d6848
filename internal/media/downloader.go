package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// ErrTooLarge is returned when an object exceeds the downloader's size limit.
var ErrTooLarge = errors.New("file too large")

// MediaType classifies the type of a downloaded file.
type MediaType string

const (
	MediaImage   MediaType = "image"
	MediaArchive MediaType = "archive"
	MediaOther   MediaType = "other"
)

// DownloadResult tracks a downloaded file.
type DownloadResult struct {
	URL         string        `json:"url"`
	LocalPath   string        `json:"local_path"`
	Filename    string        `json:"filename"`
	Size        int64         `json:"size"`
	ContentType string        `json:"content_type"`
	MediaType   MediaType     `json:"media_type"`
	Hash        string        `json:"hash"`
	Cached      bool          `json:"cached"`
	Duration    time.Duration `json:"duration"`
}

// Downloader stores remote objects under one directory. Files that already
// exist locally are reused without a request.
type Downloader struct {
	outputDir string
	client    *http.Client
	maxSize   int64
	logger    *slog.Logger
}

// NewDownloader creates a downloader writing into outputDir.
func NewDownloader(outputDir string, maxSize int64, timeout time.Duration, logger *slog.Logger) *Downloader {
	return &Downloader{
		outputDir: outputDir,
		client:    &http.Client{Timeout: timeout},
		maxSize:   maxSize,
		logger:    logger.With("component", "media_downloader"),
	}
}

// Download fetches rawURL into the output directory.
func (d *Downloader) Download(ctx context.Context, rawURL string) (*DownloadResult, error) {
	start := time.Now()

	if err := os.MkdirAll(d.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}

	filename := extractFilename(rawURL, "")
	localPath := filepath.Join(d.outputDir, filename)
	if existing, err := d.cached(rawURL, localPath); err == nil {
		return existing, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status %d", rawURL, resp.StatusCode)
	}
	if d.maxSize > 0 && resp.ContentLength > d.maxSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, resp.ContentLength, d.maxSize)
	}

	contentType := resp.Header.Get("Content-Type")

	f, err := os.CreateTemp(d.outputDir, "."+filename+".*")
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	defer os.Remove(f.Name())

	hasher := sha256.New()
	var reader io.Reader = resp.Body
	if d.maxSize > 0 {
		reader = io.LimitReader(resp.Body, d.maxSize+1)
	}

	size, err := io.Copy(io.MultiWriter(f, hasher), reader)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("write file: %w", err)
	}
	if d.maxSize > 0 && size > d.maxSize {
		f.Close()
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, d.maxSize)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(f.Name(), localPath); err != nil {
		return nil, fmt.Errorf("rename file: %w", err)
	}

	result := &DownloadResult{
		URL:         rawURL,
		LocalPath:   localPath,
		Filename:    filename,
		Size:        size,
		ContentType: contentType,
		MediaType:   classifyMedia(contentType, filename),
		Hash:        hex.EncodeToString(hasher.Sum(nil)),
		Duration:    time.Since(start),
	}

	d.logger.Debug("file downloaded",
		"url", rawURL,
		"size", humanSize(size),
		"type", result.MediaType,
		"hash", result.Hash[:16],
		"duration", result.Duration,
	)
	return result, nil
}

func (d *Downloader) cached(rawURL, localPath string) (*DownloadResult, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	hasher := sha256.New()
	size, err := io.Copy(hasher, f)
	if err != nil {
		return nil, err
	}

	filename := filepath.Base(localPath)
	contentType := mime.TypeByExtension(filepath.Ext(filename))
	d.logger.Debug("file reused", "path", localPath)
	return &DownloadResult{
		URL:         rawURL,
		LocalPath:   localPath,
		Filename:    filename,
		Size:        size,
		ContentType: contentType,
		MediaType:   classifyMedia(contentType, filename),
		Hash:        hex.EncodeToString(hasher.Sum(nil)),
		Cached:      true,
	}, nil
}

// --- Helpers ---

func classifyMedia(contentType, filename string) MediaType {
	ct := strings.ToLower(contentType)
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case strings.HasPrefix(ct, "image/"):
		return MediaImage
	case ext == ".png", ext == ".gif", ext == ".jpg", ext == ".jpeg":
		return MediaImage
	case ct == "application/gzip", ct == "application/x-gzip", ext == ".gz", ext == ".bz2":
		return MediaArchive
	default:
		return MediaOther
	}
}

func extractFilename(rawURL, contentType string) string {
	parsed, err := url.Parse(rawURL)
	if err == nil {
		if name := path.Base(parsed.Path); name != "" && name != "." && name != "/" {
			return name
		}
	}

	hash := sha256.Sum256([]byte(rawURL))
	name := hex.EncodeToString(hash[:8])
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		name += exts[0]
	}
	return name
}

func humanSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
