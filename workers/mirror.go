package workers

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"casa_subastas/images"
	"casa_subastas/models"
)

const (
	// RemoteImageHost marks image URLs that still point at the Maps API.
	RemoteImageHost = "maps.googleapis.com"

	maxImageBytes = 10 * 1024 * 1024
	maxAttempts   = 3
)

// ErrImageTooLarge is returned for downloads over the size limit. Nothing is uploaded.
var ErrImageTooLarge = errors.New("image exceeds size limit")

// Uploader stores image bytes and returns their public URL.
type Uploader interface {
	Upload(ctx context.Context, key string, data io.Reader, contentType string) error
	PublicURL(key string) string
}

type ImageStore interface {
	GetPropertiesWithRemoteImages(ctx context.Context, urlPrefix string, limit int) ([]models.Property, error)
	UpdatePropertyImages(ctx context.Context, id int64, images []models.PropertyImage) error
}

type Recorder interface {
	ImageMirrored(outcome string)
}

// ImageMirror copies Street View images into object storage and rewrites the
// stored URLs, so served listings no longer carry the Maps API key.
type ImageMirror struct {
	store      ImageStore
	uploader   Uploader
	httpClient *http.Client
	recorder   Recorder
	delay      time.Duration
	maxBytes   int64
	triggerCh  chan struct{}

	// failures counts errors per URL; after maxAttempts the image is replaced by the placeholder
	failures map[string]int
}

func NewImageMirror(store ImageStore, uploader Uploader, httpClient *http.Client, recorder Recorder) *ImageMirror {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &ImageMirror{
		store:      store,
		uploader:   uploader,
		httpClient: httpClient,
		recorder:   recorder,
		delay:      200 * time.Millisecond,
		maxBytes:   maxImageBytes,
		triggerCh:  make(chan struct{}, 1),
		failures:   make(map[string]int),
	}
}

// MirrorResult is the outcome of mirroring one image.
type MirrorResult struct {
	Key         string
	URL         string
	ContentHash string
	Size        int64
}

// Mirror downloads one image, hashes it and uploads it under a content
// addressed key.
func (w *ImageMirror) Mirror(ctx context.Context, propertyID int64, imageURL string) (*MirrorResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "image/*,*/*")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, w.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > w.maxBytes {
		return nil, fmt.Errorf("%w: over %d bytes", ErrImageTooLarge, w.maxBytes)
	}

	hash := sha256.Sum256(data)
	contentHash := hex.EncodeToString(hash[:])
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	key := fmt.Sprintf("properties/%d/%s%s", propertyID, contentHash[:16], extensionFor(contentType))

	if err := w.uploader.Upload(ctx, key, bytes.NewReader(data), contentType); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	return &MirrorResult{
		Key:         key,
		URL:         w.uploader.PublicURL(key),
		ContentHash: contentHash,
		Size:        int64(len(data)),
	}, nil
}

func extensionFor(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])) {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

// Trigger requests an immediate batch.
func (w *ImageMirror) Trigger() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

// Run processes a batch every interval until ctx is done.
func (w *ImageMirror) Run(ctx context.Context, batchSize int, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Image mirror stopping")
			return
		case <-ticker.C:
			w.ProcessBatch(ctx, batchSize)
		case <-w.triggerCh:
			w.ProcessBatch(ctx, batchSize)
		}
	}
}

// ProcessBatch mirrors the remote images of up to batchSize properties and
// returns how many images were mirrored.
func (w *ImageMirror) ProcessBatch(ctx context.Context, batchSize int) int {
	props, err := w.store.GetPropertiesWithRemoteImages(ctx, RemoteImageHost, batchSize)
	if err != nil {
		log.Printf("Image mirror: query error: %v", err)
		return 0
	}
	if len(props) == 0 {
		return 0
	}

	var mirrored, failed int
	for i := range props {
		p := &props[i]
		changed := false
		updated := make([]models.PropertyImage, len(p.Images))
		copy(updated, p.Images)

		for j, img := range updated {
			if ctx.Err() != nil {
				return mirrored
			}
			if !strings.Contains(img.URL, RemoteImageHost) {
				continue
			}

			res, err := w.Mirror(ctx, p.ID, img.URL)
			if err != nil {
				w.failures[img.URL]++
				failed++
				w.record("failed")
				log.Printf("Image mirror: property %d: %v", p.ID, err)
				if w.failures[img.URL] >= maxAttempts {
					delete(w.failures, img.URL)
					updated[j] = images.Placeholder()
					changed = true
				}
				continue
			}

			delete(w.failures, img.URL)
			updated[j].URL = res.URL
			changed = true
			mirrored++
			w.record("uploaded")

			if w.delay > 0 {
				time.Sleep(w.delay)
			}
		}

		if changed {
			if err := w.store.UpdatePropertyImages(ctx, p.ID, updated); err != nil {
				log.Printf("Image mirror: failed to update property %d: %v", p.ID, err)
			}
		}
	}

	if mirrored > 0 || failed > 0 {
		log.Printf("Image mirror: mirrored %d, failed %d", mirrored, failed)
	}
	return mirrored
}

func (w *ImageMirror) record(outcome string) {
	if w.recorder != nil {
		w.recorder.ImageMirrored(outcome)
	}
}

// NoOpUploader discards uploads. Used when no bucket is configured and in tests.
type NoOpUploader struct {
	BaseURL string
}

func (u *NoOpUploader) Upload(ctx context.Context, key string, data io.Reader, contentType string) error {
	_, err := io.Copy(io.Discard, data)
	return err
}

func (u *NoOpUploader) PublicURL(key string) string {
	return strings.TrimRight(u.BaseURL, "/") + "/" + key
}
