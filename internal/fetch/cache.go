// ABOUTME: Download cache for clip thumbnails and remote media
// ABOUTME: Fetches http(s) resources once and serves them from a temp directory
package fetch

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Cache manages downloads keyed by URL
type Cache struct {
	mu       sync.Mutex
	cacheDir string
	client   *http.Client
}

// NewCache creates a cache rooted at dir ("" uses a temp directory)
func NewCache(dir string) (*Cache, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "clipchat-cache")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &Cache{
		cacheDir: dir,
		client:   &http.Client{Timeout: 2 * time.Minute},
	}, nil
}

// Fetch downloads rawURL into the cache and returns the local path
func (c *Cache) Fetch(ctx context.Context, rawURL string) (string, error) {
	if rawURL == "" {
		return "", nil
	}

	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("unsupported url: %q", rawURL)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	hash := sha256.Sum256([]byte(rawURL))
	cachePath := filepath.Join(c.cacheDir, fmt.Sprintf("%x%s", hash[:8], getExtension(rawURL)))

	if _, err := os.Stat(cachePath); err == nil {
		return cachePath, nil
	}

	log.Printf("Downloading %s", rawURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	// Write to a temp name so a failed copy never looks cached
	tmp := cachePath + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("failed to create cache file: %w", err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("failed to save download: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to save download: %w", err)
	}
	if err := os.Rename(tmp, cachePath); err != nil {
		return "", fmt.Errorf("failed to finalize download: %w", err)
	}

	log.Printf("Saved %s", cachePath)
	return cachePath, nil
}

// Resolve returns a local path for uri, downloading http(s) URIs and
// passing file paths through
func (c *Cache) Resolve(ctx context.Context, uri string) (string, error) {
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		return c.Fetch(ctx, uri)
	}
	return strings.TrimPrefix(uri, "file://"), nil
}

// Dir returns the cache directory
func (c *Cache) Dir() string {
	return c.cacheDir
}

// Cleanup removes the cache directory
func (c *Cache) Cleanup() error {
	return os.RemoveAll(c.cacheDir)
}

// getExtension extracts file extension from URL
func getExtension(rawURL string) string {
	rawURL = strings.Split(rawURL, "?")[0]

	ext := filepath.Ext(rawURL)
	if ext == "" || len(ext) > 5 || strings.Contains(ext, "/") {
		ext = ".bin"
	}

	return ext
}
