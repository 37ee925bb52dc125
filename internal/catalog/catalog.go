// ABOUTME: Clip catalog data model
// ABOUTME: Ordered clip descriptors plus the media source they cut from
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// SourceKind distinguishes how a media source can be driven
type SourceKind string

const (
	// KindDirect is a media file the engine decodes and controls itself
	KindDirect SourceKind = "direct-media"

	// KindEmbedded is an opaque third-party player addressed only by URL
	KindEmbedded SourceKind = "embedded-third-party"
)

// Clip is a named sub-interval of the media source
type Clip struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	StartTime    float64 `json:"start_time"`
	EndTime      float64 `json:"end_time"`
	ThumbnailRef string  `json:"thumbnail,omitempty"`
}

// Duration returns the clip length in seconds
func (c Clip) Duration() float64 {
	return c.EndTime - c.StartTime
}

// Clamp bounds t to the clip interval
func (c Clip) Clamp(t float64) float64 {
	if t < c.StartTime {
		return c.StartTime
	}
	if t > c.EndTime {
		return c.EndTime
	}
	return t
}

// MediaSource describes where the clips come from
type MediaSource struct {
	URI  string     `json:"uri"`
	Kind SourceKind `json:"kind"`
}

// Catalog is the immutable, ordered clip list. Declaration order defines "next clip".
type Catalog struct {
	Source MediaSource `json:"source"`
	Clips  []Clip      `json:"clips"`
}

// ErrNoClips is returned for a catalog without clips
var ErrNoClips = errors.New("catalog has no clips")

// Validate checks ids are unique and every interval is well formed
func (c *Catalog) Validate() error {
	if c.Source.URI == "" {
		return fmt.Errorf("media source uri is required")
	}
	switch c.Source.Kind {
	case KindDirect, KindEmbedded:
	default:
		return fmt.Errorf("unknown media source kind: %q", c.Source.Kind)
	}
	if len(c.Clips) == 0 {
		return ErrNoClips
	}

	seen := make(map[string]bool, len(c.Clips))
	for i, clip := range c.Clips {
		if clip.ID == "" {
			return fmt.Errorf("clip %d: id is required", i)
		}
		if seen[clip.ID] {
			return fmt.Errorf("clip %d: duplicate id %q", i, clip.ID)
		}
		seen[clip.ID] = true

		if clip.StartTime < 0 {
			return fmt.Errorf("clip %q: start time %.2f is negative", clip.ID, clip.StartTime)
		}
		if clip.EndTime <= clip.StartTime {
			return fmt.Errorf("clip %q: end time %.2f must be after start time %.2f",
				clip.ID, clip.EndTime, clip.StartTime)
		}
	}

	return nil
}

// IndexOf returns the position of the clip with id, or -1
func (c *Catalog) IndexOf(id string) int {
	for i, clip := range c.Clips {
		if clip.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the clip with id
func (c *Catalog) Find(id string) (Clip, bool) {
	if i := c.IndexOf(id); i >= 0 {
		return c.Clips[i], true
	}
	return Clip{}, false
}

// Next returns the clip declared after id, if any
func (c *Catalog) Next(id string) (Clip, bool) {
	i := c.IndexOf(id)
	if i < 0 || i+1 >= len(c.Clips) {
		return Clip{}, false
	}
	return c.Clips[i+1], true
}

// Load reads and validates a JSON catalog file
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	if c.Source.Kind == "" {
		c.Source.Kind = KindDirect
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}

	return &c, nil
}
