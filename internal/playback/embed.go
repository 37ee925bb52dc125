// ABOUTME: Embedded third-party player addressing
// ABOUTME: Re-points an embed URL's start offset to select clips
package playback

import (
	"fmt"
	"net/url"
	"strconv"
)

// Embed builds start-offset URLs for an opaque external player.
// Position and end-of-media are not observable through an embed, so clips
// never auto-advance on this kind of source.
type Embed struct {
	base *url.URL
}

// NewEmbed parses the embed URI
func NewEmbed(uri string) (*Embed, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid embed uri: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid embed uri: unsupported scheme %q", u.Scheme)
	}
	return &Embed{base: u}, nil
}

// URLAt returns the embed URL starting at the given offset
func (e *Embed) URLAt(startSeconds float64, autoplay bool) string {
	u := *e.base
	q := u.Query()
	q.Set("start", strconv.Itoa(int(startSeconds)))
	if autoplay {
		q.Set("autoplay", "1")
	} else {
		q.Del("autoplay")
	}
	u.RawQuery = q.Encode()
	return u.String()
}
