package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/richinex/periscope/hass"
	"github.com/richinex/periscope/internal/clock"
	"github.com/richinex/periscope/storage"
)

// ResolveRequestType is the host's request type for turning a media
// content id into a playable URL.
const ResolveRequestType = "media_source/resolve_media"

// DefaultResolvedMediaTTL bounds how long a resolved URL is reused. The
// host signs resolved URLs, so they go stale.
const DefaultResolvedMediaTTL = 30 * time.Second

// ResolveRequest asks the host to resolve a media content id.
type ResolveRequest struct {
	Type           string `json:"type"`
	MediaContentID string `json:"media_content_id"`
}

// ResolvedMedia is the host's answer to a ResolveRequest.
type ResolvedMedia struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
}

// MediaResolver resolves content ids through the host, remembering answers
// for a short while.
type MediaResolver struct {
	requester hass.Requester
	cache     *storage.ExpiringCache[string, ResolvedMedia]
	clock     clock.Clock
	ttl       time.Duration
}

// NewMediaResolver creates a resolver. A nil clock means the real one.
func NewMediaResolver(requester hass.Requester, c clock.Clock) *MediaResolver {
	if c == nil {
		c = clock.Real()
	}
	return &MediaResolver{
		requester: requester,
		cache:     storage.NewExpiringCache[string, ResolvedMedia](c),
		clock:     c,
		ttl:       DefaultResolvedMediaTTL,
	}
}

// Resolve returns the playable media behind contentID.
func (r *MediaResolver) Resolve(ctx context.Context, contentID string) (ResolvedMedia, error) {
	if resolved, ok := r.cache.Get(contentID); ok {
		return resolved, nil
	}
	if r.requester == nil {
		return ResolvedMedia{}, fmt.Errorf("resolve %q: no requester", contentID)
	}

	var resolved ResolvedMedia
	err := r.requester.Request(ctx, ResolveRequest{
		Type:           ResolveRequestType,
		MediaContentID: contentID,
	}, &resolved)
	if err != nil {
		return ResolvedMedia{}, fmt.Errorf("resolve %q: %w", contentID, err)
	}

	r.cache.Set(contentID, resolved, r.clock.Now().Add(r.ttl))
	return resolved, nil
}

// DownloadPath resolves contentID into an endpoint. Resolved URLs are
// already signed. An empty contentID has nothing to download.
func (r *MediaResolver) DownloadPath(ctx context.Context, contentID string) (*Endpoint, error) {
	if contentID == "" {
		return nil, nil
	}
	resolved, err := r.Resolve(ctx, contentID)
	if err != nil {
		return nil, err
	}
	return &Endpoint{Endpoint: resolved.URL}, nil
}
