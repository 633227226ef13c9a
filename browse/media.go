// Package browse walks the host's media source tree.
//
// The host exposes recordings as a browsable hierarchy (camera, day
// directory, file). Engines without a native event API describe the path
// they want as a chain of Steps and let a Walker descend it, fetching each
// level from the host on demand.
package browse

import (
	"context"
	"fmt"
	"time"

	"github.com/richinex/periscope/hass"
)

// Media is one node of the host's media tree, as the host returns it.
type Media struct {
	Title            string   `json:"title" yaml:"title"`
	MediaClass       string   `json:"media_class" yaml:"media_class"`
	MediaContentType string   `json:"media_content_type" yaml:"media_content_type"`
	MediaContentID   string   `json:"media_content_id" yaml:"media_content_id"`
	CanPlay          bool     `json:"can_play" yaml:"can_play"`
	CanExpand        bool     `json:"can_expand" yaml:"can_expand"`
	Thumbnail        string   `json:"thumbnail,omitempty" yaml:"thumbnail"`
	Children         []*Media `json:"children,omitempty" yaml:"children"`
}

// Media classes used by the engines.
const (
	MediaClassDirectory = "directory"
	MediaClassVideo     = "video"
	MediaClassImage     = "image"
)

// Metadata is the time span derived for a node from its title and its
// parent's span.
type Metadata struct {
	CameraID string    `json:"camera_id,omitempty"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

// Node is a media node with derived metadata. Nodes are shared between
// walks through the cache and must not be modified once returned.
type Node[M any] struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	MediaClass  string     `json:"media_class,omitempty"`
	ContentType string     `json:"content_type,omitempty"`
	Thumbnail   string     `json:"thumbnail,omitempty"`
	CanPlay     bool       `json:"can_play,omitempty"`
	CanExpand   bool       `json:"can_expand,omitempty"`
	Children    []*Node[M] `json:"children,omitempty"`
	Metadata    *M         `json:"metadata,omitempty"`
}

// NewNode converts host media into a node tree without metadata.
func NewNode[M any](media *Media) *Node[M] {
	if media == nil {
		return nil
	}
	node := &Node[M]{
		ID:          media.MediaContentID,
		Title:       media.Title,
		MediaClass:  media.MediaClass,
		ContentType: media.MediaContentType,
		Thumbnail:   media.Thumbnail,
		CanPlay:     media.CanPlay,
		CanExpand:   media.CanExpand,
	}
	if media.Children != nil {
		node.Children = make([]*Node[M], 0, len(media.Children))
		for _, child := range media.Children {
			if child != nil {
				node.Children = append(node.Children, NewNode[M](child))
			}
		}
	}
	return node
}

// Expanded reports whether the node already carries its children.
func (n *Node[M]) Expanded() bool {
	return n.Children != nil
}

// Fetcher returns a media node with its children.
type Fetcher interface {
	Fetch(ctx context.Context, contentID string) (*Media, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, contentID string) (*Media, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, contentID string) (*Media, error) {
	return f(ctx, contentID)
}

// BrowseRequest is the host request for one level of the media tree.
type BrowseRequest struct {
	Type           string `json:"type"`
	MediaContentID string `json:"media_content_id"`
}

// BrowseRequestType is the host's request type for browsing media.
const BrowseRequestType = "media_source/browse_media"

// RPCFetcher fetches media over the host's request primitive.
type RPCFetcher struct {
	requester hass.Requester
}

// NewRPCFetcher creates a Fetcher that browses through requester.
func NewRPCFetcher(requester hass.Requester) *RPCFetcher {
	return &RPCFetcher{requester: requester}
}

// Fetch browses contentID.
func (f *RPCFetcher) Fetch(ctx context.Context, contentID string) (*Media, error) {
	var media Media
	err := f.requester.Request(ctx, BrowseRequest{
		Type:           BrowseRequestType,
		MediaContentID: contentID,
	}, &media)
	if err != nil {
		return nil, err
	}
	if media.MediaContentID == "" {
		return nil, fmt.Errorf("invalid browse response for %q: missing media_content_id", contentID)
	}
	return &media, nil
}
