package engine

import (
	"github.com/richinex/periscope/browse"
	"github.com/richinex/periscope/view"
)

// MediaFromNodes converts media tree leaves into view items. Videos become
// clips and images become snapshots; other nodes and nodes without
// metadata are skipped.
func MediaFromNodes(nodes []*browse.Node[browse.Metadata]) []view.Item {
	items := make([]view.Item, 0, len(nodes))
	for _, node := range nodes {
		if media := mediaFromNode(node); media != nil {
			items = append(items, media)
		}
	}
	return items
}

func mediaFromNode(node *browse.Node[browse.Metadata]) *view.Media {
	if node == nil || node.Metadata == nil {
		return nil
	}

	var (
		mediaType   view.MediaType
		contentType view.VideoContentType
	)
	switch node.MediaClass {
	case browse.MediaClassVideo:
		mediaType = view.MediaTypeClip
		contentType = view.VideoContentTypeMP4
	case browse.MediaClassImage:
		mediaType = view.MediaTypeSnapshot
	default:
		return nil
	}

	return view.NewMedia(mediaType, node.Metadata.CameraID, view.MediaOptions{
		ID:               node.ID,
		VideoContentType: contentType,
		StartTime:        node.Metadata.Start,
		EndTime:          node.Metadata.End,
		InProgress:       ptr(false),
		ContentID:        node.ID,
		Title:            node.Title,
		Thumbnail:        node.Thumbnail,
	})
}

func ptr[T any](v T) *T {
	return &v
}
