package frigate

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/richinex/periscope/engine"
	"github.com/richinex/periscope/view"
)

// eventMedia builds the view item of one event.
func eventMedia(camera *engine.Camera, mediaType view.MediaType, event engine.NativeEvent) *view.Media {
	frigate := camera.Config.Frigate
	client := frigate.ClientIDOrDefault()

	folder := "clips"
	var contentType view.VideoContentType
	if mediaType == view.MediaTypeClip {
		contentType = view.VideoContentTypeHLS
	} else {
		folder = "snapshots"
	}

	opts := view.MediaOptions{
		ID:               event.ID,
		VideoContentType: contentType,
		StartTime:        unixTime(event.StartTime),
		InProgress:       boolPtr(event.EndTime == nil),
		ContentID:        fmt.Sprintf("media-source://frigate/%s/event/%s/%s/%s", client, folder, frigate.CameraName, event.ID),
		Title:            eventTitle(event),
		Thumbnail:        fmt.Sprintf("/api/frigate/%s/thumbnail/%s", client, event.ID),
		What:             []string{event.Label},
		Where:            event.Zones,
		Favorite:         boolPtr(event.Retained),
	}
	if event.EndTime != nil {
		opts.EndTime = unixTime(*event.EndTime)
	}
	if event.SubLabel != "" {
		opts.Tags = []string{event.SubLabel}
	}
	if event.TopScore > 0 {
		score := event.TopScore
		opts.Score = &score
	}
	return view.NewMedia(mediaType, camera.ID(), opts)
}

// eventTitle renders "Person 80%".
func eventTitle(event engine.NativeEvent) string {
	label := prettify(event.Label)
	if event.SubLabel != "" {
		label += " (" + event.SubLabel + ")"
	}
	if event.TopScore > 0 {
		return fmt.Sprintf("%s %d%%", label, int(event.TopScore*100+0.5))
	}
	return label
}

// prettify turns "license_plate" into "License Plate".
func prettify(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func boolPtr(b bool) *bool {
	return &b
}
