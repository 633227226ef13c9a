package frigate

import (
	"fmt"
	"strings"

	"github.com/richinex/periscope/engine"
	"github.com/richinex/periscope/view"
)

// GetCameraEndpoints returns the integration's proxied streams and, when a
// Frigate URL is configured, the page of the Frigate UI that matches what
// the user is looking at.
func (e *Engine) GetCameraEndpoints(camera *engine.Camera, ectx *engine.EndpointsContext) *engine.Endpoints {
	cfg := camera.Config
	name := cfg.Frigate.CameraName
	prefix := "/api/frigate/" + cfg.Frigate.ClientIDOrDefault()

	endpoints := engine.CommonEndpoints(cfg)
	endpoints.UI = e.uiEndpoint(camera, ectx)

	if name == "" {
		return endpoints
	}

	stream := name
	if cfg.Go2RTC.Stream != "" {
		stream = cfg.Go2RTC.Stream
	}
	if cfg.Go2RTC.URL != "" {
		endpoints.Go2RTC = engine.Go2RTCEndpoint(cfg.Go2RTC.URL, stream)
	} else {
		endpoints.Go2RTC = &engine.Endpoint{
			Endpoint: prefix + "/mse/api/ws?src=" + stream,
			Sign:     true,
		}
	}
	endpoints.JSMpeg = &engine.Endpoint{
		Endpoint: prefix + "/jsmpeg/" + name,
		Sign:     true,
	}
	return endpoints
}

func (e *Engine) uiEndpoint(camera *engine.Camera, ectx *engine.EndpointsContext) *engine.Endpoint {
	frigate := camera.Config.Frigate
	base := strings.TrimSuffix(frigate.URL, "/")
	if base == "" {
		return nil
	}
	name := frigate.CameraName
	if name == "" {
		return &engine.Endpoint{Endpoint: base}
	}

	cameraPage := &engine.Endpoint{Endpoint: fmt.Sprintf("%s/cameras/%s", base, name)}
	eventsPage := &engine.Endpoint{Endpoint: fmt.Sprintf("%s/events?camera=%s", base, name)}
	recordingsPage := &engine.Endpoint{Endpoint: fmt.Sprintf("%s/recording/%s/", base, name)}

	if ectx == nil {
		return cameraPage
	}

	if media := ectx.Media; media != nil {
		switch media.MediaType() {
		case view.MediaTypeClip, view.MediaTypeSnapshot:
			return eventsPage
		case view.MediaTypeRecording:
			start := media.StartTime()
			if start.IsZero() {
				return recordingsPage
			}
			start = start.In(e.Deps().Location)
			return &engine.Endpoint{Endpoint: fmt.Sprintf("%s/recording/%s/%s/%s",
				base, name, start.Format("2006-01-02"), start.Format("15"))}
		}
	}

	switch ectx.View {
	case "clip", "clips", "snapshot", "snapshots":
		return eventsPage
	case "recording", "recordings":
		return recordingsPage
	default:
		return cameraPage
	}
}
