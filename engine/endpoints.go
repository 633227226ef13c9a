package engine

import (
	"net/url"
	"strings"

	"github.com/richinex/periscope/model"
)

// Go2RTCEndpoint returns the websocket endpoint of a go2rtc stream. Paths
// local to the host must be signed; absolute URLs are used as given.
func Go2RTCEndpoint(base, stream string) *Endpoint {
	if base == "" || stream == "" {
		return nil
	}
	return &Endpoint{
		Endpoint: strings.TrimSuffix(base, "/") + "/api/ws?src=" + url.QueryEscape(stream),
		Sign:     strings.HasPrefix(base, "/"),
	}
}

// CommonEndpoints are the endpoints any camera can have from its config
// alone: a go2rtc stream and a WebRTC card entity.
func CommonEndpoints(cfg model.CameraConfig) *Endpoints {
	endpoints := &Endpoints{
		Go2RTC: Go2RTCEndpoint(cfg.Go2RTC.URL, cfg.Go2RTC.Stream),
	}
	if entity := cfg.Entity(); entity != "" {
		endpoints.WebRTCCard = &Endpoint{Endpoint: entity}
	}
	return endpoints
}
