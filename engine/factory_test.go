package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/richinex/periscope/hass"
	"github.com/richinex/periscope/model"
)

type fakeRegistry struct {
	entities map[string]*hass.Entity
	err      error
}

func (r *fakeRegistry) GetEntity(_ context.Context, id string) (*hass.Entity, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.entities[id], nil
}

type fakeStates map[string]*hass.State

func (s fakeStates) State(id string) (*hass.State, bool) {
	state, ok := s[id]
	return state, ok
}

func TestGetEngineForCamera(t *testing.T) {
	registry := &fakeRegistry{entities: map[string]*hass.Entity{
		"camera.frigate":   {EntityID: "camera.frigate", Platform: "frigate"},
		"camera.motioneye": {EntityID: "camera.motioneye", Platform: "motioneye"},
		"camera.reolink":   {EntityID: "camera.reolink", Platform: "reolink"},
		"camera.generic":   {EntityID: "camera.generic", Platform: "generic"},
		"camera.other":     {EntityID: "camera.other", Platform: "something_else"},
	}}
	states := fakeStates{
		"camera.unregistered": {EntityID: "camera.unregistered", State: "idle"},
	}
	factory := NewFactory(registry, states, nil)

	tests := []struct {
		name     string
		cfg      model.CameraConfig
		wantKind Kind
		wantOK   bool
	}{
		{
			name:     "explicit engine wins",
			cfg:      model.CameraConfig{Engine: "motioneye", Frigate: model.FrigateConfig{CameraName: "office"}},
			wantKind: KindMotionEye,
			wantOK:   true,
		},
		{
			name:     "frigate camera name",
			cfg:      model.CameraConfig{Frigate: model.FrigateConfig{CameraName: "office"}},
			wantKind: KindFrigate,
			wantOK:   true,
		},
		{
			name:     "frigate platform",
			cfg:      model.CameraConfig{CameraEntity: "camera.frigate"},
			wantKind: KindFrigate,
			wantOK:   true,
		},
		{
			name:     "motioneye platform",
			cfg:      model.CameraConfig{CameraEntity: "camera.motioneye"},
			wantKind: KindMotionEye,
			wantOK:   true,
		},
		{
			name:     "reolink platform",
			cfg:      model.CameraConfig{CameraEntity: "camera.reolink"},
			wantKind: KindReolink,
			wantOK:   true,
		},
		{
			name:     "generic platform",
			cfg:      model.CameraConfig{CameraEntity: "camera.generic"},
			wantKind: KindGeneric,
			wantOK:   true,
		},
		{
			name:     "other platform is generic",
			cfg:      model.CameraConfig{CameraEntity: "camera.other"},
			wantKind: KindGeneric,
			wantOK:   true,
		},
		{
			name:     "webrtc card entity",
			cfg:      model.CameraConfig{WebRTCCard: model.WebRTCCardConfig{Entity: "camera.frigate"}},
			wantKind: KindFrigate,
			wantOK:   true,
		},
		{
			name:     "unregistered but live",
			cfg:      model.CameraConfig{CameraEntity: "camera.unregistered"},
			wantKind: KindGeneric,
			wantOK:   true,
		},
		{
			name:     "go2rtc stream",
			cfg:      model.CameraConfig{Go2RTC: model.Go2RTCConfig{URL: "http://go2rtc", Stream: "office"}},
			wantKind: KindGeneric,
			wantOK:   true,
		},
		{
			name:     "webrtc card url",
			cfg:      model.CameraConfig{WebRTCCard: model.WebRTCCardConfig{URL: "rtsp://camera"}},
			wantKind: KindGeneric,
			wantOK:   true,
		},
		{
			name:   "go2rtc url without stream",
			cfg:    model.CameraConfig{Go2RTC: model.Go2RTCConfig{URL: "http://go2rtc"}},
			wantOK: false,
		},
		{
			name:   "empty config",
			cfg:    model.CameraConfig{},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok, err := factory.GetEngineForCamera(context.Background(), tt.cfg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("ok = %v; want %v", ok, tt.wantOK)
			}
			if ok && kind != tt.wantKind {
				t.Errorf("kind = %s; want %s", kind, tt.wantKind)
			}
		})
	}
}

func TestGetEngineForCameraEntityNotFound(t *testing.T) {
	factory := NewFactory(&fakeRegistry{}, fakeStates{}, nil)

	_, _, err := factory.GetEngineForCamera(context.Background(), model.CameraConfig{CameraEntity: "camera.missing"})
	if !errors.Is(err, ErrEntityNotFound) {
		t.Errorf("err = %v; want ErrEntityNotFound", err)
	}
}

func TestGetEngineForCameraRegistryError(t *testing.T) {
	boom := errors.New("registry down")
	factory := NewFactory(&fakeRegistry{err: boom}, fakeStates{}, nil)

	_, _, err := factory.GetEngineForCamera(context.Background(), model.CameraConfig{CameraEntity: "camera.office"})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v; want registry error", err)
	}
}

func TestGetEngineForCameraUnknownEngine(t *testing.T) {
	factory := NewFactory(nil, nil, nil)

	_, _, err := factory.GetEngineForCamera(context.Background(), model.CameraConfig{Engine: "zoneminder"})
	if !errors.Is(err, ErrUnknownEngine) {
		t.Errorf("err = %v; want ErrUnknownEngine", err)
	}
}

func TestCreateEngine(t *testing.T) {
	var built []Kind
	constructors := make(map[Kind]Constructor)
	for _, kind := range Kinds {
		kind := kind
		constructors[kind] = func(deps Dependencies) Engine {
			built = append(built, kind)
			return &stubEngine{Base: NewBase(kind, deps)}
		}
	}
	factory := NewFactory(nil, nil, constructors)

	for _, kind := range Kinds {
		eng, err := factory.CreateEngine(kind, Dependencies{})
		if err != nil {
			t.Fatalf("CreateEngine(%s): %v", kind, err)
		}
		if eng.Kind() != kind {
			t.Errorf("CreateEngine(%s).Kind() = %s", kind, eng.Kind())
		}
	}
	if len(built) != len(Kinds) {
		t.Errorf("built %v", built)
	}

	if _, err := NewFactory(nil, nil, nil).CreateEngine(KindFrigate, Dependencies{}); !errors.Is(err, ErrUnknownEngine) {
		t.Errorf("err = %v; want ErrUnknownEngine", err)
	}
}

func TestParseKind(t *testing.T) {
	for _, kind := range Kinds {
		got, err := ParseKind(kind.String())
		if err != nil || got != kind {
			t.Errorf("ParseKind(%q) = %v, %v", kind.String(), got, err)
		}
	}
	if got, err := ParseKind("Frigate"); err != nil || got != KindFrigate {
		t.Errorf("ParseKind is case sensitive: %v, %v", got, err)
	}
	if _, err := ParseKind("auto"); !errors.Is(err, ErrUnknownEngine) {
		t.Errorf("ParseKind(auto) err = %v", err)
	}
}
