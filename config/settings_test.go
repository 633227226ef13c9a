package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/richinex/periscope/browse"
	"github.com/richinex/periscope/engine"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "periscope.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const sample = `
fixture: host.yaml
timezone: Europe/Berlin
cache:
  path: /tmp/periscope.db
  result_ttl: 2m
cameras:
  - camera_entity: camera.office
    motioneye:
      movies:
        directory_pattern: "%Y/%m/%d"
  - id: garage
    frigate:
      camera_name: garage
      labels: [person, car]
    capabilities:
      disable: [favorite-events]
`

func TestLoadFile(t *testing.T) {
	settings, err := Load(writeConfig(t, sample))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if settings.Fixture != "host.yaml" {
		t.Errorf("expected fixture 'host.yaml', got %q", settings.Fixture)
	}
	if settings.Cache.Path != "/tmp/periscope.db" {
		t.Errorf("expected cache path, got %q", settings.Cache.Path)
	}
	if settings.Cache.ResultTTL != 2*time.Minute {
		t.Errorf("expected result ttl 2m, got %v", settings.Cache.ResultTTL)
	}
	if settings.Cache.BrowseTTL != browse.DefaultCacheTTL {
		t.Errorf("expected default browse ttl, got %v", settings.Cache.BrowseTTL)
	}

	loc, err := settings.Location()
	if err != nil || loc.String() != "Europe/Berlin" {
		t.Errorf("expected Europe/Berlin, got %v, %v", loc, err)
	}
	level, err := settings.Level()
	if err != nil || level != slog.LevelInfo {
		t.Errorf("expected default level info, got %v, %v", level, err)
	}

	if got := settings.CameraIDs(); len(got) != 2 || got[0] != "camera.office" || got[1] != "garage" {
		t.Fatalf("unexpected camera ids %v", got)
	}
	office := settings.Cameras[0]
	if office.MotionEye.Movies.DirectoryPattern != "%Y/%m/%d" {
		t.Errorf("expected movies pattern, got %q", office.MotionEye.Movies.DirectoryPattern)
	}
	garage := settings.Cameras[1]
	if len(garage.Frigate.Labels) != 2 || garage.Frigate.Labels[1] != "car" {
		t.Errorf("unexpected labels %v", garage.Frigate.Labels)
	}
	if len(garage.Capabilities.Disable) != 1 {
		t.Errorf("unexpected capabilities %+v", garage.Capabilities)
	}
}

func TestLoadDefaults(t *testing.T) {
	settings, err := Load(writeConfig(t, "cameras: []\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.Cache.ResultTTL != engine.DefaultResultTTL {
		t.Errorf("expected default result ttl, got %v", settings.Cache.ResultTTL)
	}
	if loc, _ := settings.Location(); loc != time.Local {
		t.Errorf("expected local time, got %v", loc)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PERISCOPE_CACHE_RESULT_TTL", "15s")
	t.Setenv("PERISCOPE_LOG_LEVEL", "debug")
	t.Setenv("PERISCOPE_FIXTURE", "other.yaml")

	settings, err := Load(writeConfig(t, sample))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.Cache.ResultTTL != 15*time.Second {
		t.Errorf("expected 15s from env, got %v", settings.Cache.ResultTTL)
	}
	if settings.Fixture != "other.yaml" {
		t.Errorf("expected fixture from env, got %q", settings.Fixture)
	}
	if level, _ := settings.Level(); level != slog.LevelDebug {
		t.Errorf("expected debug, got %v", level)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{name: "bad timezone", content: "timezone: Mars/Olympus\n"},
		{name: "bad log level", content: "log_level: chatty\n"},
		{name: "zero ttl", content: "cache:\n  result_ttl: 0s\n"},
		{name: "bad ttl from env", content: "cameras: []\n", env: map[string]string{"PERISCOPE_CACHE_BROWSE_TTL": "soon"}},
		{name: "camera without id", content: "cameras:\n  - title: Nameless\n"},
		{name: "duplicate camera", content: "cameras:\n  - id: a\n  - camera_entity: a\n"},
		{name: "invalid yaml", content: "cameras: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestMustLoadPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustLoad(filepath.Join(t.TempDir(), "missing.yaml"))
}
