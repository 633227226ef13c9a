package model

// EngineAuto asks the factory to detect the engine for a camera.
const EngineAuto = "auto"

// CameraConfig describes one camera as configured by the user.
type CameraConfig struct {
	ID           string `mapstructure:"id" yaml:"id"`
	Engine       string `mapstructure:"engine" yaml:"engine"`
	Title        string `mapstructure:"title" yaml:"title"`
	Icon         string `mapstructure:"icon" yaml:"icon"`
	CameraEntity string `mapstructure:"camera_entity" yaml:"camera_entity"`

	WebRTCCard WebRTCCardConfig `mapstructure:"webrtc_card" yaml:"webrtc_card"`
	Go2RTC     Go2RTCConfig     `mapstructure:"go2rtc" yaml:"go2rtc"`
	Frigate    FrigateConfig    `mapstructure:"frigate" yaml:"frigate"`
	MotionEye  MotionEyeConfig  `mapstructure:"motioneye" yaml:"motioneye"`
	Reolink    ReolinkConfig    `mapstructure:"reolink" yaml:"reolink"`

	Capabilities CapabilitiesConfig `mapstructure:"capabilities" yaml:"capabilities"`
}

// EngineOrAuto returns the configured engine, defaulting to EngineAuto.
func (c CameraConfig) EngineOrAuto() string {
	if c.Engine == "" {
		return EngineAuto
	}
	return c.Engine
}

// Entity returns the entity that represents the camera on the host, if any.
func (c CameraConfig) Entity() string {
	if c.CameraEntity != "" {
		return c.CameraEntity
	}
	return c.WebRTCCard.Entity
}

// CameraID returns the id the camera is known by: the configured id, else
// the first of its entity or Frigate camera name that is set.
func (c CameraConfig) CameraID() string {
	switch {
	case c.ID != "":
		return c.ID
	case c.Entity() != "":
		return c.Entity()
	default:
		return c.Frigate.CameraName
	}
}

// WebRTCCardConfig points at a third-party WebRTC card.
type WebRTCCardConfig struct {
	Entity string `mapstructure:"entity" yaml:"entity"`
	URL    string `mapstructure:"url" yaml:"url"`
}

// Go2RTCConfig points at a go2rtc stream.
type Go2RTCConfig struct {
	URL    string `mapstructure:"url" yaml:"url"`
	Stream string `mapstructure:"stream" yaml:"stream"`
}

// FrigateConfig holds Frigate-specific fields.
type FrigateConfig struct {
	URL        string   `mapstructure:"url" yaml:"url"`
	ClientID   string   `mapstructure:"client_id" yaml:"client_id"`
	CameraName string   `mapstructure:"camera_name" yaml:"camera_name"`
	Labels     []string `mapstructure:"labels" yaml:"labels"`
	Zones      []string `mapstructure:"zones" yaml:"zones"`
}

// ClientIDOrDefault returns the Frigate instance id, "frigate" when unset.
func (c FrigateConfig) ClientIDOrDefault() string {
	if c.ClientID == "" {
		return "frigate"
	}
	return c.ClientID
}

// MotionEyeConfig holds MotionEye-specific fields. Patterns use strftime
// tokens (%Y %m %d %H %M %S) separated by '/'.
type MotionEyeConfig struct {
	URL    string         `mapstructure:"url" yaml:"url"`
	Images MotionEyeMedia `mapstructure:"images" yaml:"images"`
	Movies MotionEyeMedia `mapstructure:"movies" yaml:"movies"`
}

// MotionEyeMedia is the naming scheme for one MotionEye media hierarchy.
type MotionEyeMedia struct {
	DirectoryPattern string `mapstructure:"directory_pattern" yaml:"directory_pattern"`
	FilePattern      string `mapstructure:"file_pattern" yaml:"file_pattern"`
}

// MotionEye defaults, matching MotionEye's own.
const (
	DefaultMotionEyeDirectoryPattern = "%Y-%m-%d"
	DefaultMotionEyeFilePattern      = "%H-%M-%S"
)

// WithDefaults fills in unset patterns.
func (m MotionEyeMedia) WithDefaults() MotionEyeMedia {
	if m.DirectoryPattern == "" {
		m.DirectoryPattern = DefaultMotionEyeDirectoryPattern
	}
	if m.FilePattern == "" {
		m.FilePattern = DefaultMotionEyeFilePattern
	}
	return m
}

// ReolinkConfig holds Reolink-specific fields.
type ReolinkConfig struct {
	URL             string `mapstructure:"url" yaml:"url"`
	MediaResolution string `mapstructure:"media_resolution" yaml:"media_resolution"` // "high" or "low"
}

// CapabilitiesConfig lets the user switch engine capabilities off.
type CapabilitiesConfig struct {
	Disable       []string `mapstructure:"disable" yaml:"disable"`
	DisableExcept []string `mapstructure:"disable_except" yaml:"disable_except"`
}
