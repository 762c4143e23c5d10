// Package config loads airsynth settings from defaults, an optional YAML
// file and AIRSYNTH_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type HTTPConfig struct {
	Bind      string `yaml:"bind"`
	Port      int    `yaml:"port"`
	StaticDir string `yaml:"static_dir"`
}

type CameraConfig struct {
	DeviceID        int     `yaml:"device_id"`
	IdleFPS         int     `yaml:"idle_fps"`
	ActiveFPS       int     `yaml:"active_fps"`
	IdleTimeoutMS   int     `yaml:"idle_timeout_ms"`
	MotionThreshold float64 `yaml:"motion_threshold"`
}

type DetectorConfig struct {
	MaxHands        int     `yaml:"max_hands"`
	MinConfidence   float64 `yaml:"min_detection_confidence"`
	MinTrackingConf float64 `yaml:"min_tracking_confidence"`
}

type AudioConfig struct {
	SampleRate int  `yaml:"sample_rate"`
	Channels   int  `yaml:"channels"`
	Enabled    bool `yaml:"enabled"`
}

type ControlConfig struct {
	MinFreq   float64 `yaml:"min_freq"`
	MaxFreq   float64 `yaml:"max_freq"`
	Smoothing float64 `yaml:"smoothing"`
	TickHz    int     `yaml:"tick_hz"`
}

type GestureConfig struct {
	PinchThreshold float64 `yaml:"pinch_threshold"`
	FistThreshold  float64 `yaml:"fist_threshold"`
	CooldownMS     int     `yaml:"cooldown_ms"`
	FeedbackMS     int     `yaml:"feedback_ms"`
}

type DelayConfig struct {
	TimeMS   int     `yaml:"time_ms"`
	Feedback float64 `yaml:"feedback"`
	Mix      float64 `yaml:"mix"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type HooksConfig struct {
	Dir       string `yaml:"dir"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

type TrayConfig struct {
	Enabled bool `yaml:"enabled"`
}

type TelemetryConfig struct {
	MetricsEnabled bool `yaml:"metrics_enabled"`
}

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Camera    CameraConfig    `yaml:"camera"`
	Detector  DetectorConfig  `yaml:"detector"`
	Audio     AudioConfig     `yaml:"audio"`
	Control   ControlConfig   `yaml:"control"`
	Gesture   GestureConfig   `yaml:"gesture"`
	Delay     DelayConfig     `yaml:"delay"`
	Store     StoreConfig     `yaml:"store"`
	Hooks     HooksConfig     `yaml:"hooks"`
	Tray      TrayConfig      `yaml:"tray"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// DataDir is where the database and local assets live.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".airsynth"
	}
	return filepath.Join(home, ".airsynth")
}

func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Bind: "127.0.0.1",
			Port: 8080,
		},
		Camera: CameraConfig{
			DeviceID:        0,
			IdleFPS:         5,
			ActiveFPS:       15,
			IdleTimeoutMS:   2000,
			MotionThreshold: 1.0,
		},
		Detector: DetectorConfig{
			MaxHands:        2,
			MinConfidence:   0.5,
			MinTrackingConf: 0.5,
		},
		Audio: AudioConfig{
			SampleRate: 44100,
			Channels:   2,
			Enabled:    true,
		},
		Control: ControlConfig{
			MinFreq:   100,
			MaxFreq:   1500,
			Smoothing: 0.15,
			TickHz:    60,
		},
		Gesture: GestureConfig{
			PinchThreshold: 0.05,
			FistThreshold:  0.15,
			CooldownMS:     1000,
			FeedbackMS:     1500,
		},
		Delay: DelayConfig{
			TimeMS:   400,
			Feedback: 0.4,
			Mix:      0.3,
		},
		Store: StoreConfig{
			Path: filepath.Join(DataDir(), "airsynth.db"),
		},
		Hooks: HooksConfig{
			Dir:       filepath.Join(DataDir(), "hooks"),
			TimeoutMS: 2000,
		},
		Tray: TrayConfig{
			Enabled: true,
		},
		Telemetry: TelemetryConfig{
			MetricsEnabled: true,
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path (if any) and
// the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Addr is the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Bind, c.HTTP.Port)
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.HTTP.Bind, "AIRSYNTH_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "AIRSYNTH_HTTP_PORT")
	overrideString(&cfg.HTTP.StaticDir, "AIRSYNTH_HTTP_STATIC_DIR")
	overrideInt(&cfg.Camera.DeviceID, "AIRSYNTH_CAMERA_DEVICE_ID")
	overrideInt(&cfg.Camera.IdleFPS, "AIRSYNTH_CAMERA_IDLE_FPS")
	overrideInt(&cfg.Camera.ActiveFPS, "AIRSYNTH_CAMERA_ACTIVE_FPS")
	overrideInt(&cfg.Camera.IdleTimeoutMS, "AIRSYNTH_CAMERA_IDLE_TIMEOUT_MS")
	overrideFloat(&cfg.Camera.MotionThreshold, "AIRSYNTH_CAMERA_MOTION_THRESHOLD")
	overrideInt(&cfg.Detector.MaxHands, "AIRSYNTH_DETECTOR_MAX_HANDS")
	overrideFloat(&cfg.Detector.MinConfidence, "AIRSYNTH_DETECTOR_MIN_DETECTION_CONFIDENCE")
	overrideFloat(&cfg.Detector.MinTrackingConf, "AIRSYNTH_DETECTOR_MIN_TRACKING_CONFIDENCE")
	overrideInt(&cfg.Audio.SampleRate, "AIRSYNTH_AUDIO_SAMPLE_RATE")
	overrideInt(&cfg.Audio.Channels, "AIRSYNTH_AUDIO_CHANNELS")
	overrideBool(&cfg.Audio.Enabled, "AIRSYNTH_AUDIO_ENABLED")
	overrideFloat(&cfg.Control.MinFreq, "AIRSYNTH_CONTROL_MIN_FREQ")
	overrideFloat(&cfg.Control.MaxFreq, "AIRSYNTH_CONTROL_MAX_FREQ")
	overrideFloat(&cfg.Control.Smoothing, "AIRSYNTH_CONTROL_SMOOTHING")
	overrideInt(&cfg.Control.TickHz, "AIRSYNTH_CONTROL_TICK_HZ")
	overrideFloat(&cfg.Gesture.PinchThreshold, "AIRSYNTH_GESTURE_PINCH_THRESHOLD")
	overrideFloat(&cfg.Gesture.FistThreshold, "AIRSYNTH_GESTURE_FIST_THRESHOLD")
	overrideInt(&cfg.Gesture.CooldownMS, "AIRSYNTH_GESTURE_COOLDOWN_MS")
	overrideInt(&cfg.Gesture.FeedbackMS, "AIRSYNTH_GESTURE_FEEDBACK_MS")
	overrideInt(&cfg.Delay.TimeMS, "AIRSYNTH_DELAY_TIME_MS")
	overrideFloat(&cfg.Delay.Feedback, "AIRSYNTH_DELAY_FEEDBACK")
	overrideFloat(&cfg.Delay.Mix, "AIRSYNTH_DELAY_MIX")
	overrideString(&cfg.Store.Path, "AIRSYNTH_STORE_PATH")
	overrideString(&cfg.Hooks.Dir, "AIRSYNTH_HOOKS_DIR")
	overrideInt(&cfg.Hooks.TimeoutMS, "AIRSYNTH_HOOKS_TIMEOUT_MS")
	overrideBool(&cfg.Tray.Enabled, "AIRSYNTH_TRAY_ENABLED")
	overrideBool(&cfg.Telemetry.MetricsEnabled, "AIRSYNTH_TELEMETRY_METRICS_ENABLED")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func validate(cfg Config) error {
	var errs []error

	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port must be between 1 and 65535, got %d", cfg.HTTP.Port))
	}
	if cfg.Camera.IdleFPS <= 0 || cfg.Camera.ActiveFPS <= 0 {
		errs = append(errs, errors.New("camera fps values must be positive"))
	}
	if cfg.Camera.ActiveFPS < cfg.Camera.IdleFPS {
		errs = append(errs, errors.New("camera.active_fps must not be below camera.idle_fps"))
	}
	if cfg.Detector.MaxHands < 1 {
		errs = append(errs, errors.New("detector.max_hands must be at least 1"))
	}
	if cfg.Audio.SampleRate <= 0 {
		errs = append(errs, errors.New("audio.sample_rate must be positive"))
	}
	if cfg.Audio.Channels != 1 && cfg.Audio.Channels != 2 {
		errs = append(errs, fmt.Errorf("audio.channels must be 1 or 2, got %d", cfg.Audio.Channels))
	}
	if cfg.Control.MinFreq <= 0 || cfg.Control.MaxFreq <= cfg.Control.MinFreq {
		errs = append(errs, errors.New("control.min_freq must be positive and below control.max_freq"))
	}
	if cfg.Control.Smoothing <= 0 || cfg.Control.Smoothing > 1 {
		errs = append(errs, errors.New("control.smoothing must be in (0, 1]"))
	}
	if cfg.Control.TickHz <= 0 {
		errs = append(errs, errors.New("control.tick_hz must be positive"))
	}
	if cfg.Gesture.PinchThreshold <= 0 || cfg.Gesture.FistThreshold <= 0 {
		errs = append(errs, errors.New("gesture thresholds must be positive"))
	}
	if cfg.Gesture.CooldownMS < 0 || cfg.Gesture.FeedbackMS < 0 {
		errs = append(errs, errors.New("gesture durations must not be negative"))
	}
	if cfg.Delay.TimeMS <= 0 {
		errs = append(errs, errors.New("delay.time_ms must be positive"))
	}
	if cfg.Delay.Feedback < 0 || cfg.Delay.Feedback >= 1 {
		errs = append(errs, errors.New("delay.feedback must be in [0, 1)"))
	}
	if cfg.Delay.Mix < 0 || cfg.Delay.Mix > 0.8 {
		errs = append(errs, errors.New("delay.mix must be in [0, 0.8]"))
	}
	if strings.TrimSpace(cfg.Store.Path) == "" {
		errs = append(errs, errors.New("store.path is required"))
	}
	if cfg.Hooks.TimeoutMS <= 0 {
		errs = append(errs, errors.New("hooks.timeout_ms must be positive"))
	}

	return errors.Join(errs...)
}
