package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"gopkg.in/yaml.v3"

	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/logger"
)

// Renderer choices.
const (
	RendererAuto   = "auto"
	RendererGL     = string(domain.StrategyInstanced)
	RendererRaster = string(domain.StrategyBatched)
)

// TierAuto lets the host decide the device tier.
const TierAuto = "auto"

// tierEnv overrides the device tier heuristic.
const tierEnv = "GOVIS_TIER"

// WindowConfig is the initial window size in logical units.
type WindowConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// ProfileConfig overrides the tier profile. Zero values keep the tier default.
type ProfileConfig struct {
	BarCount        int     `yaml:"bar_count"`
	ParticleCount   *int    `yaml:"particle_count"`
	MaxDensityScale float32 `yaml:"max_density_scale"`
	Smoothing       float64 `yaml:"smoothing"`
}

// Config holds application configuration.
type Config struct {
	// AppID is the unique application identifier
	AppID string `yaml:"-"`

	// AppName is the display name
	AppName string `yaml:"-"`

	// Renderer selects the render strategy: auto, gl or raster
	Renderer string `yaml:"renderer"`

	// Tier selects the startup profile: auto, desktop or mobile
	Tier string `yaml:"tier"`

	// Demo plays the oscillator bank instead of decoding files
	Demo bool `yaml:"demo"`

	// LogLevel is DEBUG, INFO, WARN or ERROR. Empty keeps GOVIS_LOG_LEVEL or INFO.
	LogLevel string `yaml:"log_level"`

	// LogFormat is "text" or "json"
	LogFormat string `yaml:"log_format"`

	// SampleRate is the audio output rate
	SampleRate int `yaml:"sample_rate"`

	Window  WindowConfig  `yaml:"window"`
	Profile ProfileConfig `yaml:"profile"`

	// File is opened and played at startup
	File string `yaml:"-"`

	// TestFyneApp allows injecting a test Fyne app for testing (nil for production)
	TestFyneApp fyne.App `yaml:"-"`
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	return Config{
		AppID:      "com.govis.app",
		AppName:    "govis",
		Renderer:   RendererAuto,
		Tier:       TierAuto,
		LogFormat:  "text",
		SampleRate: 44100,
		Window: WindowConfig{
			Width:  960,
			Height: 540,
		},
	}
}

// LoadFromFile overlays the values found in a yaml file.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// DefaultConfigPaths lists the files TryLoadDefault looks at, in order.
func DefaultConfigPaths() []string {
	var paths []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "govis", "config.yaml"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "govis", "config.yaml"),
			filepath.Join(home, ".govis.yaml"),
		)
	}
	return paths
}

// TryLoadDefault loads the first existing default config file. It returns the
// path it loaded, or "" when none exists.
func (c *Config) TryLoadDefault() (string, error) {
	for _, p := range DefaultConfigPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, c.LoadFromFile(p)
		}
	}
	return "", nil
}

// Validate checks the option values.
func (c Config) Validate() error {
	switch c.Renderer {
	case RendererAuto, RendererGL, RendererRaster:
	default:
		return domain.NewValidationError("renderer", c.Renderer, "must be auto, gl or raster")
	}
	if _, ok := domain.ParseTier(c.Tier); !ok && c.Tier != TierAuto && c.Tier != "" {
		return domain.NewValidationError("tier", c.Tier, "must be auto, desktop or mobile")
	}
	if _, ok := logger.ParseLevel(c.LogLevel); !ok && c.LogLevel != "" {
		return domain.NewValidationError("log_level", c.LogLevel, "must be DEBUG, INFO, WARN or ERROR")
	}
	if c.SampleRate <= 0 {
		return domain.NewValidationError("sample_rate", c.SampleRate, "must be positive")
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return domain.NewValidationError("window", fmt.Sprintf("%dx%d", c.Window.Width, c.Window.Height), "must be positive")
	}
	return nil
}

// LoggerConfig returns the logger configuration, starting from GOVIS_LOG_LEVEL.
func (c Config) LoggerConfig() logger.Config {
	cfg := logger.DefaultConfig()
	if level, ok := logger.ParseLevel(c.LogLevel); ok {
		cfg.Level = level
	}
	if c.LogFormat != "" {
		cfg.Format = strings.ToLower(c.LogFormat)
	}
	return cfg
}

// ResolveTier picks the device tier: GOVIS_TIER first, then the configured tier,
// then what the host reports.
func (c Config) ResolveTier(hostIsMobile func() bool) domain.Tier {
	if tier, ok := domain.ParseTier(strings.ToLower(os.Getenv(tierEnv))); ok {
		return tier
	}
	if tier, ok := domain.ParseTier(c.Tier); ok {
		return tier
	}
	if hostIsMobile != nil && hostIsMobile() {
		return domain.TierMobile
	}
	return domain.TierDesktop
}

// ResolveProfile returns the tier profile with the configured overrides applied.
func (c Config) ResolveProfile(tier domain.Tier) (domain.Profile, error) {
	p := domain.ProfileFor(tier)
	if c.Profile.BarCount != 0 {
		p.BarCount = c.Profile.BarCount
	}
	if c.Profile.ParticleCount != nil {
		p.ParticleCount = *c.Profile.ParticleCount
	}
	if c.Profile.MaxDensityScale != 0 {
		p.MaxDensityScale = c.Profile.MaxDensityScale
	}
	if c.Profile.Smoothing != 0 {
		p.SmoothingFactor = c.Profile.Smoothing
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// LogValue implements slog.LogValuer.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("renderer", c.Renderer),
		slog.String("tier", c.Tier),
		slog.Bool("demo", c.Demo),
		slog.Int("sample_rate", c.SampleRate),
	)
}
