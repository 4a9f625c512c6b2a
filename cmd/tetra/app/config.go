package app

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/constanza1110101/tetra-analyzer/internal/dsp"
	"github.com/constanza1110101/tetra-analyzer/internal/sdr/rtltcp"
	"github.com/constanza1110101/tetra-analyzer/internal/sdr/synth"
	"github.com/constanza1110101/tetra-analyzer/internal/spectrum"
)

const (
	DeviceRTLTCP = "rtltcp"
	DeviceSynth  = "synth"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "50ms" or "60s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config represents the main application configuration.
type Config struct {
	Settings Settings       `yaml:"settings"`
	Device   DeviceConfig   `yaml:"device"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Scan     ScanConfig     `yaml:"scan"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Storage  StorageConfig  `yaml:"storage"`
}

// Settings represents global application settings.
type Settings struct {
	LogLevel string `yaml:"logLevel"`
}

// DeviceConfig selects and configures the acquisition device.
type DeviceConfig struct {
	Type       string         `yaml:"type"`
	SampleRate float64        `yaml:"sampleRate"`
	BlockSize  int            `yaml:"blockSize"`
	RTLTCP     *rtltcp.Config `yaml:"rtltcp,omitempty"`
	Synth      *synth.Config  `yaml:"synth,omitempty"`
}

// AnalysisConfig tunes the detection pipeline.
type AnalysisConfig struct {
	PeakThreshold   float64  `yaml:"peakThreshold"`
	FrameDuration   Duration `yaml:"frameDuration"`
	FrameTolerance  float64  `yaml:"frameTolerance"`
	HistoryCapacity int      `yaml:"historyCapacity"`
}

// ScanConfig describes the sweep range.
type ScanConfig struct {
	Start  float64  `yaml:"start"`
	End    float64  `yaml:"end"`
	Step   float64  `yaml:"step"`
	Settle Duration `yaml:"settle"`
}

// MonitorConfig describes the fixed-frequency monitoring run.
type MonitorConfig struct {
	Frequency float64  `yaml:"frequency"`
	Duration  Duration `yaml:"duration"`
}

// StorageConfig represents storage settings.
type StorageConfig struct {
	DataDirectory string `yaml:"dataDirectory"`
	ExportCSV     bool   `yaml:"exportCSV"`
}

// LoadConfig reads the YAML configuration and applies defaults.
func LoadConfig(path string) (*Config, error) {
	p, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}

	var config Config
	if err = yaml.Unmarshal(p, &config); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	config.applyDefaults()

	if config.Device.Type != DeviceRTLTCP && config.Device.Type != DeviceSynth {
		return nil, fmt.Errorf("unknown device type %q", config.Device.Type)
	}
	if config.Device.Type == DeviceRTLTCP && config.Device.RTLTCP == nil {
		return nil, fmt.Errorf("device type %q requires an rtltcp section", DeviceRTLTCP)
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = "info"
	}
	if c.Device.Type == "" {
		c.Device.Type = DeviceSynth
	}
	if c.Device.SampleRate == 0 {
		c.Device.SampleRate = 2_000_000
	}
	if c.Device.BlockSize == 0 {
		c.Device.BlockSize = 16_384
	}
	if c.Device.Type == DeviceSynth && c.Device.Synth == nil {
		c.Device.Synth = &synth.Config{}
	}
	if c.Device.Synth != nil && c.Device.Synth.SampleRate == 0 {
		c.Device.Synth.SampleRate = c.Device.SampleRate
	}
	if c.Device.RTLTCP != nil && c.Device.RTLTCP.SampleRate == 0 {
		c.Device.RTLTCP.SampleRate = c.Device.SampleRate
	}
	if c.Analysis.PeakThreshold == 0 {
		c.Analysis.PeakThreshold = dsp.DefaultPeakThreshold
	}
	if c.Analysis.FrameTolerance == 0 {
		c.Analysis.FrameTolerance = dsp.DefaultFrameTolerance
	}
	if c.Analysis.HistoryCapacity == 0 {
		c.Analysis.HistoryCapacity = spectrum.DefaultHistoryCapacity
	}
	if c.Scan.Start == 0 {
		c.Scan.Start = 380e6
	}
	if c.Scan.End == 0 {
		c.Scan.End = 400e6
	}
	if c.Scan.Step == 0 {
		c.Scan.Step = 25e3
	}
	if c.Scan.Settle == 0 {
		c.Scan.Settle = Duration(50 * time.Millisecond)
	}
	if c.Monitor.Frequency == 0 {
		c.Monitor.Frequency = 390e6
	}
	if c.Monitor.Duration == 0 {
		c.Monitor.Duration = Duration(60 * time.Second)
	}
}

// Level parses the configured log level, defaulting to info.
func (s Settings) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
