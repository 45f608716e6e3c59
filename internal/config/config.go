// Package config loads and validates the waterfall pipeline's YAML
// configuration file, following the same Load/Default/Validate shape the
// rest of this corpus uses for its own server configs.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete pipeline configuration.
type Config struct {
	Wire      WireConfig      `yaml:"wire"`
	FFT       FFTConfig       `yaml:"fft"`
	UI        UIConfig        `yaml:"ui"`
	Detection DetectionConfig `yaml:"detection"`
	Queue     QueueConfig     `yaml:"queue"`
	Processor ProcessorConfig `yaml:"processor"`
	Renderer  RendererConfig  `yaml:"renderer"`
	Logging   LogConfig       `yaml:"logging"`
	Server    ServerConfig    `yaml:"server"`
}

// WireConfig describes the inbound TCP endpoint and per-packet framing.
type WireConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	RecvBufferBytes int    `yaml:"recv_buffer_bytes"`
	PacketSize      int    `yaml:"packet_size"` // P, bytes
}

// FFTConfig mirrors the "FFT" parameter group from spec.md §6.
type FFTConfig struct {
	Length             int     `yaml:"length"` // N, samples
	DecimationFactor   float64 `yaml:"decimation_factor"`
	CentreFrequencyMHz float64 `yaml:"centre_frequency_mhz"`
	BandwidthMHz       float64 `yaml:"bandwidth_mhz"`
}

// SampleRate derives the informational sample rate from the decimation
// factor: sample_rate = 5 GHz / Decimation_factor.
func (f FFTConfig) SampleRate() float64 {
	if f.DecimationFactor == 0 {
		return 0
	}
	return 5e9 / f.DecimationFactor
}

// UIConfig mirrors the "UI" parameter group. Display bounds only; never
// consulted by core math.
type UIConfig struct {
	SpectrumLeftFreqMHz  float64 `yaml:"spectrum_left_freq_mhz"`
	SpectrumRightFreqMHz float64 `yaml:"spectrum_right_freq_mhz"`
}

// DetectionConfig mirrors the "Detection" parameter group, published to the
// detector collaborator.
type DetectionConfig struct {
	ConfThreshold float64 `yaml:"conf_threshold"`
	IOUThreshold  float64 `yaml:"iou_threshold"`
}

// QueueConfig configures the Frame Queue.
type QueueConfig struct {
	Capacity int `yaml:"capacity"`
}

// ProcessorConfig configures the batch processor's drain cadence.
type ProcessorConfig struct {
	PopTimeout Duration `yaml:"pop_timeout"`
}

// RendererConfig configures the renderer's dirty-flag poll cadence.
type RendererConfig struct {
	PollInterval Duration `yaml:"poll_interval"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// ServerConfig configures the optional HTTP observability surface.
type ServerConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Address     string `yaml:"address"`
	MetricsPath string `yaml:"metrics_path"`
}

// Duration is a time.Duration that supports YAML string unmarshaling, e.g.
// "1s" or "10ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Load reads config from a YAML file, applying defaults for missing values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks the config for invalid values, enforcing spec.md §6's
// "N must be a positive multiple of P" invariant.
func (c *Config) Validate() error {
	if c.Wire.Host == "" {
		return fmt.Errorf("wire.host is required")
	}
	if c.Wire.Port <= 0 {
		return fmt.Errorf("wire.port must be > 0, got %d", c.Wire.Port)
	}
	if c.Wire.PacketSize <= 0 {
		return fmt.Errorf("wire.packet_size must be > 0, got %d", c.Wire.PacketSize)
	}
	if c.FFT.Length <= 0 {
		return fmt.Errorf("fft.length must be > 0, got %d", c.FFT.Length)
	}
	packetSamples := c.Wire.PacketSize / 4
	if packetSamples <= 0 || (c.FFT.Length%packetSamples) != 0 {
		return fmt.Errorf("fft.length (%d) must be a positive multiple of wire.packet_size/4 (%d)",
			c.FFT.Length, packetSamples)
	}
	if c.Queue.Capacity <= 0 {
		return fmt.Errorf("queue.capacity must be > 0, got %d", c.Queue.Capacity)
	}
	if c.Processor.PopTimeout.Duration() <= 0 {
		return fmt.Errorf("processor.pop_timeout must be > 0")
	}
	if c.Renderer.PollInterval.Duration() <= 0 {
		return fmt.Errorf("renderer.poll_interval must be > 0")
	}
	return nil
}
