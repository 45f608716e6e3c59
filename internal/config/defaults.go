package config

import "time"

// Default returns a Config with sensible defaults matching spec.md §6.
func Default() *Config {
	return &Config{
		Wire: WireConfig{
			Host:            "127.0.0.1",
			Port:            5000,
			RecvBufferBytes: 1 << 20, // 1 MiB
			PacketSize:      512,     // 128 samples * 4 bytes
		},
		FFT: FFTConfig{
			Length:             512,
			DecimationFactor:   100,
			CentreFrequencyMHz: 2400.0,
			BandwidthMHz:       100.0,
		},
		UI: UIConfig{
			SpectrumLeftFreqMHz:  2350.0,
			SpectrumRightFreqMHz: 2450.0,
		},
		Detection: DetectionConfig{
			ConfThreshold: 0.25,
			IOUThreshold:  0.45,
		},
		Queue: QueueConfig{
			Capacity: 50,
		},
		Processor: ProcessorConfig{
			PopTimeout: Duration(time.Second),
		},
		Renderer: RendererConfig{
			PollInterval: Duration(10 * time.Millisecond),
		},
		Logging: LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Server: ServerConfig{
			Enabled:     true,
			Address:     "127.0.0.1:9090",
			MetricsPath: "/metrics",
		},
	}
}
