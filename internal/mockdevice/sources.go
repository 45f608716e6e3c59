package mockdevice

import "math"

// StaticSource replays a fixed frame forever. Useful for deterministic
// tests and for the mock-device CLI subcommand when no signal generator is
// requested.
func StaticSource(frame []float32) SampleSource {
	return func() []float32 {
		out := make([]float32, len(frame))
		copy(out, frame)
		return out
	}
}

// SineSource synthesizes a frame of length n as a Gaussian-shaped lobe
// centred on peakBin plus a constant 0.01 floor, standing in for
// mock_device.py's recorded-capture playback when no fixture directory is
// available. Every call returns the same frame.
func SineSource(n int, peakBin int) SampleSource {
	return func() []float32 {
		out := make([]float32, n)
		for i := range out {
			dist := float64(i - peakBin)
			out[i] = float32(math.Exp(-dist*dist/(2*8*8)) + 0.01)
		}
		return out
	}
}
