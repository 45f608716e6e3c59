// Package mockdevice ports mock_device.py's send loop: it listens for a
// single inbound connection and streams frames packetized with the
// magic-prefixed wire header, for exercising internal/reader against a
// real socket without real hardware. The original's .npy-fixture sourcing
// is UI-adjacent plumbing and stays out of scope; callers supply samples
// via a SampleSource instead.
package mockdevice

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/sigwatch/waterfall/internal/wire"
)

// SampleSource produces the next full frame's worth of samples (length N).
// Called once per frame from the device's own goroutine.
type SampleSource func() []float32

// Device streams framed sample data to a single accepted connection.
type Device struct {
	listenAddr  string
	frameLength int // N, samples
	packetSize  int // P, bytes
	interval    time.Duration
	source      SampleSource
	logger      *slog.Logger
}

// New builds a Device. frameLength must be a positive multiple of
// packetSize/4, matching the wire invariant config.Config.Validate
// enforces for the real pipeline.
func New(listenAddr string, frameLength, packetSize int, interval time.Duration, source SampleSource, logger *slog.Logger) *Device {
	return &Device{
		listenAddr:  listenAddr,
		frameLength: frameLength,
		packetSize:  packetSize,
		interval:    interval,
		source:      source,
		logger:      logger,
	}
}

// ListenAndServe listens on listenAddr, accepts a single connection, and
// streams frames until ctx is cancelled or the connection fails.
func (d *Device) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", d.listenAddr)
	if err != nil {
		return fmt.Errorf("mock device: listening on %s: %w", d.listenAddr, err)
	}
	defer ln.Close()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	d.logger.Info("mock device: listening", "addr", d.listenAddr)
	conn, err := ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("mock device: accepting connection: %w", err)
	}
	defer conn.Close()
	d.logger.Info("mock device: connected", "remote", conn.RemoteAddr())

	return d.sendLoop(ctx, conn)
}

func (d *Device) sendLoop(ctx context.Context, conn net.Conn) error {
	samplesPerPacket := d.packetSize / 4
	numPackets := d.frameLength / samplesPerPacket

	for {
		if ctx.Err() != nil {
			return nil
		}

		frame := d.source()
		for i := 0; i < numPackets; i++ {
			start := i * samplesPerPacket
			end := start + samplesPerPacket
			packet := frame[start:end]

			header := wire.Header{
				Magic:         wire.Magic,
				PacketID:      uint32(i),
				PayloadLength: uint32(len(packet) * 4),
			}
			buf := append(wire.EncodeHeader(header), wire.EncodeSamples(packet)...)
			if _, err := conn.Write(buf); err != nil {
				return fmt.Errorf("mock device: writing packet %d: %w", i, err)
			}
		}

		if d.interval <= 0 {
			continue
		}
		select {
		case <-time.After(d.interval):
		case <-ctx.Done():
			return nil
		}
	}
}
