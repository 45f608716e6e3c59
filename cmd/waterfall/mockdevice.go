package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sigwatch/waterfall/internal/mockdevice"
)

var (
	mockListenAddr  string
	mockFrameLength int
	mockPacketSize  int
	mockIntervalMs  int
	mockSourceKind  string
	mockSinePeakBin int
)

var mockDeviceCmd = &cobra.Command{
	Use:   "mock-device",
	Short: "Stream synthetic framed samples for a Reader to connect to",
	Run: func(cmd *cobra.Command, args []string) {
		runMockDevice()
	},
}

func init() {
	f := mockDeviceCmd.Flags()
	f.StringVar(&mockListenAddr, "listen", "127.0.0.1:5000", "address to listen on")
	f.IntVar(&mockFrameLength, "frame-length", 512, "samples per frame (N)")
	f.IntVar(&mockPacketSize, "packet-size", 512, "bytes per packet (P)")
	f.IntVar(&mockIntervalMs, "interval-ms", 100, "milliseconds between frames")
	f.StringVar(&mockSourceKind, "source", "sine", "sample source: sine or static")
	f.IntVar(&mockSinePeakBin, "peak-bin", 64, "peak bin index for the sine source")
}

func runMockDevice() {
	logger, closer := setupLogger("info", "text", "stdout")
	if closer != nil {
		defer closer.Close()
	}

	var source mockdevice.SampleSource
	switch mockSourceKind {
	case "static":
		frame := make([]float32, mockFrameLength)
		for i := range frame {
			frame[i] = 0.5
		}
		source = mockdevice.StaticSource(frame)
	default:
		source = mockdevice.SineSource(mockFrameLength, mockSinePeakBin)
	}

	dev := mockdevice.New(mockListenAddr, mockFrameLength, mockPacketSize, time.Duration(mockIntervalMs)*time.Millisecond, source, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		logger.Info("mock device: shutdown signal received")
		cancel()
	}()

	logger.Info("mock device: listening", "addr", mockListenAddr, "frame_length", mockFrameLength, "source", mockSourceKind)
	if err := dev.ListenAndServe(ctx); err != nil && ctx.Err() == nil {
		logger.Error("mock device: stopped with error", "error", err)
		os.Exit(1)
	}
}
