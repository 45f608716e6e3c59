package wire

import (
	"bufio"
	"bytes"
	"io"
	"log/slog"
	"testing"
)

const (
	testN = 4   // samples per frame
	testP = 2   // samples per packet
	testPacketBytes = testP * 4
)

func buildPacket(packetID uint32, samples []float32) []byte {
	payload := EncodeSamples(samples)
	h := Header{Magic: Magic, PacketID: packetID, PayloadLength: uint32(len(payload))}
	return append(EncodeHeader(h), payload...)
}

func buildFrameStream(samples []float32) []byte {
	var buf bytes.Buffer
	for i := 0; i < testN/testP; i++ {
		buf.Write(buildPacket(uint32(i), samples[i*testP:(i+1)*testP]))
	}
	return buf.Bytes()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReassemblerRoundTrip(t *testing.T) {
	samples := []float32{1, 2, 3, 4}
	stream := buildFrameStream(samples)

	r := NewReassembler(testN, testPacketBytes, discardLogger())
	br := bufio.NewReader(bytes.NewReader(stream))

	frame, err := r.Next(br)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frame) != testN {
		t.Fatalf("expected %d samples, got %d", testN, len(frame))
	}
	for i, v := range samples {
		if frame[i] != v {
			t.Errorf("sample %d: expected %v, got %v", i, v, frame[i])
		}
	}
}

func TestReassemblerSyncAfterJunk(t *testing.T) {
	junk := bytes.Repeat([]byte{0x00, 0x11, 0x22}, 13)[:37] // 37 bytes, no magic substring
	samples := []float32{5, 6, 7, 8}
	stream := append(append([]byte{}, junk...), buildFrameStream(samples)...)

	r := NewReassembler(testN, testPacketBytes, discardLogger())
	br := bufio.NewReader(bytes.NewReader(stream))

	frame, err := r.Next(br)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range samples {
		if frame[i] != v {
			t.Errorf("sample %d: expected %v, got %v", i, v, frame[i])
		}
	}
}

func TestReassemblerPacketLossDropsFrame(t *testing.T) {
	// N/P = 4 packets expected (n=8 here), send ids 0,1,2,4.
	const n = 8
	samples := []float32{1, 2, 3, 4, 5, 6, 7, 8}
	var buf bytes.Buffer
	buf.Write(buildPacket(0, samples[0:2]))
	buf.Write(buildPacket(1, samples[2:4]))
	buf.Write(buildPacket(2, samples[4:6]))
	buf.Write(buildPacket(4, samples[6:8])) // gap: skip packet_id 3

	// Follow with a clean next frame so Next() has something to return.
	nextSamples := []float32{9, 10, 11, 12, 13, 14, 15, 16}
	buf.Write(buildPacket(0, nextSamples[0:2]))
	buf.Write(buildPacket(1, nextSamples[2:4]))
	buf.Write(buildPacket(2, nextSamples[4:6]))
	buf.Write(buildPacket(3, nextSamples[6:8]))

	r := NewReassembler(n, testPacketBytes, discardLogger())
	br := bufio.NewReader(bytes.NewReader(buf.Bytes()))

	frame, err := r.Next(br)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frame) != n {
		t.Fatalf("expected frame of %d samples, got %d", n, len(frame))
	}
	for i, v := range nextSamples {
		if frame[i] != v {
			t.Errorf("sample %d: expected %v, got %v (gapped frame leaked through)", i, v, frame[i])
		}
	}
	gaps, _ := r.Stats()
	if gaps != 1 {
		t.Errorf("expected 1 gap logged, got %d", gaps)
	}
}

func TestReassemblerFrameBoundaryReset(t *testing.T) {
	frameA := []float32{1, 2, 3, 4}
	frameB := []float32{5, 6, 7, 8}
	var buf bytes.Buffer
	buf.Write(buildFrameStream(frameA))
	buf.Write(buildFrameStream(frameB))

	r := NewReassembler(testN, testPacketBytes, discardLogger())
	br := bufio.NewReader(bytes.NewReader(buf.Bytes()))

	got, err := r.Next(br)
	if err != nil {
		t.Fatalf("frame A: unexpected error: %v", err)
	}
	for i, v := range frameA {
		if got[i] != v {
			t.Errorf("frame A sample %d: expected %v, got %v", i, v, got[i])
		}
	}

	got, err = r.Next(br)
	if err != nil {
		t.Fatalf("frame B: unexpected error: %v", err)
	}
	for i, v := range frameB {
		if got[i] != v {
			t.Errorf("frame B sample %d: expected %v, got %v", i, v, got[i])
		}
	}
}

func TestReassemblerEOFPropagates(t *testing.T) {
	r := NewReassembler(testN, testPacketBytes, discardLogger())
	br := bufio.NewReader(bytes.NewReader(nil))

	if _, err := r.Next(br); err == nil {
		t.Fatal("expected an error on empty stream")
	}
}
