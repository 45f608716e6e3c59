package wire

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
)

// Frame is a complete, ordered spectrum of samples.
type Frame []float32

// Reassembler turns a byte stream of magic-prefixed packets into complete
// Frames, tracking synchronization state and packet-loss gaps the way
// spec.md §4.1 describes. It is not safe for concurrent use; a single Wire
// Reader goroutine owns one Reassembler for the lifetime of a connection.
type Reassembler struct {
	frameSize  int // bytes: N samples * 4
	packetSize int // bytes: expected payload_length per packet

	logger *slog.Logger

	synced           bool
	frameBuf         []byte
	expectedPacketID uint32

	gapCount     int
	discardCount int
}

// NewReassembler builds a Reassembler for frames of n samples, where each
// packet is expected to carry packetSize bytes of payload.
func NewReassembler(n, packetSize int, logger *slog.Logger) *Reassembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reassembler{
		frameSize:  n * 4,
		packetSize: packetSize,
		logger:     logger,
	}
}

// Stats reports cumulative resynchronization counters.
func (r *Reassembler) Stats() (gaps, discards int) {
	return r.gapCount, r.discardCount
}

// Next reads packets from br until a complete Frame is assembled, returning
// it. It returns an error only for an unrecoverable I/O failure (closed
// connection, read error, EOF) — framing violations are handled internally
// via resynchronization and never surface as errors.
func (r *Reassembler) Next(br *bufio.Reader) (Frame, error) {
	for {
		h, err := r.readHeader(br)
		if err != nil {
			return nil, err
		}

		if int(h.PayloadLength) != r.packetSize {
			r.logger.Warn("wire: unexpected payload length, resynchronizing",
				"expected", r.packetSize, "got", h.PayloadLength)
			r.desync()
			continue
		}

		payload := make([]byte, h.PayloadLength)
		if _, err := io.ReadFull(br, payload); err != nil {
			return nil, fmt.Errorf("wire: reading packet payload: %w", err)
		}

		if frame, ready := r.ingest(h, payload); ready {
			return frame, nil
		}
	}
}

// readHeader returns the next valid packet header, resynchronizing on the
// stream if not currently synced or if the synced stream's leading bytes no
// longer match the magic.
func (r *Reassembler) readHeader(br *bufio.Reader) (Header, error) {
	if !r.synced {
		return r.scanForMagic(br, nil)
	}

	hdrBytes := make([]byte, HeaderSize)
	if _, err := io.ReadFull(br, hdrBytes); err != nil {
		return Header{}, fmt.Errorf("wire: reading packet header: %w", err)
	}
	if binary.BigEndian.Uint32(hdrBytes[0:4]) != Magic {
		r.logger.Warn("wire: magic mismatch, resynchronizing")
		r.desync()
		return r.scanForMagic(br, hdrBytes)
	}
	return DecodeHeader(hdrBytes), nil
}

// scanForMagic slides a 4-byte window over the stream (seeded with any
// already-consumed bytes) one byte at a time until it equals Magic, then
// reads the remaining 8 header bytes and re-enters synced state.
func (r *Reassembler) scanForMagic(br *bufio.Reader, seed []byte) (Header, error) {
	var window [4]byte
	n := 0
	feed := func(b byte) bool {
		if n < 4 {
			window[n] = b
			n++
		} else {
			window[0], window[1], window[2] = window[1], window[2], window[3]
			window[3] = b
		}
		return n == 4 && binary.BigEndian.Uint32(window[:]) == Magic
	}

	finish := func() (Header, error) {
		rest := make([]byte, HeaderSize-4)
		if _, err := io.ReadFull(br, rest); err != nil {
			return Header{}, fmt.Errorf("wire: reading header tail after resync: %w", err)
		}
		full := append(append([]byte{}, window[:]...), rest...)
		r.synced = true
		return DecodeHeader(full), nil
	}

	for _, b := range seed {
		if feed(b) {
			return finish()
		}
	}
	for {
		b, err := br.ReadByte()
		if err != nil {
			return Header{}, fmt.Errorf("wire: scanning for sync: %w", err)
		}
		if feed(b) {
			return finish()
		}
	}
}

// desync drops any in-progress frame and forces the next readHeader call to
// resynchronize from scratch.
func (r *Reassembler) desync() {
	r.synced = false
	if len(r.frameBuf) > 0 {
		r.discardCount++
		r.logger.Warn("wire: discarding partial frame due to resync", "bytes", len(r.frameBuf))
	}
	r.frameBuf = nil
	r.expectedPacketID = 0
}

// ingest folds one packet's payload into the in-progress frame buffer,
// returning the completed Frame when the buffer reaches frameSize.
func (r *Reassembler) ingest(h Header, payload []byte) (Frame, bool) {
	if h.PacketID == 0 {
		if len(r.frameBuf) > 0 {
			r.discardCount++
			r.logger.Warn("wire: discarding non-empty buffer at frame-zero reset", "bytes", len(r.frameBuf))
		}
		r.frameBuf = make([]byte, 0, r.frameSize)
		r.expectedPacketID = 0
	} else if h.PacketID != r.expectedPacketID {
		r.gapCount++
		r.logger.Warn("wire: packet loss detected, dropping in-progress frame",
			"expected_packet_id", r.expectedPacketID, "got_packet_id", h.PacketID)
		r.frameBuf = nil
		r.expectedPacketID = 0
		return nil, false
	}

	r.frameBuf = append(r.frameBuf, payload...)
	r.expectedPacketID = h.PacketID + 1

	switch {
	case len(r.frameBuf) == r.frameSize:
		samples, err := DecodeSamples(r.frameBuf)
		r.frameBuf = nil
		r.expectedPacketID = 0
		if err != nil {
			r.logger.Error("wire: decoding frame samples", "error", err)
			return nil, false
		}
		return Frame(samples), true
	case len(r.frameBuf) > r.frameSize:
		r.logger.Warn("wire: frame buffer overran expected size, discarding", "bytes", len(r.frameBuf))
		r.frameBuf = nil
		r.expectedPacketID = 0
		return nil, false
	default:
		return nil, false
	}
}
