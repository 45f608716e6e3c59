// Package wire implements the framed spectral-data protocol used between
// the remote sensing device and the ingestion pipeline: a fixed
// magic-prefixed packet header, payload reassembly into complete frames,
// and byte-stream resynchronization after framing violations.
package wire

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Magic identifies the start of every packet header.
const Magic uint32 = 0xAABBCCDD

// HeaderSize is the fixed size in bytes of a packet header: magic,
// packet_id, payload_length, each a big-endian uint32.
const HeaderSize = 12

// Header is the fixed-size packet header preceding every payload.
type Header struct {
	Magic         uint32
	PacketID      uint32
	PayloadLength uint32
}

// PayloadByteOrder is the byte order used to decode sample floats out of a
// packet payload. The header fields are always big-endian; the payload is
// whatever order the sender dumped its native floats in. The reference
// sender (original_source/Software/mock_device.py) writes numpy float32
// bytes directly via tobytes(), which on the reference (x86) platform is
// little-endian. Deployments against a big-endian sender must flip this.
var PayloadByteOrder binary.ByteOrder = binary.LittleEndian

// DecodeHeader parses a HeaderSize-byte buffer into a Header. It does not
// validate the magic; callers check that separately as part of
// resynchronization.
func DecodeHeader(b []byte) Header {
	return Header{
		Magic:         binary.BigEndian.Uint32(b[0:4]),
		PacketID:      binary.BigEndian.Uint32(b[4:8]),
		PayloadLength: binary.BigEndian.Uint32(b[8:12]),
	}
}

// EncodeHeader writes h into a HeaderSize-byte buffer. Used by tests and by
// internal/mockdevice to construct wire fixtures.
func EncodeHeader(h Header) []byte {
	b := make([]byte, HeaderSize)
	binary.BigEndian.PutUint32(b[0:4], h.Magic)
	binary.BigEndian.PutUint32(b[4:8], h.PacketID)
	binary.BigEndian.PutUint32(b[8:12], h.PayloadLength)
	return b
}

// DecodeSamples reinterprets a raw byte buffer as a slice of N float32
// samples using PayloadByteOrder. len(b) must be a multiple of 4.
func DecodeSamples(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("wire: payload length %d is not a multiple of 4", len(b))
	}
	n := len(b) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		bits := PayloadByteOrder.Uint32(b[i*4 : i*4+4])
		out[i] = math.Float32frombits(bits)
	}
	return out, nil
}

// EncodeSamples is the inverse of DecodeSamples, used by the mock device and
// by fixture-building tests.
func EncodeSamples(samples []float32) []byte {
	b := make([]byte, len(samples)*4)
	for i, s := range samples {
		PayloadByteOrder.PutUint32(b[i*4:i*4+4], math.Float32bits(s))
	}
	return b
}
