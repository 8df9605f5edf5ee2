// Package modbus provides the transport-independent core of a Modbus
// master/slave stack: splitting a raw byte stream into application data
// units (ADUs), exposing the protocol data unit (PDU) carried inside
// each ADU, and packing coil values into the on-wire bitfield.
//
// The Modbus protocol is transported over different media, each of which
// wraps the PDU slightly differently. A transport binding is described by
// the Protocol interface; TCP (MBAP framing) ships complete, and RTU
// ships as a contract whose length and checksum rules are supplied by the
// integrator. The Framer consumes arbitrarily fragmented input and yields
// one complete ADU at a time using a single fixed-size buffer, making it
// suitable for embedded targets where input arrives in unpredictable
// chunk sizes from a socket or serial port.
package modbus

import "errors"

// Errors reported by protocol variants and the Framer.
var (
	// ErrNotEnoughData indicates that more bytes are required before the
	// operation can complete. It is the expected steady state while a
	// message is still being assembled; buffered state is preserved.
	ErrNotEnoughData = errors.New("modbus: not enough data")

	// ErrBadLength indicates a declared or derived ADU length exceeding
	// the variant's maximum. The Framer discards all buffered state.
	ErrBadLength = errors.New("modbus: bad adu length")

	// ErrChecksumMismatch indicates a failed integrity check. The Framer
	// discards all buffered state.
	ErrChecksumMismatch = errors.New("modbus: checksum mismatch")

	// ErrBadFunctionCode indicates that an unrecognized function code was
	// encountered while determining frame boundaries. The Framer discards
	// all buffered state.
	ErrBadFunctionCode = errors.New("modbus: bad function code")

	// ErrBufferOverflow indicates that the Framer's buffer filled up
	// without the variant being able to determine a frame length. Feeding
	// more bytes cannot resolve this state, so all buffered state is
	// discarded.
	ErrBufferOverflow = errors.New("modbus: buffer overflow")
)
