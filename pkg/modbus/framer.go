package modbus

import (
	"errors"

	"github.com/commatea/modbus-core/pkg/logger"
	"github.com/commatea/modbus-core/pkg/metrics"
)

// framerCapacity is the Framer's fixed buffer size. It must be the
// largest MaxADULength of any variant shipped in this package; New
// validates the chosen variant against it.
const framerCapacity = TCPMaxADULength

// Framer converts a raw byte stream into a sequence of Modbus packets.
//
// The critical method is Process. Feed it newly received chunks of any
// size and it yields one broken-out ADU at a time, buffering partial
// frames across calls in a single fixed-size buffer. A Framer owns that
// buffer exclusively and must have a single writer; it performs no
// locking of its own.
type Framer[H any] struct {
	proto Protocol[H]

	// Invariant: if the buffer ever contains a complete ADU, complete
	// is true and used holds its exact length.
	buf      [framerCapacity]byte
	used     int
	complete bool

	log          *logger.Logger
	instrumented bool
}

// Option configures a Framer.
type Option[H any] func(*Framer[H])

// WithLogger makes the Framer log every destructive discard of
// buffered input. Discarded bytes are unrecoverable, so operators
// usually want a record of them.
func WithLogger[H any](log *logger.Logger) Option[H] {
	return func(f *Framer[H]) {
		f.log = log
	}
}

// WithMetrics makes the Framer count decoded frames and discards in
// the metrics package.
func WithMetrics[H any]() Option[H] {
	return func(f *Framer[H]) {
		f.instrumented = true
	}
}

// New creates a Framer for the given protocol variant. It panics if
// the variant's maximum ADU length exceeds the Framer's fixed buffer
// capacity; such a variant could never be framed and the mismatch is a
// build-time configuration bug.
func New[H any](proto Protocol[H], opts ...Option[H]) *Framer[H] {
	if proto.MaxADULength() > framerCapacity {
		panic("modbus: variant max ADU length exceeds framer capacity")
	}

	f := &Framer[H]{proto: proto}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Process runs some received data through the Framer.
//
// The data is appended to whatever partial frame is already buffered
// and checked for a complete ADU. If:
//
//   - It completes exactly one ADU: the Packet is returned with an
//     empty leftover slice.
//   - It completes one ADU with surplus input: the Packet is returned
//     together with the unconsumed suffix of data; call Process again
//     with that suffix after handling the Packet.
//   - It still does not complete an ADU: ErrNotEnoughData is returned
//     and the input stays buffered for the next call.
//   - It is invalid (length too long, bad function code, failed error
//     check): the typed error is returned and the whole buffer is
//     discarded, including the bytes just passed in. The Framer
//     resynchronizes from empty; the discarded bytes cannot be retried.
//
// At most one Packet is produced per call; multi-frame input is drained
// by repeated calls on the returned leftover. The Packet's PDU aliases
// the Framer's buffer and is invalidated by the next Process call.
func (f *Framer[H]) Process(data []byte) (Packet[H], []byte, error) {
	var zero Packet[H]

	// Each call starts fresh unless a frame is still mid-assembly.
	if f.complete {
		f.used = 0
		f.complete = false
	}

	originalUsed := f.used
	f.used += copy(f.buf[f.used:], data)

	aduLength, err := f.proto.ADULength(f.buf[:f.used])
	if err != nil {
		if errors.Is(err, ErrNotEnoughData) {
			if f.used < len(f.buf) {
				return zero, nil, ErrNotEnoughData
			}
			// The buffer is full and the variant still cannot name a
			// length. More input cannot resolve this, so give up.
			f.discard(ErrBufferOverflow)
			return zero, nil, ErrBufferOverflow
		}
		f.discard(err)
		return zero, nil, err
	}

	// Something between enough to determine the length and a full ADU.
	if f.used < aduLength {
		return zero, nil, ErrNotEnoughData
	}

	// Where the surplus input starts, which is also how much of data
	// became part of this ADU. No underflow: aduLength < originalUsed
	// would violate the completeness invariant.
	remainingIndex := aduLength - originalUsed

	f.complete = true
	f.used = aduLength

	adu := f.buf[:aduLength]
	header, err := f.proto.Header(adu)
	if err != nil {
		f.discard(err)
		return zero, nil, err
	}
	pdu, err := f.proto.PDU(adu)
	if err != nil {
		f.discard(err)
		return zero, nil, err
	}

	if f.instrumented {
		metrics.IncFrame(f.proto.Name(), aduLength)
	}

	return Packet[H]{Header: header, PDU: pdu}, data[remainingIndex:], nil
}

// Used reports how much of the buffer is currently occupied.
func (f *Framer[H]) Used() int {
	return f.used
}

// Reset discards all buffered state, resynchronizing the Framer from
// empty. Callers use it after an out-of-band break in the stream, for
// example a reconnect.
func (f *Framer[H]) Reset() {
	f.used = 0
	f.complete = false
}

// discard drops all buffered state after malformed input and records
// the event.
func (f *Framer[H]) discard(cause error) {
	dropped := f.used
	f.used = 0
	f.complete = false

	if f.log != nil {
		f.log.Warn("discarding buffered frame data",
			"protocol", f.proto.Name(),
			"reason", discardReason(cause),
			"dropped_bytes", dropped,
		)
	}
	if f.instrumented {
		metrics.IncDiscard(f.proto.Name(), discardReason(cause))
	}
}

func discardReason(err error) string {
	switch {
	case errors.Is(err, ErrBadLength):
		return metrics.ReasonBadLength
	case errors.Is(err, ErrChecksumMismatch):
		return metrics.ReasonChecksumMismatch
	case errors.Is(err, ErrBadFunctionCode):
		return metrics.ReasonBadFunctionCode
	case errors.Is(err, ErrBufferOverflow):
		return metrics.ReasonBufferOverflow
	default:
		return metrics.ReasonOther
	}
}
