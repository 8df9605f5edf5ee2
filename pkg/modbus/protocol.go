package modbus

// Protocol describes one transport binding of the Modbus protocol. It is
// parameterized over the variant's header type so that single-variant
// users pay no boxing or assertion cost.
//
// All operations are pure: they inspect the given window of buffered
// bytes and never retain it.
type Protocol[H any] interface {
	// Name returns a short label for the variant, used in logs and
	// metrics ("tcp", "rtu").
	Name() string

	// MaxADULength returns the maximum allowable ADU length for this
	// variant. The Framer validates it against its buffer capacity at
	// construction.
	MaxADULength() int

	// ADULength extracts the total ADU length from the start of data.
	// It returns ErrNotEnoughData if data is too short to determine the
	// length, and ErrBadLength if the computed length exceeds
	// MaxADULength. Variants that need the function code to determine
	// the length return ErrBadFunctionCode when it is unrecognized.
	ADULength(data []byte) (int, error)

	// Header extracts the variant's header fields from the start of
	// data, returning ErrNotEnoughData if data is too short.
	Header(data []byte) (H, error)

	// Validate confirms the integrity of a window already known to span
	// exactly one ADU: a sufficient-length check for checksum-free
	// transports, a real checksum comparison otherwise. It returns
	// ErrNotEnoughData or ErrChecksumMismatch on failure.
	Validate(data []byte) error

	// PDU validates data and returns the inner PDU: the sub-slice after
	// the header, excluding any trailing check value. Validation
	// failures propagate unchanged. The returned slice aliases data.
	PDU(data []byte) ([]byte, error)
}

// Packet is a single decoded ADU: the variant's header fields plus the
// transport-independent PDU.
//
// PDU aliases the Framer's internal buffer. It is valid only until the
// next call into the Framer that produced it; callers that need to
// retain the bytes must copy them first.
type Packet[H any] struct {
	Header H
	PDU    []byte
}
