package modbus

import "encoding/binary"

// Modbus RTU framing constants.
const (
	// RTUMaxADULength is the maximum ADU length on the serial transport.
	RTUMaxADULength = 256

	// rtuCheckLength is the size of the trailing error-check field.
	rtuCheckLength = 2

	// rtuMinADULength is the shortest possible RTU frame: address,
	// function code, and the trailing check value.
	rtuMinADULength = 4
)

// RTUHeader holds the framing fields of a Modbus RTU ADU: the station
// address that precedes the PDU and the error-check value that follows
// it.
type RTUHeader struct {
	Address  byte
	Checksum uint16
}

// RTULengthFunc determines the total length of the RTU frame starting
// at data. RTU carries no length field; the frame length is a function
// of the function code and, on the wire, inter-character timing, so the
// rule is supplied by the integrator. It returns ErrNotEnoughData when
// data is too short to decide and ErrBadFunctionCode when the function
// code is unrecognized.
type RTULengthFunc func(data []byte) (int, error)

// RTUChecksumFunc computes the error-check value over data (the frame
// minus its trailing check field). The algorithm is supplied by the
// integrator.
type RTUChecksumFunc func(data []byte) uint16

// RTU implements the Protocol contract for Modbus RTU serial framing.
// The frame shape is fixed: a 1-byte station address, the PDU, and a
// 2-byte little-endian trailing check value. The length rule and the
// check algorithm are pluggable; see NewRTU.
type RTU struct {
	length   RTULengthFunc
	checksum RTUChecksumFunc
}

// NewRTU returns an RTU variant using the given length and checksum
// rules. It panics if either is nil: the variant cannot frame anything
// without them, so a nil rule is a caller bug rather than a runtime
// condition.
func NewRTU(length RTULengthFunc, checksum RTUChecksumFunc) RTU {
	if length == nil {
		panic("modbus: nil RTU length func")
	}
	if checksum == nil {
		panic("modbus: nil RTU checksum func")
	}
	return RTU{length: length, checksum: checksum}
}

func (RTU) Name() string { return "rtu" }

func (RTU) MaxADULength() int { return RTUMaxADULength }

// ADULength determines the total frame length via the integrator's
// length rule, enforcing the variant maximum.
func (r RTU) ADULength(data []byte) (int, error) {
	aduLength, err := r.length(data)
	if err != nil {
		return 0, err
	}
	if aduLength < rtuMinADULength || aduLength > RTUMaxADULength {
		return 0, ErrBadLength
	}
	return aduLength, nil
}

// Header extracts the station address and the trailing check value.
// The check value sits at the end of the frame, so the whole frame must
// be present.
func (r RTU) Header(data []byte) (RTUHeader, error) {
	aduLength, err := r.ADULength(data)
	if err != nil {
		return RTUHeader{}, err
	}
	if len(data) < aduLength {
		return RTUHeader{}, ErrNotEnoughData
	}

	return RTUHeader{
		Address:  data[0],
		Checksum: binary.LittleEndian.Uint16(data[aduLength-rtuCheckLength : aduLength]),
	}, nil
}

// Validate recomputes the error check over the frame body and compares
// it against the trailing check value.
func (r RTU) Validate(data []byte) error {
	aduLength, err := r.ADULength(data)
	if err != nil {
		return err
	}
	if len(data) < aduLength {
		return ErrNotEnoughData
	}

	body := data[:aduLength-rtuCheckLength]
	want := binary.LittleEndian.Uint16(data[aduLength-rtuCheckLength : aduLength])
	if r.checksum(body) != want {
		return ErrChecksumMismatch
	}
	return nil
}

// PDU validates data and returns the PDU between the station address
// and the trailing check value.
func (r RTU) PDU(data []byte) ([]byte, error) {
	if err := r.Validate(data); err != nil {
		return nil, err
	}
	aduLength, err := r.ADULength(data)
	if err != nil {
		return nil, err
	}
	return data[1 : aduLength-rtuCheckLength], nil
}
