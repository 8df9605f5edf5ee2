package modbus

import "encoding/binary"

// Modbus TCP framing constants.
//
// The MBAP header is 7 bytes: 2-byte transaction ID, 2-byte protocol
// ID, 2-byte length, 1-byte unit ID, all big-endian. The length field
// counts everything after itself, which includes the unit ID but not
// the 6 bytes preceding it, so the header length and the excluded
// length differ by one.
const (
	// MBAPLength is the size of the MODBUS Application Protocol header.
	MBAPLength = 7

	// mbapExcludedLength is the number of ADU bytes not counted by the
	// MBAP length field.
	mbapExcludedLength = 6

	// TCPMaxADULength is the maximum ADU length on the TCP transport.
	TCPMaxADULength = 260

	// TCPMaxPDULength is the maximum PDU length on the TCP transport.
	TCPMaxPDULength = 253
)

// TCPHeader holds the MBAP header fields of a Modbus TCP ADU. The
// function code immediately after the header belongs to the PDU and is
// not part of it.
type TCPHeader struct {
	TransactionID uint16
	ProtocolID    uint16
	Length        uint16
	UnitID        byte
}

// TCP implements the Protocol contract for Modbus TCP (MBAP framing).
// The zero value is ready to use.
type TCP struct{}

func (TCP) Name() string { return "tcp" }

func (TCP) MaxADULength() int { return TCPMaxADULength }

// ADULength returns the total ADU length: the MBAP length field plus
// the 6 bytes it excludes.
func (TCP) ADULength(data []byte) (int, error) {
	if len(data) < mbapExcludedLength {
		return 0, ErrNotEnoughData
	}

	aduLength := int(binary.BigEndian.Uint16(data[4:6])) + mbapExcludedLength
	if aduLength > TCPMaxADULength {
		return 0, ErrBadLength
	}
	return aduLength, nil
}

// Header extracts the MBAP header fields.
func (TCP) Header(data []byte) (TCPHeader, error) {
	if len(data) < MBAPLength {
		return TCPHeader{}, ErrNotEnoughData
	}

	return TCPHeader{
		TransactionID: binary.BigEndian.Uint16(data[0:2]),
		ProtocolID:    binary.BigEndian.Uint16(data[2:4]),
		Length:        binary.BigEndian.Uint16(data[4:6]),
		UnitID:        data[6],
	}, nil
}

// Validate confirms that data spans at least one whole ADU. Modbus TCP
// has no application-layer checksum, so sufficient length is the only
// integrity condition.
func (t TCP) Validate(data []byte) error {
	aduLength, err := t.ADULength(data)
	if err != nil {
		return err
	}
	if len(data) < aduLength {
		return ErrNotEnoughData
	}
	return nil
}

// PDU validates data and returns the PDU starting right after the MBAP
// header. The unit ID is part of the header; use Header to read it.
func (t TCP) PDU(data []byte) ([]byte, error) {
	if err := t.Validate(data); err != nil {
		return nil, err
	}
	return data[MBAPLength:], nil
}
