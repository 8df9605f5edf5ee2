package modbus

import (
	"bytes"
	"errors"
	"testing"
)

// makeTCPADU builds a complete TCP ADU around the given PDU.
func makeTCPADU(transactionID, protocolID uint16, unitID byte, pdu []byte) []byte {
	declared := 1 + len(pdu)
	adu := make([]byte, 0, MBAPLength+len(pdu))
	adu = append(adu,
		byte(transactionID>>8), byte(transactionID),
		byte(protocolID>>8), byte(protocolID),
		byte(declared>>8), byte(declared),
		unitID,
	)
	return append(adu, pdu...)
}

var (
	adu1PDU = []byte{0x03, 0xAA, 0xBB}
	adu1    = makeTCPADU(1, 0, 9, adu1PDU)

	adu2PDU = append([]byte{0x10}, bytes.Repeat([]byte{0x42}, 30)...)
	adu2    = makeTCPADU(0x0102, 0, 0x11, adu2PDU)
)

func TestTCPADULength(t *testing.T) {
	for i := 0; i <= len(adu1); i++ {
		got, err := TCP{}.ADULength(adu1[:i])

		if i < 6 {
			if !errors.Is(err, ErrNotEnoughData) {
				t.Errorf("ADULength(%d bytes) error = %v, want ErrNotEnoughData", i, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ADULength(%d bytes) error = %v", i, err)
		}
		if got != len(adu1) {
			t.Errorf("ADULength(%d bytes) = %d, want %d", i, got, len(adu1))
		}
	}
}

func TestTCPADULengthBounds(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    int
		wantErr error
	}{
		{
			name: "one below max",
			data: []byte{0, 0, 0, 0, 0, 253},
			want: 259,
		},
		{
			name: "exactly max",
			data: []byte{0, 0, 0, 0, 0, 254},
			want: 260,
		},
		{
			name:    "one above max",
			data:    []byte{0, 0, 0, 0, 0, 255},
			wantErr: ErrBadLength,
		},
		{
			name:    "high byte set",
			data:    []byte{0, 0, 0, 0, 1, 0},
			wantErr: ErrBadLength,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TCP{}.ADULength(tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ADULength() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ADULength() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTCPHeader(t *testing.T) {
	want := TCPHeader{
		TransactionID: 1,
		ProtocolID:    0,
		Length:        4,
		UnitID:        9,
	}

	for i := 0; i <= len(adu1); i++ {
		got, err := TCP{}.Header(adu1[:i])

		if i < MBAPLength {
			if !errors.Is(err, ErrNotEnoughData) {
				t.Errorf("Header(%d bytes) error = %v, want ErrNotEnoughData", i, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Header(%d bytes) error = %v", i, err)
		}
		if got != want {
			t.Errorf("Header(%d bytes) = %+v, want %+v", i, got, want)
		}
	}
}

func TestTCPValidate(t *testing.T) {
	for i := 0; i <= len(adu2); i++ {
		err := TCP{}.Validate(adu2[:i])

		if i < len(adu2) {
			if !errors.Is(err, ErrNotEnoughData) {
				t.Errorf("Validate(%d bytes) error = %v, want ErrNotEnoughData", i, err)
			}
		} else if err != nil {
			t.Errorf("Validate(%d bytes) error = %v", i, err)
		}
	}
}

func TestTCPPDU(t *testing.T) {
	for i := 0; i <= len(adu2); i++ {
		pdu, err := TCP{}.PDU(adu2[:i])

		if i < len(adu2) {
			if !errors.Is(err, ErrNotEnoughData) {
				t.Errorf("PDU(%d bytes) error = %v, want ErrNotEnoughData", i, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("PDU(%d bytes) error = %v", i, err)
		}
		if !bytes.Equal(pdu, adu2PDU) {
			t.Errorf("PDU(%d bytes) = %x, want %x", i, pdu, adu2PDU)
		}
	}
}
