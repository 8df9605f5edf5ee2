package modbus

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// The RTU length and checksum rules below are deliberately synthetic:
// a frame is address, function code 0x03, a byte count, that many data
// bytes, and a 2-byte additive checksum. They exist to exercise the
// contract, not to model a real serial binding.

func testRTULength(data []byte) (int, error) {
	if len(data) < 3 {
		return 0, ErrNotEnoughData
	}
	if data[1] != 0x03 {
		return 0, ErrBadFunctionCode
	}
	return 3 + int(data[2]) + rtuCheckLength, nil
}

func testRTUChecksum(data []byte) uint16 {
	var sum uint16
	for _, b := range data {
		sum += uint16(b)
	}
	return sum
}

// makeRTUADU builds a frame that testRTULength and testRTUChecksum
// accept.
func makeRTUADU(address byte, data []byte) []byte {
	adu := append([]byte{address, 0x03, byte(len(data))}, data...)
	check := make([]byte, rtuCheckLength)
	binary.LittleEndian.PutUint16(check, testRTUChecksum(adu))
	return append(adu, check...)
}

func newTestRTU() RTU {
	return NewRTU(testRTULength, testRTUChecksum)
}

func TestNewRTUPanicsOnNilRules(t *testing.T) {
	tests := []struct {
		name     string
		length   RTULengthFunc
		checksum RTUChecksumFunc
	}{
		{name: "nil length", length: nil, checksum: testRTUChecksum},
		{name: "nil checksum", length: testRTULength, checksum: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("NewRTU() did not panic")
				}
			}()
			NewRTU(tt.length, tt.checksum)
		})
	}
}

func TestRTUADULength(t *testing.T) {
	r := newTestRTU()
	adu := makeRTUADU(0x42, []byte{0x01, 0x02, 0x03, 0x04})

	for i := 0; i <= len(adu); i++ {
		got, err := r.ADULength(adu[:i])

		if i < 3 {
			if !errors.Is(err, ErrNotEnoughData) {
				t.Errorf("ADULength(%d bytes) error = %v, want ErrNotEnoughData", i, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ADULength(%d bytes) error = %v", i, err)
		}
		if got != len(adu) {
			t.Errorf("ADULength(%d bytes) = %d, want %d", i, got, len(adu))
		}
	}
}

func TestRTUADULengthErrors(t *testing.T) {
	r := newTestRTU()

	if _, err := r.ADULength([]byte{0x42, 0x99, 0x00}); !errors.Is(err, ErrBadFunctionCode) {
		t.Errorf("unknown function code: error = %v, want ErrBadFunctionCode", err)
	}

	// A byte count that pushes the frame past the variant maximum.
	if _, err := r.ADULength([]byte{0x42, 0x03, 0xFF}); !errors.Is(err, ErrBadLength) {
		t.Errorf("oversized frame: error = %v, want ErrBadLength", err)
	}
}

func TestRTUHeaderAndPDU(t *testing.T) {
	r := newTestRTU()
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	adu := makeRTUADU(0x42, payload)

	header, err := r.Header(adu)
	if err != nil {
		t.Fatalf("Header() error = %v", err)
	}
	if header.Address != 0x42 {
		t.Errorf("Address = %#x, want 0x42", header.Address)
	}
	if want := testRTUChecksum(adu[:len(adu)-rtuCheckLength]); header.Checksum != want {
		t.Errorf("Checksum = %#x, want %#x", header.Checksum, want)
	}

	// The check value trails the frame, so a partial frame has no header.
	if _, err := r.Header(adu[:len(adu)-1]); !errors.Is(err, ErrNotEnoughData) {
		t.Errorf("partial frame: Header() error = %v, want ErrNotEnoughData", err)
	}

	pdu, err := r.PDU(adu)
	if err != nil {
		t.Fatalf("PDU() error = %v", err)
	}
	if want := adu[1 : len(adu)-rtuCheckLength]; !bytes.Equal(pdu, want) {
		t.Errorf("PDU() = %x, want %x", pdu, want)
	}
}

func TestRTUValidate(t *testing.T) {
	r := newTestRTU()
	adu := makeRTUADU(0x01, []byte{0x11, 0x22})

	if err := r.Validate(adu); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	corrupt := append([]byte(nil), adu...)
	corrupt[4] ^= 0x01
	if err := r.Validate(corrupt); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("corrupt frame: Validate() error = %v, want ErrChecksumMismatch", err)
	}
	if _, err := r.PDU(corrupt); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("corrupt frame: PDU() error = %v, want ErrChecksumMismatch", err)
	}
}

// The framer's discard-and-resync behavior holds for the serial
// contract as well: a corrupt frame poisons the buffer, a fresh one
// decodes cleanly.
func TestFramerRTUChecksumMismatchResets(t *testing.T) {
	f := New[RTUHeader](newTestRTU())

	corrupt := makeRTUADU(0x01, []byte{0x11, 0x22})
	corrupt[3] ^= 0xFF
	if _, _, err := f.Process(corrupt); !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("error = %v, want ErrChecksumMismatch", err)
	}
	if f.Used() != 0 {
		t.Fatalf("Used() = %d after checksum mismatch, want 0", f.Used())
	}

	adu := makeRTUADU(0x07, []byte{0xCA, 0xFE})
	packet, leftover, err := f.Process(adu)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(leftover) != 0 {
		t.Errorf("leftover = %x, want empty", leftover)
	}
	if packet.Header.Address != 0x07 {
		t.Errorf("Address = %#x, want 0x07", packet.Header.Address)
	}
	if want := adu[1 : len(adu)-rtuCheckLength]; !bytes.Equal(packet.PDU, want) {
		t.Errorf("pdu = %x, want %x", packet.PDU, want)
	}
}
