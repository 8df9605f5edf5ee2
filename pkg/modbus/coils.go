package modbus

// Coil values travel on the wire packed eight to a byte, LSB first:
// coil i lands in bit i%8 of byte i/8.
const coilsPerByte = 8

// BytesNeeded returns the number of bytes required to hold the given
// number of packed coil values.
func BytesNeeded(coils int) int {
	return (coils + coilsPerByte - 1) / coilsPerByte
}

// PackCoils writes the coil values into dst. Bytes of dst beyond the
// needed range are left unchanged; within the needed range every bit is
// rewritten, so stale trailing bits cannot leak into the output.
//
// It panics if dst is shorter than BytesNeeded(len(coils)). Size dst
// with BytesNeeded; an undersized destination is a caller bug.
func PackCoils(coils []bool, dst []byte) {
	dst = dst[:BytesNeeded(len(coils))]

	for i := range dst {
		dst[i] = 0
	}

	for i, on := range coils {
		if on {
			dst[i/coilsPerByte] |= 1 << (i % coilsPerByte)
		}
	}
}

// UnpackCoils reads len(coils) coil values out of src, the inverse of
// PackCoils. The length of coils drives how many bits are decoded.
//
// It panics if src is shorter than BytesNeeded(len(coils)).
func UnpackCoils(src []byte, coils []bool) {
	for i := range coils {
		coils[i] = src[i/coilsPerByte]&(1<<(i%coilsPerByte)) != 0
	}
}
