package qvm

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Bytecode image magics. The VER2 variant appends a jump-table-targets
// segment length to the header; both are little-endian throughout.
const (
	vmMagic     = 0x12721444
	vmMagicVer2 = 0x12721445

	headerSize     = 8 * 4
	headerSizeVer2 = 9 * 4
)

// imageHeader is the on-disk bytecode header.
type imageHeader struct {
	magic            uint32
	instructionCount int32
	codeOffset       int32
	codeLength       int32
	dataOffset       int32
	dataLength       int32
	litLength        int32 // appended to data, read-only strings
	bssLength        int32 // zero-filled tail
	jtrgLength       int32 // VER2 only
}

func parseHeader(image []byte) (imageHeader, error) {
	var h imageHeader
	if len(image) < headerSize {
		return h, errors.Errorf("image too small for header: %d bytes", len(image))
	}
	le := binary.LittleEndian
	h.magic = le.Uint32(image[0:])
	need := headerSize
	if h.magic == vmMagicVer2 {
		need = headerSizeVer2
	} else if h.magic != vmMagic {
		return h, errors.Errorf("bad magic 0x%08x", h.magic)
	}
	if len(image) < need {
		return h, errors.Errorf("image too small for header: %d bytes", len(image))
	}
	h.instructionCount = int32(le.Uint32(image[4:]))
	h.codeOffset = int32(le.Uint32(image[8:]))
	h.codeLength = int32(le.Uint32(image[12:]))
	h.dataOffset = int32(le.Uint32(image[16:]))
	h.dataLength = int32(le.Uint32(image[20:]))
	h.litLength = int32(le.Uint32(image[24:]))
	h.bssLength = int32(le.Uint32(image[28:]))
	if h.magic == vmMagicVer2 {
		h.jtrgLength = int32(le.Uint32(image[32:]))
	}
	return h, nil
}

func (h imageHeader) validate(imageLen int) error {
	if h.instructionCount <= 0 {
		return errors.Errorf("instruction count %d", h.instructionCount)
	}
	for _, seg := range []struct {
		name        string
		off, length int32
	}{
		{"code", h.codeOffset, h.codeLength},
		{"data", h.dataOffset, h.dataLength + h.litLength},
	} {
		if seg.off < 0 || seg.length < 0 || int(seg.off)+int(seg.length) > imageLen {
			return errors.Errorf("%s segment [%d,+%d) outside image of %d bytes",
				seg.name, seg.off, seg.length, imageLen)
		}
	}
	if h.bssLength < 0 {
		return errors.Errorf("negative bss length %d", h.bssLength)
	}
	return nil
}

// instruction is one decoded opcode with its inline operand (zero when the
// opcode takes none).
type instruction struct {
	op  byte
	arg int32
}

// decodeCode expands the variable-length code segment into a flat
// instruction array indexed by instruction number, which is what branch
// targets count.
func decodeCode(code []byte, count int32) ([]instruction, error) {
	ins := make([]instruction, count)
	pos := 0
	for i := int32(0); i < count; i++ {
		if pos >= len(code) {
			return nil, errors.Errorf("code segment truncated at instruction %d", i)
		}
		op := code[pos]
		pos++
		if int(op) >= opCount {
			return nil, errors.Errorf("bad opcode 0x%02x at instruction %d", op, i)
		}
		var arg int32
		if opHasOperand[op] {
			if pos+4 > len(code) {
				return nil, errors.Errorf("truncated operand at instruction %d", i)
			}
			arg = int32(binary.LittleEndian.Uint32(code[pos:]))
			pos += 4
		}
		ins[i] = instruction{op: op, arg: arg}
	}
	return ins, nil
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
