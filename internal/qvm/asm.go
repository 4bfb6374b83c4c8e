package qvm

import "encoding/binary"

// Assembler builds bytecode images in memory. Fixture modules and tooling
// use it; the engine itself only loads.
//
// Branch targets count instructions, as in the image format. Use Mark to
// capture the next instruction index and Patch to resolve forward
// branches.
type Assembler struct {
	code  []byte
	count int32
	data  []byte
	bss   int32
}

// NewAssembler returns an empty image builder.
func NewAssembler() *Assembler { return &Assembler{} }

// DataString appends a NUL-terminated string to the data segment, padded
// to word alignment, returning its VM address.
func (a *Assembler) DataString(s string) int32 {
	addr := int32(len(a.data))
	a.data = append(a.data, s...)
	a.data = append(a.data, 0)
	for len(a.data)%4 != 0 {
		a.data = append(a.data, 0)
	}
	return addr
}

// DataWord appends one word to the data segment, returning its address.
func (a *Assembler) DataWord(v int32) int32 {
	addr := int32(len(a.data))
	var w [4]byte
	binary.LittleEndian.PutUint32(w[:], uint32(v))
	a.data = append(a.data, w[:]...)
	return addr
}

// Bss reserves zero-initialized space and returns its address.
func (a *Assembler) Bss(n int32) int32 {
	addr := int32(len(a.data)) + a.bss
	a.bss += n
	return addr
}

// Mark returns the index of the next emitted instruction.
func (a *Assembler) Mark() int32 { return a.count }

func (a *Assembler) emit(op byte) {
	a.code = append(a.code, op)
	a.count++
}

func (a *Assembler) emitArg(op byte, arg int32) {
	a.code = append(a.code, op)
	var w [4]byte
	binary.LittleEndian.PutUint32(w[:], uint32(arg))
	a.code = append(a.code, w[:]...)
	a.count++
}

// Enter opens a frame of n bytes.
func (a *Assembler) Enter(n int32) { a.emitArg(opEnter, n) }

// Leave closes an n-byte frame and returns.
func (a *Assembler) Leave(n int32) { a.emitArg(opLeave, n) }

// Const pushes a literal word.
func (a *Assembler) Const(v int32) { a.emitArg(opConst, v) }

// Local pushes frame address + n.
func (a *Assembler) Local(n int32) { a.emitArg(opLocal, n) }

// Arg stores the top word at frame offset n.
func (a *Assembler) Arg(n int32) { a.emitArg(opArg, n) }

// Call invokes the address on the stack (negative = syscall).
func (a *Assembler) Call() { a.emit(opCall) }

// Syscall emits the call sequence for the numbered import.
func (a *Assembler) Syscall(sel int32) {
	a.Const(-1 - sel)
	a.Call()
}

// Push pushes a zero; Pop discards the top word.
func (a *Assembler) Push() { a.emit(opPush) }
func (a *Assembler) Pop()  { a.emit(opPop) }

// Load4 and Store4 move words through the sandboxed memory.
func (a *Assembler) Load4()  { a.emit(opLoad4) }
func (a *Assembler) Store4() { a.emit(opStore4) }

// Add and Sub pop two and push the result.
func (a *Assembler) Add() { a.emit(opAdd) }
func (a *Assembler) Sub() { a.emit(opSub) }

// BranchEQ jumps to the instruction index when the two popped words are
// equal; BranchNE when they differ. Patchable via Patch.
func (a *Assembler) BranchEQ(target int32) { a.emitArg(opEQ, target) }
func (a *Assembler) BranchNE(target int32) { a.emitArg(opNE, target) }

// Patch rewrites the operand of the instruction at mark (its index) with
// a resolved branch target. Only operand-carrying opcodes can be patched.
func (a *Assembler) Patch(mark, target int32) {
	pos := 0
	for i := int32(0); i < mark; i++ {
		op := a.code[pos]
		pos++
		if opHasOperand[op] {
			pos += 4
		}
	}
	binary.LittleEndian.PutUint32(a.code[pos+1:], uint32(target))
}

// Build serializes the image with a version-1 header.
func (a *Assembler) Build() []byte {
	img := make([]byte, headerSize)
	le := binary.LittleEndian
	le.PutUint32(img[0:], vmMagic)
	le.PutUint32(img[4:], uint32(a.count))
	le.PutUint32(img[8:], headerSize)
	le.PutUint32(img[12:], uint32(len(a.code)))
	le.PutUint32(img[16:], uint32(headerSize+len(a.code)))
	le.PutUint32(img[20:], uint32(len(a.data)))
	le.PutUint32(img[24:], 0)
	bss := a.bss
	if bss < 4096 {
		bss = 4096 // room for the program stack
	}
	le.PutUint32(img[28:], uint32(bss))
	img = append(img, a.code...)
	img = append(img, a.data...)
	return img
}
