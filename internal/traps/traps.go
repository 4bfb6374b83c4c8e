// Package traps implements the math and memory system calls shared by all
// three VM boundaries. Memory operations go through the masked VM
// accessors; float arguments and results cross as IEEE-754 bit patterns.
package traps

import (
	"math"

	"arena3/internal/qvm"
	"arena3/internal/wire"
)

func f(w int32) float64    { return float64(math.Float32frombits(uint32(w))) }
func bits(v float64) int32 { return int32(math.Float32bits(float32(v))) }

// Memset fills count bytes at dest with val.
func Memset(vm *qvm.VM, args []int32) int32 {
	dest, val, count := args[1], byte(args[2]), args[3]
	for i := int32(0); i < count; i++ {
		vm.WriteU8(dest+i, val)
	}
	return dest
}

// Memcpy copies count bytes from src to dest inside VM memory.
func Memcpy(vm *qvm.VM, args []int32) int32 {
	dest, src, count := args[1], args[2], args[3]
	buf := make([]byte, count)
	vm.ReadBytes(src, buf)
	vm.WriteBytes(dest, buf)
	return dest
}

// StrNCpy copies up to count bytes of a NUL-terminated string, padding
// with zeros the way the libc contract does.
func StrNCpy(vm *qvm.VM, args []int32) int32 {
	dest, src, count := args[1], args[2], args[3]
	done := false
	for i := int32(0); i < count; i++ {
		var c byte
		if !done {
			c = vm.ReadU8(src + i)
			if c == 0 {
				done = true
			}
		}
		vm.WriteU8(dest+i, c)
	}
	return dest
}

// Sin returns sin(args[1]) over float bits.
func Sin(vm *qvm.VM, args []int32) int32 { return bits(math.Sin(f(args[1]))) }

// Cos returns cos(args[1]) over float bits.
func Cos(vm *qvm.VM, args []int32) int32 { return bits(math.Cos(f(args[1]))) }

// Atan2 returns atan2(args[1], args[2]) over float bits.
func Atan2(vm *qvm.VM, args []int32) int32 { return bits(math.Atan2(f(args[1]), f(args[2]))) }

// Sqrt returns sqrt(args[1]) over float bits.
func Sqrt(vm *qvm.VM, args []int32) int32 { return bits(math.Sqrt(f(args[1]))) }

// Floor returns floor(args[1]) over float bits.
func Floor(vm *qvm.VM, args []int32) int32 { return bits(math.Floor(f(args[1]))) }

// Ceil returns ceil(args[1]) over float bits.
func Ceil(vm *qvm.VM, args []int32) int32 { return bits(math.Ceil(f(args[1]))) }

// Acos returns acos(args[1]) clamped into the valid domain.
func Acos(vm *qvm.VM, args []int32) int32 {
	v := f(args[1])
	if v < -1 {
		v = -1
	}
	if v > 1 {
		v = 1
	}
	return bits(math.Acos(v))
}

// SnapVector rounds the vec3 at args[1] to integer components in place.
func SnapVector(vm *qvm.VM, args []int32) int32 {
	var b [12]byte
	vm.ReadBytes(args[1], b[:])
	v := wire.Vec3(b[:], 0)
	wire.SnapVector(&v)
	wire.PutVec3(b[:], 0, v)
	vm.WriteBytes(args[1], b[:])
	return 0
}

// MatrixMultiply multiplies two 3x3 float matrices at args[1] and args[2]
// into args[3].
func MatrixMultiply(vm *qvm.VM, args []int32) int32 {
	var a, b [36]byte
	vm.ReadBytes(args[1], a[:])
	vm.ReadBytes(args[2], b[:])

	var out [36]byte
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float32
			for k := 0; k < 3; k++ {
				sum += wire.F32(a[:], (i*3+k)*4) * wire.F32(b[:], (k*3+j)*4)
			}
			wire.PutF32(out[:], (i*3+j)*4, sum)
		}
	}
	vm.WriteBytes(args[3], out[:])
	return 0
}

// AngleVectors derives forward/right/up basis vectors from the angles at
// args[1], writing any of the three output pointers that are non-zero.
func AngleVectors(vm *qvm.VM, args []int32) int32 {
	var ab [12]byte
	vm.ReadBytes(args[1], ab[:])
	angles := wire.Vec3(ab[:], 0)

	const degToRad = math.Pi / 180
	sp, cp := math.Sincos(float64(angles[0]) * degToRad)
	sy, cy := math.Sincos(float64(angles[1]) * degToRad)
	sr, cr := math.Sincos(float64(angles[2]) * degToRad)

	write := func(addr int32, v [3]float64) {
		if addr == 0 {
			return
		}
		var b [12]byte
		wire.PutVec3(b[:], 0, [3]float32{float32(v[0]), float32(v[1]), float32(v[2])})
		vm.WriteBytes(addr, b[:])
	}
	write(args[2], [3]float64{cp * cy, cp * sy, -sp})
	write(args[3], [3]float64{-sr*sp*cy + cr*sy, -sr*sp*sy - cr*cy, -sr * cp})
	write(args[4], [3]float64{cr*sp*cy + sr*sy, cr*sp*sy - sr*cy, cr * cp})
	return 0
}

// PerpendicularVector writes some unit vector perpendicular to the vec3 at
// args[2] into args[1].
func PerpendicularVector(vm *qvm.VM, args []int32) int32 {
	var b [12]byte
	vm.ReadBytes(args[2], b[:])
	src := wire.Vec3(b[:], 0)

	// pick the smallest component's axis and project it off
	minAxis := 0
	minVal := float32(math.Abs(float64(src[0])))
	for i := 1; i < 3; i++ {
		if a := float32(math.Abs(float64(src[i]))); a < minVal {
			minVal = a
			minAxis = i
		}
	}
	var axis [3]float32
	axis[minAxis] = 1

	d := src[0]*axis[0] + src[1]*axis[1] + src[2]*axis[2]
	var out [3]float32
	var lenSq float32
	for i := 0; i < 3; i++ {
		out[i] = axis[i] - d*src[i]
		lenSq += out[i] * out[i]
	}
	if lenSq > 0 {
		inv := float32(1 / math.Sqrt(float64(lenSq)))
		for i := 0; i < 3; i++ {
			out[i] *= inv
		}
	}
	wire.PutVec3(b[:], 0, out)
	vm.WriteBytes(args[1], b[:])
	return 0
}
