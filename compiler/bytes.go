package compiler

import (
	"encoding/binary"
	"math"
)

func putF32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

func putI32(b []byte, v int32) {
	binary.LittleEndian.PutUint32(b, uint32(v))
}
