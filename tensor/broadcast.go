package tensor

import "github.com/pkg/errors"

// ErrShapeMismatch is wrapped and returned when two shapes cannot broadcast.
var ErrShapeMismatch = errors.New("tensor: shapes not broadcastable")

// Broadcast resolves the output shape of two operand shapes per the data
// model's broadcast rule: one is scalar, they are identical, they share a
// trailing suffix (a leading batch dim on one side), or equal rank with
// mismatches only where one side is the dynamic wildcard 0 (resolved to the
// positive side). The resolved shape takes the larger side per axis.
func Broadcast(a, b TypeInfo) (TypeInfo, error) {
	if a.IsScalar() {
		return b, nil
	}
	if b.IsScalar() {
		return a, nil
	}
	if a.SameShape(b) {
		return a, nil
	}

	rank := int(a.NDim)
	longer, shorter := a, b
	if int(b.NDim) > rank {
		rank = int(b.NDim)
		longer, shorter = b, a
	}
	lenDiff := rank - int(shorter.NDim)

	out := TypeInfo{NDim: uint8(rank)}
	for i := 0; i < rank; i++ {
		var ld, sd int32 = longer.Shape[i], 1
		if i >= lenDiff {
			sd = shorter.Shape[i-lenDiff]
		}
		switch {
		case i < lenDiff:
			out.Shape[i] = ld
		case ld == sd:
			out.Shape[i] = ld
		case ld == 0:
			out.Shape[i] = sd
		case sd == 0:
			out.Shape[i] = ld
		default:
			return TypeInfo{}, errors.Wrapf(ErrShapeMismatch, "axis %d: %d vs %d", i, ld, sd)
		}
	}
	stride := int32(1)
	for i := rank - 1; i >= 0; i-- {
		out.Strides[i] = stride
		if out.Shape[i] > 0 {
			stride *= out.Shape[i]
		}
	}
	return out, nil
}

// ElementStride computes the per-instruction element stride of an operand
// relative to the enclosing domain, per codegen's classification (§4.4 Pass 9):
// equal count -> 1 (full iteration), count 1 -> 0 (broadcast/scalar), an
// integer multiple up to 16x -> that ratio (packed channels), else 0.
func ElementStride(opCount, domainCount int) int32 {
	switch {
	case domainCount == 0:
		return 0
	case opCount == domainCount:
		return 1
	case opCount == 1:
		return 0
	case opCount > domainCount && opCount%domainCount == 0 && opCount/domainCount <= 16:
		return int32(opCount / domainCount)
	default:
		return 0
	}
}
