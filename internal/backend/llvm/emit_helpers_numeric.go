package llvm

import (
	"fmt"
	"math"
	"strconv"

	"fortio.org/safecast"

	"dysc/internal/ast"
	"dysc/internal/diag"
)

// safeI32 renders an integer constant, rejecting values outside i32.
func safeI32(v int64) (string, error) {
	n, err := safecast.Conv[int32](v)
	if err != nil {
		return "", diag.Newf(diag.MalformedNode, ast.KindLiteral.String(), "integer %d does not fit in i32: %v", v, err)
	}
	return strconv.FormatInt(int64(n), 10), nil
}

// safeCapacity validates a buffer capacity.
func safeCapacity(c int) (uint32, error) {
	n, err := safecast.Conv[uint32](c)
	if err != nil || n == 0 {
		return 0, diag.Newf(diag.MalformedNode, ast.KindBuffer.String(), "invalid capacity %d", c)
	}
	return n, nil
}

// floatConst renders v as an LLVM float constant. LLVM spells float
// immediates as the hex image of the equivalent double, so the value is
// rounded to single precision first.
func floatConst(v float64) string {
	return fmt.Sprintf("0x%016X", math.Float64bits(float64(float32(v))))
}

func boolValue(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
