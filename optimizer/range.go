package optimizer

import (
	"strconv"

	"github.com/paiml/bashrs-sub011/ir"
)

// AdjustRangeEnd converts an exclusive range end (0..n) to its
// inclusive equivalent (0..=n-1): a literal integer end is decremented
// directly, anything else is wrapped in Arithmetic{Sub, end, 1} so the
// emitter produces $((n - 1)), grounded verbatim on adjust_range_end.
func AdjustRangeEnd(end ir.ShellValue, inclusive bool) ir.ShellValue {
	if inclusive {
		return end
	}
	if s, ok := end.(ir.String); ok {
		if n, err := strconv.ParseInt(string(s), 10, 64); err == nil {
			return ir.String(strconv.FormatInt(n-1, 10))
		}
	}
	return ir.Arithmetic{Op: ir.Sub, Left: end, Right: ir.String("1")}
}
