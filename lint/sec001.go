package lint

import "strings"

func isStandaloneEval(line string, col int) bool {
	beforeOK := col == 0 || isEvalBoundaryBefore(line[col-1])
	afterIdx := col + 4
	afterOK := afterIdx >= len(line) || isEvalBoundaryAfter(line[afterIdx])
	return beforeOK && afterOK
}

func isEvalBoundaryBefore(b byte) bool {
	switch b {
	case ' ', '\t', ';', '&', '|', '(':
		return true
	}
	return false
}

func isEvalBoundaryAfter(b byte) bool {
	switch b {
	case ' ', '\t', '"', '\'', ';':
		return true
	}
	return false
}

// isSafeEvalIndirection recognizes the `$(eval "printf '%s' ...")`
// POSIX array-indirection idiom `emit`'s DynamicArrayAccess produces,
// grounded on sec001.rs's is_safe_eval_indirection.
func isSafeEvalIndirection(line string, col int) bool {
	before := ""
	if col >= 2 {
		before = line[:col]
	}
	return strings.HasSuffix(before, "$(") && strings.Contains(line[col:], "printf")
}

// CheckSEC001 flags `eval` used as a standalone word, excluding the
// safe POSIX indirection idiom (§4.7).
func CheckSEC001(source string) LintResult {
	var result LintResult

	for lineIdx, line := range strings.Split(source, "\n") {
		lineNum := lineIdx + 1
		col := strings.Index(line, "eval")
		if col < 0 {
			continue
		}
		if !isStandaloneEval(line, col) {
			continue
		}
		if isSafeEvalIndirection(line, col) {
			continue
		}
		result.Add(Diagnostic{
			Code:     "SEC001",
			Severity: Error,
			Message:  "Command injection risk via eval - manual review required",
			Span:     NewSpan(lineNum, col+1, col+5),
		})
	}

	return result
}
