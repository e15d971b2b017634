package lint

import (
	"fmt"
	"regexp"
	"strings"
)

// varPattern finds $VAR or ${VAR} expansions, capturing one char of
// preceding context (or start-of-line) so already-quoted spans can be
// told apart from bare ones, grounded on sc2086.rs's var_pattern.
var varPattern = regexp.MustCompile(`(?:^|[^"'\\$])\$(?:\{([A-Za-z_][A-Za-z0-9_]*)\}|([A-Za-z_][A-Za-z0-9_]*))`)

// shouldSkipAssignmentLine mirrors sc2086.rs's should_skip_line: a
// plain `VAR=value` line (no `[` / `if [` present) is an assignment,
// not a command, and the RHS shell splits on `=` not on IFS.
func shouldSkipAssignmentLine(line string) bool {
	if isCommentLine(line) {
		return true
	}
	if strings.Contains(line, "=") && !strings.Contains(line, "if [") && !strings.Contains(line, "[ ") {
		eq := strings.Index(line, "=")
		sp := strings.Index(line, " ")
		if sp < 0 || eq < sp {
			return true
		}
	}
	return false
}

func isInArithmeticContext(line string, dollarPos, varEnd int) bool {
	before, after := line[:dollarPos], line[varEnd:]
	return strings.Contains(before, "$((") && strings.Contains(after, "))")
}

func isAlreadyQuoted(line string, dollarPos, varEnd int) bool {
	before, after := line[:dollarPos], line[varEnd:]
	return strings.HasSuffix(before, "\"") && strings.HasPrefix(after, "\"")
}

// CheckSC2086 detects unquoted `$VAR`/`${VAR}` expansions outside
// arithmetic and already-quoted contexts (§4.7).
func CheckSC2086(source string) LintResult {
	var result LintResult

	for lineIdx, line := range strings.Split(source, "\n") {
		lineNum := lineIdx + 1
		if shouldSkipAssignmentLine(line) {
			continue
		}
		isArithmeticLine := strings.Contains(line, "$((") || strings.Contains(line, "(( ")

		for _, m := range varPattern.FindAllStringSubmatchIndex(line, -1) {
			var varStart, varEnd int
			var varName string
			if m[2] >= 0 {
				varStart, varEnd = m[2], m[3]
				varName = line[varStart:varEnd]
			} else {
				varStart, varEnd = m[4], m[5]
				varName = line[varStart:varEnd]
			}
			isBraced := m[2] >= 0
			dollarPos := strings.LastIndex(line[:varStart], "$")
			if dollarPos < 0 {
				dollarPos = varStart
			}
			col := dollarPos + 1

			varTextEnd := varEnd
			endCol := varEnd + 1
			if isBraced {
				if brace := strings.Index(line[varEnd:], "}"); brace >= 0 {
					varTextEnd = varEnd + brace + 1
					endCol = varEnd + brace + 2
				}
			}

			if isArithmeticLine && isInArithmeticContext(line, dollarPos, varTextEnd) {
				continue
			}
			if isAlreadyQuoted(line, dollarPos, varTextEnd) {
				continue
			}

			varText := "$" + varName
			if isBraced {
				varText = "${" + varName + "}"
			}
			result.Add(Diagnostic{
				Code:     "SC2086",
				Severity: Warning,
				Message:  fmt.Sprintf("Double quote to prevent globbing and word splitting on %s", varText),
				Span:     NewSpan(lineNum, col, endCol),
			}.WithFix(`"` + varText + `"`))
		}
	}

	return result
}
