package lint

import "strings"

func hasExitStatement(line string) bool {
	return strings.Contains(line, "exit") && !strings.Contains(line, "exit 0")
}

func hasErrorMessageOnLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	codeOnly := trimmed
	if pos := strings.Index(trimmed, "#"); pos >= 0 {
		codeOnly = trimmed[:pos]
	}
	return (strings.Contains(codeOnly, "echo") || strings.Contains(codeOnly, "printf")) && strings.Contains(codeOnly, ">&2")
}

// CheckBASH008 flags a non-zero `exit` with no accompanying stderr
// message, on this line or the one before it (§4.7).
func CheckBASH008(source string) LintResult {
	var result LintResult

	lines := strings.Split(source, "\n")
	for lineIdx, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		codeOnly := trimmed
		if pos := strings.Index(trimmed, "#"); pos >= 0 {
			codeOnly = trimmed[:pos]
		}
		codeOnly = strings.TrimSpace(codeOnly)

		if !hasExitStatement(codeOnly) {
			continue
		}
		if strings.Contains(codeOnly, "echo") && strings.Contains(codeOnly, ">&2") {
			continue
		}
		if lineIdx > 0 && hasErrorMessageOnLine(lines[lineIdx-1]) {
			continue
		}
		result.Add(Diagnostic{
			Code:     "BASH008",
			Severity: Info,
			Message:  `Exit without error message - add 'echo "Error: [description]" >&2' before exit for better debugging`,
			Span:     NewSpan(lineIdx+1, 1, len(line)),
		})
	}

	return result
}
