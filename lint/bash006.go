package lint

import (
	"fmt"
	"strings"
)

func isFunctionDefinition(line string) bool {
	if strings.Contains(line, "()") && (strings.Contains(line, "{") || strings.HasSuffix(line, "()")) {
		if strings.HasPrefix(line, "if ") || strings.HasPrefix(line, "while ") || strings.HasPrefix(line, "for ") {
			return false
		}
		return true
	}
	if strings.HasPrefix(line, "function ") && strings.Contains(line, "()") {
		return true
	}
	return false
}

func extractFunctionName(line string) string {
	withoutKeyword := strings.TrimPrefix(line, "function ")
	if pos := strings.Index(withoutKeyword, "("); pos >= 0 {
		return strings.TrimSpace(withoutKeyword[:pos])
	}
	return "unknown"
}

func hasDocumentationComment(lines []string, funcLine int) bool {
	checkLine := funcLine
	for checkLine > 0 {
		checkLine--
		trimmed := strings.TrimSpace(lines[checkLine])
		if trimmed == "" {
			continue
		}
		return strings.HasPrefix(trimmed, "#") && !strings.HasPrefix(trimmed, "#!")
	}
	return false
}

// CheckBASH006 flags function definitions with no preceding
// documentation comment (§4.7).
func CheckBASH006(source string) LintResult {
	var result LintResult

	lines := strings.Split(source, "\n")
	for lineIdx, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if !isFunctionDefinition(trimmed) {
			continue
		}
		if hasDocumentationComment(lines, lineIdx) {
			continue
		}
		name := extractFunctionName(trimmed)
		result.Add(Diagnostic{
			Code:     "BASH006",
			Severity: Info,
			Message:  fmt.Sprintf("Function '%s' lacks documentation - add comment describing purpose, arguments, and return value for better maintainability", name),
			Span:     NewSpan(lineIdx+1, 1, len(line)),
		})
	}

	return result
}
