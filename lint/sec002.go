package lint

import (
	"fmt"
	"strings"
)

var dangerousCommands = []string{"curl", "wget", "ssh", "scp", "git", "rsync", "docker", "kubectl"}

func findDangerousCommand(line string) string {
	for _, cmd := range dangerousCommands {
		if strings.Contains(line, cmd) {
			return cmd
		}
	}
	return ""
}

// findUnquotedVariable scans for an unquoted, variable-shaped `$`
// outside of either quote style, returning its 1-indexed column.
func findUnquotedVariable(line string) int {
	inDouble, inSingle := false, false
	runes := []rune(line)
	col := 0
	for i, ch := range runes {
		col++
		switch {
		case ch == '"' && !inSingle:
			inDouble = !inDouble
		case ch == '\'' && !inDouble:
			inSingle = !inSingle
		case ch == '$' && !inDouble && !inSingle:
			if i+1 < len(runes) {
				next := runes[i+1]
				if next == '_' || (next >= 'a' && next <= 'z') || (next >= 'A' && next <= 'Z') || (next >= '0' && next <= '9') {
					return col
				}
			}
		}
	}
	return -1
}

// CheckSEC002 flags unquoted variables passed to commands that are
// dangerous to word-split (§4.7).
func CheckSEC002(source string) LintResult {
	var result LintResult

	for lineIdx, line := range strings.Split(source, "\n") {
		lineNum := lineIdx + 1
		if isCommentLine(line) {
			continue
		}
		cmd := findDangerousCommand(line)
		if cmd == "" {
			continue
		}
		col := findUnquotedVariable(line)
		if col < 0 {
			continue
		}
		result.Add(Diagnostic{
			Code:     "SEC002",
			Severity: Error,
			Message:  fmt.Sprintf("Unquoted variable in %s command - add quotes", cmd),
			Span:     NewSpan(lineNum, col, col+1),
		}.WithFix(`"$VAR"`))
	}

	return result
}
