package lint

import (
	"fmt"
	"regexp"
	"strings"
)

var varEqualsCommand = regexp.MustCompile(`\b\w+\s*=\s*([a-z_][a-z0-9_-]*)\s*$`)

var outputCommands = map[string]bool{
	"date": true, "pwd": true, "whoami": true, "hostname": true, "id": true, "uname": true,
}

// CheckSC2209 flags `var=command` assignments that were meant to
// capture a command's output but omit `$( ... )`, grounded on
// sc2209.rs.
func CheckSC2209(source string) LintResult {
	var result LintResult

	for lineIdx, line := range strings.Split(source, "\n") {
		lineNum := lineIdx + 1
		if isCommentLine(line) {
			continue
		}
		if strings.Contains(line, "$(") || strings.Contains(line, "`") {
			continue
		}
		if strings.Contains(line, `="`) || strings.Contains(line, "='") {
			continue
		}
		m := varEqualsCommand.FindStringSubmatchIndex(line)
		if m == nil {
			continue
		}
		cmd := line[m[2]:m[3]]
		if !outputCommands[cmd] {
			continue
		}
		result.Add(Diagnostic{
			Code:     "SC2209",
			Severity: Warning,
			Message:  fmt.Sprintf("Use var=$(%s) instead of var=%s to capture command output", cmd, cmd),
			Span:     NewSpan(lineNum, m[2]+1, len(line)+1),
		}.WithFix(fmt.Sprintf("=$(%s)", cmd)))
	}

	return result
}
