package lint

import "strings"

func isInStringOrRegex(line string) bool {
	singleOdd := strings.Count(line, "'")%2 != 0
	doubleOdd := strings.Count(line, `"`)%2 != 0
	return singleOdd || doubleOdd
}

// CheckBASH002 warns when a script uses pipelines without a
// `set -o pipefail`/`set -euo pipefail` guard, since without it only
// the last command's exit status is checked (§4.7).
func CheckBASH002(source string) LintResult {
	var result LintResult

	hasPipefail, hasPipeline := false, false
	firstPipelineLine := 0
	lines := strings.Split(source, "\n")

	for lineIdx, line := range lines {
		trimmed := strings.TrimSpace(line)
		codeOnly := trimmed
		if pos := strings.Index(trimmed, "#"); pos >= 0 {
			codeOnly = trimmed[:pos]
		}
		codeOnly = strings.TrimSpace(codeOnly)

		if strings.Contains(codeOnly, "set") && strings.Contains(codeOnly, "pipefail") {
			hasPipefail = true
		}

		if strings.Contains(codeOnly, "|") && !strings.Contains(codeOnly, "||") && !isInStringOrRegex(codeOnly) {
			if !hasPipeline {
				firstPipelineLine = lineIdx
			}
			hasPipeline = true
		}
	}

	if hasPipeline && !hasPipefail {
		lineNum := firstPipelineLine + 1
		result.Add(Diagnostic{
			Code:     "BASH002",
			Severity: Warning,
			Message:  "Script uses pipelines without 'set -o pipefail' - pipeline failures may be hidden (only last command's exit code is checked)",
			Span:     NewSpan(lineNum, 1, len(lines[firstPipelineLine])),
		}.WithFix("set -eo pipefail"))
	}

	return result
}
